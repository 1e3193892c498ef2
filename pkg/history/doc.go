// Package history keeps a durable record of every anonymization job.
//
// Each run, successful or not, is stored as a Record in a SQLite database.
// Two database/sql drivers are supported: "sqlite3" (github.com/mattn/go-sqlite3,
// cgo) and "sqlite" (modernc.org/sqlite, pure Go, for cgo-free builds).
//
// Old records are removed by a Pruner, either on demand ("anonrun history
// prune") or on a cron schedule while anonrun runs in watch mode.
package history
