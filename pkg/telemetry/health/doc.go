// Package health serves liveness and readiness checks for long-running
// anonrun processes such as watch mode.
//
// # Endpoints
//
//   - /health: Liveness check, ok while the process runs
//   - /ready: Readiness check, runs every registered check
//   - /version: Build information
//
// # Usage
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("history", store.Ping)
//
//	runs := health.NewRunTracker()
//	checker.RegisterCheck("last_run", runs.Check)
//
//	mux := http.NewServeMux()
//	health.Mount(mux, checker, version.Info())
//
// A failing check turns /ready into 503 with the failing component and its
// message in the body. Checks run concurrently, each under the checker's
// timeout.
package health
