// Package hierarchy loads generalization hierarchies from delimited files and
// keeps them in a job-scoped cache keyed by attribute name.
//
// A hierarchy row lists one concrete value followed by its progressively
// more general representations:
//
//	"30","<40","*"
//	"35","<40","*"
//	"45",">=40","*"
//
// Rows keep file order. No sorting, deduplication or column-count checks are
// applied; structural consistency is the engine's responsibility.
package hierarchy

import (
	"bufio"
	"errors"
	"os"
	"sort"
	"strings"

	"anon-bd/anonrun/pkg/delimited"
	"anon-bd/anonrun/pkg/failure"
)

// maxLineSize bounds a single hierarchy line. Deep hierarchies over long
// labels (municipality names, education programmes) exceed bufio's 64KB
// default.
const maxLineSize = 1 << 20

// Hierarchy is an ordered sequence of rows; level 0 is the most specific.
type Hierarchy struct {
	rows [][]string
}

// New creates a hierarchy over rows. The rows are not copied.
func New(rows [][]string) *Hierarchy {
	return &Hierarchy{rows: rows}
}

// FromMatrix creates a hierarchy from a raw level matrix, copying it.
func FromMatrix(matrix [][]string) *Hierarchy {
	rows := make([][]string, len(matrix))
	for i, row := range matrix {
		rows[i] = append([]string(nil), row...)
	}
	return &Hierarchy{rows: rows}
}

// Rows returns the hierarchy rows. Callers must not modify them.
func (h *Hierarchy) Rows() [][]string {
	return h.rows
}

// Matrix returns a deep copy of the rows.
func (h *Hierarchy) Matrix() [][]string {
	return FromMatrix(h.rows).rows
}

// Len returns the number of rows.
func (h *Hierarchy) Len() int {
	return len(h.rows)
}

// Depth returns the widest row length, i.e. the number of levels.
func (h *Hierarchy) Depth() int {
	depth := 0
	for _, row := range h.rows {
		if len(row) > depth {
			depth = len(row)
		}
	}
	return depth
}

// Contains reports whether value appears at any level of any row.
func (h *Hierarchy) Contains(value string) bool {
	for _, row := range h.rows {
		for _, level := range row {
			if level == value {
				return true
			}
		}
	}
	return false
}

// Load reads the hierarchy file at path, splitting each line on sep.
func Load(path string, sep rune) (*Hierarchy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, failure.IO(path, "cannot open hierarchy file "+path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var rows [][]string
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		rows = append(rows, delimited.ParseLine(line, sep))
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, failure.IO(path, "hierarchy line exceeds 1MB in "+path, err)
		}
		return nil, failure.IO(path, "cannot read hierarchy file "+path, err)
	}

	return New(rows), nil
}

// Cache holds the hierarchies loaded for one job, keyed by attribute name.
// It is populated during attribute processing and read during privacy
// assembly; a job runs on one goroutine so there is no locking.
type Cache struct {
	byName map[string]*Hierarchy
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{byName: make(map[string]*Hierarchy)}
}

// Put stores h under name, replacing any previous entry.
func (c *Cache) Put(name string, h *Hierarchy) {
	c.byName[name] = h
}

// Get returns the hierarchy cached for name.
func (c *Cache) Get(name string) (*Hierarchy, bool) {
	if c == nil {
		return nil, false
	}
	h, ok := c.byName[name]
	return h, ok
}

// Len returns the number of cached hierarchies.
func (c *Cache) Len() int {
	return len(c.byName)
}

// Names returns the cached attribute names in sorted order.
func (c *Cache) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Loader reads hierarchy files for attributes and caches the results.
type Loader struct {
	Separator rune
	Cache     *Cache
}

// NewLoader creates a loader that splits on sep and stores into cache.
func NewLoader(sep rune, cache *Cache) *Loader {
	if cache == nil {
		cache = NewCache()
	}
	return &Loader{Separator: sep, Cache: cache}
}

// LoadAttribute loads the hierarchy for the named attribute and caches it.
func (l *Loader) LoadAttribute(name, path string) (*Hierarchy, error) {
	h, err := Load(path, l.Separator)
	if err != nil {
		return nil, err
	}
	l.Cache.Put(name, h)
	return h, nil
}
