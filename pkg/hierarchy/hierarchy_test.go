package hierarchy

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"anon-bd/anonrun/pkg/failure"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "age.csv", "\"30\",\"<40\"\n\"35\",\"<40\"\n\"45\",\">=40\"\n")

	h, err := Load(path, ',')
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	want := [][]string{{"30", "<40"}, {"35", "<40"}, {"45", ">=40"}}
	if !reflect.DeepEqual(h.Rows(), want) {
		t.Errorf("Rows() = %q, want %q", h.Rows(), want)
	}
	if h.Len() != 3 || h.Depth() != 2 {
		t.Errorf("Len/Depth = %d/%d, want 3/2", h.Len(), h.Depth())
	}
	if !h.Contains("<40") || h.Contains("40") {
		t.Error("Contains() mismatch")
	}
}

func TestLoad_PreservesOrderAndRaggedRows(t *testing.T) {
	path := writeFile(t, "cp.csv", "28002;Madrid;*\r\n28001;Madrid;*\r\n28001;Madrid;*\r\n41001;*\r\n")

	h, err := Load(path, ';')
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	want := [][]string{
		{"28002", "Madrid", "*"},
		{"28001", "Madrid", "*"},
		{"28001", "Madrid", "*"},
		{"41001", "*"},
	}
	if !reflect.DeepEqual(h.Rows(), want) {
		t.Errorf("Rows() = %q, want %q", h.Rows(), want)
	}
	if h.Depth() != 3 {
		t.Errorf("Depth() = %d, want 3", h.Depth())
	}
}

func TestLoad_QuotedSeparator(t *testing.T) {
	path := writeFile(t, "edu.csv", "\"Grado, Ingeniería\",\"Universitaria\",*\n")

	h, err := Load(path, ',')
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got := h.Rows()[0][0]; got != "Grado, Ingeniería" {
		t.Errorf("first level = %q", got)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeFile(t, "empty.csv", "")

	h, err := Load(path, ',')
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")

	_, err := Load(path, ',')
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !failure.Is(err, failure.KindIO) {
		t.Errorf("expected io error, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error should name the path: %v", err)
	}
}

func TestLoader_CachesByAttribute(t *testing.T) {
	path := writeFile(t, "age.csv", "30,<40\n")
	cache := NewCache()
	loader := NewLoader(',', cache)

	h, err := loader.LoadAttribute("age", path)
	if err != nil {
		t.Fatalf("LoadAttribute() failed: %v", err)
	}

	cached, ok := cache.Get("age")
	if !ok || cached != h {
		t.Fatal("expected hierarchy to be cached under attribute name")
	}
	if _, ok := cache.Get("zip"); ok {
		t.Error("unexpected cache hit for zip")
	}
	if !reflect.DeepEqual(cache.Names(), []string{"age"}) {
		t.Errorf("Names() = %v", cache.Names())
	}
}

func TestLoader_FailureDoesNotCache(t *testing.T) {
	cache := NewCache()
	loader := NewLoader(',', cache)

	if _, err := loader.LoadAttribute("age", filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error")
	}
	if cache.Len() != 0 {
		t.Errorf("cache should stay empty, has %d entries", cache.Len())
	}
}

func TestFromMatrix_Copies(t *testing.T) {
	matrix := [][]string{{"a", "*"}}
	h := FromMatrix(matrix)
	matrix[0][0] = "changed"

	if h.Rows()[0][0] != "a" {
		t.Error("FromMatrix should copy its input")
	}

	m := h.Matrix()
	m[0][0] = "changed"
	if h.Rows()[0][0] != "a" {
		t.Error("Matrix should return a copy")
	}
}

func TestCache_NilGet(t *testing.T) {
	var c *Cache
	if _, ok := c.Get("x"); ok {
		t.Error("nil cache should miss")
	}
}
