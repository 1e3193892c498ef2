package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"anon-bd/anonrun/pkg/failure"
)

// Table is a delimited dataset: a header and its rows.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]string, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			values[i] = row[idx]
		}
	}
	return values, true
}

// LookupEncoding resolves a WHATWG encoding label such as "utf-8" or
// "latin1".
func LookupEncoding(name string) (encoding.Encoding, error) {
	label := strings.ToLower(strings.TrimSpace(name))
	if label == "" || label == "utf-8" || label == "utf8" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
	}
	return enc, nil
}

// Load reads the delimited file at path. The first record is the header;
// every record must have as many fields as the header.
func Load(path string, sep rune, encodingName string) (*Table, error) {
	enc, err := LookupEncoding(encodingName)
	if err != nil {
		return nil, failure.Configuration("input.encoding", "%v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, failure.IO(path, "cannot open input "+path, err)
	}
	defer f.Close()

	decoded := transform.NewReader(f, unicode.BOMOverride(enc.NewDecoder()))
	return read(decoded, path, sep)
}

func read(r io.Reader, path string, sep rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, failure.IO(path, "input "+path+" has no header row", err)
	}
	if err != nil {
		return nil, failure.IO(path, "cannot parse input "+path, err)
	}

	t := &Table{Columns: header}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, failure.IO(path, "cannot parse input "+path, err)
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

// OutputMode is the permission of a newly written output file.
const OutputMode fs.FileMode = 0o644

// WriteFile writes the table to path with the given separator and encoding.
// The data is written to a temporary file in the same directory and moved
// into place, so path never holds a partial table. An existing file keeps
// its permissions. Without overwrite, the move fails if path exists by
// then, even if it appeared after the job started.
func (t *Table) WriteFile(path string, sep rune, encodingName string, overwrite bool) error {
	enc, err := LookupEncoding(encodingName)
	if err != nil {
		return failure.Configuration("input.encoding", "%v", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return failure.IO(path, "cannot create output in "+dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	mode := OutputMode
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return failure.IO(path, "cannot set output permissions on "+path, err)
	}

	if err := t.write(enc.NewEncoder().Writer(tmp), sep); err != nil {
		tmp.Close()
		return failure.IO(path, "cannot write output "+path, err)
	}
	if err := tmp.Close(); err != nil {
		return failure.IO(path, "cannot write output "+path, err)
	}

	if !overwrite {
		// Link fails on an existing target where rename would replace it.
		if err := os.Link(tmpName, path); err != nil {
			if errors.Is(err, fs.ErrExist) {
				return failure.Configuration("output.overwrite",
					"output file %s already exists and output.overwrite is false", path)
			}
			return failure.IO(path, "cannot move output into place at "+path, err)
		}
		return nil
	}
	if err := os.Rename(tmpName, path); err != nil {
		return failure.IO(path, "cannot move output into place at "+path, err)
	}
	return nil
}

func (t *Table) write(w io.Writer, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}
