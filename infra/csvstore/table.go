package csvstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrMissingColumn is returned when a required column is absent.
var ErrMissingColumn = errors.New("missing column")

// table is a CSV file addressed by lower-cased column names.
type table struct {
	cols map[string]int
	rows [][]string
}

func readTable(path string, required ...string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseTable(f, filepath.Base(path), required...)
}

func parseTable(r io.Reader, name string, required ...string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	t := &table{cols: map[string]int{}}
	if len(recs) == 0 {
		if len(required) > 0 {
			return nil, fmt.Errorf("%s: %w %s", name, ErrMissingColumn, required[0])
		}
		return t, nil
	}
	for i, h := range recs[0] {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := t.cols[key]; !dup {
			t.cols[key] = i
		}
	}
	for _, c := range required {
		if _, ok := t.cols[c]; !ok {
			return nil, fmt.Errorf("%s: %w %s", name, ErrMissingColumn, c)
		}
	}
	t.rows = recs[1:]
	return t, nil
}

func (t *table) has(col string) bool {
	_, ok := t.cols[col]
	return ok
}

// get returns the trimmed cell of row, empty when the column or cell is
// missing.
func (t *table) get(row []string, col string) string {
	i, ok := t.cols[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// writeFile replaces path atomically with header and rows.
func writeFile(path string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
