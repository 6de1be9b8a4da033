package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Table is one parsed table: its header and its rows keyed by column name.
// Rows are in source order.
type Table struct {
	Name   string
	Header []string
	Rows   []map[string]string
}

// HasColumn reports whether the header contains name.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Header {
		if h == name {
			return true
		}
	}
	return false
}

// require returns a CATALOG_MALFORMED error naming the first missing column.
func (t *Table) require(columns []string) error {
	for _, col := range columns {
		if !t.HasColumn(col) {
			e := Malformed(t.Name, "required column missing from header")
			e.Column = col
			return e
		}
	}
	return nil
}

// TabularStore provides read access to named tables.
type TabularStore interface {
	// Table reads the named table. Implementations must return a
	// CATALOG_UNAVAILABLE error when the table cannot be read.
	Table(ctx context.Context, name string) (*Table, error)
}

// CSVStore reads tables from <Dir>/<name>.csv.
type CSVStore struct {
	Dir string
}

// NewCSVStore returns a store rooted at dir.
func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{Dir: dir}
}

// Path returns the file path backing the named table.
func (s *CSVStore) Path(name string) string {
	return filepath.Join(s.Dir, name+".csv")
}

// Table reads and parses the named CSV table.
func (s *CSVStore) Table(ctx context.Context, name string) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable(name, err)
	}

	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil, Unavailable(name, err)
	}

	table, err := ParseCSV(name, data)
	if err != nil {
		return nil, err
	}
	return table, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV parses data as a headed CSV table.
// Blank lines are skipped; short rows are padded with empty strings.
func ParseCSV(name string, data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, Malformed(name, "table is empty (no header row)")
	}
	if err != nil {
		e := Malformed(name, "cannot parse header")
		e.Err = err
		return nil, e
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	table := &Table{Name: name, Header: header, Rows: []map[string]string{}}
	for rowNum := 1; ; rowNum++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			e := Malformed(name, "cannot parse row")
			e.Row = rowNum
			e.Err = err
			return nil, e
		}
		if isBlank(record) {
			continue
		}
		if len(record) > len(header) {
			e := Malformed(name, fmt.Sprintf("row has %d fields, header has %d", len(record), len(header)))
			e.Row = rowNum
			return nil, e
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
