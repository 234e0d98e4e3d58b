// Package fileio reads spreadsheet-like uploads into header-keyed records.
package fileio

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var ErrUnsupported = errors.New("unsupported file type")

// Record is one data row keyed by header text.
type Record map[string]string

// Table is a parsed sheet. Headers keep their column order.
type Table struct {
	Headers []string
	Records []Record
}

// Supported reports whether ReadTable can handle filename.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls", ".csv":
		return true
	}
	return false
}

// ReadTable picks a reader by extension. headerRow is 1-based.
func ReadTable(r io.Reader, filename string, headerRow int) (*Table, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		rows, err = readXLSX(r)
	case ".xls":
		rows, err = readXLS(r, headerRow)
	case ".csv":
		rows, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filename)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}
	h := pickHeader(rows, headerRow)
	return &Table{Headers: h, Records: rowsToRecords(rows, h, headerRow)}, nil
}

// pickHeader takes the header row and names blank cells "Column N".
// Duplicate names get a " (N)" suffix so no column is lost.
func pickHeader(rows [][]string, headerRow int) []string {
	idx := headerRow - 1
	if idx < 0 || idx >= len(rows) {
		idx = 0
	}
	h := rows[idx]
	out := make([]string, len(h))
	seen := make(map[string]int, len(h))
	for i, v := range h {
		v = normalizeCell(v)
		if v == "" {
			v = fmt.Sprintf("Column %d", i+1)
		}
		if n := seen[v]; n > 0 {
			seen[v] = n + 1
			v = fmt.Sprintf("%s (%d)", v, n+1)
		} else {
			seen[v] = 1
		}
		out[i] = v
	}
	return out
}

// rowsToRecords maps every row below the header, skipping blank ones.
func rowsToRecords(rows [][]string, headers []string, headerRow int) []Record {
	start := headerRow
	if start < 1 || start > len(rows) {
		start = 1
	}
	var out []Record
	for r := start; r < len(rows); r++ {
		rec := rows[r]
		m := make(Record, len(headers))
		empty := true
		for c := range headers {
			var v string
			if c < len(rec) {
				v = normalizeCell(rec[c])
			}
			if v != "" {
				empty = false
			}
			m[headers[c]] = v
		}
		if !empty {
			out = append(out, m)
		}
	}
	return out
}

// normalizeCell trims and turns non-breaking spaces into plain ones.
func normalizeCell(s string) string {
	s = strings.NewReplacer("\u00A0", " ", "\u202F", " ", "\uFEFF", "").Replace(s)
	return strings.TrimSpace(s)
}
