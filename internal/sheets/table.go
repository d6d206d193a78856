package sheets

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	pstrings "ehopa/pkg/platform/strings"
)

// Table is a parsed delimited feed: a header row and zero or more data rows.
// Rows may be shorter or longer than the header.
type Table struct {
	Header []string
	Rows   [][]string
}

// ParseTable tokenizes comma separated text with a header row. Quoted cells
// may contain commas, doubled quotes and line breaks. Every cell is trimmed
// and unquoted, and rows whose cells are all blank are skipped.
//
// Malformed quoting is tolerated: the tokenizer keeps what it has read so far
// rather than failing the whole feed.
func ParseTable(text string) Table {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var t Table
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// csv.Reader returns the partial record alongside parse errors.
			if len(rec) == 0 {
				break
			}
		}
		row := make([]string, len(rec))
		blank := true
		for i, cell := range rec {
			row[i] = pstrings.TrimQuotes(cell)
			if row[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		if t.Header == nil {
			t.Header = row
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Column returns the index of the first header satisfying match, or -1.
func (t Table) Column(match func(header string) bool) int {
	for i, h := range t.Header {
		if match(h) {
			return i
		}
	}
	return -1
}

// ColumnNamed returns the index of the first header equal to one of names,
// ignoring case and diacritics, or -1.
func (t Table) ColumnNamed(names ...string) int {
	return t.Column(func(h string) bool {
		for _, n := range names {
			if pstrings.EqualFold(h, n) {
				return true
			}
		}
		return false
	})
}

// ColumnContaining returns the index of the first header whose folded form
// contains one of the folded fragments, or -1.
func (t Table) ColumnContaining(fragments ...string) int {
	return t.Column(func(h string) bool {
		folded := pstrings.Fold(h)
		for _, f := range fragments {
			if strings.Contains(folded, pstrings.Fold(f)) {
				return true
			}
		}
		return false
	})
}

// Cell returns row[idx], or "" when idx is out of range.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
