package scraper

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var ErrMissingColumn = errors.New("missing column")

// Table is a parsed HTML table: an ordered list of named columns and rows
// holding exactly one cell per column.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Index returns the position of the first column named name, or -1.
func (t Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the cell of row under column name, or "" if absent.
func (t Table) Value(row []string, name string) string {
	i := t.Index(name)
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Project returns a table holding only the named columns, in that order.
func (t Table) Project(names []string) (Table, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		idx[i] = t.Index(name)
		if idx[i] < 0 {
			return Table{}, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	out := Table{Columns: append([]string(nil), names...)}
	for _, row := range t.Rows {
		projected := make([]string, len(idx))
		for i, j := range idx {
			if j < len(row) {
				projected[i] = row[j]
			}
		}
		out.Rows = append(out.Rows, projected)
	}
	return out, nil
}

// ParseTables extracts every <table> in the document, nested ones included.
func ParseTables(html string) ([]Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	var tables []Table
	doc.Find("table").Each(func(_ int, sel *goquery.Selection) {
		tables = append(tables, parseTable(sel))
	})
	return tables, nil
}

func parseTable(table *goquery.Selection) Table {
	var t Table

	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		// rows of nested tables belong to those tables
		if !tr.Closest("table").IsSelection(table) {
			return
		}
		cells := tr.ChildrenFiltered("th, td")
		if cells.Length() == 0 {
			return
		}
		if t.Columns == nil && len(t.Rows) == 0 &&
			(tr.ChildrenFiltered("td").Length() == 0 || tr.Parent().Is("thead")) {
			t.Columns = cellTexts(cells)
			return
		}
		t.Rows = append(t.Rows, cellTexts(cells))
	})

	width := len(t.Columns)
	if width == 0 {
		return t
	}
	for i, row := range t.Rows {
		switch {
		case len(row) < width:
			t.Rows[i] = append(row, make([]string, width-len(row))...)
		case len(row) > width:
			t.Rows[i] = row[:width]
		}
	}
	return t
}

// cellTexts returns whitespace-collapsed cell texts with colspan expanded.
func cellTexts(cells *goquery.Selection) []string {
	var out []string
	cells.Each(func(_ int, cell *goquery.Selection) {
		text := strings.Join(strings.Fields(cell.Text()), " ")
		span := 1
		if v, ok := cell.Attr("colspan"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 1 {
				span = n
			}
		}
		for i := 0; i < span; i++ {
			out = append(out, text)
		}
	})
	return out
}
