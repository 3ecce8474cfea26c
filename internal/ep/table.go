package ep

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Table is a rectangular record set: every row has len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ExtractTable reads a <table>. The first row is the header (th cells, or td when the
// row has no th). Later rows are padded or truncated to the header width.
func ExtractTable(table *goquery.Selection) Table {
	t, _ := extractRows(table)
	return t
}

// extractRows is ExtractTable that also hands back each data row's <tr>, index aligned
// with Rows, so callers can read markup local to a row.
func extractRows(table *goquery.Selection) (Table, []*goquery.Selection) {
	var t Table
	trs := table.Find("tr")
	if trs.Length() == 0 {
		return t, nil
	}

	first := trs.First()
	heads := first.Find("th")
	if heads.Length() == 0 {
		heads = first.Find("td")
	}
	heads.Each(func(_ int, c *goquery.Selection) {
		t.Columns = append(t.Columns, strings.TrimSpace(c.Text()))
	})

	var sels []*goquery.Selection
	trs.Slice(1, trs.Length()).Each(func(_ int, tr *goquery.Selection) {
		row := make([]string, len(t.Columns))
		tr.Find("td").Each(func(i int, td *goquery.Selection) {
			if i < len(row) {
				row[i] = strings.TrimSpace(td.Text())
			}
		})
		t.Rows = append(t.Rows, row)
		sels = append(sels, tr)
	})
	return t, sels
}

// Col returns the index of the named column, or -1.
func (t Table) Col(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (t Table) Len() int { return len(t.Rows) }

// Get returns the cell under column name in row i, "" when the column is absent.
func (t Table) Get(i int, name string) string {
	j := t.Col(name)
	if j < 0 || i < 0 || i >= len(t.Rows) {
		return ""
	}
	return t.Rows[i][j]
}

// Record returns row i keyed by column name.
func (t Table) Record(i int) map[string]string {
	m := make(map[string]string, len(t.Columns))
	for j, c := range t.Columns {
		m[c] = t.Rows[i][j]
	}
	return m
}

func (t Table) Records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for i := range t.Rows {
		out = append(out, t.Record(i))
	}
	return out
}

// Lowercase returns a copy with lowercased column names.
func (t Table) Lowercase() Table {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = strings.ToLower(c)
	}
	return Table{Columns: cols, Rows: t.Rows}
}

// Rename maps column names through m; names not in m are kept.
func (t Table) Rename(m map[string]string) Table {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		if to, ok := m[c]; ok {
			cols[i] = to
		} else {
			cols[i] = c
		}
	}
	return Table{Columns: cols, Rows: t.Rows}
}

// Drop removes the named columns; unknown names are ignored.
func (t Table) Drop(names ...string) Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var keep []int
	var cols []string
	for i, c := range t.Columns {
		if !drop[c] {
			keep = append(keep, i)
			cols = append(cols, c)
		}
	}
	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		nr := make([]string, len(keep))
		for j, i := range keep {
			nr[j] = row[i]
		}
		rows[r] = nr
	}
	return Table{Columns: cols, Rows: rows}
}

// With sets column name to v on every row, appending the column when missing.
func (t Table) With(name, v string) Table {
	j := t.Col(name)
	cols := append([]string(nil), t.Columns...)
	if j < 0 {
		cols = append(cols, name)
		j = len(cols) - 1
	}
	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		nr := make([]string, len(cols))
		copy(nr, row)
		nr[j] = v
		rows[r] = nr
	}
	return Table{Columns: cols, Rows: rows}
}

// MoveFirst moves the named column to position 0. No-op when absent.
func (t Table) MoveFirst(name string) Table {
	j := t.Col(name)
	if j <= 0 {
		return t
	}
	order := []int{j}
	for i := range t.Columns {
		if i != j {
			order = append(order, i)
		}
	}
	return t.reorder(order)
}

func (t Table) reorder(order []int) Table {
	cols := make([]string, len(order))
	for k, i := range order {
		cols[k] = t.Columns[i]
	}
	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		nr := make([]string, len(order))
		for k, i := range order {
			nr[k] = row[i]
		}
		rows[r] = nr
	}
	return Table{Columns: cols, Rows: rows}
}

// Concat stacks tables. The result carries the union of columns in first-seen order;
// cells a table lacks are empty.
func Concat(tables ...Table) Table {
	var out Table
	idx := map[string]int{}
	for _, t := range tables {
		for _, c := range t.Columns {
			if _, ok := idx[c]; !ok {
				idx[c] = len(out.Columns)
				out.Columns = append(out.Columns, c)
			}
		}
	}
	for _, t := range tables {
		for _, row := range t.Rows {
			nr := make([]string, len(out.Columns))
			for j, c := range t.Columns {
				nr[idx[c]] = row[j]
			}
			out.Rows = append(out.Rows, nr)
		}
	}
	return out
}

// Filter keeps rows for which keep returns true.
func (t Table) Filter(keep func(row int) bool) Table {
	out := Table{Columns: t.Columns}
	for i, row := range t.Rows {
		if keep(i) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
