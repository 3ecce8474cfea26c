package commands

import (
	"encoding/json"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tyler180/hockey-stats-backends/internal/ep"
)

var stdout io.Writer = os.Stdout

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(stdout)
	return t
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRows renders header/rows as a table, or v as JSON when --json is set.
func printRows(v any, header []string, rows [][]string) error {
	if jsonOut {
		return printJSON(v)
	}
	t := newTable()
	h := make(table.Row, len(header))
	for i, c := range header {
		h[i] = c
	}
	t.AppendHeader(h)
	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, c := range r {
			row[i] = c
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{len(rows), "rows"})
	t.Render()
	return nil
}

func printTable(t ep.Table) error {
	return printRows(t.Records(), t.Columns, t.Rows)
}
