package ep

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func statTable(rows ...[]string) Table {
	return Table{Columns: []string{"player_name", "season", "team", "league", "gp", "tp"}, Rows: rows}
}

func TestMergeStats_LeftJoin(t *testing.T) {
	reg := statTable(
		[]string{"Jane", "2022-2023", "BOS", "NHL", "82", "50"},
		[]string{"Jane", "2023-2024", "BOS", "NHL", "80", "44"},
	)
	post := statTable(
		[]string{"Jane", "2022-2023", "BOS", "NHL", "7", "3"},
		[]string{"Jane", "2018-2019", "PRO", "AHL", "4", "1"},
	)

	got := MergeStats(nil, reg, post)
	want := Table{
		Columns: []string{"player_name", "season", "team", "league", "gp_regular", "tp_regular", "gp_post", "tp_post"},
		Rows: [][]string{
			{"Jane", "2022-2023", "BOS", "NHL", "82", "50", "7", "3"},
			{"Jane", "2023-2024", "BOS", "NHL", "80", "44", "", ""},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("MergeStats (-want +got):\n%s", diff)
	}
}

func TestMergeStats_MissingColumnsConcatenates(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	reg := statTable([]string{"Jane", "2022-2023", "BOS", "NHL", "82", "50"})
	post := Table{Columns: []string{"player_name", "season", "gp"}, Rows: [][]string{{"Jane", "2022-2023", "7"}}}

	got := MergeStats(log, reg, post)
	require.Len(t, got.Rows, 2)
	require.Equal(t, []string{"player_name", "season", "team", "league", "gp", "tp"}, got.Columns)
	require.Equal(t, "7", got.Get(1, "gp"))
	require.Contains(t, buf.String(), "missing columns")
}

func TestMergeStats_DuplicateKeysFanOut(t *testing.T) {
	reg := statTable([]string{"Jane", "2022-2023", "BOS", "NHL", "82", "50"})
	post := statTable(
		[]string{"Jane", "2022-2023", "BOS", "NHL", "3", "1"},
		[]string{"Jane", "2022-2023", "BOS", "NHL", "4", "2"},
	)
	got := MergeStats(nil, reg, post)
	require.Len(t, got.Rows, 2)
	require.Equal(t, "3", got.Get(0, "gp_post"))
	require.Equal(t, "4", got.Get(1, "gp_post"))
}
