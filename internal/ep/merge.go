package ep

import (
	"log/slog"
	"strings"
)

var mergeKeys = []string{"player_name", "season", "team", "league"}

const (
	suffixRegular = "_regular"
	suffixPost    = "_post"
)

// MergeStats left-joins postseason rows onto regular-season rows by player, season,
// team and league. Shared non-key columns get _regular/_post suffixes. Postseason rows
// with no regular-season partner are dropped. When either side lacks a key column the
// tables are concatenated instead and a warning is logged.
func MergeStats(log *slog.Logger, regular, post Table) Table {
	if log == nil {
		log = slog.Default()
	}
	if !hasColumns(regular, mergeKeys) || !hasColumns(post, mergeKeys) {
		log.Warn("stat merge failed due to missing columns, concatenating",
			"regular_columns", strings.Join(regular.Columns, ","),
			"post_columns", strings.Join(post.Columns, ","))
		return Concat(regular, post)
	}

	isKey := map[string]bool{}
	for _, k := range mergeKeys {
		isKey[k] = true
	}
	inReg := map[string]bool{}
	for _, c := range regular.Columns {
		inReg[c] = true
	}
	inPost := map[string]bool{}
	for _, c := range post.Columns {
		inPost[c] = true
	}

	var out Table
	for _, c := range regular.Columns {
		if !isKey[c] && inPost[c] {
			c += suffixRegular
		}
		out.Columns = append(out.Columns, c)
	}
	var postCols []int
	for j, c := range post.Columns {
		if isKey[c] {
			continue
		}
		if inReg[c] {
			c += suffixPost
		}
		out.Columns = append(out.Columns, c)
		postCols = append(postCols, j)
	}

	index := map[string][]int{}
	for i := range post.Rows {
		k := joinKey(post, i)
		index[k] = append(index[k], i)
	}

	for i, row := range regular.Rows {
		matches := index[joinKey(regular, i)]
		if len(matches) == 0 {
			out.Rows = append(out.Rows, append(append([]string(nil), row...), make([]string, len(postCols))...))
			continue
		}
		for _, m := range matches {
			nr := append([]string(nil), row...)
			for _, j := range postCols {
				nr = append(nr, post.Rows[m][j])
			}
			out.Rows = append(out.Rows, nr)
		}
	}
	return out
}

func hasColumns(t Table, cols []string) bool {
	for _, c := range cols {
		if t.Col(c) < 0 {
			return false
		}
	}
	return true
}

func joinKey(t Table, i int) string {
	parts := make([]string, len(mergeKeys))
	for k, c := range mergeKeys {
		parts[k] = t.Get(i, c)
	}
	return strings.Join(parts, "\x1f")
}
