package ep

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tyler180/hockey-stats-backends/internal/browser"
)

var statRename = map[string]string{
	"s":      "season",
	"tm":     "team",
	"team":   "team",
	"lg.":    "league",
	"league": "league",
	"year":   "season",
}

// StandardizeColumns lowercases column names and folds the site's header spellings
// onto season/team/league.
func StandardizeColumns(t Table) Table {
	return t.Lowercase().Rename(statRename)
}

// PlayerStats reads one category's stat table on a caller-owned session.
func (c *Client) PlayerStats(ctx context.Context, b browser.Browser, meta PlayerMetadata, cat StatCategory) (Table, error) {
	cat, err := ParseStatCategory(string(cat))
	if err != nil {
		return Table{}, err
	}
	url := c.absURL(meta.ProfileLink)
	c.log().Info("collecting stats", "player", meta.PlayerName, "category", cat, "url", url)

	if err := b.Navigate(ctx, url); err != nil {
		return Table{}, fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := c.NavDelay.Wait(ctx); err != nil {
		return Table{}, err
	}
	return c.statsForCategory(ctx, b, meta, cat)
}

// statsForCategory assumes the profile page is already loaded.
func (c *Client) statsForCategory(ctx context.Context, b browser.Browser, meta PlayerMetadata, cat StatCategory) (Table, error) {
	sel := &seasonSelector{
		b:           b,
		label:       string(cat),
		waitTimeout: c.WaitTimeout,
		renderDelay: c.RenderDelay,
		log:         c.log().With("player", meta.PlayerName),
	}
	html, err := sel.run(ctx)
	if err != nil {
		return Table{}, err
	}
	t, err := ParseStatsTable(html, meta.PlayerName, cat)
	if err != nil {
		return Table{}, fmt.Errorf("%s %s: %w", meta.PlayerName, cat, err)
	}
	return t, nil
}

// ParseStatsTable finds the rendered stat table and tags it with the player and category.
func ParseStatsTable(html, playerName string, cat StatCategory) (Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Table{}, err
	}
	sel := doc.Find(statsTableSel).First()
	if sel.Length() == 0 {
		return Table{}, ErrTableNotFound
	}
	t := ExtractTable(sel).
		With("category", string(cat)).MoveFirst("category").
		With("player_name", playerName).MoveFirst("player_name")
	return StandardizeColumns(t), nil
}

// FetchPlayerStats owns a browser session for one player. Any failure is logged and
// reported as nil.
func (c *Client) FetchPlayerStats(ctx context.Context, meta PlayerMetadata, cat StatCategory) *Table {
	cat, err := ParseStatCategory(string(cat))
	if err != nil {
		c.log().Error("stats", "player", meta.PlayerName, "err", err)
		return nil
	}
	b, err := c.Launcher.Launch(ctx)
	if err != nil {
		c.log().Error("launch browser", "player", meta.PlayerName, "err", err)
		return nil
	}
	defer closeBrowser(c, b)

	t, err := c.PlayerStats(ctx, b, meta, cat)
	if err != nil {
		c.log().Warn("no stats found", "player", meta.PlayerName, "category", cat, "err", err)
		return nil
	}
	return &t
}

// PlayerStatsSplit collects regular season and postseason on one page load and merges
// them by season/team/league.
func (c *Client) PlayerStatsSplit(ctx context.Context, b browser.Browser, meta PlayerMetadata) (Table, error) {
	reg, err := c.PlayerStats(ctx, b, meta, RegularSeason)
	if err != nil {
		return Table{}, err
	}
	if err := c.NavDelay.Wait(ctx); err != nil {
		return Table{}, err
	}
	post, err := c.statsForCategory(ctx, b, meta, Postseason)
	if err != nil {
		c.log().Warn("postseason stats unavailable", "player", meta.PlayerName, "err", err)
		return reg, nil
	}
	return MergeStats(c.log(), reg, post), nil
}

// PlayersStats runs a batch on one session. Failed players are logged and skipped.
func (c *Client) PlayersStats(ctx context.Context, metas []PlayerMetadata, cat StatCategory) (Table, error) {
	cat, err := ParseStatCategory(string(cat))
	if err != nil {
		return Table{}, err
	}
	if len(metas) == 0 {
		return Table{}, nil
	}
	b, err := c.Launcher.Launch(ctx)
	if err != nil {
		return Table{}, fmt.Errorf("launch browser: %w", err)
	}
	defer closeBrowser(c, b)

	var parts []Table
	for i, m := range metas {
		if err := ctx.Err(); err != nil {
			return Concat(parts...), err
		}
		c.log().Info("player stats", "n", i+1, "of", len(metas), "player", m.PlayerName)
		t, err := c.PlayerStats(ctx, b, m, cat)
		if err != nil {
			c.log().Warn("player stats skipped", "player", m.PlayerName, "err", err)
			continue
		}
		parts = append(parts, t)
	}
	return Concat(parts...), nil
}

func closeBrowser(c *Client, b browser.Browser) {
	if err := b.Close(); err != nil {
		c.log().Warn("close browser", "err", err)
	}
}

type statHeaderMap struct {
	idxName, idxCat, idxSeason, idxTeam, idxLeague int
	idxGP, idxG, idxA, idxTP, idxPIM, idxPM        int
}

// mapStatHeader locates the columns of one stat group. Join keys are never suffixed;
// with a non-empty suffix only the columns carrying it (gp_post, category_post) count.
func mapStatHeader(t Table, suffix string) statHeaderMap {
	h := statHeaderMap{-1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1}
	for i, col := range t.Columns {
		switch col {
		case "player_name":
			h.idxName = i
			continue
		case "season":
			h.idxSeason = i
			continue
		case "team":
			h.idxTeam = i
			continue
		case "league":
			h.idxLeague = i
			continue
		}
		name := col
		if suffix != "" {
			if !strings.HasSuffix(col, suffix) {
				continue
			}
			name = strings.TrimSuffix(col, suffix)
		}
		switch name {
		case "category":
			h.idxCat = i
		case "gp":
			h.idxGP = i
		case "g":
			h.idxG = i
		case "a":
			h.idxA = i
		case "tp", "pts":
			h.idxTP = i
		case "pim":
			h.idxPIM = i
		case "+/-", "pm":
			h.idxPM = i
		}
	}
	return h
}

// statGroups returns the column suffixes of a merged table, or "" for a single category.
func statGroups(t Table) []string {
	var out []string
	for _, sfx := range []string{suffixRegular, suffixPost} {
		if t.Col("category"+sfx) >= 0 {
			out = append(out, sfx)
		}
	}
	if len(out) == 0 {
		return []string{""}
	}
	return out
}

// StatLines projects a standardized stat table onto typed rows. A merged table yields
// one line per category present in the row; a postseason side left empty by the join
// yields none.
func StatLines(t Table) []StatLine {
	groups := statGroups(t)
	headers := make([]statHeaderMap, len(groups))
	for i, g := range groups {
		headers[i] = mapStatHeader(t, g)
	}
	cell := func(row []string, i int) string {
		if i < 0 {
			return ""
		}
		return row[i]
	}
	num := func(row []string, i int) *int { return atoiPtr(cell(row, i)) }

	out := make([]StatLine, 0, len(t.Rows)*len(groups))
	for _, row := range t.Rows {
		for gi, h := range headers {
			cat := cell(row, h.idxCat)
			if groups[gi] != "" && cat == "" {
				continue
			}
			out = append(out, StatLine{
				PlayerName: cell(row, h.idxName),
				Category:   StatCategory(cat),
				Season:     cell(row, h.idxSeason),
				Team:       cell(row, h.idxTeam),
				League:     cell(row, h.idxLeague),
				GP:         num(row, h.idxGP),
				G:          num(row, h.idxG),
				A:          num(row, h.idxA),
				TP:         num(row, h.idxTP),
				PIM:        num(row, h.idxPIM),
				PlusMinus:  num(row, h.idxPM),
			})
		}
	}
	return out
}
