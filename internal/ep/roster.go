package ep

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const rosterTableSel = "table.table.table-striped.table-sortable.player-stats.highlight-stats.season"

var (
	parenRe    = regexp.MustCompile(`\s*\(.*?\)`)
	positionRe = regexp.MustCompile(`\((.*?)\)`)
)

// LeagueURL is the first listing page of a league season.
func (c *Client) LeagueURL(league, season string) string {
	return fmt.Sprintf("%s/league/%s/stats/%s", c.base(), league, season)
}

// SeasonRoster collects every player row of a league season across all listing pages.
// A page that fails to fetch or parse is logged and skipped.
func (c *Client) SeasonRoster(ctx context.Context, league, season string) ([]RosterRecord, error) {
	if err := ValidateLeague(league); err != nil {
		return nil, err
	}
	if err := ValidateSeason(season); err != nil {
		return nil, err
	}

	url := c.LeagueURL(league, season)
	n, err := c.NumPages(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("season roster %s %s: %w", league, season, err)
	}

	var pages []Table
	for i := 1; i <= n; i++ {
		if i > 1 {
			if err := c.PageDelay.Wait(ctx); err != nil {
				return assembleRoster(Concat(pages...), league, season), err
			}
		}
		pageURL := fmt.Sprintf("%s/?page=%d", url, i)
		c.log().Info("collecting page", "url", pageURL)
		t, err := c.rosterPage(ctx, pageURL)
		if err != nil {
			c.log().Warn("roster page skipped", "url", pageURL, "err", err)
			continue
		}
		if t.Len() == 0 {
			c.log().Debug("DEBUG roster: empty page", "url", pageURL)
			continue
		}
		pages = append(pages, t)
	}

	recs := assembleRoster(Concat(pages...), league, season)
	c.log().Debug("DEBUG roster: assembled", "league", league, "season", season, "pages", len(pages), "rows", len(recs))
	return recs, nil
}

func (c *Client) rosterPage(ctx context.Context, url string) (Table, error) {
	body, err := c.Fetcher.Get(ctx, url)
	if err != nil {
		return Table{}, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return Table{}, fmt.Errorf("parse: %w", err)
	}
	return ParseRosterPage(doc), nil
}

// ParseRosterPage extracts the player rows of one listing page. Rows without a rank
// or without a profile anchor of their own are dropped. The profile link lands in
// the "link" column.
func ParseRosterPage(doc *goquery.Document) Table {
	sel := doc.Find(rosterTableSel).First()
	if sel.Length() == 0 {
		return Table{}
	}
	t, trs := extractRows(sel)
	rank := t.Col("#")
	if rank < 0 {
		return Table{}
	}

	out := Table{Columns: append(append([]string(nil), t.Columns...), "link")}
	for i, row := range t.Rows {
		if row[rank] == "" {
			continue
		}
		link := extractProfileLink(trs[i])
		if link == "" {
			continue
		}
		out.Rows = append(out.Rows, append(append([]string(nil), row...), link))
	}
	return out
}

// profile anchor inside the row itself
func extractProfileLink(tr *goquery.Selection) string {
	var href string
	tr.Find(`a[href*="/player/"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href = strings.TrimSpace(a.AttrOr("href", ""))
		return href == ""
	})
	return href
}

// assembleRoster lowercases columns, tags league and season, drops working columns
// and derives the name, position and role fields.
func assembleRoster(t Table, league, season string) []RosterRecord {
	t = t.Lowercase()
	rankIdx := t.Col("#")
	t2 := t.Drop("index", "#")

	out := make([]RosterRecord, 0, t2.Len())
	for i := range t2.Rows {
		rec := t2.Record(i)
		player := rec["player"]
		name, pos := SplitPlayer(player)
		r := RosterRecord{
			Player:      player,
			Team:        CleanTeam(rec["team"]),
			League:      league,
			Season:      season,
			PlayerName:  name,
			Position:    pos,
			Role:        RoleOf(pos),
			ProfileLink: rec["link"],
			Stats:       map[string]string{},
		}
		if rankIdx >= 0 {
			r.Rank = t.Rows[i][rankIdx]
		}
		for k, v := range rec {
			switch k {
			case "player", "team", "link", "league", "season":
				continue
			}
			r.Stats[k] = v
		}
		out = append(out, r)
	}
	return out
}

// SplitPlayer turns "Jane Smith (D)" into ("Jane Smith", "D").
func SplitPlayer(s string) (name, position string) {
	name = strings.TrimSpace(parenRe.ReplaceAllString(s, ""))
	if m := positionRe.FindStringSubmatch(s); m != nil {
		position = m[1]
	}
	return name, position
}

func RoleOf(position string) Role {
	if strings.Contains(position, "D") {
		return RoleDefense
	}
	return RoleForward
}

// CleanTeam drops the smart-quote suffix some team cells carry.
func CleanTeam(s string) string {
	if i := strings.Index(s, "“"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// PlayersMetadata dedups roster rows into profile identities, first seen first.
func PlayersMetadata(recs []RosterRecord) []PlayerMetadata {
	seen := make(map[PlayerMetadata]bool, len(recs))
	var out []PlayerMetadata
	for _, r := range recs {
		m := PlayerMetadata{PlayerName: r.PlayerName, Role: r.Role, ProfileLink: r.ProfileLink}
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
