package nhl

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tyler180/hockey-stats-backends/internal/browser"
	"github.com/tyler180/hockey-stats-backends/internal/ep"
)

const (
	leagueButtonSel  = "#league-select ~ div button"
	allLeaguesSel    = "//li[normalize-space()='All Leagues']"
	careerTableSel   = "table#career-stats-table"
	careerPlayerName = "player_name"
)

var ErrCareerTableNotFound = errors.New("career stats table not found")

// CareerStats switches a player page to All Leagues and reads the career table.
func (c *Client) CareerStats(ctx context.Context, b browser.Browser, e TeamRosterEntry) (ep.Table, error) {
	url := c.absURL(e.ProfileLink)
	c.log().Info("collecting career stats", "player", e.PlayerName, "url", url)

	if err := b.Navigate(ctx, url); err != nil {
		return ep.Table{}, fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := c.NavDelay.Wait(ctx); err != nil {
		return ep.Table{}, err
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"wait league dropdown", func() error { return b.WaitClickable(ctx, leagueButtonSel, c.WaitTimeout) }},
		{"scroll league dropdown", func() error { return b.ScrollIntoView(ctx, leagueButtonSel) }},
		{"open league dropdown", func() error { return b.ClickJS(ctx, leagueButtonSel) }},
		{"option delay", func() error { return c.OptionDelay.Wait(ctx) }},
		{"wait all leagues", func() error { return b.WaitClickable(ctx, allLeaguesSel, c.WaitTimeout) }},
		{"pick all leagues", func() error { return b.Click(ctx, allLeaguesSel) }},
		{"render delay", func() error { return c.RenderDelay.Wait(ctx) }},
	}
	for _, s := range steps {
		if err := s.run(); err != nil {
			return ep.Table{}, fmt.Errorf("career %s: %s: %w", e.PlayerName, s.name, err)
		}
	}

	html, err := b.HTML(ctx)
	if err != nil {
		return ep.Table{}, fmt.Errorf("career %s: %w", e.PlayerName, err)
	}
	return ParseCareerTable(html, e.PlayerName)
}

// ParseCareerTable reads table#career-stats-table with player_name as first column.
func ParseCareerTable(html, playerName string) (ep.Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ep.Table{}, err
	}
	sel := doc.Find(careerTableSel).First()
	if sel.Length() == 0 {
		return ep.Table{}, ErrCareerTableNotFound
	}
	t := ep.ExtractTable(sel).With(careerPlayerName, playerName).MoveFirst(careerPlayerName)
	return ep.StandardizeColumns(t), nil
}

// FetchCareerStats owns a session for one player; failure is logged and nil.
func (c *Client) FetchCareerStats(ctx context.Context, e TeamRosterEntry) *ep.Table {
	b, err := c.Launcher.Launch(ctx)
	if err != nil {
		c.log().Error("launch browser", "player", e.PlayerName, "err", err)
		return nil
	}
	defer closeBrowser(c, b)

	t, err := c.CareerStats(ctx, b, e)
	if err != nil {
		c.log().Warn("failed to scrape career", "player", e.PlayerName, "err", err)
		return nil
	}
	return &t
}

// CareerStatsBatch reads many players on one session and concatenates the tables.
func (c *Client) CareerStatsBatch(ctx context.Context, entries []TeamRosterEntry) (ep.Table, error) {
	if len(entries) == 0 {
		return ep.Table{}, nil
	}
	b, err := c.Launcher.Launch(ctx)
	if err != nil {
		return ep.Table{}, fmt.Errorf("launch browser: %w", err)
	}
	defer closeBrowser(c, b)

	var parts []ep.Table
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return ep.Concat(parts...), err
		}
		t, err := c.CareerStats(ctx, b, e)
		if err != nil {
			c.log().Warn("career skipped", "player", e.PlayerName, "err", err)
			continue
		}
		parts = append(parts, t)
	}
	return ep.Concat(parts...), nil
}
