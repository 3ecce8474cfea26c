// Package nhl collects team rosters and career stat tables from nhl.com. Every page
// there is client rendered, so all reads go through a browser.Browser.
package nhl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tyler180/hockey-stats-backends/internal/browser"
	"github.com/tyler180/hockey-stats-backends/internal/ep"
	"github.com/tyler180/hockey-stats-backends/internal/fetch"
)

const DefaultBaseURL = "https://www.nhl.com"

// LockoutSeason had no games; collecting it returns nothing.
const LockoutSeason = "2004-2005"

var ErrInvalidTeam = errors.New("invalid team")

// Teams are the franchise slugs used in nhl.com/<team>/stats URLs.
var Teams = []string{
	"bruins", "sabres", "redwings", "panthers", "canadiens",
	"senators", "lightning", "mapleleafs", "hurricanes", "bluejackets",
	"devils", "islanders", "rangers", "flyers", "penguins",
	"capitals", "blackhawks", "avalanche", "stars", "wild",
	"predators", "blues", "jets", "ducks", "flames",
	"oilers", "kings", "sharks", "kraken", "canucks",
	"goldenknights", "utah",
}

var teamSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Teams))
	for _, t := range Teams {
		m[t] = struct{}{}
	}
	return m
}()

func ValidateTeam(team string) error {
	if _, ok := teamSet[team]; !ok {
		return fmt.Errorf("%w %q, valid teams are: %s", ErrInvalidTeam, team, strings.Join(Teams, ", "))
	}
	return nil
}

const (
	rosterTableSel = "table.rt-table"
	rosterRowSel   = "tbody.rt-tbody > tr.rt-tr"
	playerLinkSel  = `a[href*="/player/"]`
	headshotImgSel = ".headshot-container img"
	headshotSVGSel = ".headshot-container image"
	positionSel    = "td span[aria-label]"

	goalie = "G"
)

// TeamRosterEntry is one player row of a team's season stats page.
type TeamRosterEntry struct {
	PlayerName  string
	Position    string
	ProfileLink string
	// ImageURL is empty when the row has no headshot.
	ImageURL string
	Team     string
	Season   string
}

type Client struct {
	Launcher browser.Launcher
	BaseURL  string

	// NavDelay is the settle time after opening a player page.
	NavDelay fetch.Jitter
	// SettleDelay follows the roster table appearing.
	SettleDelay fetch.Jitter
	// OptionDelay sits between opening a dropdown and picking an option.
	OptionDelay fetch.Jitter
	// RenderDelay follows picking a dropdown option.
	RenderDelay fetch.Jitter
	WaitTimeout time.Duration

	Log *slog.Logger
}

func New(l browser.Launcher, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		Launcher:    l,
		BaseURL:     DefaultBaseURL,
		NavDelay:    fetch.Jitter{Min: 1500 * time.Millisecond, Max: 2500 * time.Millisecond},
		SettleDelay: fetch.Jitter{Min: 2 * time.Second, Max: 2 * time.Second},
		OptionDelay: fetch.Jitter{Min: time.Second, Max: time.Second},
		RenderDelay: fetch.Jitter{Min: 2 * time.Second, Max: 2 * time.Second},
		WaitTimeout: 15 * time.Second,
		Log:         log,
	}
}

func (c *Client) log() *slog.Logger {
	if c.Log == nil {
		return slog.Default()
	}
	return c.Log
}

func (c *Client) base() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

// TeamURL joins the season years: 2023-2024 → /<team>/stats/20232024.
func (c *Client) TeamURL(team, season string) string {
	return fmt.Sprintf("%s/%s/stats/%s", c.base(), team, strings.ReplaceAll(season, "-", ""))
}

// validate reports skip=true for the lockout season.
func validate(team, season string) (skip bool, err error) {
	if err := ValidateTeam(team); err != nil {
		return false, err
	}
	if err := ep.ValidateSeason(season); err != nil {
		return false, err
	}
	return season == LockoutSeason, nil
}

// TeamRoster reads a team season page on a caller-owned session. Rows that cannot be
// read are logged and skipped.
func (c *Client) TeamRoster(ctx context.Context, b browser.Browser, team, season string) ([]TeamRosterEntry, error) {
	skip, err := validate(team, season)
	if err != nil {
		return nil, err
	}
	if skip {
		c.log().Info("skipping lockout season", "team", team, "season", season)
		return []TeamRosterEntry{}, nil
	}

	url := c.TeamURL(team, season)
	c.log().Info("collecting team roster", "url", url)
	if err := b.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := b.WaitReady(ctx, rosterTableSel, c.WaitTimeout); err != nil {
		return nil, fmt.Errorf("team %s %s: %w", team, season, err)
	}
	if err := c.SettleDelay.Wait(ctx); err != nil {
		return nil, err
	}
	html, err := b.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("team %s %s: %w", team, season, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("team %s %s: %w", team, season, err)
	}

	var out []TeamRosterEntry
	doc.Find(rosterRowSel).Each(func(i int, row *goquery.Selection) {
		e, err := c.parseRow(row)
		if err != nil {
			c.log().Warn("skipping row", "team", team, "row", i, "err", err)
			return
		}
		e.Team, e.Season = team, season
		out = append(out, e)
	})
	c.log().Debug("DEBUG team roster", "team", team, "season", season, "rows", len(out))
	return out, nil
}

func (c *Client) parseRow(row *goquery.Selection) (TeamRosterEntry, error) {
	a := row.Find(playerLinkSel).First()
	if a.Length() == 0 {
		return TeamRosterEntry{}, errors.New("no player link")
	}
	e := TeamRosterEntry{
		PlayerName:  strings.TrimSpace(a.Text()),
		ProfileLink: c.absURL(a.AttrOr("href", "")),
	}

	if img := row.Find(headshotImgSel).First(); img.Length() > 0 {
		e.ImageURL = img.AttrOr("src", "")
	} else if svg := row.Find(headshotSVGSel).First(); svg.Length() > 0 {
		// the parser files xlink:href under key "href" in the xlink namespace
		e.ImageURL = svg.AttrOr("xlink:href", svg.AttrOr("href", ""))
	} else {
		c.log().Debug("no image found", "player", e.PlayerName)
	}

	if pos := row.Find(positionSel).First(); pos.Length() > 0 {
		e.Position = strings.TrimSpace(pos.Text())
	}
	if e.Position == "" {
		e.Position = goalie
	}
	return e, nil
}

func (c *Client) absURL(link string) string {
	if link == "" || strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	if !strings.HasPrefix(link, "/") {
		link = "/" + link
	}
	return c.base() + link
}

// FetchTeamRoster owns a session. Validation errors come back before any launch;
// collection failures are logged and reported as an empty roster.
func (c *Client) FetchTeamRoster(ctx context.Context, team, season string) ([]TeamRosterEntry, error) {
	skip, err := validate(team, season)
	if err != nil {
		return nil, err
	}
	if skip {
		c.log().Info("skipping lockout season", "team", team, "season", season)
		return []TeamRosterEntry{}, nil
	}

	b, err := c.Launcher.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer closeBrowser(c, b)

	out, err := c.TeamRoster(ctx, b, team, season)
	if err != nil {
		c.log().Error("failed to scrape team", "team", team, "season", season, "err", err)
		return []TeamRosterEntry{}, nil
	}
	return out, nil
}

func closeBrowser(c *Client, b browser.Browser) {
	if err := b.Close(); err != nil {
		c.log().Warn("close browser", "err", err)
	}
}
