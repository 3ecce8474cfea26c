package ep

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/tyler180/hockey-stats-backends/internal/browser"
	"github.com/tyler180/hockey-stats-backends/internal/browser/browsertest"
)

const profileURL = testBase + "/player/1/jane-smith"

var jane = PlayerMetadata{PlayerName: "Jane Smith", Role: RoleDefense, ProfileLink: "/player/1/jane-smith"}

const selectorMarkup = `<div class="css-x1uf2d-control">Regular Season</div>
<input id="react-select-player-statistics-default-season-selector-league-input">`

func profileHTML(extra string) string {
	return `<html><body>` + selectorMarkup + extra + `</body></html>`
}

func statsHTML(rows string) string {
	return profileHTML(`<table class="SortTable_table__jnnJk PlayerStatistics_mobileColumnWidth__4eS8P">
<tr><th>S</th><th>Team</th><th>League</th><th>GP</th><th>G</th><th>A</th><th>TP</th><th>PIM</th><th>+/-</th></tr>` + rows + `</table>`)
}

const regRows = `<tr><td>2022-2023</td><td>Boston Bruins</td><td>NHL</td><td>82</td><td>10</td><td>40</td><td>50</td><td>12</td><td>+8</td></tr>
<tr><td>2023-2024</td><td>Boston Bruins</td><td>NHL</td><td>80</td><td>12</td><td>38</td><td>50</td><td>20</td><td>-3</td></tr>`

const postRows = `<tr><td>2022-2023</td><td>Boston Bruins</td><td>NHL</td><td>7</td><td>1</td><td>2</td><td>3</td><td>0</td><td>1</td></tr>
<tr><td>2019-2020</td><td>Providence</td><td>AHL</td><td>5</td><td>0</td><td>0</td><td>0</td><td>2</td><td>-</td></tr>`

func newProfileFake() *browsertest.Fake {
	return &browsertest.Fake{
		Pages: map[string]string{profileURL: profileHTML("")},
		Commits: map[string]string{
			string(RegularSeason): statsHTML(regRows),
			string(Postseason):    statsHTML(postRows),
			string(Combined):      statsHTML(regRows),
		},
	}
}

func TestPlayerStats_SelectsCategory(t *testing.T) {
	c, _ := testClient(t, nil, nil)
	b := newProfileFake()

	got, err := c.PlayerStats(context.Background(), b, jane, RegularSeason)
	require.NoError(t, err)
	require.Equal(t, []string{"player_name", "category", "season", "team", "league", "gp", "g", "a", "tp", "pim", "+/-"}, got.Columns)
	require.Len(t, got.Rows, 2)
	require.Equal(t, []string{"Jane Smith", "Regular Season", "2022-2023", "Boston Bruins", "NHL", "82", "10", "40", "50", "12", "+8"}, got.Rows[0])

	want := []string{
		"navigate " + profileURL,
		"wait " + seasonControlSel,
		"scroll " + seasonControlSel,
		"click " + seasonControlSel,
		`keys ` + seasonInputSel + ` "Regular Season"`,
		`keys ` + seasonInputSel + ` "\r"`,
		"html",
	}
	if diff := cmp.Diff(want, b.Calls); diff != "" {
		t.Fatalf("browser calls (-want +got):\n%s", diff)
	}
}

func TestPlayerStats_RemovesOverlayAndRetriesOnce(t *testing.T) {
	c, logs := testClient(t, nil, nil)
	b := newProfileFake()
	b.Pages[profileURL] = profileHTML(`<aside class="AdSlot_centering__vHSRy">ad</aside>`)
	b.Overlays = map[string]string{seasonControlSel: adOverlaySel}

	got, err := c.PlayerStats(context.Background(), b, jane, Postseason)
	require.NoError(t, err)
	require.Len(t, got.Rows, 2)
	require.Equal(t, "Postseason", got.Get(0, "category"))

	var clicks, removes int
	for _, call := range b.Calls {
		switch {
		case strings.HasPrefix(call, "click "):
			clicks++
		case strings.HasPrefix(call, "remove "):
			removes++
		}
	}
	require.Equal(t, 2, clicks)
	require.Equal(t, 1, removes)
	require.Contains(t, logs.String(), "overlay blocking season selector")
}

func TestPlayerStats_OverlayThatCannotBeRemoved(t *testing.T) {
	c, _ := testClient(t, nil, nil)
	b := newProfileFake()
	// overlay selector points at something that is not on the page
	b.Overlays = map[string]string{seasonControlSel: "div.css-x1uf2d-control"}

	_, err := c.PlayerStats(context.Background(), b, jane, RegularSeason)
	require.Error(t, err)
	require.Contains(t, err.Error(), "season selector closed")
}

func TestPlayerStats_RetriesClickWhenAdRemovalFails(t *testing.T) {
	c, logs := testClient(t, nil, nil)
	b := newProfileFake()
	// intercepted once, but no ad element on the page to remove
	b.Intercepts = map[string]int{seasonControlSel: 1}

	got, err := c.PlayerStats(context.Background(), b, jane, RegularSeason)
	require.NoError(t, err)
	require.Len(t, got.Rows, 2)

	var clicks int
	for _, call := range b.Calls {
		if strings.HasPrefix(call, "click ") {
			clicks++
		}
	}
	require.Equal(t, 2, clicks)
	require.Contains(t, b.Calls, "remove "+adOverlaySel)
	require.Contains(t, logs.String(), "ad overlay not removed")
}

func TestPlayerStats_OverlayRemovalAndRetryBothFail(t *testing.T) {
	c, _ := testClient(t, nil, nil)
	b := newProfileFake()
	b.Intercepts = map[string]int{seasonControlSel: 2}

	_, err := c.PlayerStats(context.Background(), b, jane, RegularSeason)
	require.ErrorIs(t, err, browser.ErrClickIntercepted)
	require.ErrorIs(t, err, browser.ErrNotFound)
	require.Contains(t, err.Error(), "remove overlay")
}

func TestPlayerStats_TrimsCategory(t *testing.T) {
	c, _ := testClient(t, nil, nil)
	b := newProfileFake()

	got, err := c.PlayerStats(context.Background(), b, jane, " Postseason ")
	require.NoError(t, err)
	require.Equal(t, "Postseason", got.Get(0, "category"))
	require.Contains(t, b.Calls, `keys `+seasonInputSel+` "Postseason"`)

	l := &browsertest.Launcher{New: newProfileFake}
	c, _ = testClient(t, nil, l)
	batch, err := c.PlayersStats(context.Background(), []PlayerMetadata{jane}, "Regular Season ")
	require.NoError(t, err)
	require.Equal(t, "Regular Season", batch.Get(0, "category"))
}

func TestPlayerStats_TableMissing(t *testing.T) {
	c, _ := testClient(t, nil, nil)
	b := newProfileFake()
	b.Commits[string(RegularSeason)] = profileHTML("<p>no stats</p>")

	_, err := c.PlayerStats(context.Background(), b, jane, RegularSeason)
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestPlayerStats_InvalidCategory(t *testing.T) {
	c, _ := testClient(t, nil, nil)
	b := newProfileFake()

	_, err := c.PlayerStats(context.Background(), b, jane, StatCategory("Playoffs"))
	require.ErrorIs(t, err, ErrInvalidCategory)
	require.Empty(t, b.Calls)
}

func TestFetchPlayerStats_ClosesSession(t *testing.T) {
	l := &browsertest.Launcher{New: newProfileFake}
	c, _ := testClient(t, nil, l)

	got := c.FetchPlayerStats(context.Background(), jane, Combined)
	require.NotNil(t, got)
	require.Equal(t, "Regular Season + Postseason", got.Get(0, "category"))
	require.Len(t, l.Launched, 1)
	require.True(t, l.Launched[0].Closed)

	// failure path still releases the browser
	l.New = func() *browsertest.Fake {
		f := newProfileFake()
		f.NavigateErr = map[string]error{profileURL: errors.New("net::ERR")}
		return f
	}
	require.Nil(t, c.FetchPlayerStats(context.Background(), jane, RegularSeason))
	require.Len(t, l.Launched, 2)
	require.True(t, l.Launched[1].Closed)
}

func TestFetchPlayerStats_InvalidCategoryDoesNotLaunch(t *testing.T) {
	l := &browsertest.Launcher{New: newProfileFake}
	c, _ := testClient(t, nil, l)

	require.Nil(t, c.FetchPlayerStats(context.Background(), jane, "Playoffs"))
	require.Empty(t, l.Launched)
}

func TestFetchPlayerStats_LaunchFailure(t *testing.T) {
	l := &browsertest.Launcher{Err: errors.New("no chrome")}
	c, _ := testClient(t, nil, l)
	require.Nil(t, c.FetchPlayerStats(context.Background(), jane, RegularSeason))
}

func TestPlayerStatsSplit_Merges(t *testing.T) {
	c, _ := testClient(t, nil, nil)
	b := newProfileFake()

	got, err := c.PlayerStatsSplit(context.Background(), b, jane)
	require.NoError(t, err)
	require.Len(t, got.Rows, 2)
	require.Equal(t, "82", got.Get(0, "gp_regular"))
	require.Equal(t, "7", got.Get(0, "gp_post"))
	require.Equal(t, "", got.Get(1, "gp_post"))
	require.Equal(t, "Postseason", got.Get(0, "category_post"))
}

func TestPlayersStats_ContinuesPastFailures(t *testing.T) {
	missing := PlayerMetadata{PlayerName: "Ghost", ProfileLink: "/player/9/ghost"}
	l := &browsertest.Launcher{New: newProfileFake}
	c, logs := testClient(t, nil, l)

	got, err := c.PlayersStats(context.Background(), []PlayerMetadata{missing, jane}, RegularSeason)
	require.NoError(t, err)
	require.Len(t, got.Rows, 2)
	require.Equal(t, "Jane Smith", got.Get(0, "player_name"))
	require.Len(t, l.Launched, 1)
	require.True(t, l.Launched[0].Closed)
	require.Contains(t, logs.String(), "player stats skipped")
}

func TestParseStatCategory(t *testing.T) {
	for _, s := range []string{"Regular Season", "Postseason", "Regular Season + Postseason", " Postseason "} {
		_, err := ParseStatCategory(s)
		require.NoError(t, err, s)
	}
	_, err := ParseStatCategory("Playoffs")
	require.ErrorIs(t, err, ErrInvalidCategory)
}

func TestStatLines(t *testing.T) {
	tbl, err := ParseStatsTable(statsHTML(postRows), "Jane Smith", Postseason)
	require.NoError(t, err)

	got := StatLines(tbl)
	want := []StatLine{
		{PlayerName: "Jane Smith", Category: Postseason, Season: "2022-2023", Team: "Boston Bruins", League: "NHL",
			GP: intp(7), G: intp(1), A: intp(2), TP: intp(3), PIM: intp(0), PlusMinus: intp(1)},
		{PlayerName: "Jane Smith", Category: Postseason, Season: "2019-2020", Team: "Providence", League: "AHL",
			GP: intp(5), G: intp(0), A: intp(0), TP: intp(0), PIM: intp(2)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("StatLines (-want +got):\n%s", diff)
	}
}

func TestStatLines_MergedTable(t *testing.T) {
	reg, err := ParseStatsTable(statsHTML(regRows), "Jane Smith", RegularSeason)
	require.NoError(t, err)
	post, err := ParseStatsTable(statsHTML(postRows), "Jane Smith", Postseason)
	require.NoError(t, err)

	got := StatLines(MergeStats(nil, reg, post))
	want := []StatLine{
		{PlayerName: "Jane Smith", Category: RegularSeason, Season: "2022-2023", Team: "Boston Bruins", League: "NHL",
			GP: intp(82), G: intp(10), A: intp(40), TP: intp(50), PIM: intp(12), PlusMinus: intp(8)},
		{PlayerName: "Jane Smith", Category: Postseason, Season: "2022-2023", Team: "Boston Bruins", League: "NHL",
			GP: intp(7), G: intp(1), A: intp(2), TP: intp(3), PIM: intp(0), PlusMinus: intp(1)},
		{PlayerName: "Jane Smith", Category: RegularSeason, Season: "2023-2024", Team: "Boston Bruins", League: "NHL",
			GP: intp(80), G: intp(12), A: intp(38), TP: intp(50), PIM: intp(20), PlusMinus: intp(-3)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("StatLines (-want +got):\n%s", diff)
	}
}

func TestStatLines_FromSplitCollection(t *testing.T) {
	c, _ := testClient(t, nil, nil)
	tbl, err := c.PlayerStatsSplit(context.Background(), newProfileFake(), jane)
	require.NoError(t, err)

	lines := StatLines(tbl)
	require.Len(t, lines, 3)
	for _, l := range lines {
		require.NotEmpty(t, l.Category)
		require.NotNil(t, l.GP, "%s %s", l.Category, l.Season)
		require.NotNil(t, l.TP)
	}
	require.Equal(t, 7, *lines[1].GP)
}
