package nhl

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyler180/hockey-stats-backends/internal/browser/browsertest"
	"github.com/tyler180/hockey-stats-backends/internal/ep"
	"github.com/tyler180/hockey-stats-backends/internal/fetch"
)

const testBase = "https://nhl.test"

func testClient(t *testing.T, l *browsertest.Launcher) (*Client, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	c := New(l, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	c.BaseURL = testBase
	c.NavDelay = fetch.Jitter{}
	c.SettleDelay = fetch.Jitter{}
	c.OptionDelay = fetch.Jitter{}
	c.RenderDelay = fetch.Jitter{}
	return c, &buf
}

const teamPage = `<html><body><table class="rt-table"><tbody class="rt-tbody">
<tr class="rt-tr">
  <td><div class="headshot-container"><img src="https://cdn.test/a.png"></div>
      <a href="/player/jane-smith-8470001">Jane Smith</a></td>
  <td><span aria-label="Defense">D</span></td>
</tr>
<tr class="rt-tr">
  <td><div class="headshot-container"><svg><image xlink:href="https://cdn.test/b.svg"></image></svg></div>
      <a href="https://nhl.test/player/jo-goal-8470002">Jo Goal</a></td>
  <td>.915</td>
</tr>
<tr class="rt-tr"><td>Team totals</td></tr>
<tr class="rt-tr">
  <td><a href="/player/no-pic-8470003">No Pic</a></td>
  <td><span aria-label="Center">C</span></td>
</tr>
</tbody></table></body></html>`

func teamFake() *browsertest.Fake {
	return &browsertest.Fake{Pages: map[string]string{testBase + "/bruins/stats/20232024": teamPage}}
}

func TestTeamRoster(t *testing.T) {
	c, logs := testClient(t, nil)

	got, err := c.TeamRoster(context.Background(), teamFake(), "bruins", "2023-2024")
	require.NoError(t, err)
	require.Equal(t, []TeamRosterEntry{
		{PlayerName: "Jane Smith", Position: "D", ProfileLink: testBase + "/player/jane-smith-8470001",
			ImageURL: "https://cdn.test/a.png", Team: "bruins", Season: "2023-2024"},
		{PlayerName: "Jo Goal", Position: "G", ProfileLink: testBase + "/player/jo-goal-8470002",
			ImageURL: "https://cdn.test/b.svg", Team: "bruins", Season: "2023-2024"},
		{PlayerName: "No Pic", Position: "C", ProfileLink: testBase + "/player/no-pic-8470003",
			Team: "bruins", Season: "2023-2024"},
	}, got)
	require.Contains(t, logs.String(), "skipping row")
}

func TestTeamRoster_Validation(t *testing.T) {
	c, _ := testClient(t, nil)
	b := teamFake()

	_, err := c.TeamRoster(context.Background(), b, "whalers", "2023-2024")
	require.ErrorIs(t, err, ErrInvalidTeam)
	_, err = c.TeamRoster(context.Background(), b, "bruins", "2023")
	require.ErrorIs(t, err, ep.ErrInvalidSeason)
	require.Empty(t, b.Calls)
}

func TestFetchTeamRoster_LockoutSkipsBrowser(t *testing.T) {
	l := &browsertest.Launcher{New: teamFake}
	c, _ := testClient(t, l)

	got, err := c.FetchTeamRoster(context.Background(), "bruins", LockoutSeason)
	require.NoError(t, err)
	require.Empty(t, got)
	require.Empty(t, l.Launched)
}

func TestFetchTeamRoster_ClosesOnFailure(t *testing.T) {
	l := &browsertest.Launcher{New: func() *browsertest.Fake {
		return &browsertest.Fake{Pages: map[string]string{testBase + "/bruins/stats/20232024": `<html></html>`}}
	}}
	c, logs := testClient(t, l)

	got, err := c.FetchTeamRoster(context.Background(), "bruins", "2023-2024")
	require.NoError(t, err)
	require.Empty(t, got)
	require.True(t, l.Launched[0].Closed)
	require.Contains(t, logs.String(), "failed to scrape team")
}

func TestFetchTeamRoster_LaunchError(t *testing.T) {
	c, _ := testClient(t, &browsertest.Launcher{Err: errors.New("no chrome")})
	_, err := c.FetchTeamRoster(context.Background(), "bruins", "2023-2024")
	require.Error(t, err)
}

func TestTeamURL(t *testing.T) {
	c := New(nil, nil)
	require.Equal(t, "https://www.nhl.com/utah/stats/20242025", c.TeamURL("utah", "2024-2025"))
	require.Len(t, Teams, 32)
}
