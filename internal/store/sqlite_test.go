package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tyler180/hockey-stats-backends/internal/ep"
	"github.com/tyler180/hockey-stats-backends/internal/nhl"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLite_RosterRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	recs := []ep.RosterRecord{
		{Rank: "1", Player: "Jane Smith (D)", PlayerName: "Jane Smith", Position: "D", Role: ep.RoleDefense,
			Team: "Boston Bruins", League: "nhl", Season: "2023-2024", ProfileLink: "/player/1", Stats: map[string]string{"gp": "82"}},
		{Rank: "2", Player: "Jane Smith (D)", PlayerName: "Jane Smith", Position: "D", Role: ep.RoleDefense,
			Team: "Toronto", League: "nhl", Season: "2023-2024", ProfileLink: "/player/1"},
		{Rank: "3", Player: "John Doe (C)", PlayerName: "John Doe", Position: "C", Role: ep.RoleForward,
			Team: "Boston Bruins", League: "nhl", Season: "2023-2024", ProfileLink: "/player/2"},
		{Rank: "1", Player: "Other (C)", PlayerName: "Other", Role: ep.RoleForward,
			Team: "X", League: "ahl", Season: "2023-2024", ProfileLink: "/player/3"},
	}
	require.NoError(t, db.PutRoster(ctx, recs))
	// upsert: writing again does not duplicate
	require.NoError(t, db.PutRoster(ctx, recs[:1]))

	var n int
	require.NoError(t, db.DB.QueryRowContext(ctx, `select count(*) from roster`).Scan(&n))
	require.Equal(t, 4, n)

	got, err := db.LoadRosterMetadata(ctx, "nhl", "2023-2024")
	require.NoError(t, err)
	require.ElementsMatch(t, []ep.PlayerMetadata{
		{PlayerName: "Jane Smith", Role: ep.RoleDefense, ProfileLink: "/player/1"},
		{PlayerName: "John Doe", Role: ep.RoleForward, ProfileLink: "/player/2"},
	}, got)
}

func TestSQLite_FactsStatsTeam(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	h := 185
	desc := "Fast."
	require.NoError(t, db.PutFacts(ctx, []ep.PlayerFacts{{
		PlayerName: "Jane", ProfileLink: "/player/1", HeightCM: &h, Description: &desc,
		Draft: &ep.DraftPick{Round: "1", Overall: "4", Year: "2017"},
	}}))

	var height int
	var types, highlights, round *string
	require.NoError(t, db.DB.QueryRowContext(ctx,
		`select height_cm, player_types, highlights, draft_round from player_facts where profile_link = ?`, "/player/1").
		Scan(&height, &types, &highlights, &round))
	require.Equal(t, 185, height)
	require.Nil(t, types)
	require.Equal(t, "[]", *highlights)
	require.Equal(t, "1", *round)

	gp := 7
	require.NoError(t, db.PutStatLines(ctx, []ep.StatLine{
		{PlayerName: "Jane", Category: ep.Postseason, Season: "2022-2023", Team: "BOS", League: "NHL", GP: &gp},
	}))
	var gotGP int
	var pm *int
	require.NoError(t, db.DB.QueryRowContext(ctx, `select gp, plus_minus from stat_lines where player_name = 'Jane'`).Scan(&gotGP, &pm))
	require.Equal(t, 7, gotGP)
	require.Nil(t, pm)

	require.NoError(t, db.PutTeamRoster(ctx, []nhl.TeamRosterEntry{
		{PlayerName: "Jo", Position: "G", ProfileLink: "https://nhl.test/player/2", Team: "bruins", Season: "2023-2024"},
	}))
	var pos string
	var img *string
	require.NoError(t, db.DB.QueryRowContext(ctx, `select position, image_url from team_roster`).Scan(&pos, &img))
	require.Equal(t, "G", pos)
	require.Nil(t, img)
}
