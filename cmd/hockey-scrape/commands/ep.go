package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tyler180/hockey-stats-backends/internal/ep"
)

var (
	playerLimit int
	fromStore   bool
	category    string
	split       bool
)

func init() {
	for _, c := range []*cobra.Command{statsCmd, factsCmd} {
		c.Flags().IntVar(&playerLimit, "limit", 0, "Only collect the first N players of the roster.")
		c.Flags().BoolVar(&fromStore, "from-store", false, "Read the player list from --sqlite instead of scraping the roster.")
	}
	statsCmd.Flags().StringVar(&category, "category", string(ep.RegularSeason), `Stat category: "Regular Season", "Postseason" or "Regular Season + Postseason".`)
	statsCmd.Flags().BoolVar(&split, "split", false, "Collect regular season and postseason separately and merge them.")

	rootCmd.AddCommand(rosterCmd, playersCmd, statsCmd, factsCmd)
}

var rosterCmd = &cobra.Command{
	Use:   "roster <league> <season>",
	Short: "Collects every player listed for a league season.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := collectRoster(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(recs))
		for _, r := range recs {
			rows = append(rows, []string{r.Rank, r.PlayerName, r.Position, string(r.Role), r.Team,
				r.Stats["gp"], r.Stats["g"], r.Stats["a"], r.Stats["tp"], r.ProfileLink})
		}
		return printRows(recs, []string{"#", "Player", "Pos", "Role", "Team", "GP", "G", "A", "TP", "Link"}, rows)
	},
}

var playersCmd = &cobra.Command{
	Use:   "players <league> <season>",
	Short: "Lists the distinct players (name, role, profile link) of a league season.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := collectRoster(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		metas := ep.PlayersMetadata(recs)
		return printMetadata(metas)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <league> <season>",
	Short: "Collects the per-season stat table of every player in a league season.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cat, err := ep.ParseStatCategory(category)
		if err != nil {
			return err
		}
		metas, err := playerList(ctx, args[0], args[1])
		if err != nil {
			return err
		}

		var t ep.Table
		if split {
			t, err = statsSplit(ctx, metas)
		} else {
			t, err = app.ep.PlayersStats(ctx, metas, cat)
		}
		if err != nil {
			return err
		}
		if app.sink != nil {
			if err := app.sink.PutStatLines(ctx, ep.StatLines(t)); err != nil {
				return err
			}
		}
		return printTable(t)
	},
}

var factsCmd = &cobra.Command{
	Use:   "facts <league> <season>",
	Short: "Collects the facts section of every player in a league season.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		metas, err := playerList(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		facts, err := app.ep.PlayersFacts(ctx, metas)
		if err != nil {
			return err
		}
		if app.sink != nil {
			if err := app.sink.PutFacts(ctx, facts); err != nil {
				return err
			}
		}

		rows := make([][]string, 0, len(facts))
		for _, f := range facts {
			dob := ""
			if f.DateOfBirth != nil {
				dob = f.DateOfBirth.Format("2006-01-02")
			}
			draft := ""
			if f.Draft != nil {
				draft = fmt.Sprintf("%s/%s (%s)", f.Draft.Round, f.Draft.Overall, f.Draft.Year)
			}
			rows = append(rows, []string{f.PlayerName, dob, f.Nation, f.Position,
				intCell(f.HeightCM), intCell(f.WeightKG), f.Shoots, draft, f.Rights})
		}
		return printRows(facts, []string{"Player", "Born", "Nation", "Pos", "Height", "Weight", "Shoots", "Draft", "Rights"}, rows)
	},
}

func collectRoster(ctx context.Context, league, season string) ([]ep.RosterRecord, error) {
	recs, err := app.ep.SeasonRoster(ctx, league, season)
	if err != nil {
		return nil, err
	}
	if app.sink != nil {
		if err := app.sink.PutRoster(ctx, recs); err != nil {
			return nil, err
		}
	}
	app.log.Info("roster collected", "league", league, "season", season, "rows", len(recs))
	return recs, nil
}

// playerList resolves the players to visit, from the sink when --from-store is set.
func playerList(ctx context.Context, league, season string) ([]ep.PlayerMetadata, error) {
	if fromStore {
		if app.sink == nil {
			return nil, fmt.Errorf("--from-store needs --sqlite")
		}
		if err := ep.ValidateLeague(league); err != nil {
			return nil, err
		}
		metas, err := app.sink.LoadRosterMetadata(ctx, league, season)
		if err != nil {
			return nil, err
		}
		return limit(metas, playerLimit), nil
	}
	recs, err := collectRoster(ctx, league, season)
	if err != nil {
		return nil, err
	}
	return limit(ep.PlayersMetadata(recs), playerLimit), nil
}

func statsSplit(ctx context.Context, metas []ep.PlayerMetadata) (ep.Table, error) {
	if len(metas) == 0 {
		return ep.Table{}, nil
	}
	b, err := app.ep.Launcher.Launch(ctx)
	if err != nil {
		return ep.Table{}, fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			app.log.Warn("close browser", "err", err)
		}
	}()

	var parts []ep.Table
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return ep.Concat(parts...), err
		}
		t, err := app.ep.PlayerStatsSplit(ctx, b, m)
		if err != nil {
			app.log.Warn("player stats skipped", "player", m.PlayerName, "err", err)
			continue
		}
		parts = append(parts, t)
	}
	return ep.Concat(parts...), nil
}

func printMetadata(metas []ep.PlayerMetadata) error {
	rows := make([][]string, 0, len(metas))
	for _, m := range metas {
		rows = append(rows, []string{m.PlayerName, string(m.Role), m.ProfileLink})
	}
	return printRows(metas, []string{"Player", "Role", "Link"}, rows)
}

func intCell(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
