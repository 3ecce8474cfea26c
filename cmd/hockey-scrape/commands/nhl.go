package commands

import (
	"github.com/spf13/cobra"
)

var careerLimit int

func init() {
	careerCmd.Flags().IntVar(&careerLimit, "limit", 0, "Only collect the first N players of the roster.")
	rootCmd.AddCommand(teamCmd, careerCmd)
}

var teamCmd = &cobra.Command{
	Use:   "team <team> <season>",
	Short: "Collects an NHL team's roster for a season from nhl.com.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		entries, err := app.nhl.FetchTeamRoster(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if app.sink != nil {
			if err := app.sink.PutTeamRoster(ctx, entries); err != nil {
				return err
			}
		}
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{e.PlayerName, e.Position, e.ProfileLink, e.ImageURL})
		}
		return printRows(entries, []string{"Player", "Pos", "Link", "Image"}, rows)
	},
}

var careerCmd = &cobra.Command{
	Use:   "career <team> <season>",
	Short: "Collects the all-leagues career table of every player on an NHL team roster.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		entries, err := app.nhl.FetchTeamRoster(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		t, err := app.nhl.CareerStatsBatch(ctx, limit(entries, careerLimit))
		if err != nil {
			return err
		}
		return printTable(t)
	},
}
