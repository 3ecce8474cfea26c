package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/tyler180/hockey-stats-backends/internal/config"
	"github.com/tyler180/hockey-stats-backends/internal/ep"
	"github.com/tyler180/hockey-stats-backends/internal/fetch"
	"github.com/tyler180/hockey-stats-backends/internal/nhl"
	"github.com/tyler180/hockey-stats-backends/internal/store"
)

var (
	jsonOut    bool
	sqlitePath string
	debug      bool
)

// app is built once per invocation in PersistentPreRunE.
var app struct {
	cfg  *config.Config
	log  *slog.Logger
	ep   *ep.Client
	nhl  *nhl.Client
	sink *store.SQLite
}

var rootCmd = &cobra.Command{
	Use:           "hockey-scrape",
	Short:         "hockey-scrape collects rosters and player stats from eliteprospects.com and nhl.com.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		cfg := config.Load()
		if debug {
			cfg.Debug = true
		}
		if sqlitePath == "" {
			sqlitePath = cfg.SQLitePath
		}

		log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      cfg.LogLevel(),
			TimeFormat: time.Kitchen,
		}))
		slog.SetDefault(log)

		launcher := cfg.Launcher(log)
		app.cfg = cfg
		app.log = log
		app.ep = cfg.EP(fetch.New(cfg.FetchOptions(log)), launcher, log)
		app.nhl = cfg.NHL(launcher, log)

		if sqlitePath != "" {
			db, err := store.OpenSQLite(cmd.Context(), sqlitePath)
			if err != nil {
				return err
			}
			app.sink = db
			log.Debug("writing to sqlite", "path", sqlitePath)
		}
		return nil
	},
}

func init() {
	// finalizers run after RunE even when it fails
	cobra.OnFinalize(closeSink)
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print results as JSON instead of a table.")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite", "", "Also write results to this SQLite database (default $SQLITE_PATH).")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging.")
}

func closeSink() {
	if app.sink == nil {
		return
	}
	if err := app.sink.Close(); err != nil {
		app.log.Warn("close sqlite", "err", err)
	}
	app.sink = nil
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// limit trims xs to n items; n <= 0 keeps everything.
func limit[T any](xs []T, n int) []T {
	if n > 0 && len(xs) > n {
		return xs[:n]
	}
	return xs
}
