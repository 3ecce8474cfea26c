package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/tyler180/hockey-stats-backends/internal/config"
	"github.com/tyler180/hockey-stats-backends/internal/ep"
	"github.com/tyler180/hockey-stats-backends/internal/fetch"
	"github.com/tyler180/hockey-stats-backends/internal/store"
)

// Event fields override the environment when set.
type Event struct {
	Mode   string `json:"mode"`
	League string `json:"league"`
	Season string `json:"season"`
	Limit  int    `json:"limit"`
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustenv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("missing env", "key", k)
		os.Exit(1)
	}
	return v
}

func pick(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func handler(ctx context.Context, ev Event) error {
	mode := strings.ToLower(pick(ev.Mode, getenv("MODE", "all"))) // roster | facts | stats | all
	league := strings.ToLower(pick(ev.League, getenv("LEAGUE", "nhl")))
	season := pick(ev.Season, getenv("SEASON", "2023-2024"))
	maxPlayers := ev.Limit
	if maxPlayers == 0 {
		maxPlayers = ep.Atoi(getenv("MAX_PLAYERS", "0"), 0)
	}

	cfg := config.Load()
	mustenv("ROSTER_TABLE_NAME")
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))

	awsConf, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return err
	}
	sink := store.NewDynamo(ddb.NewFromConfig(awsConf), cfg.Tables())
	client := cfg.EP(fetch.New(cfg.FetchOptions(log)), cfg.Launcher(log), log)

	// 1) Roster rows for the league season
	if mode == "roster" || mode == "all" {
		recs, err := client.SeasonRoster(ctx, league, season)
		if err != nil {
			return err
		}
		if err := sink.PutRoster(ctx, recs); err != nil {
			return err
		}
		log.Info("OK ingest roster", "rows", len(recs), "table", cfg.RosterTable, "league", league, "season", season)
	}

	needPlayers := mode == "facts" || mode == "stats" || mode == "all"
	if !needPlayers {
		if mode != "roster" {
			return fmt.Errorf("unknown mode %q", mode)
		}
		return nil
	}

	// 2) Player pages, driven by what is already in the roster table
	metas, err := sink.LoadRosterMetadata(ctx, league, season)
	if err != nil {
		return err
	}
	if maxPlayers > 0 && len(metas) > maxPlayers {
		metas = metas[:maxPlayers]
	}

	if mode == "facts" || mode == "all" {
		facts, err := client.PlayersFacts(ctx, metas)
		if err != nil {
			return err
		}
		if err := sink.PutFacts(ctx, facts); err != nil {
			return err
		}
		log.Info("OK ingest facts", "players", len(facts), "table", cfg.FactsTable)
	}

	if mode == "stats" || mode == "all" {
		t, err := client.PlayersStats(ctx, metas, ep.RegularSeason)
		if err != nil {
			return err
		}
		lines := ep.StatLines(t)
		if err := sink.PutStatLines(ctx, lines); err != nil {
			return err
		}
		log.Info("OK ingest stats", "lines", len(lines), "table", cfg.StatsTable)
	}

	return nil
}

func main() {
	lambda.Start(handler)
}
