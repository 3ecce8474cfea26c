// Package store persists collected records. Dynamo backs the Lambda ingest; SQLite is
// the local sink for the CLI.
package store

import (
	"context"

	"github.com/tyler180/hockey-stats-backends/internal/ep"
	"github.com/tyler180/hockey-stats-backends/internal/nhl"
)

type Sink interface {
	PutRoster(ctx context.Context, recs []ep.RosterRecord) error
	PutFacts(ctx context.Context, facts []ep.PlayerFacts) error
	PutStatLines(ctx context.Context, lines []ep.StatLine) error
	PutTeamRoster(ctx context.Context, entries []nhl.TeamRosterEntry) error
	LoadRosterMetadata(ctx context.Context, league, season string) ([]ep.PlayerMetadata, error)
}

var (
	_ Sink = (*Dynamo)(nil)
	_ Sink = (*SQLite)(nil)
)
