package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tyler180/hockey-stats-backends/internal/ep"
	"github.com/tyler180/hockey-stats-backends/internal/nhl"
)

//go:embed schema.sql
var Schema string

// SQLite keeps collected records in a local database file. Writes are upserts.
type SQLite struct {
	DB *sql.DB
}

// OpenSQLite opens (or creates) path and applies the schema. ":memory:" works for tests.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one connection: a second would see a different :memory: database
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{DB: db}, nil
}

func (s *SQLite) Close() error { return s.DB.Close() }

func nullStr(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// tx runs fn in one transaction with a prepared statement for query.
func (s *SQLite) tx(ctx context.Context, query string, fn func(stmt *sql.Stmt) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	if err := fn(stmt); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLite) PutRoster(ctx context.Context, recs []ep.RosterRecord) error {
	if len(recs) == 0 {
		return nil
	}
	now := time.Now().Unix()
	err := s.tx(ctx, `insert or replace into roster
		(league, season, profile_link, team, rank, player, player_name, position, role, stats, updated_at)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, func(stmt *sql.Stmt) error {
		for _, r := range recs {
			if r.ProfileLink == "" {
				continue
			}
			stats, err := json.Marshal(r.Stats)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, r.League, r.Season, r.ProfileLink, r.Team, nullStr(r.Rank),
				r.Player, r.PlayerName, nullStr(r.Position), string(r.Role), string(stats), now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlite roster rows: %w", err)
	}
	return nil
}

func (s *SQLite) PutFacts(ctx context.Context, facts []ep.PlayerFacts) error {
	if len(facts) == 0 {
		return nil
	}
	now := time.Now().Unix()
	err := s.tx(ctx, `insert or replace into player_facts
		(profile_link, player_name, date_of_birth, nation, position, height_cm, weight_kg, shoots,
		 player_types, rights, draft_round, draft_overall, draft_year, highlights, description, updated_at)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, func(stmt *sql.Stmt) error {
		for _, f := range facts {
			if f.ProfileLink == "" {
				continue
			}
			var dob, types, round, overall, year, desc any
			if f.DateOfBirth != nil {
				dob = f.DateOfBirth.Format("2006-01-02")
			}
			if f.PlayerTypes != nil {
				b, err := json.Marshal(f.PlayerTypes)
				if err != nil {
					return err
				}
				types = string(b)
			}
			if f.Draft != nil {
				round, overall, year = f.Draft.Round, f.Draft.Overall, f.Draft.Year
			}
			if f.Description != nil {
				desc = *f.Description
			}
			hl := f.Highlights
			if hl == nil {
				hl = []string{}
			}
			highlights, err := json.Marshal(hl)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, f.ProfileLink, f.PlayerName, dob, nullStr(f.Nation), nullStr(f.Position),
				nullInt(f.HeightCM), nullInt(f.WeightKG), nullStr(f.Shoots), types, nullStr(f.Rights),
				round, overall, year, string(highlights), desc, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlite facts: %w", err)
	}
	return nil
}

func (s *SQLite) PutStatLines(ctx context.Context, lines []ep.StatLine) error {
	if len(lines) == 0 {
		return nil
	}
	now := time.Now().Unix()
	err := s.tx(ctx, `insert or replace into stat_lines
		(player_name, category, season, team, league, gp, g, a, tp, pim, plus_minus, updated_at)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, func(stmt *sql.Stmt) error {
		for _, l := range lines {
			if l.PlayerName == "" || l.Season == "" {
				continue
			}
			if _, err := stmt.ExecContext(ctx, l.PlayerName, string(l.Category), l.Season, l.Team, l.League,
				nullInt(l.GP), nullInt(l.G), nullInt(l.A), nullInt(l.TP), nullInt(l.PIM), nullInt(l.PlusMinus), now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlite stat lines: %w", err)
	}
	return nil
}

func (s *SQLite) PutTeamRoster(ctx context.Context, entries []nhl.TeamRosterEntry) error {
	if len(entries) == 0 {
		return nil
	}
	now := time.Now().Unix()
	err := s.tx(ctx, `insert or replace into team_roster
		(team, season, profile_link, player_name, position, image_url, updated_at)
		values (?, ?, ?, ?, ?, ?, ?)`, func(stmt *sql.Stmt) error {
		for _, e := range entries {
			if e.ProfileLink == "" {
				continue
			}
			if _, err := stmt.ExecContext(ctx, e.Team, e.Season, e.ProfileLink, e.PlayerName, e.Position,
				nullStr(e.ImageURL), now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlite team roster: %w", err)
	}
	return nil
}

// LoadRosterMetadata reads one league season back as profile identities.
func (s *SQLite) LoadRosterMetadata(ctx context.Context, league, season string) ([]ep.PlayerMetadata, error) {
	rows, err := s.DB.QueryContext(ctx, `select player_name, role, profile_link from roster
		where league = ? and season = ? order by rowid`, league, season)
	if err != nil {
		return nil, fmt.Errorf("query roster %s %s: %w", league, season, err)
	}
	defer rows.Close()

	var recs []ep.RosterRecord
	for rows.Next() {
		var r ep.RosterRecord
		var role string
		if err := rows.Scan(&r.PlayerName, &role, &r.ProfileLink); err != nil {
			return nil, err
		}
		r.Role = ep.Role(role)
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ep.PlayersMetadata(recs), nil
}
