// Package config loads collector settings from environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tyler180/hockey-stats-backends/internal/browser"
	"github.com/tyler180/hockey-stats-backends/internal/ep"
	"github.com/tyler180/hockey-stats-backends/internal/fetch"
	"github.com/tyler180/hockey-stats-backends/internal/nhl"
	"github.com/tyler180/hockey-stats-backends/internal/store"
)

type Config struct {
	EPBaseURL  string
	NHLBaseURL string

	PageDelay   fetch.Jitter
	NavDelay    fetch.Jitter
	RenderDelay fetch.Jitter
	WaitTimeout time.Duration

	// nhl.com page pacing
	NHLSettleDelay fetch.Jitter
	NHLOptionDelay fetch.Jitter
	NHLRenderDelay fetch.Jitter

	// HTTP retry policy
	HTTPMaxAttempts int
	HTTPRetryBase   time.Duration
	HTTPRetryMax    time.Duration
	HTTPCooldown    time.Duration
	HTTPRPS         float64

	ChromeHeadless bool
	ChromePath     string
	UserAgent      string
	Debug          bool

	// DynamoDB tables; empty disables that record kind
	RosterTable string
	FactsTable  string
	StatsTable  string
	TeamTable   string

	SQLitePath string
}

func Load() *Config {
	return &Config{
		EPBaseURL:  envStr("EP_BASE_URL", ep.DefaultBaseURL),
		NHLBaseURL: envStr("NHL_BASE_URL", nhl.DefaultBaseURL),

		PageDelay:   envJitter("PAGE_DELAY_MIN_MS", "PAGE_DELAY_MAX_MS", 1000, 3000),
		NavDelay:    envJitter("NAV_DELAY_MIN_MS", "NAV_DELAY_MAX_MS", 1500, 2500),
		RenderDelay: envJitter("RENDER_DELAY_MIN_MS", "RENDER_DELAY_MAX_MS", 1500, 2000),
		WaitTimeout: envMillis("WAIT_TIMEOUT_MS", 15000),

		NHLSettleDelay: envFixed("NHL_SETTLE_DELAY_MS", 2000),
		NHLOptionDelay: envFixed("NHL_OPTION_DELAY_MS", 1000),
		NHLRenderDelay: envFixed("NHL_RENDER_DELAY_MS", 2000),

		HTTPMaxAttempts: envInt("HTTP_MAX_ATTEMPTS", 6),
		HTTPRetryBase:   envMillis("HTTP_RETRY_BASE_MS", 400),
		HTTPRetryMax:    envMillis("HTTP_RETRY_MAX_MS", 6000),
		HTTPCooldown:    envMillis("HTTP_COOLDOWN_MS", 7000), // used on 429 when no Retry-After
		HTTPRPS:         envFloat("HTTP_RPS", 1),

		ChromeHeadless: envBool("CHROME_HEADLESS", true),
		ChromePath:     envStr("CHROME_PATH", ""),
		UserAgent:      envStr("USER_AGENT", fetch.DefaultUserAgent),
		Debug:          envBool("DEBUG", false),

		RosterTable: envStr("ROSTER_TABLE_NAME", ""),
		FactsTable:  envStr("FACTS_TABLE_NAME", ""),
		StatsTable:  envStr("STATS_TABLE_NAME", ""),
		TeamTable:   envStr("TEAM_TABLE_NAME", ""),

		SQLitePath: envStr("SQLITE_PATH", ""),
	}
}

func (c *Config) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func (c *Config) FetchOptions(log *slog.Logger) fetch.Options {
	o := fetch.DefaultOptions()
	o.UserAgent = c.UserAgent
	o.MaxAttempts = c.HTTPMaxAttempts
	o.RetryBase = c.HTTPRetryBase
	o.RetryMax = c.HTTPRetryMax
	o.Cooldown = c.HTTPCooldown
	o.RPS = c.HTTPRPS
	o.Logger = log
	return o
}

func (c *Config) Launcher(log *slog.Logger) browser.Launcher {
	return browser.ChromeLauncher{Opts: browser.ChromeOptions{
		Headless:  c.ChromeHeadless,
		UserAgent: c.UserAgent,
		ExecPath:  c.ChromePath,
		Logger:    log,
	}}
}

// EP builds the eliteprospects client with this config's pacing.
func (c *Config) EP(f fetch.Fetcher, l browser.Launcher, log *slog.Logger) *ep.Client {
	cl := ep.New(f, l, log)
	cl.BaseURL = c.EPBaseURL
	cl.PageDelay = c.PageDelay
	cl.NavDelay = c.NavDelay
	cl.RenderDelay = c.RenderDelay
	cl.WaitTimeout = c.WaitTimeout
	return cl
}

func (c *Config) NHL(l browser.Launcher, log *slog.Logger) *nhl.Client {
	cl := nhl.New(l, log)
	cl.BaseURL = c.NHLBaseURL
	cl.NavDelay = c.NavDelay
	cl.SettleDelay = c.NHLSettleDelay
	cl.OptionDelay = c.NHLOptionDelay
	cl.RenderDelay = c.NHLRenderDelay
	cl.WaitTimeout = c.WaitTimeout
	return cl
}

func (c *Config) Tables() store.Tables {
	return store.Tables{Roster: c.RosterTable, Facts: c.FactsTable, Stats: c.StatsTable, Team: c.TeamTable}
}

// -------------------- env helpers --------------------

func envStr(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return b
	}
	return def
}

func envMillis(key string, def int) time.Duration {
	ms := envInt(key, def)
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond
}

// envJitter reads a min/max pair; a max below min collapses to min.
func envJitter(minKey, maxKey string, defMin, defMax int) fetch.Jitter {
	lo, hi := envMillis(minKey, defMin), envMillis(maxKey, defMax)
	if hi < lo {
		hi = lo
	}
	return fetch.Jitter{Min: lo, Max: hi}
}

func envFixed(key string, def int) fetch.Jitter {
	d := envMillis(key, def)
	return fetch.Jitter{Min: d, Max: d}
}
