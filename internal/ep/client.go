// Package ep collects league rosters, per-player stat tables and player facts from
// eliteprospects.com. Listing pages come over plain HTTP; profile pages are client
// rendered and go through a browser.Browser.
package ep

import (
	"log/slog"
	"strings"
	"time"

	"github.com/tyler180/hockey-stats-backends/internal/browser"
	"github.com/tyler180/hockey-stats-backends/internal/fetch"
)

const DefaultBaseURL = "https://www.eliteprospects.com"

type Client struct {
	Fetcher  fetch.Fetcher
	Launcher browser.Launcher
	BaseURL  string

	// PageDelay sits between listing page fetches.
	PageDelay fetch.Jitter
	// NavDelay is the settle time after navigating a profile page.
	NavDelay fetch.Jitter
	// RenderDelay is the wait after committing a season-selector choice.
	RenderDelay fetch.Jitter
	// WaitTimeout bounds every element wait.
	WaitTimeout time.Duration

	Log *slog.Logger
}

// New returns a Client with the site's default pacing.
func New(f fetch.Fetcher, l browser.Launcher, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		Fetcher:     f,
		Launcher:    l,
		BaseURL:     DefaultBaseURL,
		PageDelay:   fetch.Jitter{Min: time.Second, Max: 3 * time.Second},
		NavDelay:    fetch.Jitter{Min: 1500 * time.Millisecond, Max: 2500 * time.Millisecond},
		RenderDelay: fetch.Jitter{Min: 1500 * time.Millisecond, Max: 2000 * time.Millisecond},
		WaitTimeout: 15 * time.Second,
		Log:         log,
	}
}

func (c *Client) log() *slog.Logger {
	if c.Log == nil {
		return slog.Default()
	}
	return c.Log
}

func (c *Client) base() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

// absURL resolves a site-relative profile link.
func (c *Client) absURL(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	if !strings.HasPrefix(link, "/") {
		link = "/" + link
	}
	return c.base() + link
}
