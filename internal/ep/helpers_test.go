package ep

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/tyler180/hockey-stats-backends/internal/browser/browsertest"
	"github.com/tyler180/hockey-stats-backends/internal/fetch"
)

const testBase = "https://ep.test"

// fakeFetcher serves canned bodies by URL and records every request.
type fakeFetcher struct {
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) Get(_ context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	if err := f.errs[url]; err != nil {
		return "", err
	}
	body, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("status 404 for %s", url)
	}
	return body, nil
}

// testClient has no pacing and logs into buf.
func testClient(t *testing.T, f fetch.Fetcher, l *browsertest.Launcher) (*Client, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := New(f, l, log)
	c.BaseURL = testBase
	c.PageDelay = fetch.Jitter{}
	c.NavDelay = fetch.Jitter{}
	c.RenderDelay = fetch.Jitter{}
	return c, &buf
}

func intp(i int) *int { return &i }
