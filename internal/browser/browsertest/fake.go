// Package browsertest provides a scripted in-memory browser.Browser for collector tests.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tyler180/hockey-stats-backends/internal/browser"
)

// Fake serves canned markup and answers element queries against it with goquery.
// XPath selectors are answered from the XPath set.
type Fake struct {
	// Pages maps URL to the markup shown after Navigate.
	Pages map[string]string
	// Overlays maps a click target to the selector of the element covering it.
	// Clicks on the target fail with browser.ErrClickIntercepted while the overlay is present.
	Overlays map[string]string
	// Intercepts fails the next N clicks on a selector with browser.ErrClickIntercepted,
	// whatever is on the page.
	Intercepts map[string]int
	// Commits maps the text typed before Enter to the markup shown afterwards.
	Commits map[string]string
	// Clicks maps a selector to the markup shown after it is clicked.
	Clicks map[string]string
	// XPath lists XPath selectors that are considered present.
	XPath map[string]bool
	// NavigateErr fails Navigate for the given URL.
	NavigateErr map[string]error

	Calls  []string
	Closed bool

	current string
	typed   map[string]string
}

var _ browser.Browser = (*Fake)(nil)

func (f *Fake) record(format string, args ...any) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

func (f *Fake) present(sel string) bool {
	if browser.IsXPath(sel) {
		return f.XPath[sel]
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(f.current))
	if err != nil {
		return false
	}
	return doc.Find(sel).Length() > 0
}

func (f *Fake) Navigate(_ context.Context, url string) error {
	f.record("navigate %s", url)
	if err := f.NavigateErr[url]; err != nil {
		return err
	}
	page, ok := f.Pages[url]
	if !ok {
		return fmt.Errorf("fake: no page for %s", url)
	}
	f.current = page
	f.typed = nil
	return nil
}

func (f *Fake) WaitReady(_ context.Context, sel string, _ time.Duration) error {
	f.record("wait %s", sel)
	if !f.present(sel) {
		return fmt.Errorf("%w: %s", browser.ErrTimeout, sel)
	}
	return nil
}

func (f *Fake) WaitClickable(ctx context.Context, sel string, timeout time.Duration) error {
	return f.WaitReady(ctx, sel, timeout)
}

func (f *Fake) ScrollIntoView(_ context.Context, sel string) error {
	f.record("scroll %s", sel)
	if !f.present(sel) {
		return fmt.Errorf("%w: %s", browser.ErrNotFound, sel)
	}
	return nil
}

func (f *Fake) Click(_ context.Context, sel string) error {
	f.record("click %s", sel)
	if !f.present(sel) {
		return fmt.Errorf("%w: %s", browser.ErrNotFound, sel)
	}
	if f.Intercepts[sel] > 0 {
		f.Intercepts[sel]--
		return fmt.Errorf("%w: %s", browser.ErrClickIntercepted, sel)
	}
	if ov, ok := f.Overlays[sel]; ok && f.present(ov) {
		return fmt.Errorf("%w: %s", browser.ErrClickIntercepted, sel)
	}
	if next, ok := f.Clicks[sel]; ok {
		f.current = next
	}
	return nil
}

func (f *Fake) ClickJS(_ context.Context, sel string) error {
	f.record("jsclick %s", sel)
	if !f.present(sel) {
		return fmt.Errorf("%w: %s", browser.ErrNotFound, sel)
	}
	if next, ok := f.Clicks[sel]; ok {
		f.current = next
	}
	return nil
}

func (f *Fake) SendKeys(_ context.Context, sel, keys string) error {
	f.record("keys %s %q", sel, keys)
	if !f.present(sel) {
		return fmt.Errorf("%w: %s", browser.ErrNotFound, sel)
	}
	if f.typed == nil {
		f.typed = map[string]string{}
	}
	if keys == browser.KeyEnter {
		if next, ok := f.Commits[f.typed[sel]]; ok {
			f.current = next
		}
		f.typed[sel] = ""
		return nil
	}
	f.typed[sel] += keys
	return nil
}

func (f *Fake) Remove(_ context.Context, sel string) error {
	f.record("remove %s", sel)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(f.current))
	if err != nil {
		return err
	}
	found := doc.Find(sel).First()
	if found.Length() == 0 {
		return fmt.Errorf("%w: %s", browser.ErrNotFound, sel)
	}
	found.Remove()
	html, err := doc.Html()
	if err != nil {
		return err
	}
	f.current = html
	return nil
}

func (f *Fake) HTML(context.Context) (string, error) {
	f.record("html")
	return f.current, nil
}

func (f *Fake) Close() error {
	f.record("close")
	f.Closed = true
	return nil
}

// Launcher hands out sessions built by New and counts launches.
type Launcher struct {
	New      func() *Fake
	Err      error
	Launched []*Fake
}

func (l *Launcher) Launch(context.Context) (browser.Browser, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	f := l.New()
	l.Launched = append(l.Launched, f)
	return f, nil
}
