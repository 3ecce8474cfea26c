package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeOptions configures a chromedp-backed session.
type ChromeOptions struct {
	Headless  bool
	UserAgent string
	// ExecPath overrides the Chrome binary; empty uses chromedp's lookup.
	ExecPath string
	Logger   *slog.Logger
}

// Chrome is a Browser backed by a local headless Chrome driven through chromedp.
type Chrome struct {
	ctx         context.Context
	cancelAlloc context.CancelFunc
	cancelTab   context.CancelFunc
	log         *slog.Logger
}

// ChromeLauncher launches a fresh Chrome process per session.
type ChromeLauncher struct {
	Opts ChromeOptions
}

func (l ChromeLauncher) Launch(ctx context.Context) (Browser, error) {
	return NewChrome(ctx, l.Opts)
}

// NewChrome starts Chrome and opens a blank tab. The process lives until Close.
func NewChrome(ctx context.Context, o ChromeOptions) (*Chrome, error) {
	log := o.Logger
	if log == nil {
		log = slog.Default()
	}
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("headless", o.Headless),
	)
	if o.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(o.UserAgent))
	}
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}

	// the browser outlives the launch ctx
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		log.Debug(fmt.Sprintf(format, args...))
	}))
	c := &Chrome{ctx: tabCtx, cancelAlloc: cancelAlloc, cancelTab: cancelTab, log: log}

	// the first Run allocates the browser and ties it to the ctx it is given,
	// so it must be the long-lived tab ctx and not a derived one
	if err := chromedp.Run(tabCtx); err != nil {
		c.Close()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	return c, nil
}

// run executes actions on the tab, bounded by the caller's ctx and an optional timeout.
func (c *Chrome) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(c.ctx)
	defer cancel()
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func by(sel string) chromedp.QueryOption {
	if IsXPath(sel) {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	return c.run(ctx, 0, chromedp.Navigate(url))
}

func (c *Chrome) WaitReady(ctx context.Context, sel string, timeout time.Duration) error {
	return c.run(ctx, timeout, chromedp.WaitReady(sel, by(sel)))
}

func (c *Chrome) WaitClickable(ctx context.Context, sel string, timeout time.Duration) error {
	return c.run(ctx, timeout,
		chromedp.WaitVisible(sel, by(sel)),
		chromedp.WaitEnabled(sel, by(sel)),
	)
}

func (c *Chrome) ScrollIntoView(ctx context.Context, sel string) error {
	return c.run(ctx, 0, chromedp.ScrollIntoView(sel, by(sel)))
}

// hitTestJS reports whether the centre of the first match is covered by something else.
const hitTestJS = `(() => {
  const el = document.querySelector(%s);
  if (!el) return "missing";
  const r = el.getBoundingClientRect();
  const top = document.elementFromPoint(r.left + r.width / 2, r.top + r.height / 2);
  return (top && (top === el || el.contains(top))) ? "ok" : "covered";
})()`

func (c *Chrome) Click(ctx context.Context, sel string) error {
	if !IsXPath(sel) {
		var state string
		if err := c.run(ctx, 0, chromedp.Evaluate(fmt.Sprintf(hitTestJS, jsString(sel)), &state)); err != nil {
			return err
		}
		switch state {
		case "missing":
			return fmt.Errorf("%w: %s", ErrNotFound, sel)
		case "covered":
			return fmt.Errorf("%w: %s", ErrClickIntercepted, sel)
		}
	}
	return c.run(ctx, 0, chromedp.Click(sel, by(sel), chromedp.NodeVisible))
}

func (c *Chrome) ClickJS(ctx context.Context, sel string) error {
	if IsXPath(sel) {
		js := fmt.Sprintf(`(() => { const r = document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null); if (!r.singleNodeValue) return false; r.singleNodeValue.click(); return true; })()`, jsString(sel))
		return c.evalFound(ctx, js, sel)
	}
	js := fmt.Sprintf(`(() => { const el = document.querySelector(%s); if (!el) return false; el.click(); return true; })()`, jsString(sel))
	return c.evalFound(ctx, js, sel)
}

func (c *Chrome) SendKeys(ctx context.Context, sel, keys string) error {
	return c.run(ctx, 0, chromedp.SendKeys(sel, keys, by(sel)))
}

func (c *Chrome) Remove(ctx context.Context, sel string) error {
	js := fmt.Sprintf(`(() => { const el = document.querySelector(%s); if (!el) return false; el.remove(); return true; })()`, jsString(sel))
	return c.evalFound(ctx, js, sel)
}

func (c *Chrome) evalFound(ctx context.Context, js, sel string) error {
	var found bool
	if err := c.run(ctx, 0, chromedp.Evaluate(js, &found)); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, sel)
	}
	return nil
}

func (c *Chrome) HTML(ctx context.Context) (string, error) {
	var html string
	if err := c.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Close terminates the tab and the Chrome process. Safe to call more than once.
func (c *Chrome) Close() error {
	if c.cancelTab != nil {
		c.cancelTab()
		c.cancelTab = nil
	}
	if c.cancelAlloc != nil {
		c.cancelAlloc()
		c.cancelAlloc = nil
	}
	return nil
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
