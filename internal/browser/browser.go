// Package browser is the small surface of a headless browser that the collectors need:
// navigate, wait for an element state, click/type into controls, and read rendered markup.
//
// Selectors beginning with "/" are treated as XPath, everything else as CSS.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrClickIntercepted means another element (usually an ad overlay) covers the target.
	ErrClickIntercepted = errors.New("click intercepted by overlay")
	// ErrNotFound means the selector matched nothing.
	ErrNotFound = errors.New("element not found")
	// ErrTimeout means a bounded wait expired before the element reached the wanted state.
	ErrTimeout = errors.New("wait timed out")
)

// Browser is one page session. Implementations are not safe for concurrent use;
// callers serialize all calls against a session.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	// WaitReady waits until sel is present in the DOM.
	WaitReady(ctx context.Context, sel string, timeout time.Duration) error
	// WaitClickable waits until sel is visible and enabled.
	WaitClickable(ctx context.Context, sel string, timeout time.Duration) error
	ScrollIntoView(ctx context.Context, sel string) error
	// Click returns ErrClickIntercepted when the element is covered.
	Click(ctx context.Context, sel string) error
	// ClickJS dispatches el.click() from script, bypassing hit testing.
	ClickJS(ctx context.Context, sel string) error
	SendKeys(ctx context.Context, sel, keys string) error
	// Remove deletes the first element matching sel from the DOM.
	Remove(ctx context.Context, sel string) error
	// HTML returns the fully rendered document markup.
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Launcher starts a new session. Sessions returned by a Launcher are owned by the caller.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context) (Browser, error)

func (f LauncherFunc) Launch(ctx context.Context) (Browser, error) { return f(ctx) }

// KeyEnter is the keystroke that confirms a selection.
const KeyEnter = "\r"

// IsXPath reports whether sel is an XPath expression.
func IsXPath(sel string) bool {
	return len(sel) > 0 && sel[0] == '/'
}
