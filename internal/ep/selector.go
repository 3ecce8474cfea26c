package ep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tyler180/hockey-stats-backends/internal/browser"
	"github.com/tyler180/hockey-stats-backends/internal/fetch"
)

const (
	seasonControlSel = "div.css-x1uf2d-control"
	seasonInputSel   = "#react-select-player-statistics-default-season-selector-league-input"
	adOverlaySel     = "aside.AdSlot_centering__vHSRy"
	statsTableSel    = "table.SortTable_table__jnnJk.PlayerStatistics_mobileColumnWidth__4eS8P"
)

type selectorState int

const (
	stateClosed selectorState = iota
	stateOpen
	stateFiltered
	stateCommitted
	stateRendered
)

func (s selectorState) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpen:
		return "open"
	case stateFiltered:
		return "filtered"
	case stateCommitted:
		return "committed"
	case stateRendered:
		return "rendered"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// seasonSelector drives the profile page's react-select season control from closed to
// rendered. Each step owns its wait and retry policy.
type seasonSelector struct {
	b           browser.Browser
	label       string
	waitTimeout time.Duration
	renderDelay fetch.Jitter
	log         *slog.Logger

	state selectorState
	// html is the page markup once rendered.
	html string
}

func (s *seasonSelector) run(ctx context.Context) (string, error) {
	for s.state != stateRendered {
		var err error
		switch s.state {
		case stateClosed:
			err = s.open(ctx)
		case stateOpen:
			err = s.filter(ctx)
		case stateFiltered:
			err = s.commit(ctx)
		case stateCommitted:
			err = s.render(ctx)
		}
		if err != nil {
			return "", fmt.Errorf("season selector %s: %w", s.state, err)
		}
	}
	return s.html, nil
}

// open clicks the control. An ad overlay intercepting the click is removed and the
// click retried once.
func (s *seasonSelector) open(ctx context.Context) error {
	if err := s.b.WaitClickable(ctx, seasonControlSel, s.waitTimeout); err != nil {
		return err
	}
	if err := s.b.ScrollIntoView(ctx, seasonControlSel); err != nil {
		return err
	}
	err := s.b.Click(ctx, seasonControlSel)
	if errors.Is(err, browser.ErrClickIntercepted) {
		s.log.Info("overlay blocking season selector, removing ad")
		rerr := s.b.Remove(ctx, adOverlaySel)
		if rerr != nil {
			s.log.Warn("ad overlay not removed", "err", rerr)
		}
		err = s.b.Click(ctx, seasonControlSel)
		if err != nil && rerr != nil {
			err = errors.Join(err, fmt.Errorf("remove overlay: %w", rerr))
		}
	}
	if err != nil {
		return err
	}
	s.state = stateOpen
	return nil
}

func (s *seasonSelector) filter(ctx context.Context) error {
	if err := s.b.SendKeys(ctx, seasonInputSel, s.label); err != nil {
		return err
	}
	s.state = stateFiltered
	return nil
}

func (s *seasonSelector) commit(ctx context.Context) error {
	if err := s.b.SendKeys(ctx, seasonInputSel, browser.KeyEnter); err != nil {
		return err
	}
	s.state = stateCommitted
	return nil
}

// render waits a fixed delay: the table swap is client side with no stable ready signal.
func (s *seasonSelector) render(ctx context.Context) error {
	if err := s.renderDelay.Wait(ctx); err != nil {
		return err
	}
	html, err := s.b.HTML(ctx)
	if err != nil {
		return err
	}
	s.html = html
	s.state = stateRendered
	return nil
}
