package service

import (
	"context"
	"sync"
	"time"

	"lounge/internal/clock"
	"lounge/internal/metrics"
	"lounge/internal/schedule"

	"github.com/rs/zerolog"
)

// StatusService answers "open right now?" from the weekly schedule. The
// engine itself is a pure function of (time, schedule); the service adds
// the sampling policy — a periodic refresh that feeds the metrics gauge
// and logs open/close transitions.
type StatusService struct {
	week     *schedule.Week
	clk      clock.Clock
	interval time.Duration
	logger   *zerolog.Logger

	mu      sync.RWMutex
	last    schedule.StatusResult
	hasLast bool
}

func NewStatusService(week *schedule.Week, clk clock.Clock, interval time.Duration, logger *zerolog.Logger) *StatusService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &StatusService{
		week:     week,
		clk:      clk,
		interval: interval,
		logger:   logger,
	}
}

// Current recomputes the status for the clock's present instant.
func (s *StatusService) Current() schedule.StatusResult {
	return s.week.Status(s.clk.Now())
}

// StatusText renders the current state for display.
func (s *StatusService) StatusText() string {
	st := s.Current()
	if st.IsOpen {
		return "Open — closes " + schedule.FormatOpening(st.ClosesAt)
	}
	if st.NextOpensAt != nil {
		return "Closed — opens " + schedule.FormatOpening(st.NextOpensAt)
	}
	return "Closed"
}

// Refresh samples the clock once, updates the gauge and logs a
// transition if the open/closed state flipped since the last sample.
func (s *StatusService) Refresh() schedule.StatusResult {
	st := s.Current()
	metrics.SetOpen(st.IsOpen)

	s.mu.Lock()
	flipped := s.hasLast && s.last.IsOpen != st.IsOpen
	s.last = st
	s.hasLast = true
	s.mu.Unlock()

	if flipped {
		s.logger.Info().Bool("open", st.IsOpen).Msg("Posted-hours status changed")
	}
	return st
}

// Run refreshes on the configured interval until the context ends. The
// once-a-minute default mirrors how the site pages sample the clock.
func (s *StatusService) Run(ctx context.Context) {
	s.Refresh()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh()
		}
	}
}
