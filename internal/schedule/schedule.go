package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

var (
	ErrBadWindow = errors.New("open minute must be before close minute")
	ErrBadMinute = errors.New("minute of day out of range")
)

// Window is a single day's opening hours, in minutes since midnight.
// The interval is half-open: open at Open, closed again at Close.
type Window struct {
	Open  int
	Close int
}

// Week maps each weekday to its opening window. A nil entry means the
// lounge is closed that day. Immutable after construction.
type Week struct {
	days [7]*Window
}

// NewWeek validates the per-day windows and builds a Week. Days absent
// from the map are closed. Construction fails on any malformed window, so
// a bad schedule is rejected at startup rather than surfacing at query
// time.
func NewWeek(days map[time.Weekday]Window) (*Week, error) {
	w := &Week{}
	for day, win := range days {
		if win.Open < 0 || win.Open >= minutesPerDay || win.Close < 0 || win.Close >= minutesPerDay {
			return nil, fmt.Errorf("%s: %w", day, ErrBadMinute)
		}
		if win.Open >= win.Close {
			return nil, fmt.Errorf("%s: %w", day, ErrBadWindow)
		}
		cp := win
		w.days[int(day)] = &cp
	}
	return w, nil
}

// WindowOn returns the opening window for a weekday, or nil when closed.
func (w *Week) WindowOn(day time.Weekday) *Window {
	return w.days[int(day)]
}

// StatusResult is the open/closed state derived for a single point in
// time. It is recomputed on every query and never stored.
type StatusResult struct {
	IsOpen      bool
	ClosesAt    *time.Time
	NextOpensAt *time.Time
}

// Status reports whether the lounge is open at the given instant. When
// open, ClosesAt is that day's closing instant; when closed, NextOpensAt
// is the next opening instant, or nil if the whole week is closed.
func (w *Week) Status(now time.Time) StatusResult {
	win := w.WindowOn(now.Weekday())
	minute := now.Hour()*60 + now.Minute()

	if win != nil && minute >= win.Open && minute < win.Close {
		closes := atMinute(now, win.Close)
		return StatusResult{IsOpen: true, ClosesAt: &closes}
	}

	return StatusResult{NextOpensAt: w.NextOpening(now)}
}

// NextOpening finds the first opening instant strictly after now. The
// scan starts on now's own day and covers at most 8 days, which bounds
// the search without a separate all-closed special case: a fully closed
// week simply yields nil.
func (w *Week) NextOpening(now time.Time) *time.Time {
	for offset := 0; offset < 8; offset++ {
		day := now.AddDate(0, 0, offset)
		win := w.WindowOn(day.Weekday())
		if win == nil {
			continue
		}
		opens := atMinute(day, win.Open)
		if !opens.After(now) {
			// Today's opening already passed (or is right now).
			continue
		}
		return &opens
	}
	return nil
}

// FormatOpening renders an opening instant as e.g. "Wed 10:00 AM": day
// abbreviation, 12-hour clock without a leading zero on the hour, and a
// two-digit minute. A nil instant renders as the empty string.
func FormatOpening(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("Mon 3:04 PM")
}

// atMinute pins a day's date to a specific minute of day, keeping the
// location of the reference instant.
func atMinute(ref time.Time, minute int) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), minute/60, minute%60, 0, 0, ref.Location())
}

// ParseClock converts a "HH:MM" wall-clock string to minutes since
// midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q: expected HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	min, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return 0, fmt.Errorf("clock value %q out of range", s)
	}
	return hour*60 + min, nil
}
