package service

import (
	"io"
	"testing"
	"time"

	"lounge/internal/clock"
	"lounge/internal/schedule"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWeek(t *testing.T) *schedule.Week {
	t.Helper()
	week, err := schedule.NewWeek(map[time.Weekday]schedule.Window{
		time.Sunday:    {Open: 600, Close: 1140},
		time.Wednesday: {Open: 600, Close: 1140},
		time.Thursday:  {Open: 600, Close: 1140},
		time.Friday:    {Open: 600, Close: 1140},
		time.Saturday:  {Open: 600, Close: 1140},
	})
	require.NoError(t, err)
	return week
}

func TestStatusServiceCurrent(t *testing.T) {
	logger := zerolog.New(io.Discard)
	week := testWeek(t)

	// Monday 2025-06-02 14:00: closed, next opening Wednesday 10:00.
	clk := clock.NewFixed(time.Date(2025, time.June, 2, 14, 0, 0, 0, time.Local))
	svc := NewStatusService(week, clk, time.Minute, &logger)

	st := svc.Current()
	assert.False(t, st.IsOpen)
	require.NotNil(t, st.NextOpensAt)
	assert.Equal(t, "Wed 10:00 AM", schedule.FormatOpening(st.NextOpensAt))
	assert.Equal(t, "Closed — opens Wed 10:00 AM", svc.StatusText())

	// Advance to Wednesday 10:00: open until 19:00.
	clk.Set(time.Date(2025, time.June, 4, 10, 0, 0, 0, time.Local))
	st = svc.Current()
	assert.True(t, st.IsOpen)
	assert.Equal(t, "Open — closes Wed 7:00 PM", svc.StatusText())
}

func TestStatusServiceRefreshTracksTransitions(t *testing.T) {
	logger := zerolog.New(io.Discard)
	week := testWeek(t)

	// Saturday 18:59, one minute before close.
	clk := clock.NewFixed(time.Date(2025, time.June, 7, 18, 59, 0, 0, time.Local))
	svc := NewStatusService(week, clk, time.Minute, &logger)

	st := svc.Refresh()
	assert.True(t, st.IsOpen)

	// One minute later the half-open window has ended.
	clk.Advance(time.Minute)
	st = svc.Refresh()
	assert.False(t, st.IsOpen)
	require.NotNil(t, st.NextOpensAt)
	assert.Equal(t, "Sun 10:00 AM", schedule.FormatOpening(st.NextOpensAt))
}

func TestStatusServiceAllClosedWeek(t *testing.T) {
	logger := zerolog.New(io.Discard)
	week, err := schedule.NewWeek(nil)
	require.NoError(t, err)

	clk := clock.NewFixed(time.Date(2025, time.June, 2, 14, 0, 0, 0, time.Local))
	svc := NewStatusService(week, clk, time.Minute, &logger)

	assert.Equal(t, "Closed", svc.StatusText())
}
