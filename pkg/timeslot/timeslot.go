// Package timeslot partitions the working day into fixed-size capacity
// windows and maps time ranges onto the windows they intersect.
package timeslot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"slotdesk/pkg/localtime"
)

var clockRegex = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// Window is one addressable capacity slice of the day, half-open
// [Start, End).
type Window struct {
	Start localtime.Time `json:"start"`
	End   localtime.Time `json:"end"`
}

// Grid describes how a calendar day decomposes into windows inside the
// working-hours band [open, close).
type Grid struct {
	windowMinutes int
	openMinutes   int
	closeMinutes  int
}

// NewGrid builds a grid of windowMinutes-sized windows between open and
// close, both "HH:MM" wall-clock times. The band must hold a whole number
// of windows.
func NewGrid(windowMinutes int, open, close string) (*Grid, error) {
	if windowMinutes <= 0 || 60%windowMinutes != 0 {
		return nil, fmt.Errorf("window size must be a positive divisor of 60 minutes, got %d", windowMinutes)
	}

	openMin, err := parseClock(open)
	if err != nil {
		return nil, fmt.Errorf("invalid day start: %w", err)
	}
	closeMin, err := parseClock(close)
	if err != nil {
		return nil, fmt.Errorf("invalid day end: %w", err)
	}
	if closeMin <= openMin {
		return nil, fmt.Errorf("day end %s must be after day start %s", close, open)
	}
	if openMin%windowMinutes != 0 || (closeMin-openMin)%windowMinutes != 0 {
		return nil, fmt.Errorf("working hours %s-%s do not hold whole %d-minute windows", open, close, windowMinutes)
	}

	return &Grid{
		windowMinutes: windowMinutes,
		openMinutes:   openMin,
		closeMinutes:  closeMin,
	}, nil
}

func parseClock(s string) (int, error) {
	if !clockRegex.MatchString(s) {
		return 0, fmt.Errorf("%q is not a valid HH:MM time", s)
	}
	parts := strings.SplitN(s, ":", 2)
	hour, _ := strconv.Atoi(parts[0])
	minute, _ := strconv.Atoi(parts[1])
	return hour*60 + minute, nil
}

func (g *Grid) WindowMinutes() int {
	return g.windowMinutes
}

func (g *Grid) WindowDuration() time.Duration {
	return time.Duration(g.windowMinutes) * time.Minute
}

// IsAligned reports whether t sits on a window boundary.
func (g *Grid) IsAligned(t localtime.Time) bool {
	return t.Minute()%g.windowMinutes == 0
}

// WithinHours reports whether the whole half-open span [start, end) falls
// inside the working-hours band of start's day.
func (g *Grid) WithinHours(start, end localtime.Time) bool {
	if !start.SameDay(end) {
		return false
	}
	return start.MinutesOfDay() >= g.openMinutes && end.MinutesOfDay() <= g.closeMinutes
}

// Covering returns every window intersecting [start, end), ascending by
// start time. With aligned endpoints the result is an exact contiguous
// partition of the span.
func (g *Grid) Covering(start, end localtime.Time) []Window {
	if !end.After(start) {
		return nil
	}

	floored := start.AddMinutes(-(start.MinutesOfDay() % g.windowMinutes))
	var windows []Window
	for w := floored; w.Before(end); w = w.AddMinutes(g.windowMinutes) {
		windows = append(windows, Window{Start: w, End: w.AddMinutes(g.windowMinutes)})
	}
	return windows
}

// DayWindows returns every window of the working-hours band on day's
// calendar day, ascending by start time.
func (g *Grid) DayWindows(day localtime.Time) []Window {
	open := day.StartOfDay().AddMinutes(g.openMinutes)
	close := day.StartOfDay().AddMinutes(g.closeMinutes)

	windows := make([]Window, 0, (g.closeMinutes-g.openMinutes)/g.windowMinutes)
	for w := open; w.Before(close); w = w.AddMinutes(g.windowMinutes) {
		windows = append(windows, Window{Start: w, End: w.AddMinutes(g.windowMinutes)})
	}
	return windows
}

// Overlaps applies the half-open interval test shared by the conflict
// resolver and the day view: [aStart,aEnd) meets [bStart,bEnd).
func Overlaps(aStart, aEnd, bStart, bEnd localtime.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
