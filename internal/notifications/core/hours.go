package core

import (
	"fmt"
	"time"

	"casenotify/internal/types"
)

// timeOfDay is a wall-clock time with hour and minute components.
type timeOfDay struct {
	hour   int
	minute int
}

func (t timeOfDay) toMinutes() int {
	return t.hour*60 + t.minute
}

// parseTimeOfDay parses a "HH:MM" string into a timeOfDay.
func parseTimeOfDay(s string) (timeOfDay, error) {
	var h, m int
	n, err := fmt.Sscanf(s, "%d:%d", &h, &m)
	if err != nil || n != 2 {
		return timeOfDay{}, fmt.Errorf("expected HH:MM format, got %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return timeOfDay{}, fmt.Errorf("time out of range: %q", s)
	}
	return timeOfDay{hour: h, minute: m}, nil
}

// HoursGate defers non-exempt events that arrive outside the configured
// business-hours window. Letters are handed to a postal provider and are not
// time-sensitive in the same way, but the deferral applies to the whole event
// so recipients never see channels split across days.
type HoursGate struct {
	start timeOfDay
	end   timeOfDay
	loc   *time.Location
	clock types.Clock
}

// NewHoursGate builds a gate from the configured window. The window may span
// midnight (start after end).
func NewHoursGate(cfg types.BusinessHours, clock types.Clock) (*HoursGate, error) {
	start, err := parseTimeOfDay(cfg.Start)
	if err != nil {
		return nil, fmt.Errorf("invalid business hours start: %w", err)
	}
	end, err := parseTimeOfDay(cfg.End)
	if err != nil {
		return nil, fmt.Errorf("invalid business hours end: %w", err)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid business hours timezone %q: %w", cfg.Timezone, err)
	}
	return &HoursGate{start: start, end: end, loc: loc, clock: clock}, nil
}

// ShouldSendNow reports whether the event may be dispatched immediately.
// Events flagged as out-of-hours exempt always pass.
func (g *HoursGate) ShouldSendNow(event types.EventType) bool {
	if event.AllowOutOfHours() {
		return true
	}
	return g.inWindow(g.clock.Now().In(g.loc))
}

// NextOpen returns the next instant the window opens, in UTC. When called
// while the window is already open it returns the current time.
func (g *HoursGate) NextOpen() time.Time {
	now := g.clock.Now().In(g.loc)
	if g.inWindow(now) {
		return now.UTC()
	}

	open := time.Date(now.Year(), now.Month(), now.Day(), g.start.hour, g.start.minute, 0, 0, g.loc)
	if !open.After(now) {
		open = open.AddDate(0, 0, 1)
	}
	return open.UTC()
}

func (g *HoursGate) inWindow(now time.Time) bool {
	nowMinutes := now.Hour()*60 + now.Minute()
	startMinutes := g.start.toMinutes()
	endMinutes := g.end.toMinutes()

	if startMinutes <= endMinutes {
		// Same-day window (e.g. 09:00-17:00)
		return nowMinutes >= startMinutes && nowMinutes < endMinutes
	}
	// Overnight window (e.g. 22:00-06:00)
	return nowMinutes >= startMinutes || nowMinutes < endMinutes
}
