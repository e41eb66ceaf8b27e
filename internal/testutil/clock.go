package testutil

import (
	"fmt"
	"sync"
	"time"
)

// DefaultToday is the date a Calendar starts on when none is given.
const DefaultToday = "2025-01-01"

// Calendar is a day clock for tests and scenarios.
//
// Unlike time.Now, a Calendar only moves when told to, so the @TODAY and
// @THISYEAR constants seen by rules are reproducible across runs.
//
// Thread-safety: All methods are safe for concurrent use.
type Calendar struct {
	mu    sync.Mutex
	start time.Time
	today time.Time
}

// NewCalendar creates a calendar on date, an ISO yyyy-mm-dd string.
// An empty date starts on DefaultToday.
func NewCalendar(date string) (*Calendar, error) {
	if date == "" {
		date = DefaultToday
	}
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return &Calendar{start: day, today: day}, nil
}

// MustCalendar is like NewCalendar but panics on an invalid date.
func MustCalendar(date string) *Calendar {
	c, err := NewCalendar(date)
	if err != nil {
		panic(err)
	}
	return c
}

// Today returns the current day at midnight UTC.
func (c *Calendar) Today() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.today
}

// Advance moves the calendar by days and returns the new day.
func (c *Calendar) Advance(days int) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.today = c.today.AddDate(0, 0, days)
	return c.today
}

// Reset returns the calendar to its start day.
func (c *Calendar) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.today = c.start
}
