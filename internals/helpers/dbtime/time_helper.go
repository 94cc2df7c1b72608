// file: internals/helpers/dbtime/time_helper.go
package dbtime

import (
	"errors"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

// Calendar turns instants into calendar days of one canonical timezone.
// A day is stored as midnight UTC carrying the Y/M/D of that timezone.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

func NewCalendar(tz string, now func() time.Time) (*Calendar, error) {
	loc := time.UTC
	if tz = strings.TrimSpace(tz); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, err
		}
		loc = l
	}
	if now == nil {
		now = time.Now
	}
	return &Calendar{loc: loc, now: now}, nil
}

func (c *Calendar) Location() *time.Location { return c.loc }

// DayOf strips time-of-day after moving t into the canonical timezone.
func (c *Calendar) DayOf(t time.Time) time.Time {
	lt := t.In(c.loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
}

func (c *Calendar) Today() time.Time {
	return c.DayOf(c.now())
}

// ParseDay accepts YYYY-MM-DD (already a calendar day) or RFC3339 (converted into the timezone).
func (c *Calendar) ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return c.DayOf(t), nil
	}
	return time.Time{}, ErrInvalidDate
}

// ParseOptionalDay returns nil for an empty string.
func (c *Calendar) ParseOptionalDay(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := c.ParseDay(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func FormatDay(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
