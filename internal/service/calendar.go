package service

import (
	"time"

	"wordslayer/internal/models"
)

const dateKeyLayout = "2006-01-02"

// Calendar answers "today" and "this week" questions in the configured
// location. Every time it hands out is UTC, which is how times are stored.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// NewCalendar creates a calendar for loc
func NewCalendar(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{loc: loc, now: time.Now}
}

// Now returns the current time in UTC
func (c *Calendar) Now() time.Time {
	return c.now().UTC()
}

// Location returns the configured location
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// DayBounds returns [midnight, next midnight) of the local day containing t
func (c *Calendar) DayBounds(t time.Time) (time.Time, time.Time) {
	local := t.In(c.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// Today returns the bounds of the current local day
func (c *Calendar) Today() (time.Time, time.Time) {
	return c.DayBounds(c.now())
}

// DateKey formats the local date of t as YYYY-MM-DD
func (c *Calendar) DateKey(t time.Time) string {
	return t.In(c.loc).Format(dateKeyLayout)
}

// ParseDate parses YYYY-MM-DD as local midnight, returned in UTC
func (c *Calendar) ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateKeyLayout, s, c.loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// WeekBounds returns [Monday 00:00, next Monday 00:00) of the local week containing t
func (c *Calendar) WeekBounds(t time.Time) (time.Time, time.Time) {
	local := t.In(c.loc)
	offset := (int(local.Weekday()) + 6) % 7 // days since Monday
	start := time.Date(local.Year(), local.Month(), local.Day()-offset, 0, 0, 0, 0, c.loc)
	return start.UTC(), start.AddDate(0, 0, 7).UTC()
}

// WeeklyBatchNo names the incorrect-word batch of the week starting at start:
// "IW_" + YYYYMMDD of Monday + "-" + MMDD of Sunday
func (c *Calendar) WeeklyBatchNo(start time.Time) string {
	monday := start.In(c.loc)
	sunday := monday.AddDate(0, 0, 6)
	return models.WeeklyIncorrectBatchPrefix + monday.Format("20060102") + "-" + sunday.Format("0102")
}
