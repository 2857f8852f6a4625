package view

import (
	"strings"
	"sync"
	"time"

	"github.com/lovenotes/anniversary/pkg/logger"
)

var anchorLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Elapsed is a calendar difference.
type Elapsed struct {
	Years   int `json:"years"`
	Months  int `json:"months"`
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Clock counts the time since an anchor date in a fixed location.
type Clock struct {
	mu     sync.RWMutex
	loc    *time.Location
	anchor time.Time
}

// NewClock returns a clock anchored at initial. A nil location means UTC.
func NewClock(loc *time.Location, initial string) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	c := &Clock{loc: loc}
	c.SetElapsedAnchor(initial)
	return c
}

// SetElapsedAnchor parses YYYY-MM-DDTHH:MM[:SS] (or RFC 3339). Values that do
// not parse leave the previous anchor in place.
func (c *Clock) SetElapsedAnchor(value string) {
	t, ok := parseAnchor(strings.TrimSpace(value), c.loc)
	if !ok {
		logger.Debugf("ignoring unparseable start date %q", value)
		return
	}
	c.mu.Lock()
	c.anchor = t
	c.mu.Unlock()
}

func parseAnchor(value string, loc *time.Location) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range anchorLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), true
	}
	return time.Time{}, false
}

// Anchor returns the current anchor; zero when none was ever set.
func (c *Clock) Anchor() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.anchor
}

// Since returns the elapsed time from the anchor to now.
func (c *Clock) Since(now time.Time) Elapsed {
	anchor := c.Anchor()
	if anchor.IsZero() {
		return Elapsed{}
	}
	return Between(anchor, now.In(c.loc))
}

// Between computes the field-wise difference now - start with borrowing from
// seconds up to years. Days borrow the length of the month before now's
// month. A start after now yields zero.
func Between(start, now time.Time) Elapsed {
	if now.Before(start) {
		return Elapsed{}
	}
	e := Elapsed{
		Years:   now.Year() - start.Year(),
		Months:  int(now.Month()) - int(start.Month()),
		Days:    now.Day() - start.Day(),
		Hours:   now.Hour() - start.Hour(),
		Minutes: now.Minute() - start.Minute(),
		Seconds: now.Second() - start.Second(),
	}
	if e.Seconds < 0 {
		e.Seconds += 60
		e.Minutes--
	}
	if e.Minutes < 0 {
		e.Minutes += 60
		e.Hours--
	}
	if e.Hours < 0 {
		e.Hours += 24
		e.Days--
	}
	if e.Days < 0 {
		// day 0 of this month is the last day of the previous one
		e.Days += time.Date(now.Year(), now.Month(), 0, 0, 0, 0, 0, now.Location()).Day()
		e.Months--
	}
	if e.Months < 0 {
		e.Months += 12
		e.Years--
	}
	return e
}
