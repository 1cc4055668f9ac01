package calendar

import (
	"fmt"
	"time"
)

// Clock supplies the server's notion of "now" and "today".
type Clock interface {
	Now() time.Time
	Today() Date
}

// SystemClock reads the wall clock and reports days in a fixed
// reference location chosen by the server, never the client's zone.
type SystemClock struct {
	Location *time.Location
}

// NewSystemClock resolves an IANA zone name ("" means UTC).
func NewSystemClock(zone string) (*SystemClock, error) {
	if zone == "" {
		return &SystemClock{Location: time.UTC}, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return &SystemClock{Location: loc}, nil
}

func (c *SystemClock) Now() time.Time { return time.Now().UTC() }

func (c *SystemClock) Today() Date { return DateOf(time.Now(), c.Location) }

// FixedClock always reports the same instant. Used by tests and by the
// CLI's --today override.
type FixedClock struct {
	At       time.Time
	Location *time.Location
}

func (c *FixedClock) Now() time.Time { return c.At.UTC() }

func (c *FixedClock) Today() Date { return DateOf(c.At, c.Location) }

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) { c.At = t }

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) { c.At = c.At.Add(d) }
