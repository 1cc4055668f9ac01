package calendar

import (
	"testing"
	"time"
)

func TestDateOf_UsesLocation(t *testing.T) {
	// 2026-03-01 02:00 UTC is still Feb 28 in New York.
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	at := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)

	if got := DateOf(at, time.UTC).String(); got != "2026-03-01" {
		t.Errorf("UTC date = %s, want 2026-03-01", got)
	}
	if got := DateOf(at, ny).String(); got != "2026-02-28" {
		t.Errorf("New York date = %s, want 2026-02-28", got)
	}
}

func TestAddDays(t *testing.T) {
	tests := []struct {
		start string
		n     int
		want  string
	}{
		{"2026-01-31", 1, "2026-02-01"},
		{"2024-02-28", 1, "2024-02-29"},
		{"2026-03-01", -1, "2026-02-28"},
		{"2026-12-31", 1, "2027-01-01"},
		{"2026-10-19", 0, "2026-10-19"},
	}
	for _, tt := range tests {
		got := MustParseDate(tt.start).AddDays(tt.n).String()
		if got != tt.want {
			t.Errorf("%s + %d = %s, want %s", tt.start, tt.n, got, tt.want)
		}
	}
}

func TestDaysSince(t *testing.T) {
	d := MustParseDate("2026-10-19")
	if got := d.DaysSince(MustParseDate("2026-10-14")); got != 5 {
		t.Errorf("DaysSince = %d, want 5", got)
	}
	if got := d.DaysSince(MustParseDate("2026-10-20")); got != -1 {
		t.Errorf("DaysSince future = %d, want -1", got)
	}
	// Spans a DST change in most zones; arithmetic is on UTC midnights.
	if got := MustParseDate("2026-11-02").DaysSince(MustParseDate("2026-10-31")); got != 2 {
		t.Errorf("DaysSince across DST = %d, want 2", got)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	if _, err := ParseDate("19/10/2026"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestFixedClock(t *testing.T) {
	c := &FixedClock{At: time.Date(2026, 10, 19, 23, 30, 0, 0, time.UTC)}
	if c.Today().String() != "2026-10-19" {
		t.Fatalf("Today = %s", c.Today())
	}
	c.Advance(time.Hour)
	if c.Today().String() != "2026-10-20" {
		t.Fatalf("Today after advance = %s", c.Today())
	}
}
