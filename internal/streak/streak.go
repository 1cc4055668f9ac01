package streak

import "github.com/abhisek/trailquest/internal/calendar"

// Result is the outcome of a login tick.
type Result struct {
	Streak    int
	LastLogin calendar.Date
	Changed   bool
}

// Calculate decides the new consecutive-day streak for a login on today.
// All comparisons are on calendar days in the server's reference zone.
// The caller persists Streak and LastLogin only when Changed is true.
func Calculate(today calendar.Date, lastLogin *calendar.Date, current int) Result {
	if lastLogin == nil {
		return Result{Streak: 1, LastLogin: today, Changed: true}
	}

	if lastLogin.Equal(today) {
		// Multiple sessions on the same day count once.
		return Result{Streak: current, LastLogin: *lastLogin, Changed: false}
	}

	if lastLogin.Equal(today.AddDays(-1)) {
		return Result{Streak: current + 1, LastLogin: today, Changed: true}
	}

	// Gap of two or more days, or a last login in the future (clock skew).
	return Result{Streak: 1, LastLogin: today, Changed: true}
}
