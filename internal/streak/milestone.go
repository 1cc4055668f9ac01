package streak

import "fmt"

// fixedMilestones are the early day-streak milestones.
var fixedMilestones = []int{3, 7, 14, 30}

// milestoneStep is the interval between milestones beyond the last fixed one.
const milestoneStep = 30

// NextMilestone returns the next milestone strictly above current.
func NextMilestone(current int) int {
	for _, m := range fixedMilestones {
		if m > current {
			return m
		}
	}
	return ((current / milestoneStep) + 1) * milestoneStep
}

// IsMilestone reports whether a streak of n days hits a milestone.
func IsMilestone(n int) bool {
	if n <= 0 {
		return false
	}
	return NextMilestone(n-1) == n
}

// BadgeID names the badge awarded for reaching a day-streak milestone.
func BadgeID(n int) string {
	return fmt.Sprintf("streak-%d", n)
}
