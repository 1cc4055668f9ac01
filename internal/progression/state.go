package progression

// Status is the stored lifecycle position of a phase for one user.
// "Locked" is deliberately absent: it is derived from the previous
// phase on every read and never persisted.
type Status string

const (
	StatusAvailable  Status = "available"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is one of the stored statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// PhaseKind is the content type of a phase.
type PhaseKind string

const (
	KindVideo     PhaseKind = "video"
	KindText      PhaseKind = "text"
	KindQuiz      PhaseKind = "quiz"
	KindChallenge PhaseKind = "challenge"
)

// AllKinds returns every phase kind.
func AllKinds() []PhaseKind {
	return []PhaseKind{KindVideo, KindText, KindQuiz, KindChallenge}
}

// Phase is the ordering unit of a module. It is immutable while a trail
// is being computed.
type Phase struct {
	ID         string
	ModuleID   string
	OrderIndex int
	Kind       PhaseKind
	Title      string
	XP         int
	Coins      int
}

// PhaseState pairs a phase with the user's stored status for it.
// A phase the user never touched has StatusAvailable.
type PhaseState struct {
	PhaseID    string
	OrderIndex int
	Status     Status
}

// TrailPhase is the lock-annotated view of a phase.
type TrailPhase struct {
	PhaseID    string
	OrderIndex int
	Status     Status
	IsLocked   bool
}

// Trail is the ordered, lock-annotated view of a module's phases.
type Trail struct {
	ModuleID       string
	Phases         []TrailPhase
	ModuleComplete bool
}

// Transition validates a status change. Statuses only move forward;
// re-entering a completed phase is a read-only replay, not a transition.
func Transition(from, to Status) error {
	if !from.Valid() || !to.Valid() {
		return &ErrInvalidTransition{From: from, To: to}
	}
	if from == to {
		return nil
	}
	switch {
	case from == StatusAvailable && to == StatusInProgress:
		return nil
	case from == StatusInProgress && to == StatusCompleted:
		return nil
	case from == StatusAvailable && to == StatusCompleted:
		// Started and finished in the same step.
		return nil
	}
	return &ErrInvalidTransition{From: from, To: to}
}

// ValidateRating checks an optional completion rating.
func ValidateRating(r *int) error {
	if r == nil {
		return nil
	}
	if *r < 1 || *r > 5 {
		return &ErrInvalidRating{Rating: *r}
	}
	return nil
}
