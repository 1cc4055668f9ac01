package progression

import "fmt"

// ErrInvalidOrdering indicates a module's phases are not strictly
// ascending by order_index. This is a data-integrity bug in the content,
// not something a user can cause.
type ErrInvalidOrdering struct {
	ModuleID   string
	PhaseID    string
	OrderIndex int
	Previous   int
}

func (e *ErrInvalidOrdering) Error() string {
	if e.OrderIndex == e.Previous {
		return fmt.Sprintf("module %q: phase %q duplicates order_index %d", e.ModuleID, e.PhaseID, e.OrderIndex)
	}
	return fmt.Sprintf("module %q: phase %q has order_index %d after %d", e.ModuleID, e.PhaseID, e.OrderIndex, e.Previous)
}

// ErrPhaseLocked indicates an attempt to enter a phase whose predecessor
// is not completed yet.
type ErrPhaseLocked struct {
	PhaseID   string
	BlockedBy string
}

func (e *ErrPhaseLocked) Error() string {
	return fmt.Sprintf("phase %q is locked until %q is completed", e.PhaseID, e.BlockedBy)
}

// ErrUnknownPhase indicates the phase is not part of the trail.
type ErrUnknownPhase struct {
	PhaseID string
}

func (e *ErrUnknownPhase) Error() string {
	return fmt.Sprintf("phase %q not found in trail", e.PhaseID)
}

// ErrInvalidTransition indicates a backwards or unknown status change.
type ErrInvalidTransition struct {
	From Status
	To   Status
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid phase transition %q -> %q", e.From, e.To)
}

// ErrInvalidRating indicates a rating outside 1..5.
type ErrInvalidRating struct {
	Rating int
}

func (e *ErrInvalidRating) Error() string {
	return fmt.Sprintf("rating must be between 1 and 5, got %d", e.Rating)
}
