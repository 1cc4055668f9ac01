package progression

// ComputeTrail derives lock state and module completion from a module's
// phase states. states must be ordered by OrderIndex ascending with no
// ties. The computation is pure; callers persist transitions separately.
func ComputeTrail(moduleID string, states []PhaseState) (*Trail, error) {
	trail := &Trail{
		ModuleID: moduleID,
		Phases:   make([]TrailPhase, len(states)),
	}

	for i, st := range states {
		if i > 0 && st.OrderIndex <= states[i-1].OrderIndex {
			return nil, &ErrInvalidOrdering{
				ModuleID:   moduleID,
				PhaseID:    st.PhaseID,
				OrderIndex: st.OrderIndex,
				Previous:   states[i-1].OrderIndex,
			}
		}

		status := st.Status
		if status == "" {
			status = StatusAvailable
		}

		trail.Phases[i] = TrailPhase{
			PhaseID:    st.PhaseID,
			OrderIndex: st.OrderIndex,
			Status:     status,
			IsLocked:   i > 0 && trail.Phases[i-1].Status != StatusCompleted,
		}
	}

	trail.ModuleComplete = allCompleted(trail.Phases)
	return trail, nil
}

// allCompleted is false for an empty module.
func allCompleted(phases []TrailPhase) bool {
	if len(phases) == 0 {
		return false
	}
	for _, p := range phases {
		if p.Status != StatusCompleted {
			return false
		}
	}
	return true
}

// Find returns the trail entry for phaseID.
func (t *Trail) Find(phaseID string) (TrailPhase, int, bool) {
	for i, p := range t.Phases {
		if p.PhaseID == phaseID {
			return p, i, true
		}
	}
	return TrailPhase{}, -1, false
}

// CheckEnter returns *ErrPhaseLocked if the phase may not be entered.
// Clients pre-filter locked phases too, but their view can be stale.
func (t *Trail) CheckEnter(phaseID string) error {
	p, i, ok := t.Find(phaseID)
	if !ok {
		return &ErrUnknownPhase{PhaseID: phaseID}
	}
	if p.IsLocked {
		return &ErrPhaseLocked{PhaseID: phaseID, BlockedBy: t.Phases[i-1].PhaseID}
	}
	return nil
}

// CompletedCount returns how many phases are completed.
func (t *Trail) CompletedCount() int {
	n := 0
	for _, p := range t.Phases {
		if p.Status == StatusCompleted {
			n++
		}
	}
	return n
}

// ProgressPercent is the share of completed phases, 0..100.
func (t *Trail) ProgressPercent() float64 {
	if len(t.Phases) == 0 {
		return 0
	}
	return float64(t.CompletedCount()) / float64(len(t.Phases)) * 100
}

// MonotonicProgress keeps module progress from moving backwards.
func MonotonicProgress(stored, computed float64) float64 {
	if computed < stored {
		return stored
	}
	if computed > 100 {
		return 100
	}
	return computed
}
