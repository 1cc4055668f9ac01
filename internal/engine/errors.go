package engine

import "fmt"

// ErrModuleIncomplete indicates a module reward was claimed before every
// phase was completed.
type ErrModuleIncomplete struct {
	ModuleID  string
	Completed int
	Total     int
}

func (e *ErrModuleIncomplete) Error() string {
	return fmt.Sprintf("module %q is not complete (%d/%d phases)", e.ModuleID, e.Completed, e.Total)
}
