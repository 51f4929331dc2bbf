package pipeline

import (
	"fmt"
)

// State is the position of a run in the podcast pipeline.
type State int

// States in execution order. StateDone and StateFailed are terminal.
const (
	StateAcquiring State = iota
	StatePlanning
	StateCritiquingPlan
	StateRegeneratingPlan
	StateScripting
	StateCritiquingScript
	StateRegeneratingScript
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateAcquiring:          "acquiring",
	StatePlanning:           "planning",
	StateCritiquingPlan:     "critiquing_plan",
	StateRegeneratingPlan:   "regenerating_plan",
	StateScripting:          "scripting",
	StateCritiquingScript:   "critiquing_script",
	StateRegeneratingScript: "regenerating_script",
	StateDone:               "done",
	StateFailed:             "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Step number shown in progress output, 1-based over the seven working states.
func (s State) Step() int {
	if s.Terminal() {
		return 0
	}
	return int(s) + 1
}

// Progress categories.
const (
	CategoryAcquisition = "acquisition"
	CategoryPlanning    = "planning"
	CategoryScripting   = "scripting"
	CategoryResult      = "result"
)

func (s State) category() string {
	switch s {
	case StateAcquiring:
		return CategoryAcquisition
	case StatePlanning, StateCritiquingPlan, StateRegeneratingPlan:
		return CategoryPlanning
	case StateScripting, StateCritiquingScript, StateRegeneratingScript:
		return CategoryScripting
	default:
		return CategoryResult
	}
}

// StageError wraps the failure of a run with the state it failed in.
// errors.As still reaches the underlying acquisition or generation error.
type StageError struct {
	State State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("podcast pipeline failed while %s: %v", e.State, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
