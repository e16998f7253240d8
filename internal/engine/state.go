package engine

// State is the lifecycle state of a session.
//
// Legal transitions:
//
//	Active    → Paused, Completed, Abandoned
//	Paused    → Active, Abandoned
//	Completed, Abandoned: terminal
type State int

const (
	StateActive State = iota
	StatePaused
	StateCompleted
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateAbandoned:
		return "abandoned"
	}
	return "unknown"
}

// Terminal reports whether the state accepts no further transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAbandoned
}
