package ingest

// State is a step of the ingestion state machine.
type State int

const (
	StateIdle State = iota
	StateFiltering
	StateInspecting
	StateMerging
	StatePersisting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFiltering:
		return "filtering"
	case StateInspecting:
		return "inspecting"
	case StateMerging:
		return "merging"
	case StatePersisting:
		return "persisting"
	default:
		return "unknown"
	}
}

// Transition describes one state change of a drop.
type Transition struct {
	CorrelationID string
	From          State
	To            State
}

// Observer receives every transition. It is called synchronously and must
// not block.
type Observer func(Transition)
