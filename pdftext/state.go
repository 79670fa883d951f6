package pdftext

import "fmt"

// State is a step of the extraction state machine.
type State int

// States.
const (
	StateParse State = iota
	StateRetry
	StateNormalize
	StateFail
	StateDone
)

func (s State) String() string {
	switch s {
	case StateParse:
		return "Parse"
	case StateRetry:
		return "Retry"
	case StateNormalize:
		return "Normalize"
	case StateFail:
		return "Fail"
	case StateDone:
		return "Done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Event is the outcome of running a state.
type Event int

// Events.
const (
	// EventParsed means the parser produced page text.
	EventParsed Event = iota
	// EventStructural means the cross-reference data or object graph is damaged.
	EventStructural
	// EventEncrypted means the document is password protected.
	EventEncrypted
	// EventOther is any other parser failure.
	EventOther
	// EventEmpty means normalization left no text.
	EventEmpty
	// EventText means normalization left text.
	EventText
)

func (e Event) String() string {
	switch e {
	case EventParsed:
		return "Parsed"
	case EventStructural:
		return "Structural"
	case EventEncrypted:
		return "Encrypted"
	case EventOther:
		return "Other"
	case EventEmpty:
		return "Empty"
	case EventText:
		return "Text"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// transition returns the state that follows s on ev. StateFail and StateDone
// are absorbing; any other pair that cannot occur leads to StateFail.
func transition(s State, ev Event) State {
	switch s {
	case StateParse:
		switch ev {
		case EventParsed:
			return StateNormalize
		case EventStructural:
			return StateRetry
		case EventEncrypted, EventOther:
			return StateFail
		}
	case StateRetry:
		switch ev {
		case EventParsed:
			return StateNormalize
		case EventStructural, EventEncrypted, EventOther:
			return StateFail
		}
	case StateNormalize:
		switch ev {
		case EventText:
			return StateDone
		case EventEmpty:
			return StateFail
		}
	case StateFail, StateDone:
		return s
	}
	return StateFail
}
