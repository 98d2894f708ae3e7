package hackbox

import (
	"fmt"

	"github.com/mame82/radiohackbox/display"
)

type State int

const (
	Idle State = iota
	Recording
	Replaying
	Discovering
	Capturing
	Attacking
	ShuttingDown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Recording:
		return "RECORD"
	case Replaying:
		return "REPLAY"
	case Discovering:
		return "SCAN"
	case Capturing:
		return "CAPTURE"
	case Attacking:
		return "ATTACK"
	case ShuttingDown:
		return "SHUTDOWN"
	default:
		return fmt.Sprintf("STATE(%d)", int(s))
	}
}

// view is what the LED and the second display line show on entering a state.
type view struct {
	color display.Color
	text  string
}

// Capturing has no view of its own, the display keeps "Found keyboard".
func (m *Machine) viewOf(s State) (view, bool) {
	switch s {
	case Idle:
		return view{display.Off, m.cfg.UI.Banner}, true
	case Recording:
		return view{display.Red, "Recording ..."}, true
	case Replaying:
		return view{display.Green, "Replaying ..."}, true
	case Discovering:
		return view{display.Blue, "Scanning ..."}, true
	case Attacking:
		return view{display.Green, "Attacking ..."}, true
	case ShuttingDown:
		return view{display.Off, "Shutdown ..."}, true
	}
	return view{}, false
}
