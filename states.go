package gpgpu

import (
	"strconv"
)

const (
	// StateStartup compiles the pipeline and probes float texture support.
	StateStartup State = iota
	StateRunning
	// StateUnsupported keeps the background alive after a capability failure.
	StateUnsupported
	StateExit
)

func (s State) String() string {
	switch s {
	case StateStartup:
		return "Startup"
	case StateRunning:
		return "Running"
	case StateUnsupported:
		return "Unsupported"
	case StateExit:
		return "Exit"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}
