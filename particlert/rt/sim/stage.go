package sim

import (
	"errors"
	"fmt"
)

type Stage int

const (
	StageNone Stage = iota
	StageInit
	StageSimulate
	StageCompositeBackground
	StageDrawPoints
)

var ErrStageOrder = errors.New("illegal pass order")

// Stage names double as render system names.
func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageInit:
		return "init"
	case StageSimulate:
		return "simulate"
	case StageCompositeBackground:
		return "background"
	case StageDrawPoints:
		return "points"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

var nextStage = map[Stage]Stage{
	StageNone:                StageInit,
	StageInit:                StageSimulate,
	StageSimulate:            StageCompositeBackground,
	StageCompositeBackground: StageDrawPoints,
	StageDrawPoints:          StageSimulate,
}

// StageMachine enforces the pass order. Init is reachable only once.
type StageMachine struct {
	current Stage
}

func (m *StageMachine) Current() Stage {
	return m.current
}

func (m *StageMachine) Enter(s Stage) error {
	if nextStage[m.current] != s {
		return fmt.Errorf("%s -> %s: %w", m.current, s, ErrStageOrder)
	}
	m.current = s
	return nil
}
