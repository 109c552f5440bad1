package app

import (
	"fmt"

	"github.com/dkeye/SparkCircle/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

func (a BackpressureAction) String() string {
	switch a {
	case MarkSlow:
		return "mark_slow"
	case KickMember:
		return "kick"
	case DropFrame:
		return "drop"
	default:
		return "none"
	}
}

// Policy decides what happens to a connection whose send buffer is full.
type Policy interface {
	OnBackPressure(room core.RoomService, sid core.SessionID) BackpressureAction
}

// SimplePolicy disconnects slow members; they recover state by rejoining.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.RoomService, core.SessionID) BackpressureAction {
	return KickMember
}

// DropPolicy keeps slow members connected and loses the frames they could not take.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(core.RoomService, core.SessionID) BackpressureAction {
	return DropFrame
}

// PolicyByName maps the backpressure config value onto a Policy.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "kick":
		return SimplePolicy{}, nil
	case "drop":
		return DropPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown backpressure policy %q", name)
	}
}
