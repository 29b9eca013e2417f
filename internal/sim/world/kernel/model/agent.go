package model

import (
	"dungeonnav.ai/internal/protocol"
	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/logic/ariadne"
	"dungeonnav.ai/internal/sim/world/logic/collide"
	"dungeonnav.ai/internal/sim/world/logic/digroute"
	"dungeonnav.ai/internal/sim/world/logic/wallhug"
)

type GoalKind string

const (
	// GoalMoveTo follows a planned route.
	GoalMoveTo GoalKind = "MOVE_TO"
	// GoalDigTo tunnels straight at the target, digging what is in the way.
	GoalDigTo GoalKind = "DIG_TO"
)

type Goal struct {
	ID          string        `json:"id"`
	Kind        GoalKind      `json:"kind"`
	Target      coord.Pos     `json:"target"`
	Flags       ariadne.Flags `json:"flags,omitempty"`
	StartedTick uint64        `json:"started_tick"`
	Replans     int           `json:"replans,omitempty"`
}

// Agent is a creature. Only the movement system writes Pos, Angle, Route
// and Nav.
type Agent struct {
	ID    string `json:"id"`
	Owner int    `json:"owner"`

	Pos   coord.Pos `json:"pos"`
	Angle int       `json:"angle"`
	Speed int       `json:"speed"`

	Radius     int  `json:"radius"`
	Flying     bool `json:"flying,omitempty"`
	LavaImmune bool `json:"lava_immune,omitempty"`
	Digger     bool `json:"digger,omitempty"`
	// AutoDig makes an idle digger pick its own dig targets.
	AutoDig bool `json:"auto_dig,omitempty"`

	Goal  *Goal         `json:"goal,omitempty"`
	Route ariadne.Route `json:"route"`
	Nav   wallhug.State `json:"nav"`

	// DigTile is set while the agent is digging; DigActive tells it apart
	// from the zero tile.
	DigTile   coord.Tile `json:"dig_tile"`
	DigActive bool       `json:"dig_active,omitempty"`

	// DigPath is an in-progress tunnel plan being tagged a step per tick.
	DigPath *digroute.Dig `json:"dig_path,omitempty"`

	Events []protocol.Event `json:"-"`
}

func (a *Agent) AddEvent(e protocol.Event) {
	a.Events = append(a.Events, e)
}

// TakeEvents returns and clears the events gathered this tick.
func (a *Agent) TakeEvents() []protocol.Event {
	ev := a.Events
	a.Events = nil
	return ev
}

func (a *Agent) Mover() collide.Mover {
	return collide.Mover{
		Radius:     a.Radius,
		OwnerMask:  collide.OwnerBit(a.Owner),
		Flying:     a.Flying,
		LavaImmune: a.LavaImmune,
	}
}

// NavView is the navigator's view of the agent. Write it back with
// ApplyNav once the step is done.
func (a *Agent) NavView() wallhug.Agent {
	return wallhug.Agent{
		Pos:    a.Pos,
		Angle:  a.Angle,
		Speed:  a.Speed,
		Mover:  a.Mover(),
		Digger: a.Digger,
		Nav:    a.Nav,
	}
}

func (a *Agent) ApplyNav(v wallhug.Agent) {
	a.Nav = v.Nav
}

// ClearGoal drops the goal and all navigation state.
func (a *Agent) ClearGoal() {
	a.Goal = nil
	a.Route.Invalidate()
	a.Nav = wallhug.State{}
	a.DigActive = false
}
