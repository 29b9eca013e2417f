package runtime

import (
	"errors"
	"log"

	"dungeonnav.ai/internal/protocol"
	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/kernel/model"
	"dungeonnav.ai/internal/sim/world/logic/ariadne"
	"dungeonnav.ai/internal/sim/world/logic/collide"
	"dungeonnav.ai/internal/sim/world/logic/tasklist"
	"dungeonnav.ai/internal/sim/world/logic/wallhug"
)

type SystemInput struct {
	NowTick    uint64
	MaxReplans int
	// Tolerance is the arrival distance for tunnelling goals.
	Tolerance     int
	AutoDigRadius int
	Logger        *log.Logger
}

type MovementSystemEnv interface {
	SortedAgents() []*model.Agent
	Probe() *collide.Probe
	Routes() *ariadne.Engine
	Hugger() *wallhug.Navigator
	TagDig(player int, t coord.Tile) error
}

// RunMovementSystem advances every agent with a goal by one tick, in agent
// ID order.
func RunMovementSystem(env MovementSystemEnv, in SystemInput) {
	if env == nil {
		return
	}
	for _, a := range env.SortedAgents() {
		if a.Goal == nil {
			continue
		}
		switch a.Goal.Kind {
		case model.GoalMoveTo:
			stepRoute(env, in, a)
		case model.GoalDigTo:
			stepTunnel(env, in, a)
		}
	}
}

func goalDone(a *model.Agent, in SystemInput) {
	g := a.Goal
	a.AddEvent(protocol.Event{"t": in.NowTick, "type": "GOAL_DONE", "goal_id": g.ID, "kind": string(g.Kind), "tile": [2]int{a.Pos.Tile().X, a.Pos.Tile().Y}})
	a.ClearGoal()
}

// replan drops the navigation state and gives up on the goal once it has
// failed more than MaxReplans times.
func replan(a *model.Agent, in SystemInput, code, message string) {
	g := a.Goal
	g.Replans++
	a.Route.Invalidate()
	a.Nav = wallhug.State{}
	a.DigActive = false
	if g.Replans <= in.MaxReplans {
		a.AddEvent(protocol.Event{"t": in.NowTick, "type": "GOAL_REPLAN", "goal_id": g.ID, "replans": g.Replans})
		return
	}
	if in.Logger != nil {
		in.Logger.Printf("agent %s gave up goal %s: %s", a.ID, g.ID, message)
	}
	a.AddEvent(protocol.Event{"t": in.NowTick, "type": "GOAL_FAIL", "goal_id": g.ID, "code": code, "message": message})
	a.ClearGoal()
}

func stepRoute(env MovementSystemEnv, in SystemInput, a *model.Agent) {
	g := a.Goal
	view := a.NavView()
	next, res := env.Routes().NextPosition(&view, &a.Route, g.Target, a.Speed, g.Flags)
	a.ApplyNav(view)

	switch res {
	case ariadne.FinalOk:
		goalDone(a, in)
		return
	case ariadne.Fail:
		replan(a, in, protocol.ErrNoPath, "no route to target")
		return
	case ariadne.PartialOk:
		replan(a, in, protocol.ErrStalled, "route blocked")
		return
	}
	a.Angle = a.Route.Angle
	MoveAgent(env.Probe(), a, next)
}

func stepTunnel(env MovementSystemEnv, in SystemInput, a *model.Agent) {
	g := a.Goal
	if Arrived(a, g.Target, in.Tolerance) {
		goalDone(a, in)
		return
	}
	view := a.NavView()
	res := env.Hugger().Step(&view, g.Target)
	a.ApplyNav(view)
	a.Angle = res.Angle

	switch res.Action {
	case wallhug.ActionStall:
		replan(a, in, protocol.ErrStalled, "no way to target")
	case wallhug.ActionDig:
		a.DigTile = res.DigTile
		if !a.DigActive {
			a.DigActive = true
			a.AddEvent(protocol.Event{"t": in.NowTick, "type": "DIG_START", "goal_id": g.ID, "tile": [2]int{res.DigTile.X, res.DigTile.Y}})
		}
		if err := env.TagDig(a.Owner, res.DigTile); err != nil && !errors.Is(err, tasklist.ErrAlreadyTagged) {
			replan(a, in, protocol.ErrDigFailed, err.Error())
		}
	default:
		a.DigActive = false
		MoveAgent(env.Probe(), a, res.Next)
	}
}
