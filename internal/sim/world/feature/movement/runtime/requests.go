package runtime

import (
	"dungeonnav.ai/internal/protocol"
	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/kernel/model"
	"dungeonnav.ai/internal/sim/world/logic/ariadne"
	"dungeonnav.ai/internal/sim/world/logic/digroute"
	"dungeonnav.ai/internal/sim/world/logic/mathx"
)

type MovementRequestEnv interface {
	NewGoalID() string
	InBounds(t coord.Tile) bool
}

// HandleCommand applies one command to its agent. The outcome is reported
// as an ACTION_RESULT event on the agent.
func HandleCommand(env MovementRequestEnv, a *model.Agent, c protocol.Command, nowTick uint64) {
	switch c.Type {
	case protocol.TypeStop:
		a.ClearGoal()
		a.DigPath = nil
		a.AddEvent(actionResult(nowTick, c.ID, true, "", ""))
	case protocol.TypeMoveTo, protocol.TypeDigTo:
		handleGoal(env, a, c, nowTick)
	case protocol.TypeDigPath:
		handleDigPath(env, a, c, nowTick)
	default:
		a.AddEvent(actionResult(nowTick, c.ID, false, protocol.ErrBadRequest, "unknown command"))
	}
}

func targetPos(c protocol.Command) coord.Pos {
	p := coord.Tile{X: c.Target[0], Y: c.Target[1]}.Center()
	half := coord.TileSize / 2
	p.X += mathx.ClampInt(c.Offset[0], -half, half-1)
	p.Y += mathx.ClampInt(c.Offset[1], -half, half-1)
	return p
}

func handleGoal(env MovementRequestEnv, a *model.Agent, c protocol.Command, nowTick uint64) {
	if a.Goal != nil {
		a.AddEvent(actionResult(nowTick, c.ID, false, protocol.ErrConflict, "goal slot occupied"))
		return
	}
	t := coord.Tile{X: c.Target[0], Y: c.Target[1]}
	if !env.InBounds(t) {
		a.AddEvent(actionResult(nowTick, c.ID, false, protocol.ErrInvalidTarget, "out of bounds"))
		return
	}
	kind := model.GoalMoveTo
	if c.Type == protocol.TypeDigTo {
		if !a.Digger {
			a.AddEvent(actionResult(nowTick, c.ID, false, protocol.ErrBadRequest, "agent cannot dig"))
			return
		}
		kind = model.GoalDigTo
	}
	var flags ariadne.Flags
	if c.NoOwner {
		flags |= ariadne.NoOwner
	}
	target := targetPos(c)
	target.Z = a.Pos.Z
	goalID := env.NewGoalID()
	a.ClearGoal()
	a.Goal = &model.Goal{
		ID:          goalID,
		Kind:        kind,
		Target:      target,
		Flags:       flags,
		StartedTick: nowTick,
	}
	a.AddEvent(protocol.Event{
		"t":       nowTick,
		"type":    "ACTION_RESULT",
		"ref":     c.ID,
		"ok":      true,
		"goal_id": goalID,
	})
}

func handleDigPath(env MovementRequestEnv, a *model.Agent, c protocol.Command, nowTick uint64) {
	if a.DigPath != nil {
		a.AddEvent(actionResult(nowTick, c.ID, false, protocol.ErrConflict, "dig path already running"))
		return
	}
	t := coord.Tile{X: c.Target[0], Y: c.Target[1]}
	if !env.InBounds(t) {
		a.AddEvent(actionResult(nowTick, c.ID, false, protocol.ErrInvalidTarget, "out of bounds"))
		return
	}
	a.DigPath = digroute.NewDig(a.Owner, a.Pos.Tile(), t)
	a.AddEvent(actionResult(nowTick, c.ID, true, "", ""))
}
