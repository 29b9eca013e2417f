package runtime

import (
	"dungeonnav.ai/internal/protocol"
	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/kernel/model"
	"dungeonnav.ai/internal/sim/world/logic/digroute"
	"dungeonnav.ai/internal/sim/world/logic/mathx"
)

type DigSystemEnv interface {
	SortedAgents() []*model.Agent
	Router() *digroute.Router
	NewGoalID() string
	TagDig(player int, t coord.Tile) error
}

// RunDigPathSystem advances every running dig path by one step, tagging
// the tiles it decides to dig.
func RunDigPathSystem(env DigSystemEnv, in SystemInput) {
	if env == nil {
		return
	}
	r := env.Router()
	for _, a := range env.SortedAgents() {
		d := a.DigPath
		if d == nil {
			continue
		}
		st := r.Step(d, false, digroute.DigValuables)
		if st == digroute.Continue {
			continue
		}
		ev := protocol.Event{"t": in.NowTick, "type": "DIG_PATH_END", "status": st.String(), "tile": [2]int{d.Next.X, d.Next.Y}, "valuables": d.ValuablesTagged}
		if st == digroute.Failed {
			ev["code"] = protocol.ErrDigFailed
		}
		a.AddEvent(ev)
		a.DigPath = nil
	}
}

// RunAutoDigSystem lets idle auto-digging diggers claim the nearest
// untagged diggable tile: it is tagged and becomes their tunnelling goal.
// A positive AutoDigRadius ignores tiles further away than that.
func RunAutoDigSystem(env DigSystemEnv, in SystemInput) {
	if env == nil {
		return
	}
	r := env.Router()
	for _, a := range env.SortedAgents() {
		if !a.Digger || !a.AutoDig || a.Goal != nil {
			continue
		}
		hint := mathx.AngleToQuadrant(a.Angle)
		t, ok := r.NextDigTarget(a.Owner, a.Pos.Tile(), hint)
		if !ok {
			continue
		}
		if in.AutoDigRadius > 0 && chebyshev(a.Pos.Tile(), t) > in.AutoDigRadius {
			continue
		}
		if err := env.TagDig(a.Owner, t); err != nil {
			if in.Logger != nil {
				in.Logger.Printf("agent %s auto dig %v: %v", a.ID, t, err)
			}
			continue
		}
		target := t.Center()
		target.Z = a.Pos.Z
		a.Goal = &model.Goal{ID: env.NewGoalID(), Kind: model.GoalDigTo, Target: target, StartedTick: in.NowTick}
		a.AddEvent(protocol.Event{"t": in.NowTick, "type": "AUTO_DIG", "goal_id": a.Goal.ID, "tile": [2]int{t.X, t.Y}})
	}
}

func chebyshev(a, b coord.Tile) int {
	return mathx.MaxInt(mathx.AbsInt(a.X-b.X), mathx.AbsInt(a.Y-b.Y))
}
