package runtime

import (
	"dungeonnav.ai/internal/protocol"
	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/kernel/model"
	"dungeonnav.ai/internal/sim/world/logic/collide"
	"dungeonnav.ai/internal/sim/world/logic/mathx"
)

// StepTowards moves from cur towards next by at most speed on either axis.
func StepTowards(cur, next coord.Pos, speed int) coord.Pos {
	d := mathx.BoxDistance(cur.X, cur.Y, next.X, next.Y)
	if d <= speed {
		next.Z = cur.Z
		return next
	}
	return coord.Pos{
		X: cur.X + (next.X-cur.X)*speed/d,
		Y: cur.Y + (next.Y-cur.Y)*speed/d,
		Z: cur.Z,
	}
}

// MoveAgent moves a towards next unless the move is hard blocked. The new
// position is always inside the map.
func MoveAgent(p *collide.Probe, a *model.Agent, next coord.Pos) bool {
	to := StepTowards(a.Pos, next, a.Speed)
	if to == a.Pos {
		return false
	}
	if p.CanAdvance(a.Mover(), a.Pos, to).Result == collide.HardBlock {
		return false
	}
	a.Pos = p.Map.ClampPos(to)
	return true
}

func Arrived(a *model.Agent, target coord.Pos, tolerance int) bool {
	return mathx.BoxDistance(a.Pos.X, a.Pos.Y, target.X, target.Y) <= tolerance
}

func actionResult(tick uint64, ref string, ok bool, code string, message string) protocol.Event {
	ev := protocol.Event{"t": tick, "type": "ACTION_RESULT", "ref": ref, "ok": ok}
	if code != "" {
		ev["code"] = code
	}
	if message != "" {
		ev["message"] = message
	}
	return ev
}
