package wallhug

import (
	"math"

	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/logic/collide"
	"dungeonnav.ai/internal/sim/world/logic/mathx"
)

type hugStart struct {
	angle int
	side  Side
}

// Indexed by 2*(moving towards +x) + (target not above).
var blockedXHugStart = [4]hugStart{
	{0, SideLeft},
	{1024, SideRight},
	{0, SideRight},
	{1024, SideLeft},
}

// Indexed by 2*(moving towards +y) + (target not left).
var blockedYHugStart = [4]hugStart{
	{1536, SideRight},
	{512, SideLeft},
	{1536, SideLeft},
	{512, SideRight},
}

// Indexed by 2*((moving +x) + 2*(moving +y)) + (target nearer in x than in y).
var blockedXYHugStart = [8]hugStart{
	{1536, SideRight},
	{0, SideLeft},
	{512, SideLeft},
	{0, SideRight},
	{1536, SideLeft},
	{1024, SideRight},
	{512, SideRight},
	{1024, SideLeft},
}

func b2i(v bool) int {
	if v {
		return 1
	}
	return 0
}

// ChooseSide decides which hand to keep on the wall that blocks the move from
// the agent to next. Both candidates from the start tables are played out on
// copies of the agent and the cheaper one wins; on a tie the start closer to
// the agent's heading quadrant wins, then the table's first choice.
func (n *Navigator) ChooseSide(a *Agent, next coord.Pos) (Side, int, bool) {
	cur := a.Pos
	final := a.Nav.Final
	movePX := cur.X-next.X <= 0
	movePY := cur.Y-next.Y <= 0
	finalPX := cur.X-final.X <= 0
	finalPY := cur.Y-final.Y <= 0
	nearerX := mathx.AbsInt(cur.X-final.X) < mathx.AbsInt(cur.Y-final.Y)

	var primary, alt hugStart
	flags := n.Probe.BlockedFlags(a.Mover, cur, next)
	switch {
	case flags&collide.BlockedX != 0:
		i := 2 * b2i(movePX)
		primary, alt = blockedXHugStart[i+b2i(finalPY)], blockedXHugStart[i+b2i(!finalPY)]
	case flags&collide.BlockedY != 0:
		i := 2 * b2i(movePY)
		primary, alt = blockedYHugStart[i+b2i(finalPX)], blockedYHugStart[i+b2i(!finalPX)]
	case flags&collide.BlockedXY != 0:
		i := 2 * (b2i(movePX) + 2*b2i(movePY))
		primary, alt = blockedXYHugStart[i+b2i(nearerX)], blockedXYHugStart[i+b2i(!nearerX)]
	default:
		n.logf("WARN wallhug: no blocked direction for hug start at %d,%d", cur.X, cur.Y)
		return SideNone, 0, false
	}

	pc := n.lookahead(*a, next, primary)
	ac := n.lookahead(*a, next, alt)
	s := pickStart(primary, alt, pc, ac, a.Angle)
	return s.side, s.angle, true
}

func pickStart(primary, alt hugStart, pc, ac int64, heading int) hugStart {
	if pc != ac {
		if altWins(pc, ac) {
			return alt
		}
		return primary
	}
	h := mathx.QuadrantToAngle(mathx.AngleToQuadrant(heading))
	if mathx.AngleDifference(h, alt.angle) < mathx.AngleDifference(h, primary.angle) {
		return alt
	}
	return primary
}

// altWins compares lookahead costs. Negative costs mean the direct line was
// regained; among those the one closest to zero wins. Otherwise lower wins.
func altWins(primary, alt int64) bool {
	switch {
	case primary >= 0 && alt >= 0:
		return alt < primary
	case primary >= 0:
		return true
	case alt >= 0:
		return false
	default:
		return alt > primary
	}
}

func addSat(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// lookahead walks the wall on a private copy of the agent and returns the
// cost of hugging with the given start.
func (n *Navigator) lookahead(a Agent, next coord.Pos, start hugStart) int64 {
	mv := a.Mover
	final := a.Nav.Final
	a.Angle = start.angle
	a.Nav.Side = start.side
	minAllowed := dist2(a.Pos, final)

	flags := n.Probe.BlockedFlags(mv, a.Pos, next)
	a.Pos = collide.SnapAgainstWall(a.Pos, next, mv.Radius, flags, start.angle, collide.NegativeEdgeHug)
	a.Nav.Angle = start.angle

	var steps int64
	best := int64(math.MaxInt64)
	for i := 0; ; i++ {
		if d := dist2(a.Pos, final); d < minAllowed && n.CanContinueDirectLine(mv, a.Pos, final, a.Speed) {
			return -d - steps*steps
		}

		var hug int
		if i > 0 {
			hug = n.HugAngle(&a, start.side, lookaheadStep)
		} else {
			facing := a.Angle
			if start.side == SideLeft {
				a.Angle = (facing + mathx.AngleQuarter) & mathx.AngleMask
			} else {
				a.Angle = (facing - mathx.AngleQuarter) & mathx.AngleMask
			}
			hug = n.HugAngle(&a, start.side, lookaheadStep)
			a.Angle = facing
		}
		if hug < 0 {
			return addSat(best, steps*steps)
		}

		moved := false
		if i == 0 || a.Nav.Angle != hug {
			probe := along(a.Pos, coord.SubtileSize, a.Nav.Angle)
			if n.Probe.CanAdvance(mv, a.Pos, probe).Result == collide.HardBlock {
				f := n.Probe.BlockedFlags(mv, a.Pos, probe)
				snapped := collide.SnapAgainstWall(a.Pos, probe, mv.Radius, f, a.Nav.Angle, collide.NegativeEdgeHug)
				if snapped.X != a.Pos.X || snapped.Y != a.Pos.Y {
					a.Pos = snapped
					moved = true
				}
			}
		}
		if !moved {
			a.Nav.Angle = hug
			a.Angle = hug
			cand := along(a.Pos, coord.SubtileSize, hug)
			a.Pos = n.Probe.Map.ClampPos(n.CheckForward(mv, cand, hug))
		}

		steps += lookaheadStep
		d := dist2(a.Pos, final)
		if d < best {
			best = d
			if d < lookaheadGoalDist2 {
				return -d - steps*steps
			}
		}
		if i+1 >= lookaheadMax {
			return addSat(best, steps*steps)
		}
	}
}
