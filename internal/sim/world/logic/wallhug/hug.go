package wallhug

import (
	"log"

	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/logic/collide"
	"dungeonnav.ai/internal/sim/world/logic/mathx"
	"dungeonnav.ai/internal/sim/world/terrain/tilemap"
)

const (
	DefaultMaxHugIterations = 100
	// positions closer than this count as reached
	ArrivalSlack  = 16
	lookaheadStep = 255
	lookaheadMax  = 100
	// lookahead ends early once this close to the target (squared)
	lookaheadGoalDist2 = 0x10000
	approachSpacing    = 385
	pushWarnTicks      = 32
)

type Navigator struct {
	Probe            *collide.Probe
	Logger           *log.Logger
	MaxHugIterations int
}

func New(probe *collide.Probe, logger *log.Logger) *Navigator {
	return &Navigator{Probe: probe, Logger: logger, MaxHugIterations: DefaultMaxHugIterations}
}

func (n *Navigator) logf(format string, args ...any) {
	if n.Logger != nil {
		n.Logger.Printf(format, args...)
	}
}

func (n *Navigator) maxHug() int {
	if n.MaxHugIterations <= 0 {
		return DefaultMaxHugIterations
	}
	return n.MaxHugIterations
}

func along(p coord.Pos, dist, angle int) coord.Pos {
	return coord.Pos{
		X: mathx.MoveWithAngleX(p.X, dist, angle),
		Y: mathx.MoveWithAngleY(p.Y, dist, angle),
		Z: p.Z,
	}
}

func box(a, b coord.Pos) int {
	return mathx.BoxDistance(a.X, a.Y, b.X, b.Y)
}

func dist2(a, b coord.Pos) int64 {
	return mathx.DistanceSquared(a.X, a.Y, b.X, b.Y)
}

func angleTo(a, b coord.Pos) int {
	return mathx.AngleTo(a.X, a.Y, b.X, b.Y)
}

// hugOrder lists quadrant offsets tried by each side, relative to the facing.
var hugOrder = [3][4]int{
	SideLeft:  {-1, 0, 1, 2},
	SideRight: {1, 0, -1, 2},
}

// HugAngle picks the first axis direction, in side order, in which a move of
// dist from the agent is not hard blocked. It returns -1 when boxed in.
func (n *Navigator) HugAngle(a *Agent, side Side, dist int) int {
	if side != SideLeft && side != SideRight {
		return -1
	}
	q := mathx.AngleToQuadrant(a.Angle)
	for _, k := range hugOrder[side] {
		angle := mathx.QuadrantToAngle(q + k)
		to := along(a.Pos, dist, angle)
		if n.Probe.CanAdvance(a.Mover, a.Pos, to).Result != collide.HardBlock {
			return angle
		}
	}
	return -1
}

// CanContinueDirectLine checks a short move of dist towards to, along both
// axes separately and along the direct angle.
func (n *Navigator) CanContinueDirectLine(mv collide.Mover, from, to coord.Pos, dist int) bool {
	angle := angleTo(from, to)
	posA := along(from, dist, angle)
	posB := from
	switch {
	case from.X < posA.X:
		posB.X += dist
	case from.X > posA.X:
		posB.X -= dist
	}
	posC := from
	switch {
	case from.Y < posA.Y:
		posC.Y += dist
	case from.Y > posA.Y:
		posC.Y -= dist
	}
	return n.Probe.CanAdvance(mv, from, posB).Result != collide.HardBlock &&
		n.Probe.CanAdvance(mv, from, posC).Result != collide.HardBlock &&
		n.Probe.CanAdvance(mv, from, posA).Result != collide.HardBlock
}

// CheckForward looks one subtile past a planned step. If that would run into
// a wall the step is pulled back flush against it so the next hug decision
// is taken at the wall rather than inside it.
func (n *Navigator) CheckForward(mv collide.Mover, cand coord.Pos, angle int) coord.Pos {
	ahead := along(cand, coord.SubtileSize, angle)
	if n.Probe.CanAdvance(mv, cand, ahead).Result != collide.HardBlock {
		return cand
	}
	flags := n.Probe.BlockedFlags(mv, cand, ahead)
	return collide.SnapAgainstWall(cand, ahead, mv.Radius, flags, angle, collide.NegativeEdgeHug)
}

// ApproachPosition picks the open spot spacing away from the centre of tile,
// along one of the four axes, closest to from.
func (n *Navigator) ApproachPosition(from coord.Pos, tile coord.Tile, spacing int) (coord.Pos, bool) {
	center := tile.Center()
	best := coord.Pos{}
	bestDist := -1
	for _, d := range mathx.SmallAround {
		cand := coord.Pos{X: center.X + spacing*d.X, Y: center.Y + spacing*d.Y, Z: from.Z}
		c := n.Probe.Map.At(cand.Tile())
		if !n.Probe.Map.InBounds(cand.Tile()) || c.Kind.Has(tilemap.AttrBlocking) {
			continue
		}
		if dd := box(from, cand); bestDist < 0 || dd < bestDist {
			bestDist = dd
			best = cand
		}
	}
	return best, bestDist >= 0
}

// diggable reports whether the agent should dig through tile rather than
// walk around it.
func (n *Navigator) diggable(a *Agent, tile coord.Tile) bool {
	if !a.Digger {
		return false
	}
	k := n.Probe.Map.At(tile).Kind
	return k.Has(tilemap.AttrDiggable) && !k.Has(tilemap.AttrIndestructible)
}

func (n *Navigator) stillBlocking(tile coord.Tile) bool {
	return n.Probe.Map.At(tile).Kind.Has(tilemap.AttrBlocking)
}
