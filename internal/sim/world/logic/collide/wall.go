package collide

import (
	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/logic/mathx"
)

// BlockFlags says which axis of a move runs into a wall.
type BlockFlags uint8

const (
	BlockedX BlockFlags = 1 << iota
	BlockedY
	// BlockedXY is only set when neither single-axis move is blocked but the
	// diagonal move is.
	BlockedXY
)

// Fraction written into the near edge of a subtile when snapping against a
// wall on the negative side.
const (
	NegativeEdgeHug  = 1
	NegativeEdgePush = 0
)

// BlockedFlags splits a move into its axis components and reports which of
// them hit a hard wall.
func (p *Probe) BlockedFlags(mv Mover, from, to coord.Pos) BlockFlags {
	var flags BlockFlags
	xOnly := coord.Pos{X: to.X, Y: from.Y, Z: from.Z}
	if p.CanAdvance(mv, from, xOnly).Result == HardBlock {
		flags |= BlockedX
	}
	yOnly := coord.Pos{X: from.X, Y: to.Y, Z: from.Z}
	if p.CanAdvance(mv, from, yOnly).Result == HardBlock {
		flags |= BlockedY
	}
	if flags == 0 && p.CanAdvance(mv, from, to).Blocked() {
		flags |= BlockedXY
	}
	return flags
}

// snapAxis puts the edge of the collision box flush with the inside of the
// subtile it currently occupies on the side of travel.
func snapAxis(cur, target, radius, negFrac int) int {
	if target >= cur {
		v := coord.WithFraction(cur+radius, coord.FractionMask)
		return v - radius
	}
	v := coord.WithFraction(cur-radius, negFrac)
	return v + radius
}

// SnapAgainstWall returns the position next to from whose collision box is
// flush with the wall on every blocked axis of the move towards to. Axes that
// are not blocked keep the value of from. For a pure diagonal block only the
// axis across the hug angle is kept snapped.
func SnapAgainstWall(from, to coord.Pos, radius int, flags BlockFlags, angle, negFrac int) coord.Pos {
	out := from
	if flags&(BlockedX|BlockedXY) != 0 {
		out.X = snapAxis(from.X, to.X, radius, negFrac)
	}
	if flags&(BlockedY|BlockedXY) != 0 {
		out.Y = snapAxis(from.Y, to.Y, radius, negFrac)
	}
	if flags == BlockedXY {
		switch mathx.AngleToQuadrant(angle) {
		case 0, 2:
			out.Y = from.Y
		default:
			out.X = from.X
		}
	}
	return out
}

// FirstBlockingTile walks the segment in half-subtile steps and returns the
// first tile the mover would collide with.
func (p *Probe) FirstBlockingTile(mv Mover, from, to coord.Pos) (coord.Tile, bool) {
	dist := mathx.MaxInt(mathx.AbsInt(to.X-from.X), mathx.AbsInt(to.Y-from.Y))
	steps := dist/(coord.SubtileSize/2) + 1
	for i := 1; i <= steps; i++ {
		at := coord.Pos{
			X: from.X + (to.X-from.X)*i/steps,
			Y: from.Y + (to.Y-from.Y)*i/steps,
			Z: from.Z,
		}
		if v := p.CheckAt(mv, at); v.Blocked() {
			return v.Tile, true
		}
	}
	return coord.Tile{}, false
}
