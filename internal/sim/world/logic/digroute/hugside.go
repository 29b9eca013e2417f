package digroute

import (
	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/logic/mathx"
)

// Side is the direction a dig path turns around obstacles.
type Side int8

const (
	SideNone Side = -1
	// SideCCW tries neighbours in decreasing SmallAround order.
	SideCCW Side = 0
	// SideCW tries neighbours in increasing SmallAround order.
	SideCW Side = 1
)

func (s Side) String() string {
	switch s {
	case SideCCW:
		return "CCW"
	case SideCW:
		return "CW"
	default:
		return "NONE"
	}
}

// DigToPosition returns the first neighbour of base, scanning around from
// the given heading, that a dig path can enter.
func (r *Router) DigToPosition(player int, base coord.Tile, around int, side Side) (coord.Tile, bool) {
	change := 3
	if side == SideCW {
		change = 1
	}
	dir := (around + 4 - change) & 3
	for i := 0; i < 4; i++ {
		t := step(base, dir)
		if !r.blocked(player, t) {
			return t, true
		}
		dir = (dir + change) & 3
	}
	return coord.Tile{}, false
}

type walkState uint8

const (
	walkHugging walkState = iota
	walkFree
	walkDone
)

type walker struct {
	pos     coord.Tile
	round   int
	maxDist int
	state   walkState
	turn    int
}

func (r *Router) walkStep(player int, w *walker, dst coord.Tile) {
	dir := towards(w.pos, dst)
	dist := chebyshev(w.pos, dst)
	if next := step(w.pos, dir); dist <= w.maxDist && !r.blocked(player, next) {
		w.pos = next
		w.state = walkFree
		w.maxDist = chebyshev(w.pos, dst)
		return
	}
	if w.state == walkFree {
		// met a second wall
		w.state = walkDone
		return
	}
	// Follow the wall: try towards it first, then turn away.
	dir = (w.round + 4 + w.turn) & 3
	for n := 0; n < 4; n++ {
		if !r.blocked(player, step(w.pos, dir)) {
			w.round = dir
			w.pos = step(w.pos, dir)
			return
		}
		dir = (dir + 4 - w.turn) & 3
	}
}

// HugSideOptions walks around the obstacle between src and dst both ways at
// once. It returns the side whose walker reached dst first, or SideNone, and
// where each walker stopped.
func (r *Router) HugSideOptions(player int, src, dst coord.Tile, heading int) (Side, coord.Tile, coord.Tile) {
	dist := chebyshev(src, dst)
	cw := walker{pos: src, round: (heading + 1) & 3, maxDist: dist - 1, turn: -1}
	ccw := walker{pos: src, round: (heading + 3) & 3, maxDist: dist - 1, turn: 1}

	for i := 0; i < hugWalkSteps; i++ {
		if cw.state == walkDone && ccw.state == walkDone {
			break
		}
		if cw.state != walkDone {
			r.walkStep(player, &cw, dst)
			if cw.pos == dst {
				return SideCW, cw.pos, ccw.pos
			}
		}
		if ccw.state != walkDone {
			r.walkStep(player, &ccw, dst)
			if ccw.pos == dst {
				return SideCCW, cw.pos, ccw.pos
			}
		}
	}
	return SideNone, cw.pos, ccw.pos
}

// HugSide picks the side to dig around an obstacle: the side that gets
// there, else the side already in use, else the walker that ended closer.
// Ties fall back to a fixed function of the destination.
func (r *Router) HugSide(player int, d *Dig, from, to coord.Tile, heading int) Side {
	side, a, b := r.HugSideOptions(player, from, to, heading)
	if side == SideCW || side == SideCCW {
		return side
	}
	if d.Side == SideCW || d.Side == SideCCW {
		return d.Side
	}
	distA := mathx.AbsInt(a.X-to.X) + mathx.AbsInt(a.Y-to.Y)
	distB := mathx.AbsInt(b.X-to.X) + mathx.AbsInt(b.Y-to.Y)
	switch {
	case distA < distB:
		return SideCW
	case distB < distA:
		return SideCCW
	}
	return Side(((to.X + to.Y) >> 1) % 2)
}
