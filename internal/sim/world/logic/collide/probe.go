package collide

import (
	"log"

	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/logic/mathx"
	"dungeonnav.ai/internal/sim/world/terrain/tilemap"
)

type Result uint8

const (
	Clear Result = iota
	// SoftBlock: only a corner of the collision box clips a blocking subtile.
	// Moving along one axis usually gets past it.
	SoftBlock
	HardBlock
)

func (r Result) String() string {
	switch r {
	case Clear:
		return "CLEAR"
	case SoftBlock:
		return "SOFT_BLOCK"
	case HardBlock:
		return "HARD_BLOCK"
	default:
		return "UNKNOWN"
	}
}

// Mover describes the agent being tested.
type Mover struct {
	Radius     int
	OwnerMask  uint32
	Flying     bool
	LavaImmune bool
}

func OwnerBit(owner int) uint32 {
	if owner < 0 || owner >= 32 {
		return 0
	}
	return 1 << uint(owner)
}

type Verdict struct {
	Result  Result
	Subtile coord.Subtile
	Tile    coord.Tile
}

func (v Verdict) Blocked() bool { return v.Result != Clear }

// Probe answers collision questions against a tile map. It never mutates
// anything, so lookahead code can call it freely.
type Probe struct {
	Map    *tilemap.Map
	Logger *log.Logger
}

func New(m *tilemap.Map, logger *log.Logger) *Probe {
	return &Probe{Map: m, Logger: logger}
}

// Blocks reports whether the mover may not stand on the cell.
func (p *Probe) Blocks(mv Mover, c tilemap.Cell) bool {
	k := c.Kind
	if k.Has(tilemap.AttrBlocking) {
		return true
	}
	if k.Has(tilemap.AttrDoor) {
		if c.Locked {
			return true
		}
		return mv.OwnerMask&OwnerBit(c.Owner) == 0
	}
	if k == tilemap.Lava {
		return !(mv.Flying || mv.LavaImmune)
	}
	return false
}

func (p *Probe) subtileBlocks(mv Mover, s coord.Subtile) bool {
	return p.Blocks(mv, p.Map.AtSubtile(s))
}

func boxSpan(v, r int) (lo, hi int) {
	if r <= 0 {
		s := coord.SubtileOf(v)
		return s, s
	}
	return coord.SubtileOf(v - r), coord.SubtileOf(v + r - 1)
}

// CheckAt tests the collision box of the mover standing at pos.
func (p *Probe) CheckAt(mv Mover, pos coord.Pos) Verdict {
	cx, cy := coord.SubtileOf(pos.X), coord.SubtileOf(pos.Y)
	center := coord.Subtile{X: cx, Y: cy}
	if p.subtileBlocks(mv, center) {
		return Verdict{Result: HardBlock, Subtile: center, Tile: center.Tile()}
	}
	x0, x1 := boxSpan(pos.X, mv.Radius)
	y0, y1 := boxSpan(pos.Y, mv.Radius)

	soft := Verdict{}
	for sy := y0; sy <= y1; sy++ {
		for sx := x0; sx <= x1; sx++ {
			s := coord.Subtile{X: sx, Y: sy}
			if !p.subtileBlocks(mv, s) {
				continue
			}
			if sx == cx || sy == cy {
				return Verdict{Result: HardBlock, Subtile: s, Tile: s.Tile()}
			}
			if soft.Result == Clear {
				soft = Verdict{Result: SoftBlock, Subtile: s, Tile: s.Tile()}
			}
		}
	}
	return soft
}

// CanAdvance tests a straight move from one position to another. Boundary
// crossings are tested in the order the segment reaches them, then the
// endpoint; the first collision found is returned.
func (p *Probe) CanAdvance(mv Mover, from, to coord.Pos) Verdict {
	sfx, sfy := coord.SubtileOf(from.X), coord.SubtileOf(from.Y)
	stx, sty := coord.SubtileOf(to.X), coord.SubtileOf(to.Y)
	if sfx == stx || sfy == sty {
		return p.sweepAxis(mv, from, to)
	}

	dx := to.X - from.X
	dy := to.Y - from.Y
	xFirst := CrossXBoundaryFirst(from, to)
	yFirst := CrossYBoundaryFirst(from, to)
	if !xFirst && !yFirst {
		// Exact corner hit.
		if p.Logger != nil {
			p.Logger.Printf("WARN collide: ambiguous corner crossing %d,%d -> %d,%d, testing x boundary first", from.X, from.Y, to.X, to.Y)
		}
		xFirst = true
	}

	clipX := clipBoundary(from.X, dx)
	clipY := clipBoundary(from.Y, dy)
	atX := coord.Pos{X: clipX, Y: interpolate(dy, clipX-from.X, dx) + from.Y, Z: from.Z}
	atY := coord.Pos{X: interpolate(dx, clipY-from.Y, dy) + from.X, Y: clipY, Z: from.Z}

	first, second := atX, atY
	if !xFirst {
		first, second = atY, atX
	}
	if v := p.CheckAt(mv, first); v.Blocked() {
		return v
	}
	if v := p.CheckAt(mv, second); v.Blocked() {
		return v
	}
	return p.CheckAt(mv, to)
}

// sweepAxis handles moves that stay in one subtile row or column. Every
// boundary passed on the way is tested so fast movers cannot skip a subtile.
func (p *Probe) sweepAxis(mv Mover, from, to coord.Pos) Verdict {
	dx := to.X - from.X
	dy := to.Y - from.Y
	cur := from
	for i := 0; i < 64; i++ {
		var next coord.Pos
		switch {
		case coord.SubtileOf(cur.X) != coord.SubtileOf(to.X):
			cx := clipBoundary(cur.X, dx)
			next = coord.Pos{X: cx, Y: interpolate(dy, cx-from.X, dx) + from.Y, Z: from.Z}
		case coord.SubtileOf(cur.Y) != coord.SubtileOf(to.Y):
			cy := clipBoundary(cur.Y, dy)
			next = coord.Pos{X: interpolate(dx, cy-from.Y, dy) + from.X, Y: cy, Z: from.Z}
		default:
			return p.CheckAt(mv, to)
		}
		if v := p.CheckAt(mv, next); v.Blocked() {
			return v
		}
		cur = next
	}
	return p.CheckAt(mv, to)
}

// clipBoundary is the first value past the subtile edge when moving by d.
func clipBoundary(v, d int) int {
	if d < 0 {
		return (v & coord.SubtileMask) - 1
	}
	return (v + coord.SubtileSize) & coord.SubtileMask
}

// interpolate returns other*|done|/total with truncation toward zero.
func interpolate(other, done, total int) int {
	if total == 0 {
		return 0
	}
	return other * mathx.AbsInt(done) / mathx.AbsInt(total)
}

// CrossXBoundaryFirst reports whether the segment reaches a vertical subtile
// edge strictly before a horizontal one.
func CrossXBoundaryFirst(from, to coord.Pos) bool {
	dx := to.X - from.X
	dy := to.Y - from.Y
	mulX, mulY := edgeRoom(from.X, dx), edgeRoom(from.Y, dy)
	return mathx.AbsInt(dx*mulY) > mathx.AbsInt(mulX*dy)
}

func CrossYBoundaryFirst(from, to coord.Pos) bool {
	dx := to.X - from.X
	dy := to.Y - from.Y
	mulX, mulY := edgeRoom(from.X, dx), edgeRoom(from.Y, dy)
	return mathx.AbsInt(dy*mulX) > mathx.AbsInt(mulY*dx)
}

func edgeRoom(v, d int) int {
	if d < 0 {
		return coord.FractionOf(v)
	}
	return coord.FractionMask - coord.FractionOf(v)
}
