// Package digroute plans tunnels: which tile a digger should tag next and
// how a dig path works its way around rock it cannot break.
package digroute

import (
	"log"

	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/logic/collide"
	"dungeonnav.ai/internal/sim/world/logic/mathx"
	"dungeonnav.ai/internal/sim/world/logic/tasklist"
	"dungeonnav.ai/internal/sim/world/terrain/tilemap"
)

const (
	// DefaultCallLimit bounds how many Step calls one dig may take.
	DefaultCallLimit = 356
	// hugWalkSteps bounds each side of HugSideOptions.
	hugWalkSteps = 150
	repeatLimit  = 10
)

// Connectivity answers whether two tiles are joined by walkable ground.
type Connectivity interface {
	Connected(mv collide.Mover, a, b coord.Tile) bool
}

type Router struct {
	Map    *tilemap.Map
	Tasks  tasklist.List
	Logger *log.Logger

	// Regions and Mover are used by SimulateDigTo to move the start of a
	// simulated dig onto ground already reachable from it. Both optional.
	Regions Connectivity
	Mover   collide.Mover

	CallLimit int
}

func New(m *tilemap.Map, tasks tasklist.List, logger *log.Logger) *Router {
	return &Router{Map: m, Tasks: tasks, Logger: logger, CallLimit: DefaultCallLimit}
}

func (r *Router) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}

func (r *Router) callLimit() int {
	if r.CallLimit <= 0 {
		return DefaultCallLimit
	}
	return r.CallLimit
}

// Diggable reports whether player's diggers can remove the tile.
func (r *Router) Diggable(player int, t coord.Tile) bool {
	if !r.Map.InBounds(t) {
		return false
	}
	k := r.Map.At(t).Kind
	return k.Has(tilemap.AttrDiggable) && !k.Has(tilemap.AttrIndestructible)
}

func (r *Router) walkable(t coord.Tile) bool {
	if !r.Map.InBounds(t) {
		return false
	}
	k := r.Map.At(t).Kind
	return !k.Has(tilemap.AttrBlocking) && !k.Has(tilemap.AttrLiquid)
}

// blocked reports whether a dig path can neither walk nor dig through t.
func (r *Router) blocked(player int, t coord.Tile) bool {
	if !r.Map.InBounds(t) {
		return true
	}
	if r.Diggable(player, t) {
		return false
	}
	c := r.Map.At(t)
	if c.Kind.Has(tilemap.AttrLiquid) || c.Kind.Has(tilemap.AttrBlocking) {
		return true
	}
	if c.Kind.Has(tilemap.AttrDoor) && c.Owner != player {
		return true
	}
	return false
}

// needsDigging is true for tiles a dig path has to deal with rather than
// walk over.
func needsDigging(c tilemap.Cell) bool {
	k := c.Kind
	return k.Has(tilemap.AttrBlocking) || k.Has(tilemap.AttrDiggable) || k.Has(tilemap.AttrValuable) || k == tilemap.Lava
}

func chebyshev(a, b coord.Tile) int {
	return mathx.MaxInt(mathx.AbsInt(a.X-b.X), mathx.AbsInt(a.Y-b.Y))
}

func tileDistance(a, b coord.Tile) int {
	return mathx.DiagonalLength(a.X-b.X, a.Y-b.Y)
}

func towards(from, to coord.Tile) int {
	return mathx.SmallAroundIndex(from.X, from.Y, to.X, to.Y)
}

func step(t coord.Tile, dir int) coord.Tile {
	d := mathx.SmallAround[dir&3]
	return t.Add(d.X, d.Y)
}
