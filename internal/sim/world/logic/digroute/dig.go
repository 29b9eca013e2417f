package digroute

import (
	"math"

	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/terrain/tilemap"
)

type Status int8

const (
	Continue Status = iota
	Reached
	Failed
	// Bridge means the path runs into liquid it should cross rather than dig.
	Bridge
)

func (s Status) String() string {
	switch s {
	case Continue:
		return "CONTINUE"
	case Reached:
		return "REACHED"
	case Failed:
		return "FAILED"
	case Bridge:
		return "BRIDGE"
	default:
		return "UNKNOWN"
	}
}

type DigFlags uint8

const (
	// DigValuables lets the straight run tag valuable tiles it would
	// otherwise stop at.
	DigValuables DigFlags = 1 << iota
	// AllowBridge stops at liquid and reports Bridge.
	AllowBridge
)

// Dig is the progress of one dig path from Begin to Dest, advanced by Step.
type Dig struct {
	Player int        `json:"player"`
	Begin  coord.Tile `json:"begin"`
	Next   coord.Tile `json:"next"`
	Dest   coord.Tile `json:"dest"`

	// Distance is the remaining distance when the last straight run ended.
	Distance int  `json:"distance"`
	Side     Side `json:"side"`
	Around   int  `json:"around"`
	// RunLength is how many tiles one Step tags on a straight run.
	RunLength int `json:"run_length"`

	Calls   int        `json:"calls"`
	Repeats int        `json:"repeats"`
	Last    coord.Tile `json:"last"`

	ValuablesTagged int `json:"valuables_tagged"`
}

// NewDig prepares a dig from begin to dest for player.
func NewDig(player int, begin, dest coord.Tile) *Dig {
	return &Dig{
		Player:    player,
		Begin:     begin,
		Next:      begin,
		Dest:      dest,
		Distance:  math.MaxInt,
		Side:      SideNone,
		RunLength: 1,
	}
}

func (r *Router) tagged(d *Dig, t coord.Tile) bool {
	return r.Tasks != nil && r.Tasks.Tagged(d.Player, t)
}

// skipOpen walks towards Dest over tiles that need no digging. It stops at
// the first tile that needs digging and is not yet tagged, at liquid when
// bridging is allowed and at foreign doors.
func (r *Router) skipOpen(d *Dig, cur *coord.Tile, flags DigFlags) Status {
	limit := r.Map.W + r.Map.H
	for i := 0; ; i++ {
		c := r.Map.At(*cur)
		if needsDigging(c) && c.Kind != tilemap.Water && !r.tagged(d, *cur) {
			return Continue
		}
		if c.Kind.Has(tilemap.AttrLiquid) && flags&AllowBridge != 0 {
			return Continue
		}
		if c.Kind.Has(tilemap.AttrDoor) && c.Owner != d.Player {
			return Continue
		}
		d.Next = *cur
		if *cur == d.Dest {
			return Reached
		}
		*cur = step(*cur, towards(*cur, d.Dest))
		if i > limit {
			r.logf("ERROR digroute: endless walk from %v to %v", d.Begin, d.Dest)
			return Failed
		}
	}
}

// tagRun tags the straight run of diggable tiles towards Dest, up to
// RunLength of them. It returns how many it covered.
func (r *Router) tagRun(d *Dig, cur *coord.Tile, simulate bool, flags DigFlags) (int, Status) {
	i := 0
	for ; i < d.RunLength; i++ {
		c := r.Map.At(*cur)
		if !r.Diggable(d.Player, *cur) {
			if !c.Kind.Has(tilemap.AttrValuable) || flags&DigValuables == 0 {
				break
			}
		}
		if !simulate && !r.tagged(d, *cur) {
			if err := r.Tasks.Tag(d.Player, *cur); err != nil {
				r.logf("ERROR digroute: tag %v: %v", *cur, err)
				break
			}
			if flags&DigValuables != 0 && c.Kind.Has(tilemap.AttrValuable) {
				d.ValuablesTagged++
			}
		}
		d.Next = *cur
		if *cur == d.Dest {
			return i, Reached
		}
		*cur = step(*cur, towards(*cur, d.Dest))
	}
	if *cur == d.Dest {
		d.Next = *cur
		return i, Reached
	}
	return i, Continue
}

// Step advances the dig by one move, tagging what it passes through unless
// simulate is set. While the dig is still closing in on Dest along a
// straight line it skips open ground and tags the run ahead; once it has to
// go around something it follows the obstacle on the chosen side.
func (r *Router) Step(d *Dig, simulate bool, flags DigFlags) Status {
	d.Calls++
	if d.Calls >= r.callLimit() {
		r.logf("WARN digroute: player %d dig %v -> %v exceeded %d calls", d.Player, d.Begin, d.Dest, r.callLimit())
		return Failed
	}

	cur := d.Begin
	var target coord.Tile
	if tileDistance(d.Begin, d.Dest) <= d.Distance {
		if st := r.skipOpen(d, &cur, flags); st != Continue {
			return st
		}
		if r.Map.At(cur).Kind.Has(tilemap.AttrLiquid) && flags&AllowBridge != 0 {
			d.Next = cur
			return Bridge
		}
		n, st := r.tagRun(d, &cur, simulate, flags)
		if st != Continue {
			return st
		}
		around := towards(cur, d.Dest)
		if n > 0 {
			d.Begin = cur
			d.Distance = tileDistance(d.Next, d.Dest)
			d.Side = r.HugSide(d.Player, d, d.Next, d.Dest, around)
			d.Around = sideAround(around, d.Side)
			return Continue
		}

		d.Repeats++
		if d.Repeats > repeatLimit && d.Last == cur {
			r.logf("digroute: dig %v -> %v stuck at %v", d.Begin, d.Dest, cur)
			return Failed
		}
		d.Last = cur
		d.Distance = tileDistance(d.Next, d.Dest)
		d.Side = r.HugSide(d.Player, d, d.Next, d.Dest, around)
		d.Around = sideAround(around, d.Side)
		t, ok := r.DigToPosition(d.Player, d.Next, d.Around, d.Side)
		if !ok {
			return Failed
		}
		if r.Map.At(t).Kind.Has(tilemap.AttrLiquid) && flags&AllowBridge != 0 {
			d.Next = t
			return Bridge
		}
		target = t
	} else {
		t, ok := r.DigToPosition(d.Player, d.Begin, d.Around, d.Side)
		if !ok {
			return Failed
		}
		target = t
	}

	if !simulate && r.Diggable(d.Player, target) && !r.tagged(d, target) {
		if err := r.Tasks.Tag(d.Player, target); err != nil {
			r.logf("ERROR digroute: tag %v: %v", target, err)
			return Failed
		}
	}
	d.Around = towards(d.Next, target)
	d.Next = target
	if target == d.Dest {
		return Reached
	}
	d.Begin = target
	return Continue
}

func sideAround(around int, side Side) int {
	if side == SideCW {
		return (around + 1) & 3
	}
	return (around + 3) & 3
}

// SimulateDigTo runs a dig from start to end without tagging anything and
// returns how many steps it took and whether it got there. While the
// simulated path crosses ground connected to start, start moves up to it;
// the returned tile is that improved start.
func (r *Router) SimulateDigTo(player int, start, end coord.Tile, flags DigFlags) (int, coord.Tile, bool) {
	d := NewDig(player, start, end)
	steps := 0
	for {
		st := r.Step(d, true, flags)
		if st != Continue {
			return steps, start, st == Reached || st == Bridge
		}
		if r.safeLand(player, d.Next) && r.Regions != nil && r.Regions.Connected(r.Mover, start, d.Next) {
			start = d.Next
		}
		steps++
	}
}

func (r *Router) safeLand(player int, t coord.Tile) bool {
	c := r.Map.At(t)
	if !c.Kind.Has(tilemap.AttrSafeLand) {
		return false
	}
	if c.Kind.Has(tilemap.AttrOwnable) {
		return c.Owner == player || c.Owner == tilemap.Neutral
	}
	return true
}
