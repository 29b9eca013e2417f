package ariadne

import (
	"log"

	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/logic/collide"
	"dungeonnav.ai/internal/sim/world/logic/mathx"
	"dungeonnav.ai/internal/sim/world/logic/wallhug"
	"dungeonnav.ai/internal/sim/world/terrain/tilemap"
)

// Engine plans and follows routes. It holds no per-agent state; everything
// lives in the Route and the agent passed in.
type Engine struct {
	Probe   *collide.Probe
	Nav     *wallhug.Navigator
	Planner Planner
	Logger  *log.Logger

	// WaypointTolerance is the box distance at which a waypoint counts as reached.
	WaypointTolerance int
}

func NewEngine(probe *collide.Probe, nav *wallhug.Navigator, planner Planner, logger *log.Logger) *Engine {
	return &Engine{Probe: probe, Nav: nav, Planner: planner, Logger: logger}
}

func (e *Engine) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}

func (e *Engine) mover(a *wallhug.Agent, flags Flags) collide.Mover {
	mv := a.Mover
	if flags&NoOwner != 0 {
		mv.OwnerMask = ^uint32(0)
	}
	return mv
}

func (e *Engine) reached(a *wallhug.Agent, p coord.Pos) bool {
	return mathx.BoxDistance(a.Pos.X, a.Pos.Y, p.X, p.Y) <= e.WaypointTolerance
}

// Initialise plans a fresh route from the agent to end.
func (e *Engine) Initialise(a *wallhug.Agent, r *Route, end coord.Pos, speed int, flags Flags) Result {
	r.Invalidate()
	r.Start = a.Pos
	r.End = end
	r.Speed = speed
	r.Flags = flags
	r.Next = a.Pos

	if e.reached(a, end) {
		r.Waypoints[0] = end
		r.Waypoint = end
		r.Stored = 1
		r.Total = 1
		r.Valid = true
		e.initMovement(a, r)
		return Ok
	}

	path, err := e.Planner.Plan(e.mover(a, flags), a.Pos, end)
	if err != nil || len(path) == 0 {
		e.logf("ariadne: no route %d,%d -> %d,%d: %v", a.Pos.X, a.Pos.Y, end.X, end.Y, err)
		r.Invalidate()
		return Fail
	}
	r.Total = mathx.MinInt(len(path), MaxWaypoints)
	r.Stored = mathx.MinInt(r.Total, StoredWaypoints)
	copy(r.Waypoints[:r.Stored], path)
	r.Current = 0
	r.Valid = true
	e.initCurrentWaypoint(a, r)
	e.initMovement(a, r)
	return Ok
}

// pullOut moves a waypoint that sits on a subtile edge into the subtile by
// the nav radius so the agent does not graze the corner it was planned
// around. The destination itself is never moved.
func (e *Engine) pullOut(a *wallhug.Agent, r *Route, i int) coord.Pos {
	p := r.Waypoints[i]
	if i == r.Stored-1 && r.Stored >= r.Total {
		return p
	}
	rad := a.Mover.Radius
	pull := func(v int) int {
		switch coord.FractionOf(v) {
		case 0:
			return v + rad
		case coord.FractionMask:
			return v - rad
		}
		return v
	}
	p.X = pull(p.X)
	p.Y = pull(p.Y)
	return e.Probe.Map.ClampPos(p)
}

func (e *Engine) initCurrentWaypoint(a *wallhug.Agent, r *Route) {
	r.Waypoint = e.pullOut(a, r, r.Current)
	r.BestDist = mathx.Distance(a.Pos.X, a.Pos.Y, r.Waypoint.X, r.Waypoint.Y)
}

func (e *Engine) stepTowards(a *wallhug.Agent, to coord.Pos, speed int) (coord.Pos, int) {
	angle := mathx.AngleTo(a.Pos.X, a.Pos.Y, to.X, to.Y)
	if mathx.Distance(a.Pos.X, a.Pos.Y, to.X, to.Y) <= speed {
		return to, angle
	}
	return coord.Pos{
		X: mathx.MoveWithAngleX(a.Pos.X, speed, angle),
		Y: mathx.MoveWithAngleY(a.Pos.Y, speed, angle),
		Z: a.Pos.Z,
	}, angle
}

// initMovement decides how to start towards the current waypoint.
func (e *Engine) initMovement(a *wallhug.Agent, r *Route) Result {
	mv := e.mover(a, r.Flags)
	next, angle := e.stepTowards(a, r.Waypoint, r.Speed)
	r.Angle = angle
	v := e.Probe.CanAdvance(mv, a.Pos, next)
	if !v.Blocked() {
		r.State = FollowOnLine
		r.Next = next
		return Ok
	}
	if e.Probe.Map.At(v.Tile).Kind.Has(tilemap.AttrDoor) {
		// wait at the door
		r.State = FollowOnLine
		r.Next = a.Pos
		return Ok
	}
	flags := e.Probe.BlockedFlags(mv, a.Pos, next)
	pushed := collide.SnapAgainstWall(a.Pos, next, mv.Radius, flags, angle, collide.NegativeEdgePush)
	if pushed == a.Pos {
		e.initWallHug(a, r)
		return Ok
	}
	r.State = FollowManoeuvre
	r.ManoeuvreTo = pushed
	r.ManoeuvreHug = next
	r.Next = pushed
	r.Angle = mathx.AngleTo(a.Pos.X, a.Pos.Y, pushed.X, pushed.Y)
	return Ok
}

func (e *Engine) initWallHug(a *wallhug.Agent, r *Route) {
	r.State = FollowWallHug
	a.Nav.Resume(r.Waypoint)
	r.Next = a.Pos
}

// NextWaypoint moves on to the following waypoint.
func (e *Engine) NextWaypoint(a *wallhug.Agent, r *Route) Advance {
	if r.Current >= r.Stored {
		return AdvanceInvalid
	}
	r.Current++
	if r.Current != r.Stored {
		e.initCurrentWaypoint(a, r)
		e.initMovement(a, r)
		return AdvanceNext
	}
	if r.Stored >= r.Total {
		return AdvanceComplete
	}
	// Stored window used up, plan the rest from here.
	if e.Initialise(a, r, r.End, r.Speed, r.Flags) != Ok {
		return AdvanceInvalid
	}
	return AdvanceNext
}

// NextPosition returns where the agent should head this tick to follow the
// route to final. The route is re-planned when final or speed changed.
func (e *Engine) NextPosition(a *wallhug.Agent, r *Route, final coord.Pos, speed int, flags Flags) (coord.Pos, Result) {
	if !r.Valid || final.X != r.End.X || final.Y != r.End.Y || speed != r.Speed || flags != r.Flags {
		if e.Initialise(a, r, final, speed, flags) != Ok {
			return a.Pos, Fail
		}
	}

	if e.reached(a, r.Waypoint) {
		switch e.NextWaypoint(a, r) {
		case AdvanceComplete:
			r.Invalidate()
			return a.Pos, FinalOk
		case AdvanceInvalid:
			if e.Initialise(a, r, final, speed, flags) != Ok {
				return a.Pos, PartialOk
			}
		}
	}

	var res Result
	switch r.State {
	case FollowWallHug:
		res = e.updateWallHug(a, r)
	case FollowManoeuvre:
		res = e.updateManoeuvre(a, r)
	default:
		res = e.updateOnLine(a, r)
	}
	if res != Ok {
		return a.Pos, res
	}
	r.Next = e.Probe.Map.ClampPos(r.Next)
	return r.Next, Ok
}

func (e *Engine) trackBest(a *wallhug.Agent, r *Route) {
	if d := mathx.Distance(a.Pos.X, a.Pos.Y, r.Waypoint.X, r.Waypoint.Y); d < r.BestDist {
		r.BestDist = d
	}
}

func (e *Engine) updateOnLine(a *wallhug.Agent, r *Route) Result {
	e.trackBest(a, r)
	return e.initMovement(a, r)
}

func (e *Engine) updateWallHug(a *wallhug.Agent, r *Route) Result {
	e.trackBest(a, r)
	// Routed agents walk round diggable tiles. Tunnelling drives the
	// navigator directly.
	walker := *a
	walker.Digger = false
	res := e.Nav.Step(&walker, r.Waypoint)
	a.Nav = walker.Nav
	switch res.Action {
	case wallhug.ActionStall:
		e.logf("ariadne: wall hug stalled at %d,%d, route dropped", a.Pos.X, a.Pos.Y)
		r.Invalidate()
		return PartialOk
	case wallhug.ActionDig:
		e.logf("ariadne: dig request on route at %d,%d, route dropped", a.Pos.X, a.Pos.Y)
		r.Invalidate()
		return PartialOk
	}
	r.Next = res.Next
	r.Angle = res.Angle
	if a.Nav.Kind == wallhug.OnLine && a.Nav.Push == 0 {
		r.State = FollowOnLine
	}
	return Ok
}

func (e *Engine) updateManoeuvre(a *wallhug.Agent, r *Route) Result {
	mv := e.mover(a, r.Flags)
	if e.Probe.CanAdvance(mv, a.Pos, r.ManoeuvreTo).Result == collide.HardBlock {
		if e.Initialise(a, r, r.End, r.Speed, r.Flags) != Ok {
			return PartialOk
		}
		return Ok
	}
	e.trackBest(a, r)
	if a.Pos.X != r.ManoeuvreTo.X || a.Pos.Y != r.ManoeuvreTo.Y {
		r.Next = r.ManoeuvreTo
		r.Angle = mathx.AngleTo(a.Pos.X, a.Pos.Y, r.ManoeuvreTo.X, r.ManoeuvreTo.Y)
		return Ok
	}
	e.initWallHug(a, r)
	return e.updateWallHug(a, r)
}
