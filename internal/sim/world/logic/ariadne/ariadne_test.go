package ariadne

import (
	"errors"
	"testing"

	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/logic/collide"
	"dungeonnav.ai/internal/sim/world/logic/wallhug"
	"dungeonnav.ai/internal/sim/world/terrain/tilemap"
)

var notchedRows = []string{
	"#######",
	"#.....#",
	"#.....#",
	"#.....#",
	"####..#",
	"#.....#",
	"#.....#",
	"#######",
}

func newEngine(t *testing.T, rows ...string) *Engine {
	t.Helper()
	m, err := tilemap.Parse(rows, 0)
	if err != nil {
		t.Fatalf("parse map: %v", err)
	}
	probe := collide.New(m, nil)
	e := NewEngine(probe, wallhug.New(probe, nil), NewGridPlanner(probe), nil)
	e.WaypointTolerance = 16
	return e
}

func newAgent(tile coord.Tile) *wallhug.Agent {
	return &wallhug.Agent{
		Pos:   tile.Center(),
		Speed: 384,
		Mover: collide.Mover{Radius: 128, OwnerMask: collide.OwnerBit(0)},
	}
}

// follow applies the movement system rules: turn, clamp to speed, refuse
// hard blocked moves.
func follow(e *Engine, a *wallhug.Agent, r *Route, next coord.Pos) {
	a.Angle = r.Angle
	d := wallhugBox(a.Pos, next)
	if d > a.Speed {
		next.X = a.Pos.X + (next.X-a.Pos.X)*a.Speed/d
		next.Y = a.Pos.Y + (next.Y-a.Pos.Y)*a.Speed/d
	}
	if e.Probe.CanAdvance(a.Mover, a.Pos, next).Result == collide.HardBlock {
		return
	}
	a.Pos = next
}

func wallhugBox(a, b coord.Pos) int {
	dx, dy := a.X-b.X, a.Y-b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

func TestGridPlannerDetoursThroughGap(t *testing.T) {
	e := newEngine(t, notchedRows...)
	gp := e.Planner.(*GridPlanner)
	mv := collide.Mover{Radius: 128}
	tiles, err := gp.Tiles(mv, coord.Tile{X: 2, Y: 2}, coord.Tile{X: 2, Y: 6})
	if err != nil {
		t.Fatalf("Tiles: %v", err)
	}
	if len(tiles) != 9 {
		t.Fatalf("expected shortest detour of 9 tiles, got %d: %v", len(tiles), tiles)
	}
	crossed := false
	for _, tl := range tiles {
		if tl.Y == 4 {
			if tl.X < 4 {
				t.Fatalf("path goes through wall at %v", tl)
			}
			crossed = true
		}
	}
	if !crossed {
		t.Fatalf("path never crosses row 4: %v", tiles)
	}

	to := coord.Tile{X: 2, Y: 6}.Center()
	to.X += 50
	path, err := gp.Plan(mv, coord.Tile{X: 2, Y: 2}.Center(), to)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if path[len(path)-1] != to {
		t.Fatalf("last waypoint %+v want exact destination %+v", path[len(path)-1], to)
	}
	for _, p := range path[:len(path)-1] {
		if p != p.Tile().Center() {
			t.Fatalf("intermediate waypoint %+v is not a tile centre", p)
		}
	}
}

func TestGridPlannerIsDeterministic(t *testing.T) {
	e := newEngine(t, notchedRows...)
	gp := e.Planner.(*GridPlanner)
	mv := collide.Mover{Radius: 128}
	first, err := gp.Plan(mv, coord.Tile{X: 1, Y: 1}.Center(), coord.Tile{X: 1, Y: 6}.Center())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := gp.Plan(mv, coord.Tile{X: 1, Y: 1}.Center(), coord.Tile{X: 1, Y: 6}.Center())
		if err != nil {
			t.Fatalf("Plan: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("path length changed: %d vs %d", len(again), len(first))
		}
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("waypoint %d differs: %+v vs %+v", j, first[j], again[j])
			}
		}
	}
}

func TestRouteFollowsPlannedPath(t *testing.T) {
	e := newEngine(t, notchedRows...)
	a := newAgent(coord.Tile{X: 2, Y: 2})
	final := coord.Tile{X: 2, Y: 6}.Center()
	var r Route

	done := false
	for tick := 0; tick < 200; tick++ {
		next, res := e.NextPosition(a, &r, final, a.Speed, 0)
		if res == Fail || res == PartialOk {
			t.Fatalf("tick %d: unexpected %s", tick, res)
		}
		if res == FinalOk {
			done = true
			break
		}
		follow(e, a, &r, next)
		if e.Probe.CheckAt(a.Mover, a.Pos).Result == collide.HardBlock {
			t.Fatalf("tick %d: agent inside wall at %+v", tick, a.Pos)
		}
	}
	if !done {
		t.Fatalf("route never finished, agent at %+v", a.Pos)
	}
	if a.Pos.Tile() != final.Tile() {
		t.Fatalf("finished at tile %v want %v", a.Pos.Tile(), final.Tile())
	}
	if r.Valid {
		t.Fatalf("finished route should be invalid")
	}
}

func TestInitialiseAtDestination(t *testing.T) {
	e := newEngine(t, notchedRows...)
	a := newAgent(coord.Tile{X: 3, Y: 3})
	var r Route
	if res := e.Initialise(a, &r, a.Pos, a.Speed, 0); res != Ok {
		t.Fatalf("Initialise=%s", res)
	}
	if r.Total != 1 || r.Stored != 1 {
		t.Fatalf("stored=%d total=%d", r.Stored, r.Total)
	}
	if pos, res := e.NextPosition(a, &r, a.Pos, a.Speed, 0); res != FinalOk || pos != a.Pos {
		t.Fatalf("NextPosition=%+v %s", pos, res)
	}
}

func TestInitialiseFailsWithoutPath(t *testing.T) {
	e := newEngine(t, notchedRows...)
	a := newAgent(coord.Tile{X: 2, Y: 2})
	var r Route
	if res := e.Initialise(a, &r, coord.Tile{X: 1, Y: 4}.Center(), a.Speed, 0); res != Fail {
		t.Fatalf("Initialise into rock=%s", res)
	}
	if r.Valid {
		t.Fatalf("failed route must be invalid")
	}
	if _, res := e.NextPosition(a, &r, coord.Tile{X: 1, Y: 4}.Center(), a.Speed, 0); res != Fail {
		t.Fatalf("NextPosition=%s", res)
	}

	gp := e.Planner.(*GridPlanner)
	if _, err := gp.Tiles(a.Mover, coord.Tile{X: 2, Y: 2}, coord.Tile{X: 1, Y: 4}); !errors.Is(err, ErrNoPath) {
		t.Fatalf("expected ErrNoPath, got %v", err)
	}
}

func TestInvalidateIsIdempotent(t *testing.T) {
	e := newEngine(t, notchedRows...)
	a := newAgent(coord.Tile{X: 2, Y: 2})
	var r Route
	if res := e.Initialise(a, &r, coord.Tile{X: 2, Y: 6}.Center(), a.Speed, 0); res != Ok {
		t.Fatalf("Initialise=%s", res)
	}
	if !r.Valid || r.Remaining() == 0 {
		t.Fatalf("route not set up: %+v", r)
	}
	r.Invalidate()
	once := r
	r.Invalidate()
	if r != once || r.Valid || r.Remaining() != 0 {
		t.Fatalf("second invalidate changed route: %+v", r)
	}
}

func TestNoOwnerPlansThroughForeignDoor(t *testing.T) {
	e := newEngine(t,
		"#######",
		"#.....#",
		"###D###",
		"#.....#",
		"#######",
	)
	if err := e.Probe.Map.Set(coord.Tile{X: 3, Y: 2}, tilemap.Cell{Kind: tilemap.Door, Owner: 1}); err != nil {
		t.Fatalf("set door: %v", err)
	}
	a := newAgent(coord.Tile{X: 3, Y: 1})
	final := coord.Tile{X: 3, Y: 3}.Center()

	var r Route
	if res := e.Initialise(a, &r, final, a.Speed, 0); res != Fail {
		t.Fatalf("foreign door should block planning, got %s", res)
	}
	if res := e.Initialise(a, &r, final, a.Speed, NoOwner); res != Ok {
		t.Fatalf("NoOwner should plan through door, got %s", res)
	}
	if a.Mover.OwnerMask != collide.OwnerBit(0) {
		t.Fatalf("planning must not change the agent mask")
	}
}

type stubPlanner struct {
	calls int
}

func (s *stubPlanner) Plan(mv collide.Mover, from, to coord.Pos) ([]coord.Pos, error) {
	s.calls++
	return []coord.Pos{to}, nil
}

func TestBlockedLineHandsOverToWallHug(t *testing.T) {
	e := newEngine(t,
		".........",
		".........",
		".........",
		".........",
		"..###....",
		".........",
		".........",
		".........",
	)
	stub := &stubPlanner{}
	e.Planner = stub
	a := newAgent(coord.Tile{X: 3, Y: 2})
	final := coord.Tile{X: 3, Y: 6}.Center()
	var r Route

	seen := map[FollowState]bool{}
	for tick := 0; tick < 60; tick++ {
		next, res := e.NextPosition(a, &r, final, a.Speed, 0)
		if res == Fail {
			t.Fatalf("tick %d: Fail", tick)
		}
		if res == FinalOk {
			break
		}
		seen[r.State] = true
		follow(e, a, &r, next)
		if e.Probe.CheckAt(a.Mover, a.Pos).Result == collide.HardBlock {
			t.Fatalf("tick %d: agent inside wall at %+v", tick, a.Pos)
		}
	}
	if !seen[FollowWallHug] {
		t.Fatalf("route never handed over to wall hugging: %v", seen)
	}
	if stub.calls == 0 {
		t.Fatalf("planner never called")
	}
}
