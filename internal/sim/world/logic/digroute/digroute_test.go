package digroute

import (
	"testing"

	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/logic/tasklist"
	"dungeonnav.ai/internal/sim/world/terrain/tilemap"
)

func newRouter(t *testing.T, rows ...string) (*Router, *tasklist.Tasks) {
	t.Helper()
	m, err := tilemap.Parse(rows, 0)
	if err != nil {
		t.Fatalf("parse map: %v", err)
	}
	tasks := tasklist.New(0)
	return New(m, tasks, nil), tasks
}

func TestNextDigTargetSingleNeighbour(t *testing.T) {
	r, _ := newRouter(t,
		"#####",
		"#####",
		"##.%#",
		"#####",
		"#####",
	)
	got, ok := r.NextDigTarget(0, coord.Tile{X: 2, Y: 2}, 0)
	if !ok || got != (coord.Tile{X: 3, Y: 2}) {
		t.Fatalf("NextDigTarget=%v,%v", got, ok)
	}
}

func TestNextDigTargetAllTagged(t *testing.T) {
	r, tasks := newRouter(t,
		"#####",
		"##%##",
		"#%.%#",
		"##%##",
		"#####",
	)
	for _, tl := range []coord.Tile{{X: 2, Y: 1}, {X: 1, Y: 2}, {X: 3, Y: 2}, {X: 2, Y: 3}} {
		if err := tasks.Tag(0, tl); err != nil {
			t.Fatalf("tag: %v", err)
		}
	}
	if got, ok := r.NextDigTarget(0, coord.Tile{X: 2, Y: 2}, 0); ok {
		t.Fatalf("expected NotFound, got %v", got)
	}
	// Another player's tags do not count.
	if _, ok := r.NextDigTarget(1, coord.Tile{X: 2, Y: 2}, 0); !ok {
		t.Fatalf("player 1 should still find a target")
	}
}

func TestNextDigTargetStopsAtTaggedEarth(t *testing.T) {
	r, tasks := newRouter(t,
		"%%%%%",
		"%%%%%",
		"%%.%%",
		"%%%%%",
		"%%%%%",
	)
	for _, tl := range []coord.Tile{{X: 2, Y: 1}, {X: 1, Y: 2}, {X: 3, Y: 2}, {X: 2, Y: 3}} {
		if err := tasks.Tag(0, tl); err != nil {
			t.Fatalf("tag: %v", err)
		}
	}
	for hint := 0; hint < 4; hint++ {
		if got, ok := r.NextDigTarget(0, coord.Tile{X: 2, Y: 2}, hint); ok {
			t.Fatalf("hint %d: earth behind tagged ring returned %v", hint, got)
		}
	}

	// Once a tagged tile is dug the search carries on through it.
	if err := r.Map.SetKind(coord.Tile{X: 2, Y: 1}, tilemap.Path); err != nil {
		t.Fatalf("set: %v", err)
	}
	tasks.UntagTile(coord.Tile{X: 2, Y: 1})
	if got, ok := r.NextDigTarget(0, coord.Tile{X: 2, Y: 2}, 0); !ok || got != (coord.Tile{X: 2, Y: 0}) {
		t.Fatalf("after dig: %v,%v", got, ok)
	}
}

func TestNextDigTargetFollowsHint(t *testing.T) {
	r, _ := newRouter(t,
		"#####",
		"#####",
		"#%.%#",
		"#####",
		"#####",
	)
	if got, ok := r.NextDigTarget(0, coord.Tile{X: 2, Y: 2}, 1); !ok || got.X != 3 {
		t.Fatalf("east hint: %v,%v", got, ok)
	}
	if got, ok := r.NextDigTarget(0, coord.Tile{X: 2, Y: 2}, 3); !ok || got.X != 1 {
		t.Fatalf("west hint: %v,%v", got, ok)
	}
}

func TestNextDigTargetWalksCorridor(t *testing.T) {
	r, _ := newRouter(t,
		"#######",
		"#....$#",
		"#######",
	)
	got, ok := r.NextDigTarget(0, coord.Tile{X: 1, Y: 1}, 0)
	if !ok || got != (coord.Tile{X: 5, Y: 1}) {
		t.Fatalf("NextDigTarget=%v,%v", got, ok)
	}
	// Gems are valuable but cannot be dug.
	r2, _ := newRouter(t,
		"#######",
		"#....*#",
		"#######",
	)
	if got, ok := r2.NextDigTarget(0, coord.Tile{X: 1, Y: 1}, 0); ok {
		t.Fatalf("gems returned as dig target: %v", got)
	}
}

func TestDigToPositionSideOrder(t *testing.T) {
	r, _ := newRouter(t,
		".....",
		".....",
		".....",
		".....",
		".....",
	)
	base := coord.Tile{X: 2, Y: 2}
	if got, ok := r.DigToPosition(0, base, 0, SideCW); !ok || got != (coord.Tile{X: 1, Y: 2}) {
		t.Fatalf("clockwise start: %v,%v", got, ok)
	}
	if got, ok := r.DigToPosition(0, base, 0, SideCCW); !ok || got != (coord.Tile{X: 3, Y: 2}) {
		t.Fatalf("counter-clockwise start: %v,%v", got, ok)
	}

	closed, _ := newRouter(t,
		"###",
		"#.#",
		"###",
	)
	if got, ok := closed.DigToPosition(0, coord.Tile{X: 1, Y: 1}, 0, SideCW); ok {
		t.Fatalf("enclosed base returned %v", got)
	}
}

func runDig(t *testing.T, r *Router, d *Dig, simulate bool) Status {
	t.Helper()
	for i := 0; i < 100; i++ {
		if st := r.Step(d, simulate, 0); st != Continue {
			return st
		}
	}
	t.Fatalf("dig did not finish")
	return Failed
}

func TestStepTagsStraightRun(t *testing.T) {
	r, tasks := newRouter(t,
		"#########",
		"#.%%%%..#",
		"#########",
	)
	d := NewDig(0, coord.Tile{X: 1, Y: 1}, coord.Tile{X: 7, Y: 1})
	if st := runDig(t, r, d, false); st != Reached {
		t.Fatalf("status=%s", st)
	}
	got := tasks.Sorted()
	if len(got) != 4 {
		t.Fatalf("tagged %d tiles: %+v", len(got), got)
	}
	for i, task := range got {
		if task.Tile != (coord.Tile{X: 2 + i, Y: 1}) {
			t.Fatalf("task %d on %v", i, task.Tile)
		}
	}
}

func TestStepDigsAroundGems(t *testing.T) {
	r, tasks := newRouter(t,
		"#########",
		"#%%%%%%%#",
		"#.%%*%%.#",
		"#%%%%%%%#",
		"#########",
	)
	d := NewDig(0, coord.Tile{X: 1, Y: 2}, coord.Tile{X: 7, Y: 2})
	if st := runDig(t, r, d, false); st != Reached {
		t.Fatalf("status=%s", st)
	}
	if tasks.Tagged(0, coord.Tile{X: 4, Y: 2}) {
		t.Fatalf("gems tagged")
	}
	detour := tasks.Tagged(0, coord.Tile{X: 3, Y: 1}) || tasks.Tagged(0, coord.Tile{X: 3, Y: 3})
	if !detour {
		t.Fatalf("no detour tile tagged: %+v", tasks.Sorted())
	}
	for _, task := range tasks.Sorted() {
		if !r.Diggable(0, task.Tile) {
			t.Fatalf("undiggable tile tagged: %v", task.Tile)
		}
	}
}

func TestSimulateDigToLeavesTasksAlone(t *testing.T) {
	r, tasks := newRouter(t,
		"#########",
		"#.%%%%..#",
		"#########",
	)
	steps, _, ok := r.SimulateDigTo(0, coord.Tile{X: 1, Y: 1}, coord.Tile{X: 7, Y: 1}, 0)
	if !ok || steps == 0 {
		t.Fatalf("simulate: steps=%d ok=%v", steps, ok)
	}
	if tasks.Len() != 0 {
		t.Fatalf("simulation tagged %d tiles", tasks.Len())
	}
}

func TestSimulateDigToFailsThroughRock(t *testing.T) {
	r, _ := newRouter(t,
		"#####",
		"#.#.#",
		"#####",
	)
	if _, _, ok := r.SimulateDigTo(0, coord.Tile{X: 1, Y: 1}, coord.Tile{X: 3, Y: 1}, 0); ok {
		t.Fatalf("dig through rock reported success")
	}
}

func TestHugSideIsDeterministic(t *testing.T) {
	r, _ := newRouter(t,
		"#########",
		"#%%%%%%%#",
		"#.%%*%%.#",
		"#%%%%%%%#",
		"#########",
	)
	d := NewDig(0, coord.Tile{X: 3, Y: 2}, coord.Tile{X: 7, Y: 2})
	first := r.HugSide(0, d, coord.Tile{X: 3, Y: 2}, coord.Tile{X: 7, Y: 2}, 1)
	if first != SideCW && first != SideCCW {
		t.Fatalf("no side chosen: %v", first)
	}
	for i := 0; i < 10; i++ {
		if got := r.HugSide(0, d, coord.Tile{X: 3, Y: 2}, coord.Tile{X: 7, Y: 2}, 1); got != first {
			t.Fatalf("side changed: %v vs %v", got, first)
		}
	}
}
