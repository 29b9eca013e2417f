package runtime

import (
	"fmt"
	"strings"
	"testing"

	"dungeonnav.ai/internal/protocol"
	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/kernel/model"
	"dungeonnav.ai/internal/sim/world/logic/ariadne"
	"dungeonnav.ai/internal/sim/world/logic/collide"
	"dungeonnav.ai/internal/sim/world/logic/digroute"
	"dungeonnav.ai/internal/sim/world/logic/tasklist"
	"dungeonnav.ai/internal/sim/world/logic/wallhug"
	"dungeonnav.ai/internal/sim/world/terrain/tilemap"
)

type stubEnv struct {
	agents []*model.Agent
	probe  *collide.Probe
	engine *ariadne.Engine
	nav    *wallhug.Navigator
	router *digroute.Router
	tasks  *tasklist.Tasks
	nextID int
}

func newStubEnv(t *testing.T, rows []string, agents ...*model.Agent) *stubEnv {
	t.Helper()
	m, err := tilemap.Parse(rows, 0)
	if err != nil {
		t.Fatalf("parse map: %v", err)
	}
	probe := collide.New(m, nil)
	nav := wallhug.New(probe, nil)
	engine := ariadne.NewEngine(probe, nav, ariadne.NewGridPlanner(probe), nil)
	engine.WaypointTolerance = 16
	tasks := tasklist.New(0)
	return &stubEnv{
		agents: agents,
		probe:  probe,
		engine: engine,
		nav:    nav,
		router: digroute.New(m, tasks, nil),
		tasks:  tasks,
	}
}

func (s *stubEnv) SortedAgents() []*model.Agent { return s.agents }
func (s *stubEnv) Probe() *collide.Probe { return s.probe }
func (s *stubEnv) Routes() *ariadne.Engine { return s.engine }
func (s *stubEnv) Hugger() *wallhug.Navigator { return s.nav }
func (s *stubEnv) Router() *digroute.Router { return s.router }
func (s *stubEnv) InBounds(t coord.Tile) bool { return s.probe.Map.InBounds(t) }
func (s *stubEnv) TagDig(p int, t coord.Tile) error { return s.tasks.Tag(p, t) }
func (s *stubEnv) NewGoalID() string {
	s.nextID++
	return fmt.Sprintf("G%d", s.nextID)
}

func newImp(id string, tile coord.Tile) *model.Agent {
	return &model.Agent{ID: id, Pos: tile.Center(), Speed: 384, Radius: 128}
}

func lastEvent(a *model.Agent, typ string) protocol.Event {
	for i := len(a.Events) - 1; i >= 0; i-- {
		if a.Events[i]["type"] == typ {
			return a.Events[i]
		}
	}
	return nil
}

// detourRows is open floor with a wall across rows 14-16 that leaves only
// column 11 open.
func detourRows() []string {
	const w, h = 22, 24
	rows := make([]string, h)
	for y := 0; y < h; y++ {
		var b strings.Builder
		for x := 0; x < w; x++ {
			switch {
			case x == 0 || y == 0 || x == w-1 || y == h-1:
				b.WriteByte('#')
			case y >= 14 && y <= 16 && x != 11:
				b.WriteByte('#')
			default:
				b.WriteByte('.')
			}
		}
		rows[y] = b.String()
	}
	return rows
}

var input = SystemInput{MaxReplans: 2, Tolerance: 16}

func TestMoveToDetoursThroughOpening(t *testing.T) {
	a := newImp("imp1", coord.Tile{X: 10, Y: 10})
	env := newStubEnv(t, detourRows(), a)
	HandleCommand(env, a, protocol.Command{ID: "c1", Type: protocol.TypeMoveTo, AgentID: a.ID, Target: [2]int{10, 20}}, 0)
	if a.Goal == nil {
		t.Fatalf("goal not set: %+v", a.Events)
	}

	visited := map[coord.Tile]bool{}
	done := false
	for tick := uint64(1); tick <= 200; tick++ {
		in := input
		in.NowTick = tick
		RunMovementSystem(env, in)
		visited[a.Pos.Tile()] = true
		if env.probe.CheckAt(a.Mover(), a.Pos).Result == collide.HardBlock {
			t.Fatalf("tick %d: agent inside rock at %+v", tick, a.Pos)
		}
		if a.Goal == nil {
			done = true
			break
		}
	}
	if !done {
		t.Fatalf("goal not finished, agent at tile %v", a.Pos.Tile())
	}
	if ev := lastEvent(a, "GOAL_DONE"); ev == nil {
		t.Fatalf("no GOAL_DONE event: %+v", a.Events)
	}
	if a.Pos.Tile() != (coord.Tile{X: 10, Y: 20}) {
		t.Fatalf("arrived at %v", a.Pos.Tile())
	}
	for y := 14; y <= 16; y++ {
		if !visited[coord.Tile{X: 11, Y: y}] {
			t.Fatalf("detour did not pass (11,%d)", y)
		}
	}
}

func TestMoveToIsDeterministic(t *testing.T) {
	run := func() []coord.Pos {
		a := newImp("imp1", coord.Tile{X: 3, Y: 12})
		b := newImp("imp2", coord.Tile{X: 18, Y: 11})
		env := newStubEnv(t, detourRows(), a, b)
		HandleCommand(env, a, protocol.Command{Type: protocol.TypeMoveTo, Target: [2]int{17, 21}}, 0)
		HandleCommand(env, b, protocol.Command{Type: protocol.TypeMoveTo, Target: [2]int{2, 19}, Offset: [2]int{100, -50}}, 0)
		out := make([]coord.Pos, 0, 300)
		for tick := uint64(1); tick <= 150; tick++ {
			in := input
			in.NowTick = tick
			RunMovementSystem(env, in)
			out = append(out, a.Pos, b.Pos)
		}
		return out
	}
	first, second := run(), run()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("runs diverged at step %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestMoveToUnreachableGivesUp(t *testing.T) {
	a := newImp("imp1", coord.Tile{X: 2, Y: 2})
	env := newStubEnv(t, detourRows(), a)
	HandleCommand(env, a, protocol.Command{Type: protocol.TypeMoveTo, Target: [2]int{5, 15}}, 0)
	for tick := uint64(1); tick <= 10 && a.Goal != nil; tick++ {
		in := input
		in.NowTick = tick
		RunMovementSystem(env, in)
	}
	if a.Goal != nil {
		t.Fatalf("goal still active")
	}
	ev := lastEvent(a, "GOAL_FAIL")
	if ev == nil || ev["code"] != protocol.ErrNoPath {
		t.Fatalf("expected GOAL_FAIL E_NO_PATH, got %+v", a.Events)
	}
	if a.Pos != (coord.Tile{X: 2, Y: 2}).Center() {
		t.Fatalf("agent moved: %+v", a.Pos)
	}
}

func TestDigToDigsThroughEarth(t *testing.T) {
	a := newImp("imp1", coord.Tile{X: 5, Y: 3})
	a.Digger = true
	env := newStubEnv(t, []string{
		"###########",
		"#.........#",
		"#.........#",
		"#.........#",
		"#%%%%%%%%%#",
		"#.........#",
		"###########",
	}, a)
	HandleCommand(env, a, protocol.Command{Type: protocol.TypeDigTo, Target: [2]int{5, 5}}, 0)
	if a.Goal == nil || a.Goal.Kind != model.GoalDigTo {
		t.Fatalf("dig goal not set: %+v", a.Events)
	}

	digTicks := 0
	for tick := uint64(1); tick <= 100 && a.Goal != nil; tick++ {
		in := input
		in.NowTick = tick
		RunMovementSystem(env, in)
		if a.DigActive {
			if !env.tasks.Tagged(0, a.DigTile) {
				t.Fatalf("digging an untagged tile %v", a.DigTile)
			}
			digTicks++
			if digTicks >= 3 {
				if err := env.probe.Map.SetKind(a.DigTile, tilemap.Path); err != nil {
					t.Fatalf("set: %v", err)
				}
				env.tasks.UntagTile(a.DigTile)
			}
		}
	}
	if lastEvent(a, "DIG_START") == nil {
		t.Fatalf("never started digging: %+v", a.Events)
	}
	if lastEvent(a, "GOAL_DONE") == nil {
		t.Fatalf("goal not done, agent at %+v events %+v", a.Pos, a.Events)
	}
	if a.Pos.Tile() != (coord.Tile{X: 5, Y: 5}) {
		t.Fatalf("ended at %v", a.Pos.Tile())
	}
}

// A digger on a MOVE_TO route walks like anyone else: a target pressed
// against earth ends in a stall, not a dig that nobody tags.
func TestRoutedDiggerGivesUpInsteadOfDigging(t *testing.T) {
	rows := []string{
		"#######",
		"#.....#",
		"#%%%%%#",
		"#######",
		"#######",
	}
	run := func(digger bool) (*model.Agent, *stubEnv, []coord.Pos) {
		a := newImp("imp1", coord.Tile{X: 1, Y: 1})
		a.Digger = digger
		env := newStubEnv(t, rows, a)
		HandleCommand(env, a, protocol.Command{Type: protocol.TypeMoveTo, Target: [2]int{5, 1}, Offset: [2]int{0, 383}}, 0)
		var trail []coord.Pos
		for tick := uint64(1); tick <= 3000 && a.Goal != nil; tick++ {
			in := input
			in.NowTick = tick
			RunMovementSystem(env, in)
			trail = append(trail, a.Pos)
		}
		return a, env, trail
	}

	walker, _, walkTrail := run(false)
	digger, env, digTrail := run(true)
	if digger.Goal != nil {
		t.Fatalf("digger still on goal after %d ticks, nav=%v phase=%v", len(digTrail), digger.Nav.Kind, digger.Nav.Phase)
	}
	if lastEvent(digger, "DIG_START") != nil || env.tasks.Len() != 0 {
		t.Fatalf("routed digger dug: tasks=%d events=%+v", env.tasks.Len(), digger.Events)
	}
	wf, df := lastEvent(walker, "GOAL_FAIL"), lastEvent(digger, "GOAL_FAIL")
	if wf == nil || df == nil || wf["code"] != df["code"] {
		t.Fatalf("outcomes differ: walker=%+v digger=%+v", wf, df)
	}
	if len(walkTrail) != len(digTrail) {
		t.Fatalf("walker took %d ticks, digger %d", len(walkTrail), len(digTrail))
	}
	for i := range walkTrail {
		if walkTrail[i] != digTrail[i] {
			t.Fatalf("tick %d: walker %+v digger %+v", i+1, walkTrail[i], digTrail[i])
		}
	}
}

func TestHandleCommandRejections(t *testing.T) {
	a := newImp("imp1", coord.Tile{X: 2, Y: 2})
	env := newStubEnv(t, detourRows(), a)

	HandleCommand(env, a, protocol.Command{ID: "c1", Type: protocol.TypeMoveTo, Target: [2]int{99, 2}}, 1)
	if ev := lastEvent(a, "ACTION_RESULT"); ev["code"] != protocol.ErrInvalidTarget {
		t.Fatalf("expected E_INVALID_TARGET, got %+v", ev)
	}
	HandleCommand(env, a, protocol.Command{ID: "c2", Type: protocol.TypeDigTo, Target: [2]int{3, 3}}, 1)
	if ev := lastEvent(a, "ACTION_RESULT"); ev["code"] != protocol.ErrBadRequest {
		t.Fatalf("expected E_BAD_REQUEST for non digger, got %+v", ev)
	}
	HandleCommand(env, a, protocol.Command{ID: "c3", Type: protocol.TypeMoveTo, Target: [2]int{3, 3}}, 1)
	if a.Goal == nil || a.Goal.ID != "G1" {
		t.Fatalf("goal not set: %+v", a.Goal)
	}
	HandleCommand(env, a, protocol.Command{ID: "c4", Type: protocol.TypeMoveTo, Target: [2]int{4, 4}}, 1)
	if ev := lastEvent(a, "ACTION_RESULT"); ev["code"] != protocol.ErrConflict {
		t.Fatalf("expected E_CONFLICT, got %+v", ev)
	}
	HandleCommand(env, a, protocol.Command{ID: "c5", Type: protocol.TypeStop}, 1)
	if a.Goal != nil || a.Route.Valid {
		t.Fatalf("stop left goal or route behind")
	}
}

func TestAutoDigClaimsNearestTile(t *testing.T) {
	a := newImp("imp1", coord.Tile{X: 2, Y: 2})
	a.Digger = true
	a.AutoDig = true
	env := newStubEnv(t, []string{
		"#####",
		"#####",
		"##.%#",
		"#####",
		"#####",
	}, a)
	RunAutoDigSystem(env, SystemInput{NowTick: 1})
	if a.Goal == nil || a.Goal.Kind != model.GoalDigTo {
		t.Fatalf("no dig goal: %+v", a.Events)
	}
	if a.Goal.Target.Tile() != (coord.Tile{X: 3, Y: 2}) {
		t.Fatalf("target tile %v", a.Goal.Target.Tile())
	}
	if !env.tasks.Tagged(0, coord.Tile{X: 3, Y: 2}) {
		t.Fatalf("claimed tile not tagged")
	}

	// Nothing left to claim.
	b := newImp("imp2", coord.Tile{X: 2, Y: 2})
	b.Digger, b.AutoDig = true, true
	env.agents = append(env.agents, b)
	RunAutoDigSystem(env, SystemInput{NowTick: 2})
	if b.Goal != nil {
		t.Fatalf("second digger got a goal: %+v", b.Goal)
	}
}

func TestDigPathSystemTagsRun(t *testing.T) {
	a := newImp("imp1", coord.Tile{X: 1, Y: 1})
	env := newStubEnv(t, []string{
		"#########",
		"#.%%%%..#",
		"#########",
	}, a)
	HandleCommand(env, a, protocol.Command{ID: "p1", Type: protocol.TypeDigPath, Target: [2]int{7, 1}}, 0)
	if a.DigPath == nil {
		t.Fatalf("dig path not started: %+v", a.Events)
	}
	for tick := uint64(1); tick <= 100 && a.DigPath != nil; tick++ {
		RunDigPathSystem(env, SystemInput{NowTick: tick})
	}
	ev := lastEvent(a, "DIG_PATH_END")
	if ev == nil || ev["status"] != "REACHED" {
		t.Fatalf("dig path did not reach: %+v", a.Events)
	}
	if env.tasks.Len() != 4 {
		t.Fatalf("tagged %d tiles", env.tasks.Len())
	}
}

func TestStepTowardsClampsToSpeed(t *testing.T) {
	cur := coord.Pos{X: 1000, Y: 1000, Z: 3}
	if got := StepTowards(cur, coord.Pos{X: 1100, Y: 900, Z: 9}, 384); got != (coord.Pos{X: 1100, Y: 900, Z: 3}) {
		t.Fatalf("short step=%+v", got)
	}
	if got := StepTowards(cur, coord.Pos{X: 1000 + 768, Y: 1000 + 384}, 384); got != (coord.Pos{X: 1384, Y: 1192, Z: 3}) {
		t.Fatalf("long step=%+v", got)
	}
}
