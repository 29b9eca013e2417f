package world

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync/atomic"

	"dungeonnav.ai/internal/observerproto"
	"dungeonnav.ai/internal/persistence/snapshot"
	"dungeonnav.ai/internal/protocol"
	"dungeonnav.ai/internal/sim/tuning"
	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/logic/ariadne"
	"dungeonnav.ai/internal/sim/world/logic/collide"
	"dungeonnav.ai/internal/sim/world/logic/digroute"
	"dungeonnav.ai/internal/sim/world/logic/tasklist"
	"dungeonnav.ai/internal/sim/world/logic/wallhug"
	"dungeonnav.ai/internal/sim/world/terrain/tilemap"
)

var (
	ErrDuplicateAgent = errors.New("duplicate agent id")
	ErrUnknownAgent   = errors.New("unknown agent")
)

type WorldConfig struct {
	ID     string
	Seed   int64
	Tuning tuning.Tuning
}

// World is a single-threaded deterministic simulation of creatures moving
// and digging through one dungeon map. All state must be accessed only from
// the goroutine that steps it.
type World struct {
	cfg    WorldConfig
	logger *log.Logger

	tick atomic.Uint64

	m      *tilemap.Map
	agents map[string]*Agent
	sorted []*Agent
	tasks  *tasklist.Tasks
	// ticks spent digging each tile so far
	digProgress map[coord.Tile]int

	probe   *collide.Probe
	nav     *wallhug.Navigator
	planner *ariadne.GridPlanner
	routes  *ariadne.Engine
	router  *digroute.Router

	nextGoalNum atomic.Uint64

	inbox    chan protocol.Command
	stop     chan struct{}
	schedule map[uint64][]protocol.Command

	// Optional sinks (may be nil). Implemented in internal/persistence/* and
	// internal/transport/observer.
	tickLogger   TickLogger
	snapshotSink chan<- snapshot.SnapshotV1
	frames       FrameSink
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// FrameSink receives a copy of every tick for observers. It must not block.
type FrameSink interface {
	PublishTick(msg observerproto.TickMsg)
}

type TickLogEntry struct {
	Tick     uint64             `json:"tick"`
	Commands []protocol.Command `json:"commands,omitempty"`
	Events   []AgentEvent       `json:"events,omitempty"`
	Digest   string             `json:"digest"`
}

type AgentEvent struct {
	AgentID string         `json:"agent_id"`
	Event   protocol.Event `json:"event"`
}

// New builds a world over m. The map is owned by the world from now on.
func New(cfg WorldConfig, m *tilemap.Map, logger *log.Logger) (*World, error) {
	if m == nil {
		return nil, fmt.Errorf("world: nil map")
	}
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}
	w := &World{
		cfg:         cfg,
		logger:      logger,
		m:           m,
		agents:      map[string]*Agent{},
		tasks:       tasklist.New(cfg.Tuning.Digging.TaskLimit),
		digProgress: map[coord.Tile]int{},
		inbox:       make(chan protocol.Command, 1024),
		stop:        make(chan struct{}),
	}
	w.probe = collide.New(m, logger)
	w.nav = wallhug.New(w.probe, logger)
	w.nav.MaxHugIterations = cfg.Tuning.Movement.HugMaxIterations
	w.planner = ariadne.NewGridPlanner(w.probe)
	w.routes = ariadne.NewEngine(w.probe, w.nav, w.planner, logger)
	w.routes.WaypointTolerance = cfg.Tuning.Movement.WaypointTolerance
	w.router = digroute.New(m, w.tasks, logger)
	w.router.Regions = w.planner
	w.router.CallLimit = cfg.Tuning.Digging.DigCallLimit
	return w, nil
}

// AddAgent places a creature. Zero speed and radius take the tuned defaults.
func (w *World) AddAgent(a *Agent) error {
	if a == nil || a.ID == "" {
		return fmt.Errorf("world: agent without id")
	}
	if _, ok := w.agents[a.ID]; ok {
		return fmt.Errorf("world: %w: %s", ErrDuplicateAgent, a.ID)
	}
	if !w.m.InBounds(a.Pos.Tile()) {
		return fmt.Errorf("world: agent %s: %w", a.ID, tilemap.ErrOutOfBounds)
	}
	if a.Speed <= 0 {
		a.Speed = w.cfg.Tuning.Movement.Speed
	}
	if a.Radius <= 0 {
		a.Radius = w.cfg.Tuning.Movement.NavRadius
	}
	a.Pos = w.m.ClampPos(a.Pos)
	w.agents[a.ID] = a
	w.sorted = append(w.sorted, a)
	sort.Slice(w.sorted, func(i, j int) bool { return w.sorted[i].ID < w.sorted[j].ID })
	return nil
}

func (w *World) SetTickLogger(l TickLogger) { w.tickLogger = l }

func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

func (w *World) SetFrameSink(s FrameSink) { w.frames = s }

func (w *World) Config() WorldConfig { return w.cfg }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) Map() *tilemap.Map { return w.m }

func (w *World) Agent(id string) *Agent { return w.agents[id] }

// Agents returns the agents in ID order. Callers must not keep the slice
// across ticks.
func (w *World) Agents() []*Agent { return w.sorted }

func (w *World) Tasks() []tasklist.Task { return w.tasks.Sorted() }

// Environment of the movement systems.

func (w *World) SortedAgents() []*Agent { return w.sorted }

func (w *World) Probe() *collide.Probe { return w.probe }

func (w *World) Routes() *ariadne.Engine { return w.routes }

func (w *World) Hugger() *wallhug.Navigator { return w.nav }

func (w *World) Router() *digroute.Router { return w.router }

func (w *World) InBounds(t coord.Tile) bool { return w.m.InBounds(t) }

func (w *World) TagDig(player int, t coord.Tile) error { return w.tasks.Tag(player, t) }

func (w *World) NewGoalID() string {
	n := w.nextGoalNum.Add(1)
	return fmt.Sprintf("G%06d", n)
}
