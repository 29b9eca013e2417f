package world

import (
	"fmt"
	"log"

	"dungeonnav.ai/internal/persistence/snapshot"
	"dungeonnav.ai/internal/sim/tuning"
	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/logic/ariadne"
	"dungeonnav.ai/internal/sim/world/logic/tasklist"
	"dungeonnav.ai/internal/sim/world/terrain/tilemap"
)

// FromSnapshot rebuilds a world that continues exactly where the snapshot
// was taken. tune supplies everything the snapshot does not carry.
func FromSnapshot(snap snapshot.SnapshotV1, tune tuning.Tuning, logger *log.Logger) (*World, error) {
	if snap.Header.Version != snapshot.Version {
		return nil, fmt.Errorf("import snapshot: version %d", snap.Header.Version)
	}
	cells := make([]tilemap.Cell, 0, len(snap.Cells))
	for i, c := range snap.Cells {
		k := tilemap.Kind(c.Kind)
		if !k.Valid() {
			return nil, fmt.Errorf("import snapshot: cell %d: bad kind %d", i, c.Kind)
		}
		cells = append(cells, tilemap.Cell{Kind: k, Owner: c.Owner, Locked: c.Locked})
	}
	m, err := tilemap.FromCells(snap.Width, snap.Height, cells)
	if err != nil {
		return nil, fmt.Errorf("import snapshot: %w", err)
	}

	if snap.TickRate > 0 {
		tune.TickRateHz = snap.TickRate
	}
	if snap.SnapshotEveryTicks > 0 {
		tune.SnapshotEveryTicks = snap.SnapshotEveryTicks
	}
	w, err := New(WorldConfig{ID: snap.Header.WorldID, Seed: snap.Seed, Tuning: tune}, m, logger)
	if err != nil {
		return nil, err
	}
	for _, av := range snap.Agents {
		if err := w.AddAgent(importAgent(av)); err != nil {
			return nil, fmt.Errorf("import snapshot: %w", err)
		}
	}

	tasks := make([]tasklist.Task, 0, len(snap.Tasks))
	for _, t := range snap.Tasks {
		tasks = append(tasks, tasklist.Task{Player: t.Player, Tile: coord.Tile{X: t.Tile[0], Y: t.Tile[1]}, Tick: t.Tick})
	}
	w.tasks.Restore(tasks)
	for _, p := range snap.DigProgress {
		w.digProgress[coord.Tile{X: p.Tile[0], Y: p.Tile[1]}] = p.Ticks
	}
	w.nextGoalNum.Store(snap.Counters.NextGoal)
	w.tick.Store(snap.Header.Tick)
	return w, nil
}

func importAgent(av snapshot.AgentV1) *Agent {
	a := &Agent{
		ID:         av.ID,
		Owner:      av.Owner,
		Pos:        coord.Pos{X: av.Pos[0], Y: av.Pos[1], Z: av.Pos[2]},
		Angle:      av.Angle,
		Speed:      av.Speed,
		Radius:     av.Radius,
		Flying:     av.Flying,
		LavaImmune: av.LavaImmune,
		Digger:     av.Digger,
		AutoDig:    av.AutoDig,
		Route:      av.Route,
		Nav:        av.Nav,
		DigTile:    coord.Tile{X: av.DigTile[0], Y: av.DigTile[1]},
		DigActive:  av.DigActive,
	}
	if g := av.Goal; g != nil {
		a.Goal = &Goal{
			ID:          g.ID,
			Kind:        GoalKind(g.Kind),
			Target:      coord.Pos{X: g.Target[0], Y: g.Target[1], Z: g.Target[2]},
			Flags:       ariadne.Flags(g.Flags),
			StartedTick: g.StartedTick,
			Replans:     g.Replans,
		}
	}
	if av.DigPath != nil {
		d := *av.DigPath
		a.DigPath = &d
	}
	return a
}
