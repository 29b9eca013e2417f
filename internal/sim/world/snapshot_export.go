package world

import (
	"dungeonnav.ai/internal/persistence/snapshot"
	"dungeonnav.ai/internal/sim/world/kernel/coord"
)

// ExportSnapshot captures the whole world. tick is the next tick to step.
func (w *World) ExportSnapshot(tick uint64) snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header:             snapshot.Header{Version: snapshot.Version, WorldID: w.cfg.ID, Tick: tick},
		Seed:               w.cfg.Seed,
		TickRate:           w.cfg.Tuning.TickRateHz,
		SnapshotEveryTicks: w.cfg.Tuning.SnapshotEveryTicks,
		Width:              w.m.W,
		Height:             w.m.H,
		Counters:           snapshot.CountersV1{NextGoal: w.nextGoalNum.Load()},
	}
	for _, c := range w.m.Cells() {
		snap.Cells = append(snap.Cells, snapshot.CellV1{Kind: uint8(c.Kind), Owner: c.Owner, Locked: c.Locked})
	}
	for _, a := range w.sorted {
		snap.Agents = append(snap.Agents, exportAgent(a))
	}
	for _, t := range w.tasks.Sorted() {
		snap.Tasks = append(snap.Tasks, snapshot.TaskV1{Player: t.Player, Tile: tileArr(t.Tile), Tick: t.Tick})
	}
	for _, t := range w.sortedDigProgress() {
		snap.DigProgress = append(snap.DigProgress, snapshot.DigProgressV1{Tile: tileArr(t), Ticks: w.digProgress[t]})
	}
	return snap
}

func exportAgent(a *Agent) snapshot.AgentV1 {
	out := snapshot.AgentV1{
		ID:         a.ID,
		Owner:      a.Owner,
		Pos:        posArr(a.Pos),
		Angle:      a.Angle,
		Speed:      a.Speed,
		Radius:     a.Radius,
		Flying:     a.Flying,
		LavaImmune: a.LavaImmune,
		Digger:     a.Digger,
		AutoDig:    a.AutoDig,
		Route:      a.Route,
		Nav:        a.Nav,
		DigTile:    tileArr(a.DigTile),
		DigActive:  a.DigActive,
	}
	if g := a.Goal; g != nil {
		out.Goal = &snapshot.GoalV1{
			ID:          g.ID,
			Kind:        string(g.Kind),
			Target:      posArr(g.Target),
			Flags:       uint8(g.Flags),
			StartedTick: g.StartedTick,
			Replans:     g.Replans,
		}
	}
	if a.DigPath != nil {
		d := *a.DigPath
		out.DigPath = &d
	}
	return out
}

func posArr(p coord.Pos) [3]int { return [3]int{p.X, p.Y, p.Z} }

func tileArr(t coord.Tile) [2]int { return [2]int{t.X, t.Y} }
