package world

import (
	movementruntime "dungeonnav.ai/internal/sim/world/feature/movement/runtime"
)

func (w *World) systemInput(nowTick uint64) movementruntime.SystemInput {
	mv := w.cfg.Tuning.Movement
	return movementruntime.SystemInput{
		NowTick:       nowTick,
		MaxReplans:    mv.MaxReplans,
		Tolerance:     mv.WaypointTolerance,
		AutoDigRadius: w.cfg.Tuning.Digging.AutoDigRadius,
		Logger:        w.logger,
	}
}

func (w *World) stepInternal(cmds []Command) string {
	nowTick := w.tick.Load()
	w.tasks.SetTick(nowTick)

	// Commands apply in receive order.
	recorded := make([]Command, 0, len(cmds))
	for _, c := range cmds {
		a := w.agents[c.AgentID]
		if a == nil {
			if w.logger != nil {
				w.logger.Printf("tick %d: command %s for unknown agent %q", nowTick, c.ID, c.AgentID)
			}
			continue
		}
		recorded = append(recorded, c)
		movementruntime.HandleCommand(w, a, c, nowTick)
	}

	// Systems: auto dig -> dig paths -> movement -> digging
	in := w.systemInput(nowTick)
	movementruntime.RunAutoDigSystem(w, in)
	movementruntime.RunDigPathSystem(w, in)
	movementruntime.RunMovementSystem(w, in)
	w.systemDigging(nowTick)

	events := w.takeEvents()
	digest := w.stateDigest(nowTick)
	if w.tickLogger != nil {
		if err := w.tickLogger.WriteTick(TickLogEntry{Tick: nowTick, Commands: recorded, Events: events, Digest: digest}); err != nil && w.logger != nil {
			w.logger.Printf("tick %d: tick log: %v", nowTick, err)
		}
	}
	if w.frames != nil {
		w.frames.PublishTick(w.buildTickMsg(nowTick, events, digest))
	}

	// Snapshot every N ticks, starting after tick 0.
	if w.snapshotSink != nil && nowTick != 0 && w.cfg.Tuning.SnapshotEveryTicks > 0 {
		if nowTick%uint64(w.cfg.Tuning.SnapshotEveryTicks) == 0 {
			snap := w.ExportSnapshot(nowTick + 1)
			select {
			case w.snapshotSink <- snap:
			default:
				// Drop snapshot if sink is backed up.
			}
		}
	}

	w.tick.Add(1)
	return digest
}

// StepOnce advances the world by a single tick using the same ordering as
// Run. It returns the tick that was stepped and the state digest after it.
func (w *World) StepOnce(cmds []Command) (tick uint64, digest string) {
	tick = w.tick.Load()
	return tick, w.stepInternal(cmds)
}

func (w *World) takeEvents() []AgentEvent {
	var out []AgentEvent
	for _, a := range w.sorted {
		for _, ev := range a.TakeEvents() {
			out = append(out, AgentEvent{AgentID: a.ID, Event: ev})
		}
	}
	return out
}
