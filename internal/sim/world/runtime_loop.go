package world

import (
	"context"
	"time"
)

// Run steps the world at the tuned tick rate until ctx is done or Stop is
// called. Commands submitted between ticks apply at the next tick in
// receive order.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.Tuning.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pending []Command
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case c := <-w.inbox:
			pending = append(pending, c)
		case <-ticker.C:
			cmds := append(append([]Command(nil), w.schedule[w.tick.Load()]...), pending...)
			w.stepInternal(cmds)
			pending = pending[:0]
		}
	}
}

// SetSchedule registers commands that Run applies at fixed ticks, ahead of
// anything submitted for the same tick. Call it before Run.
func (w *World) SetSchedule(s map[uint64][]Command) { w.schedule = s }

// Submit queues a command for the next tick of Run. It reports false when
// the inbox is full.
func (w *World) Submit(c Command) bool {
	select {
	case w.inbox <- c:
		return true
	default:
		return false
	}
}

func (w *World) Stop() { close(w.stop) }
