package world

import (
	"dungeonnav.ai/internal/sim/world/feature/persistence/digest"
)

func (w *World) stateDigest(nowTick uint64) string {
	tiles := w.sortedDigProgress()
	progress := make([]digest.DigProgress, 0, len(tiles))
	for _, t := range tiles {
		progress = append(progress, digest.DigProgress{Tile: t, Ticks: w.digProgress[t]})
	}
	return digest.StateDigest(digest.StateInput{
		NowTick:     nowTick,
		Seed:        w.cfg.Seed,
		NextGoal:    w.nextGoalNum.Load(),
		MapDigest:   w.m.Digest(),
		Agents:      w.sorted,
		Tasks:       w.tasks.Sorted(),
		DigProgress: progress,
	})
}

// StateDigest is the digest of the current state as of the last stepped
// tick.
func (w *World) StateDigest() string {
	t := w.tick.Load()
	if t > 0 {
		t--
	}
	return w.stateDigest(t)
}
