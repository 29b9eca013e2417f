package world

import (
	"dungeonnav.ai/internal/protocol"
	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/terrain/tilemap"
)

// systemDigging advances every active dig by one tick. Several diggers on
// one tile share its progress; the tile becomes path once it reaches
// TicksPerTile.
func (w *World) systemDigging(nowTick uint64) {
	need := w.cfg.Tuning.Digging.TicksPerTile
	for _, a := range w.sorted {
		if !a.DigActive {
			continue
		}
		t := a.DigTile
		if !w.router.Diggable(a.Owner, t) {
			delete(w.digProgress, t)
			continue
		}
		w.digProgress[t]++
		if w.digProgress[t] < need {
			continue
		}
		prev := w.m.At(t).Kind
		if err := w.m.Set(t, tilemap.Cell{Kind: tilemap.Path, Owner: tilemap.Neutral}); err != nil {
			if w.logger != nil {
				w.logger.Printf("tick %d: dig %v: %v", nowTick, t, err)
			}
			continue
		}
		delete(w.digProgress, t)
		w.tasks.UntagTile(t)
		a.AddEvent(protocol.Event{
			"t":    nowTick,
			"type": "TILE_DUG",
			"tile": [2]int{t.X, t.Y},
			"from": prev.String(),
		})
	}
}

func (w *World) sortedDigProgress() []coord.Tile {
	tiles := make([]coord.Tile, 0, len(w.digProgress))
	for t := range w.digProgress {
		tiles = append(tiles, t)
	}
	sortTiles(tiles)
	return tiles
}
