package digroute

import (
	"dungeonnav.ai/internal/sim/world/kernel/coord"
)

// NextDigTarget searches outward from start for the nearest tile player can
// dig that is not tagged yet. The search only walks over open ground: a
// tagged tile is still solid until it is dug, so nothing behind it is
// reachable. hint is the SmallAround
// index of the preferred heading; it is tried first at every level, then the
// two sides, then backwards. Depth is bounded by W+H so a fully explored
// map ends in a miss rather than a loop.
func (r *Router) NextDigTarget(player int, start coord.Tile, hint int) (coord.Tile, bool) {
	m := r.Map
	if !m.InBounds(start) {
		return coord.Tile{}, false
	}
	maxDepth := m.W + m.H

	// Fixed order per hint for determinism.
	dirs := [4]int{hint & 3, (hint + 1) & 3, (hint + 3) & 3, (hint + 2) & 3}

	type qItem struct {
		t     coord.Tile
		depth int
	}
	visited := make([]bool, m.W*m.H)
	idx := func(t coord.Tile) int { return t.X + t.Y*m.W }
	visited[idx(start)] = true

	queue := make([]qItem, 0, 64)
	queue = append(queue, qItem{t: start})
	for head := 0; head < len(queue); head++ {
		it := queue[head]
		if it.depth >= maxDepth {
			continue
		}
		for _, d := range dirs {
			nt := step(it.t, d)
			if !m.InBounds(nt) || visited[idx(nt)] {
				continue
			}
			visited[idx(nt)] = true
			tagged := r.Tasks.Tagged(player, nt)
			if !tagged && r.Diggable(player, nt) {
				return nt, true
			}
			if r.walkable(nt) {
				queue = append(queue, qItem{t: nt, depth: it.depth + 1})
			}
		}
	}
	return coord.Tile{}, false
}
