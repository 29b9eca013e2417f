package world

import (
	"sort"

	"dungeonnav.ai/internal/sim/world/kernel/coord"
)

func sortTiles(ts []coord.Tile) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Less(ts[j]) })
}
