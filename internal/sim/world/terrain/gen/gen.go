package gen

import (
	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/logic/mathx"
	"dungeonnav.ai/internal/sim/world/terrain/tilemap"
)

// Params controls procedural dungeon layout. Rates are per mille.
type Params struct {
	Seed            int64
	W, H            int
	RockClusterSize int
	RockPermille    int
	GoldPermille    int
	GemsPermille    int
	LavaPermille    int
}

// Generate fills an earth dungeon with rock clusters and ore, framed by rock.
// The layout is a pure function of Params.
func Generate(p Params) *tilemap.Map {
	m := tilemap.New(p.W, p.H, tilemap.Earth)
	cluster := p.RockClusterSize
	if cluster <= 0 {
		cluster = 1
	}
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			t := coord.Tile{X: x, Y: y}
			if x == 0 || y == 0 || x == p.W-1 || y == p.H-1 {
				_ = m.SetKind(t, tilemap.Rock)
				continue
			}
			cx := mathx.FloorDiv(x, cluster)
			cy := mathx.FloorDiv(y, cluster)
			if int(mathx.Hash2(p.Seed, cx, cy)%1000) < p.RockPermille {
				_ = m.SetKind(t, tilemap.Rock)
				continue
			}
			r := int(mathx.Hash2(p.Seed^0x5eed, x, y) % 1000)
			switch {
			case r < p.GemsPermille:
				_ = m.SetKind(t, tilemap.Gems)
			case r < p.GemsPermille+p.GoldPermille:
				_ = m.SetKind(t, tilemap.Gold)
			case r < p.GemsPermille+p.GoldPermille+p.LavaPermille:
				_ = m.SetKind(t, tilemap.Lava)
			}
		}
	}
	return m
}

// CarveRoom turns a rectangle into claimed floor for owner.
func CarveRoom(m *tilemap.Map, x0, y0, x1, y1, owner int) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			_ = m.Set(coord.Tile{X: x, Y: y}, tilemap.Cell{Kind: tilemap.Claimed, Owner: owner})
		}
	}
}
