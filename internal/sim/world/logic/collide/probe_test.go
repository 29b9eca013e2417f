package collide

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/terrain/tilemap"
)

func mustMap(t *testing.T, rows ...string) *tilemap.Map {
	t.Helper()
	m, err := tilemap.Parse(rows, 1)
	if err != nil {
		t.Fatalf("parse map: %v", err)
	}
	return m
}

func TestCanAdvanceOpenFloor(t *testing.T) {
	p := New(mustMap(t, "....", "....", "....", "...."), nil)
	mv := Mover{Radius: 128}
	from := coord.Tile{X: 1, Y: 1}.Center()
	to := from.Add(300, -200)
	if v := p.CanAdvance(mv, from, to); v.Result != Clear {
		t.Fatalf("expected clear, got %v at %+v", v.Result, v.Tile)
	}
}

func TestCanAdvanceHitsWallAhead(t *testing.T) {
	p := New(mustMap(t, "....", "..#.", "....", "...."), nil)
	mv := Mover{Radius: 128}
	from := coord.Tile{X: 1, Y: 1}.Center()
	v := p.CanAdvance(mv, from, from.Add(600, 0))
	if v.Result != HardBlock || v.Tile != (coord.Tile{X: 2, Y: 1}) {
		t.Fatalf("expected hard block on 2,1, got %v %+v", v.Result, v.Tile)
	}
}

func TestCheckAtCornerIsSoft(t *testing.T) {
	p := New(mustMap(t, "..#", "...", "..."), nil)
	mv := Mover{Radius: 100}
	at := coord.Pos{X: 2*coord.TileSize - 50, Y: coord.TileSize + 50}
	v := p.CheckAt(mv, at)
	if v.Result != SoftBlock || v.Tile != (coord.Tile{X: 2, Y: 0}) {
		t.Fatalf("expected soft block on 2,0, got %v %+v", v.Result, v.Tile)
	}

	p = New(mustMap(t, "...", "..#", "..."), nil)
	if v := p.CheckAt(mv, at); v.Result != HardBlock || v.Tile != (coord.Tile{X: 2, Y: 1}) {
		t.Fatalf("expected hard block on 2,1, got %v %+v", v.Result, v.Tile)
	}
}

func TestAmbiguousCornerTestsXFirstAndWarns(t *testing.T) {
	var buf bytes.Buffer
	p := New(mustMap(t, "...", ".#.", "..."), log.New(&buf, "", 0))
	mv := Mover{}
	from := coord.Pos{X: 2*256 + 128, Y: 2*256 + 128}
	to := from.Add(256, 256)
	v := p.CanAdvance(mv, from, to)
	if v.Result != HardBlock || v.Tile != (coord.Tile{X: 1, Y: 1}) {
		t.Fatalf("expected hard block on 1,1, got %v %+v", v.Result, v.Tile)
	}
	if !strings.Contains(buf.String(), "ambiguous corner") {
		t.Fatalf("expected warning, got %q", buf.String())
	}
	if again := p.CanAdvance(mv, from, to); again != v {
		t.Fatalf("probe not deterministic: %+v vs %+v", again, v)
	}
}

func TestDoorsAndLava(t *testing.T) {
	p := New(mustMap(t, ".D.", ".L.", ".~."), nil)
	door := p.Map.At(coord.Tile{X: 1, Y: 0})
	if p.Blocks(Mover{OwnerMask: OwnerBit(1)}, door) {
		t.Fatalf("own unlocked door should be passable")
	}
	if !p.Blocks(Mover{OwnerMask: OwnerBit(0)}, door) {
		t.Fatalf("foreign door should block")
	}
	if !p.Blocks(Mover{OwnerMask: OwnerBit(1)}, p.Map.At(coord.Tile{X: 1, Y: 1})) {
		t.Fatalf("locked door should block")
	}
	lava := p.Map.At(coord.Tile{X: 1, Y: 2})
	if !p.Blocks(Mover{}, lava) || p.Blocks(Mover{Flying: true}, lava) || p.Blocks(Mover{LavaImmune: true}, lava) {
		t.Fatalf("lava rules")
	}
}

func TestBlockedFlagsAndSnap(t *testing.T) {
	p := New(mustMap(t, "....", "..#.", "....", "...."), nil)
	mv := Mover{Radius: 128}
	from := coord.Tile{X: 1, Y: 1}.Center()
	to := from.Add(384, 384)
	flags := p.BlockedFlags(mv, from, to)
	if flags != BlockedX {
		t.Fatalf("flags=%b", flags)
	}
	snapped := SnapAgainstWall(from, to, mv.Radius, flags, 768, NegativeEdgeHug)
	if snapped.X != 2*coord.TileSize-1-128 || snapped.Y != from.Y {
		t.Fatalf("snapped=%+v", snapped)
	}
	if v := p.CheckAt(mv, snapped); v.Blocked() {
		t.Fatalf("snapped position collides: %v", v.Result)
	}
}

func TestSnapNegativeEdge(t *testing.T) {
	from := coord.Pos{X: 1152, Y: 1152}
	got := SnapAgainstWall(from, from.Add(-400, 0), 128, BlockedX, 1536, NegativeEdgeHug)
	if got.X != 1024+1+128 {
		t.Fatalf("hug snap=%d", got.X)
	}
	got = SnapAgainstWall(from, from.Add(-400, 0), 128, BlockedX, 1536, NegativeEdgePush)
	if got.X != 1024+128 {
		t.Fatalf("push snap=%d", got.X)
	}
	diag := SnapAgainstWall(from, from.Add(300, 300), 128, BlockedXY, 0, NegativeEdgeHug)
	if diag.X != 1535-128 || diag.Y != from.Y {
		t.Fatalf("diagonal snap along y=%+v", diag)
	}
	diag = SnapAgainstWall(from, from.Add(300, 300), 128, BlockedXY, 512, NegativeEdgeHug)
	if diag.X != from.X || diag.Y != 1535-128 {
		t.Fatalf("diagonal snap along x=%+v", diag)
	}
}

func TestFirstBlockingTile(t *testing.T) {
	p := New(mustMap(t, ".....", "...#.", "....."), nil)
	from := coord.Tile{X: 0, Y: 1}.Center()
	tile, ok := p.FirstBlockingTile(Mover{Radius: 64}, from, coord.Tile{X: 4, Y: 1}.Center())
	if !ok || tile != (coord.Tile{X: 3, Y: 1}) {
		t.Fatalf("first blocking=%+v ok=%v", tile, ok)
	}
	if _, ok := p.FirstBlockingTile(Mover{Radius: 64}, from, coord.Tile{X: 2, Y: 1}.Center()); ok {
		t.Fatalf("unexpected block")
	}
}
