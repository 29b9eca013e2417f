package coord

import "testing"

func TestAxisPacking(t *testing.T) {
	v := 5*SubtileSize + 37
	if SubtileOf(v) != 5 || FractionOf(v) != 37 {
		t.Fatalf("unpack %d: subtile=%d frac=%d", v, SubtileOf(v), FractionOf(v))
	}
	if got := WithFraction(v, 255); got != 5*SubtileSize+255 {
		t.Fatalf("WithFraction=%d", got)
	}
	if got := WithFraction(v, 0); got != 5*SubtileSize {
		t.Fatalf("WithFraction zero=%d", got)
	}
}

func TestTileCenters(t *testing.T) {
	c := Tile{X: 10, Y: 20}.Center()
	if c.X != 10*TileSize+384 || c.Y != 20*TileSize+384 {
		t.Fatalf("center=%+v", c)
	}
	if c.Tile() != (Tile{X: 10, Y: 20}) {
		t.Fatalf("center tile=%+v", c.Tile())
	}
	if s := (Tile{X: 2, Y: 3}).CenterSubtile(); s != (Subtile{X: 7, Y: 10}) {
		t.Fatalf("center subtile=%+v", s)
	}
	if (Tile{X: 9, Y: 1}).Less(Tile{X: 0, Y: 2}) != true {
		t.Fatalf("row-major order")
	}
}
