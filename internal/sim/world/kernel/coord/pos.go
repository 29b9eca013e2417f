package coord

// An axis value packs a subtile number and a fraction inside it:
// value = subtile*SubtileSize + fraction.
const (
	SubtileSize     = 256
	SubtilesPerTile = 3
	TileSize        = SubtileSize * SubtilesPerTile

	FractionMask = SubtileSize - 1
	SubtileMask  = ^FractionMask
)

type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Tile indexes a map tile.
type Tile struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Subtile indexes a subtile (3x3 per tile).
type Subtile struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func SubtileOf(v int) int { return v >> 8 }

func FractionOf(v int) int { return v & FractionMask }

func WithFraction(v, frac int) int { return (v & SubtileMask) | (frac & FractionMask) }

func SubtileToTile(s int) int { return s / SubtilesPerTile }

func TileToSubtile(t int) int { return t * SubtilesPerTile }

// SubtileCenterValue is the axis value of the middle of subtile s.
func SubtileCenterValue(s int) int { return s*SubtileSize + SubtileSize/2 }

// TileCenterValue is the axis value of the middle of tile t.
func TileCenterValue(t int) int { return SubtileCenterValue(t*SubtilesPerTile + 1) }

func (p Pos) Subtile() Subtile {
	return Subtile{X: SubtileOf(p.X), Y: SubtileOf(p.Y)}
}

func (p Pos) Tile() Tile {
	return Tile{X: SubtileToTile(SubtileOf(p.X)), Y: SubtileToTile(SubtileOf(p.Y))}
}

func (p Pos) Add(dx, dy int) Pos {
	return Pos{X: p.X + dx, Y: p.Y + dy, Z: p.Z}
}

func (s Subtile) Tile() Tile {
	return Tile{X: SubtileToTile(s.X), Y: SubtileToTile(s.Y)}
}

func (s Subtile) Center() Pos {
	return Pos{X: SubtileCenterValue(s.X), Y: SubtileCenterValue(s.Y)}
}

func (t Tile) Center() Pos {
	return Pos{X: TileCenterValue(t.X), Y: TileCenterValue(t.Y)}
}

// CenterSubtile is the middle subtile of the tile.
func (t Tile) CenterSubtile() Subtile {
	return Subtile{X: t.X*SubtilesPerTile + 1, Y: t.Y*SubtilesPerTile + 1}
}

func (t Tile) Add(dx, dy int) Tile {
	return Tile{X: t.X + dx, Y: t.Y + dy}
}

func (t Tile) Less(o Tile) bool {
	if t.Y != o.Y {
		return t.Y < o.Y
	}
	return t.X < o.X
}
