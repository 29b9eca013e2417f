package tilemap

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"dungeonnav.ai/internal/sim/world/kernel/coord"
)

// Neutral marks a tile that no player owns.
const Neutral = -1

const MaxPlayers = 8

var ErrOutOfBounds = errors.New("tile out of bounds")

type Cell struct {
	Kind   Kind `json:"kind"`
	Owner  int  `json:"owner"`
	Locked bool `json:"locked,omitempty"`
}

// border is what lookups outside the map see.
var border = Cell{Kind: Rock, Owner: Neutral}

type Map struct {
	W, H  int
	cells []Cell

	dirty bool
	hash  [32]byte
}

func New(w, h int, fill Kind) *Map {
	m := &Map{W: w, H: h, cells: make([]Cell, w*h), dirty: true}
	for i := range m.cells {
		m.cells[i] = Cell{Kind: fill, Owner: Neutral}
	}
	return m
}

func (m *Map) index(t coord.Tile) int {
	return t.X + t.Y*m.W
}

func (m *Map) InBounds(t coord.Tile) bool {
	return t.X >= 0 && t.Y >= 0 && t.X < m.W && t.Y < m.H
}

func (m *Map) SubtileInBounds(s coord.Subtile) bool {
	return s.X >= 0 && s.Y >= 0 && s.X < m.W*coord.SubtilesPerTile && s.Y < m.H*coord.SubtilesPerTile
}

// At returns the tile, or impassable rock outside the map.
func (m *Map) At(t coord.Tile) Cell {
	if !m.InBounds(t) {
		return border
	}
	return m.cells[m.index(t)]
}

func (m *Map) AtSubtile(s coord.Subtile) Cell {
	if !m.SubtileInBounds(s) {
		return border
	}
	return m.At(s.Tile())
}

func (m *Map) Set(t coord.Tile, c Cell) error {
	if !m.InBounds(t) {
		return fmt.Errorf("set %d,%d: %w", t.X, t.Y, ErrOutOfBounds)
	}
	i := m.index(t)
	if m.cells[i] == c {
		return nil
	}
	m.cells[i] = c
	m.dirty = true
	return nil
}

func (m *Map) SetKind(t coord.Tile, k Kind) error {
	c := m.At(t)
	c.Kind = k
	return m.Set(t, c)
}

// MaxValue is the largest axis value inside the map along x (or y when vertical).
func (m *Map) MaxValue(vertical bool) int {
	n := m.W
	if vertical {
		n = m.H
	}
	return n*coord.TileSize - 1
}

// ClampPos keeps a position inside the map.
func (m *Map) ClampPos(p coord.Pos) coord.Pos {
	if p.X < 0 {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if mx := m.MaxValue(false); p.X > mx {
		p.X = mx
	}
	if my := m.MaxValue(true); p.Y > my {
		p.Y = my
	}
	return p
}

func (m *Map) Clone() *Map {
	out := &Map{W: m.W, H: m.H, cells: append([]Cell(nil), m.cells...), dirty: true}
	return out
}

// Cells exposes the backing slice in row-major order for export.
func (m *Map) Cells() []Cell {
	return append([]Cell(nil), m.cells...)
}

func FromCells(w, h int, cells []Cell) (*Map, error) {
	if w <= 0 || h <= 0 || len(cells) != w*h {
		return nil, fmt.Errorf("tilemap: bad shape %dx%d with %d cells", w, h, len(cells))
	}
	return &Map{W: w, H: h, cells: append([]Cell(nil), cells...), dirty: true}, nil
}

func (m *Map) Digest() [32]byte {
	if m.dirty || m.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [8]byte
		binary.LittleEndian.PutUint32(tmp[:4], uint32(m.W))
		binary.LittleEndian.PutUint32(tmp[4:], uint32(m.H))
		h.Write(tmp[:])
		for _, c := range m.cells {
			tmp[0] = byte(c.Kind)
			tmp[1] = byte(int8(c.Owner))
			tmp[2] = 0
			if c.Locked {
				tmp[2] = 1
			}
			h.Write(tmp[:3])
		}
		copy(m.hash[:], h.Sum(nil))
		m.dirty = false
	}
	return m.hash
}

// Parse builds a map from rows of glyphs. Owned glyphs (claimed, wall, door)
// get defaultOwner; 'L' is a locked door.
func Parse(rows []string, defaultOwner int) (*Map, error) {
	if len(rows) == 0 {
		return nil, errors.New("tilemap: no rows")
	}
	w := len(rows[0])
	m := New(w, len(rows), Rock)
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("tilemap: row %d has width %d, want %d", y, len(row), w)
		}
		for x := 0; x < w; x++ {
			g := row[x]
			c := Cell{Owner: Neutral}
			switch g {
			case 'L':
				c.Kind = Door
				c.Locked = true
			default:
				k, ok := kindByGlyph(g)
				if !ok {
					return nil, fmt.Errorf("tilemap: unknown glyph %q at %d,%d", g, x, y)
				}
				c.Kind = k
			}
			if c.Kind.Has(AttrOwnable) {
				c.Owner = defaultOwner
			}
			m.cells[x+y*w] = c
		}
	}
	return m, nil
}

// Format renders the map with the same glyphs Parse accepts.
func (m *Map) Format() []string {
	rows := make([]string, m.H)
	var b strings.Builder
	for y := 0; y < m.H; y++ {
		b.Reset()
		for x := 0; x < m.W; x++ {
			c := m.cells[x+y*m.W]
			if c.Kind == Door && c.Locked {
				b.WriteByte('L')
				continue
			}
			b.WriteByte(c.Kind.Glyph())
		}
		rows[y] = b.String()
	}
	return rows
}
