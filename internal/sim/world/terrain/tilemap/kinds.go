package tilemap

type Kind uint8

const (
	Rock Kind = iota
	Earth
	Gold
	Gems
	Wall
	Path
	Claimed
	Lava
	Water
	Door
	kindCount
)

type Attr uint16

const (
	AttrBlocking Attr = 1 << iota
	AttrDiggable
	AttrIndestructible
	AttrValuable
	AttrDoor
	AttrLiquid
	AttrSafeLand
	AttrOwnable
)

type kindInfo struct {
	name  string
	glyph byte
	attrs Attr
}

var kinds = [kindCount]kindInfo{
	Rock:    {"ROCK", '#', AttrBlocking | AttrIndestructible},
	Earth:   {"EARTH", '%', AttrBlocking | AttrDiggable},
	Gold:    {"GOLD", '$', AttrBlocking | AttrDiggable | AttrValuable},
	Gems:    {"GEMS", '*', AttrBlocking | AttrValuable | AttrIndestructible},
	Wall:    {"WALL", 'W', AttrBlocking | AttrOwnable},
	Path:    {"PATH", '.', AttrSafeLand},
	Claimed: {"CLAIMED", ',', AttrSafeLand | AttrOwnable},
	Lava:    {"LAVA", '~', AttrLiquid},
	Water:   {"WATER", '=', AttrLiquid | AttrSafeLand},
	Door:    {"DOOR", 'D', AttrDoor | AttrOwnable | AttrSafeLand},
}

func (k Kind) Valid() bool { return k < kindCount }

func (k Kind) Has(a Attr) bool {
	if !k.Valid() {
		return a == AttrBlocking || a == AttrIndestructible
	}
	return kinds[k].attrs&a != 0
}

func (k Kind) String() string {
	if !k.Valid() {
		return "UNKNOWN"
	}
	return kinds[k].name
}

func (k Kind) Glyph() byte {
	if !k.Valid() {
		return '?'
	}
	return kinds[k].glyph
}

// KindByName is used by scenario files.
func KindByName(name string) (Kind, bool) {
	for i, ki := range kinds {
		if ki.name == name {
			return Kind(i), true
		}
	}
	return 0, false
}

func kindByGlyph(g byte) (Kind, bool) {
	for i, ki := range kinds {
		if ki.glyph == g {
			return Kind(i), true
		}
	}
	return 0, false
}
