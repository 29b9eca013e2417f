package digestcodec

import (
	"encoding/binary"

	"dungeonnav.ai/internal/sim/world/kernel/coord"
)

type Writer interface {
	Write(p []byte) (n int, err error)
}

func BoolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func WriteU64(w Writer, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.Write(tmp[:])
}

func WriteI64(w Writer, tmp *[8]byte, v int64) {
	WriteU64(w, tmp, uint64(v))
}

func WriteInt(w Writer, tmp *[8]byte, v int) {
	WriteI64(w, tmp, int64(v))
}

func WriteBool(w Writer, v bool) {
	w.Write([]byte{BoolByte(v)})
}

// WriteString is length prefixed so adjacent strings cannot run together.
func WriteString(w Writer, tmp *[8]byte, s string) {
	WriteU64(w, tmp, uint64(len(s)))
	w.Write([]byte(s))
}

func WritePos(w Writer, tmp *[8]byte, p coord.Pos) {
	WriteInt(w, tmp, p.X)
	WriteInt(w, tmp, p.Y)
	WriteInt(w, tmp, p.Z)
}

func WriteTile(w Writer, tmp *[8]byte, t coord.Tile) {
	WriteInt(w, tmp, t.X)
	WriteInt(w, tmp, t.Y)
}
