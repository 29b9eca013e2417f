package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"dungeonnav.ai/internal/sim/world/logic/ariadne"
	"dungeonnav.ai/internal/sim/world/logic/digroute"
	"dungeonnav.ai/internal/sim/world/logic/wallhug"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed               int64 `json:"seed"`
	TickRate           int   `json:"tick_rate_hz"`
	SnapshotEveryTicks int   `json:"snapshot_every_ticks,omitempty"`

	Width  int      `json:"width"`
	Height int      `json:"height"`
	Cells  []CellV1 `json:"cells"`

	Agents      []AgentV1       `json:"agents"`
	Tasks       []TaskV1        `json:"tasks,omitempty"`
	DigProgress []DigProgressV1 `json:"dig_progress,omitempty"`

	Counters CountersV1 `json:"counters"`
}

type CellV1 struct {
	Kind   uint8 `json:"kind"`
	Owner  int   `json:"owner"`
	Locked bool  `json:"locked,omitempty"`
}

type AgentV1 struct {
	ID    string `json:"id"`
	Owner int    `json:"owner"`
	Pos   [3]int `json:"pos"`
	Angle int    `json:"angle"`
	Speed int    `json:"speed"`

	Radius     int  `json:"radius"`
	Flying     bool `json:"flying,omitempty"`
	LavaImmune bool `json:"lava_immune,omitempty"`
	Digger     bool `json:"digger,omitempty"`
	AutoDig    bool `json:"auto_dig,omitempty"`

	Goal      *GoalV1       `json:"goal,omitempty"`
	Route     ariadne.Route `json:"route"`
	Nav       wallhug.State `json:"nav"`
	DigTile   [2]int        `json:"dig_tile"`
	DigActive bool          `json:"dig_active,omitempty"`
	DigPath   *digroute.Dig `json:"dig_path,omitempty"`
}

type GoalV1 struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Target      [3]int `json:"target"`
	Flags       uint8  `json:"flags,omitempty"`
	StartedTick uint64 `json:"started_tick"`
	Replans     int    `json:"replans,omitempty"`
}

type TaskV1 struct {
	Player int    `json:"player"`
	Tile   [2]int `json:"tile"`
	Tick   uint64 `json:"tick"`
}

type DigProgressV1 struct {
	Tile  [2]int `json:"tile"`
	Ticks int    `json:"ticks"`
}

type CountersV1 struct {
	NextGoal uint64 `json:"next_goal"`
}

// WriteSnapshot writes a JSON header line followed by the gob encoded
// snapshot, all zstd compressed.
func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The gob body repeats the header.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("snapshot version %d, want %d", snap.Header.Version, Version)
	}
	return snap, nil
}

// ReadHeader reads only the JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	return h, nil
}
