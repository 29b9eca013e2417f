package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"

	"dungeonnav.ai/internal/sim/world"
)

// DefaultSegmentTicks is one hour of ticks at 20 Hz.
const DefaultSegmentTicks = 72000

const (
	segmentPrefix = "events-"
	segmentSuffix = ".jsonl.zst"
)

var ErrTickOrder = errors.New("tick log: ticks out of order")

// TickLogger appends one JSON line per tick to zstd segments under
// <run>/events. A segment holds SegmentTicks consecutive ticks and is named
// after its first tick, so file order is tick order. Reopening a segment
// appends a new zstd frame.
type TickLogger struct {
	dir          string
	segmentTicks uint64

	mu      sync.Mutex
	first   uint64
	f       *os.File
	enc     *zstd.Encoder
	buf     *bufio.Writer
	last    uint64
	written bool
}

func NewTickLogger(runDir string, segmentTicks uint64) *TickLogger {
	if segmentTicks == 0 {
		segmentTicks = DefaultSegmentTicks
	}
	return &TickLogger{dir: filepath.Join(runDir, "events"), segmentTicks: segmentTicks}
}

func segmentPath(dir string, first uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%s%012d%s", segmentPrefix, first, segmentSuffix))
}

// WriteTick appends e. Ticks must strictly increase.
func (l *TickLogger) WriteTick(e world.TickLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.written && e.Tick <= l.last {
		return fmt.Errorf("%w: %d after %d", ErrTickOrder, e.Tick, l.last)
	}
	first := e.Tick - e.Tick%l.segmentTicks
	if l.f == nil || first != l.first {
		if err := l.openLocked(first); err != nil {
			return err
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("tick %d: %w", e.Tick, err)
	}
	b = append(b, '\n')
	if _, err := l.buf.Write(b); err != nil {
		return err
	}
	l.last, l.written = e.Tick, true
	return l.buf.Flush()
}

// Flush pushes buffered entries through the encoder to disk, so the log on
// disk covers at least every tick written so far.
func (l *TickLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	if err := l.buf.Flush(); err != nil {
		return err
	}
	if err := l.enc.Flush(); err != nil {
		return err
	}
	return l.f.Sync()
}

func (l *TickLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeLocked()
}

func (l *TickLogger) openLocked(first uint64) error {
	if err := l.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(segmentPath(l.dir, first), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	l.f, l.enc, l.first = f, enc, first
	l.buf = bufio.NewWriterSize(enc, 64*1024)
	return nil
}

func (l *TickLogger) closeLocked() error {
	if l.f == nil {
		return nil
	}
	var err error
	if ferr := l.buf.Flush(); ferr != nil {
		err = ferr
	}
	if cerr := l.enc.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := l.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	l.f, l.enc, l.buf = nil, nil, nil
	return err
}

// Segment is one tick log file and the first tick it can hold.
type Segment struct {
	Path  string
	First uint64
}

// ListTickFiles returns the tick log segments under dir in tick order.
func ListTickFiles(dir string) ([]Segment, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var segs []Segment
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, segmentPrefix) || !strings.HasSuffix(name, segmentSuffix) {
			continue
		}
		first, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimPrefix(name, segmentPrefix), segmentSuffix), 10, 64)
		if err != nil {
			continue
		}
		segs = append(segs, Segment{Path: filepath.Join(dir, name), First: first})
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].First < segs[j].First })
	return segs, nil
}

// SegmentsFrom drops the segments that end before tick.
func SegmentsFrom(segs []Segment, tick uint64) []Segment {
	for len(segs) > 1 && segs[1].First <= tick {
		segs = segs[1:]
	}
	return segs
}

// ReadTicks calls fn for every entry of one segment. It stops at the first
// error fn returns.
func ReadTicks(path string, fn func(world.TickLogEntry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		var entry world.TickLogEntry
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return sc.Err()
}
