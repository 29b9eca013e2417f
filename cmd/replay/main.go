package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	persistlog "dungeonnav.ai/internal/persistence/log"
	"dungeonnav.ai/internal/persistence/snapshot"
	"dungeonnav.ai/internal/sim/tuning"
	"dungeonnav.ai/internal/sim/world"
)

var errDone = errors.New("done")

func main() {
	var (
		snapPath   = flag.String("snapshot", "", "path to .snap.zst")
		eventsDir  = flag.String("events", "", "events dir containing events-*.jsonl.zst (optional)")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		fromTick   = flag.Uint64("from_tick", 0, "start verifying from tick (inclusive, optional)")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	fmt.Printf("snapshot v%d world=%s tick=%d seed=%d size=%dx%d agents=%d tasks=%d digging=%d\n",
		snap.Header.Version, snap.Header.WorldID, snap.Header.Tick, snap.Seed, snap.Width, snap.Height,
		len(snap.Agents), len(snap.Tasks), len(snap.DigProgress))

	if *eventsDir == "" {
		return
	}

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune = tuning.Defaults()
	}
	w, err := world.FromSnapshot(snap, tune, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "import snapshot:", err)
		os.Exit(1)
	}

	startTick := w.CurrentTick()
	verifyFrom := *fromTick
	if verifyFrom == 0 {
		verifyFrom = startTick
	}

	segs, err := persistlog.ListTickFiles(*eventsDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(segs) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", *eventsDir)
		os.Exit(1)
	}

	var checked uint64
	for _, seg := range persistlog.SegmentsFrom(segs, startTick) {
		err := persistlog.ReadTicks(seg.Path, func(entry world.TickLogEntry) error {
			return replayEntry(w, entry, startTick, verifyFrom, *toTick, &checked)
		})
		if errors.Is(err, errDone) {
			break
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("replay ok: checked=%d ticks (from snapshot tick=%d)\n", checked, snap.Header.Tick)
}

func replayEntry(w *world.World, entry world.TickLogEntry, startTick, verifyFrom, toTick uint64, checked *uint64) error {
	if entry.Tick < startTick {
		return nil
	}
	if toTick != 0 && entry.Tick > toTick {
		return errDone
	}
	if entry.Tick != w.CurrentTick() {
		return fmt.Errorf("tick mismatch: want=%d got=%d", w.CurrentTick(), entry.Tick)
	}

	tick, gotDigest := w.StepOnce(entry.Commands)
	if tick != entry.Tick {
		return fmt.Errorf("internal tick mismatch: stepped=%d entry=%d", tick, entry.Tick)
	}
	if tick >= verifyFrom {
		*checked++
		if gotDigest != entry.Digest {
			return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, gotDigest, entry.Digest)
		}
	}
	return nil
}
