package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"dungeonnav.ai/internal/persistence/indexdb"
	persistlog "dungeonnav.ai/internal/persistence/log"
	"dungeonnav.ai/internal/persistence/snapshot"
	"dungeonnav.ai/internal/protocol"
	"dungeonnav.ai/internal/sim/scenario"
	"dungeonnav.ai/internal/sim/tuning"
	"dungeonnav.ai/internal/sim/world"
	"dungeonnav.ai/internal/transport/observer"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "scenario yaml (required unless -snapshot is set)")
		tuningPath   = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		snapPath     = flag.String("snapshot", "", "resume from this snapshot (optional)")
		ticks        = flag.Int("ticks", 0, "ticks to run in batch mode (default: scenario ticks)")
		realtime     = flag.Bool("realtime", false, "run at the tuned tick rate and serve observers until interrupted")
		addr         = flag.String("addr", "127.0.0.1:8080", "http listen address in realtime mode")
		disableDB    = flag.Bool("disable_db", false, "disable the sqlite index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[navsim] ", log.LstdFlags|log.Lmicroseconds)

	if *scenarioPath == "" && *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -scenario or -snapshot")
		os.Exit(2)
	}

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", *tuningPath)
		tune = tuning.Defaults()
	}

	var scn scenario.Scenario
	if *scenarioPath != "" {
		scn, err = scenario.Load(*scenarioPath)
		if err != nil {
			logger.Fatalf("load scenario: %v", err)
		}
	}

	var w *world.World
	if *snapPath != "" {
		snap, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		w, err = world.FromSnapshot(snap, tune, logger)
		if err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		logger.Printf("resumed %s from snapshot=%s tick=%d", w.Config().ID, filepath.Base(*snapPath), w.CurrentTick())
	} else {
		w, err = scn.Build(tune, logger)
		if err != nil {
			logger.Fatalf("build scenario: %v", err)
		}
	}
	schedule := scn.Schedule()

	runID := uuid.NewString()
	runDir := filepath.Join(*dataDir, "runs", w.Config().ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}
	logger.Printf("run %s world=%s agents=%d dir=%s", runID, w.Config().ID, len(w.Agents()), runDir)

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(runDir, "index", "index.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.RecordRun(runID, w.Config().ID, scn.Name, tune); err != nil {
			logger.Printf("index: record run: %v", err)
		}
	}

	// One tick log segment per hour of simulated time.
	tickLog := persistlog.NewTickLogger(runDir, uint64(tune.TickRateHz)*3600)
	defer tickLog.Close()
	w.SetTickLogger(multiTickLogger{a: tickLog, b: idx})

	ctx, cancel := signalContext()
	defer cancel()

	snapDir := filepath.Join(runDir, "snapshots")
	writeSnap := func(snap snapshot.SnapshotV1) {
		path := filepath.Join(snapDir, fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
		// The log must reach the snapshot for replay to continue from it.
		if err := tickLog.Flush(); err != nil {
			logger.Printf("tick log flush: %v", err)
		}
		if err := snapshot.WriteSnapshot(path, snap); err != nil {
			logger.Printf("snapshot write: %v", err)
			return
		}
		if idx != nil {
			idx.RecordSnapshot(path, snap)
			idx.RecordSnapshotState(snap)
		}
	}
	// Replays start from the first snapshot.
	writeSnap(w.ExportSnapshot(w.CurrentTick()))

	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)
	snapDone := make(chan struct{})
	go func() {
		defer close(snapDone)
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-snapCh:
				if !ok {
					return
				}
				writeSnap(snap)
			}
		}
	}()

	if *realtime {
		runRealtime(ctx, w, schedule, idx, *addr, logger)
	} else {
		n := *ticks
		if n <= 0 {
			n = scn.Ticks
		}
		if n <= 0 {
			n = 600
		}
		runBatch(ctx, w, schedule, n, logger)
	}

	w.SetSnapshotSink(nil)
	close(snapCh)
	<-snapDone
	writeSnap(w.ExportSnapshot(w.CurrentTick()))
	printSummary(os.Stdout, w)
	if idx != nil {
		st := idx.Stats()
		logger.Printf("index: queue=%d/%d dropped ticks=%d snapshots=%d", st.QueueDepth, st.QueueCapacity, st.DropTickTotal, st.DropSnapshotTotal)
	}
}

// runBatch steps as fast as possible, stopping early once every agent is
// idle and no scheduled command is left.
func runBatch(ctx context.Context, w *world.World, schedule map[uint64][]protocol.Command, n int, logger *log.Logger) {
	var last uint64
	for t := range schedule {
		if t > last {
			last = t
		}
	}
	start := time.Now()
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			logger.Printf("interrupted at tick %d", w.CurrentTick())
			return
		}
		tick, _ := w.StepOnce(schedule[w.CurrentTick()])
		if tick >= last && idle(w) {
			break
		}
	}
	logger.Printf("stepped to tick %d in %s", w.CurrentTick(), time.Since(start).Round(time.Millisecond))
}

func idle(w *world.World) bool {
	for _, a := range w.Agents() {
		if a.Goal != nil || a.DigPath != nil || a.DigActive {
			return false
		}
	}
	return true
}

func runRealtime(ctx context.Context, w *world.World, schedule map[uint64][]protocol.Command, idx *indexdb.SQLiteIndex, addr string, logger *log.Logger) {
	obs := observer.NewServer(w.Bootstrap(), logger)
	w.SetFrameSink(obs)
	w.SetSchedule(schedule)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		id := w.Config().ID

		fmt.Fprintf(rw, "# HELP dungeonnav_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE dungeonnav_world_tick gauge\n")
		fmt.Fprintf(rw, "dungeonnav_world_tick{world=%q} %d\n", id, w.CurrentTick())

		fmt.Fprintf(rw, "# HELP dungeonnav_observers Connected observers.\n")
		fmt.Fprintf(rw, "# TYPE dungeonnav_observers gauge\n")
		fmt.Fprintf(rw, "dungeonnav_observers{world=%q} %d\n", id, obs.Sessions())

		fmt.Fprintf(rw, "# HELP dungeonnav_observer_dropped_total Frames dropped for slow observers.\n")
		fmt.Fprintf(rw, "# TYPE dungeonnav_observer_dropped_total counter\n")
		fmt.Fprintf(rw, "dungeonnav_observer_dropped_total{world=%q} %d\n", id, obs.Dropped())

		if idx != nil {
			st := idx.Stats()
			fmt.Fprintf(rw, "# HELP dungeonnav_index_queue_depth Index writer backlog.\n")
			fmt.Fprintf(rw, "# TYPE dungeonnav_index_queue_depth gauge\n")
			fmt.Fprintf(rw, "dungeonnav_index_queue_depth{world=%q} %d\n", id, st.QueueDepth)
			fmt.Fprintf(rw, "# HELP dungeonnav_index_dropped_total Index writes dropped.\n")
			fmt.Fprintf(rw, "# TYPE dungeonnav_index_dropped_total counter\n")
			fmt.Fprintf(rw, "dungeonnav_index_dropped_total{world=%q,kind=%q} %d\n", id, "tick", st.DropTickTotal)
			fmt.Fprintf(rw, "dungeonnav_index_dropped_total{world=%q,kind=%q} %d\n", id, "snapshot", st.DropSnapshotTotal)
		}
	})
	mux.HandleFunc("/v1/commands", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		b, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
		if err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		c, err := protocol.DecodeCommand(b)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		if c.ID == "" {
			c.ID = "h" + strconv.FormatInt(time.Now().UnixNano(), 36)
		}
		rw.Header().Set("Content-Type", "application/json")
		if !w.Submit(c) {
			rw.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "error": "inbox full"})
			return
		}
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "id": c.ID})
	})
	mux.HandleFunc("/v1/observer/bootstrap", obs.BootstrapHandler())
	mux.HandleFunc("/v1/observer/ws", obs.WSHandler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()
	go func() {
		logger.Printf("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("ListenAndServe: %v", err)
		}
	}()

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		logger.Printf("world stopped: %v", err)
	}
}

func printSummary(out io.Writer, w *world.World) {
	fmt.Fprintf(out, "tick=%d digest=%s tasks=%d\n", w.CurrentTick(), w.StateDigest(), len(w.Tasks()))
	for _, a := range w.Agents() {
		t := a.Pos.Tile()
		goal := "-"
		if a.Goal != nil {
			goal = fmt.Sprintf("%s %s", a.Goal.ID, a.Goal.Kind)
		}
		fmt.Fprintf(out, "  %-10s tile=%d,%d pos=%d,%d angle=%d goal=%s\n", a.ID, t.X, t.Y, a.Pos.X, a.Pos.Y, a.Angle, goal)
	}
}

type multiTickLogger struct {
	a world.TickLogger
	b *indexdb.SQLiteIndex
}

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	var err error
	if m.a != nil {
		err = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return err
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
