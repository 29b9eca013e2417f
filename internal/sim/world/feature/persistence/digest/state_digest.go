package digest

import (
	"crypto/sha256"
	"encoding/hex"

	"dungeonnav.ai/internal/sim/world/io/digestcodec"
	"dungeonnav.ai/internal/sim/world/kernel/coord"
	modelpkg "dungeonnav.ai/internal/sim/world/kernel/model"
	"dungeonnav.ai/internal/sim/world/logic/ariadne"
	"dungeonnav.ai/internal/sim/world/logic/digroute"
	"dungeonnav.ai/internal/sim/world/logic/tasklist"
	"dungeonnav.ai/internal/sim/world/logic/wallhug"
)

type DigProgress struct {
	Tile  coord.Tile
	Ticks int
}

// StateInput is everything that feeds the per-tick digest. Slices must
// already be in their canonical order: agents by ID, tasks as
// tasklist.Sorted returns them, dig progress by tile.
type StateInput struct {
	NowTick     uint64
	Seed        int64
	NextGoal    uint64
	MapDigest   [32]byte
	Agents      []*modelpkg.Agent
	Tasks       []tasklist.Task
	DigProgress []DigProgress
}

type hashWriter = digestcodec.Writer

func StateDigest(in StateInput) string {
	h := sha256.New()
	var tmp [8]byte

	digestcodec.WriteU64(h, &tmp, in.NowTick)
	digestcodec.WriteI64(h, &tmp, in.Seed)
	digestcodec.WriteU64(h, &tmp, in.NextGoal)
	h.Write(in.MapDigest[:])

	digestcodec.WriteInt(h, &tmp, len(in.Agents))
	for _, a := range in.Agents {
		digestAgent(h, &tmp, a)
	}
	digestcodec.WriteInt(h, &tmp, len(in.Tasks))
	for _, t := range in.Tasks {
		digestcodec.WriteInt(h, &tmp, t.Player)
		digestcodec.WriteTile(h, &tmp, t.Tile)
		digestcodec.WriteU64(h, &tmp, t.Tick)
	}
	digestcodec.WriteInt(h, &tmp, len(in.DigProgress))
	for _, p := range in.DigProgress {
		digestcodec.WriteTile(h, &tmp, p.Tile)
		digestcodec.WriteInt(h, &tmp, p.Ticks)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digestAgent(h hashWriter, tmp *[8]byte, a *modelpkg.Agent) {
	digestcodec.WriteString(h, tmp, a.ID)
	digestcodec.WriteInt(h, tmp, a.Owner)
	digestcodec.WritePos(h, tmp, a.Pos)
	digestcodec.WriteInt(h, tmp, a.Angle)
	digestcodec.WriteInt(h, tmp, a.Speed)
	digestcodec.WriteInt(h, tmp, a.Radius)
	h.Write([]byte{
		digestcodec.BoolByte(a.Flying),
		digestcodec.BoolByte(a.LavaImmune),
		digestcodec.BoolByte(a.Digger),
		digestcodec.BoolByte(a.AutoDig),
		digestcodec.BoolByte(a.DigActive),
	})
	digestcodec.WriteTile(h, tmp, a.DigTile)

	digestcodec.WriteBool(h, a.Goal != nil)
	if g := a.Goal; g != nil {
		digestcodec.WriteString(h, tmp, g.ID)
		digestcodec.WriteString(h, tmp, string(g.Kind))
		digestcodec.WritePos(h, tmp, g.Target)
		digestcodec.WriteInt(h, tmp, int(g.Flags))
		digestcodec.WriteU64(h, tmp, g.StartedTick)
		digestcodec.WriteInt(h, tmp, g.Replans)
	}
	digestRoute(h, tmp, &a.Route)
	digestNav(h, tmp, &a.Nav)

	digestcodec.WriteBool(h, a.DigPath != nil)
	if d := a.DigPath; d != nil {
		digestDig(h, tmp, d)
	}
}

func digestRoute(h hashWriter, tmp *[8]byte, r *ariadne.Route) {
	digestcodec.WriteBool(h, r.Valid)
	if !r.Valid {
		return
	}
	digestcodec.WritePos(h, tmp, r.Start)
	digestcodec.WritePos(h, tmp, r.End)
	digestcodec.WriteInt(h, tmp, r.Current)
	digestcodec.WriteInt(h, tmp, r.Stored)
	digestcodec.WriteInt(h, tmp, r.Total)
	for i := 0; i < r.Stored && i < len(r.Waypoints); i++ {
		digestcodec.WritePos(h, tmp, r.Waypoints[i])
	}
	digestcodec.WriteInt(h, tmp, r.Speed)
	digestcodec.WriteInt(h, tmp, int(r.Flags))
	digestcodec.WriteInt(h, tmp, int(r.State))
	digestcodec.WritePos(h, tmp, r.Waypoint)
	digestcodec.WritePos(h, tmp, r.Next)
	digestcodec.WriteInt(h, tmp, r.Angle)
	digestcodec.WriteInt(h, tmp, r.BestDist)
	digestcodec.WritePos(h, tmp, r.ManoeuvreTo)
	digestcodec.WritePos(h, tmp, r.ManoeuvreHug)
}

func digestNav(h hashWriter, tmp *[8]byte, s *wallhug.State) {
	digestcodec.WriteInt(h, tmp, int(s.Kind))
	digestcodec.WriteInt(h, tmp, int(s.Phase))
	digestcodec.WriteInt(h, tmp, int(s.Side))
	digestcodec.WriteInt(h, tmp, s.Angle)
	digestcodec.WritePos(h, tmp, s.Next)
	digestcodec.WritePos(h, tmp, s.Final)
	digestcodec.WriteInt(h, tmp, s.DistToFinal)
	digestcodec.WriteInt(h, tmp, s.DistToNext)
	digestcodec.WriteInt(h, tmp, s.Push)
	digestcodec.WriteInt(h, tmp, s.RotRun)
	digestcodec.WriteInt(h, tmp, s.RotDir)
	digestcodec.WriteTile(h, tmp, s.Block)
	digestcodec.WriteU64(h, tmp, uint64(s.BlockOwners))
	digestcodec.WriteInt(h, tmp, s.HugIters)
	digestcodec.WriteI64(h, tmp, s.BestDist2)
}

func digestDig(h hashWriter, tmp *[8]byte, d *digroute.Dig) {
	digestcodec.WriteInt(h, tmp, d.Player)
	digestcodec.WriteTile(h, tmp, d.Begin)
	digestcodec.WriteTile(h, tmp, d.Next)
	digestcodec.WriteTile(h, tmp, d.Dest)
	digestcodec.WriteInt(h, tmp, d.Distance)
	digestcodec.WriteInt(h, tmp, int(d.Side))
	digestcodec.WriteInt(h, tmp, d.Around)
	digestcodec.WriteInt(h, tmp, d.RunLength)
	digestcodec.WriteInt(h, tmp, d.Calls)
	digestcodec.WriteInt(h, tmp, d.Repeats)
	digestcodec.WriteTile(h, tmp, d.Last)
	digestcodec.WriteInt(h, tmp, d.ValuablesTagged)
}
