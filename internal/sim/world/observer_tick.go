package world

import (
	"dungeonnav.ai/internal/observerproto"
	"dungeonnav.ai/internal/sim/world/kernel/coord"
)

func (w *World) buildTickMsg(nowTick uint64, events []AgentEvent, digest string) observerproto.TickMsg {
	msg := observerproto.TickMsg{
		Type:            "TICK",
		ProtocolVersion: observerproto.Version,
		Tick:            nowTick,
		Digest:          digest,
		Agents:          make([]observerproto.AgentState, 0, len(w.sorted)),
		Tasks:           w.tasks.Len(),
	}
	for _, a := range w.sorted {
		msg.Agents = append(msg.Agents, agentState(a))
	}
	for _, ev := range events {
		msg.Events = append(msg.Events, observerproto.EventEntry{AgentID: ev.AgentID, Event: ev.Event})
		if ev.Event["type"] == "TILE_DUG" {
			if t, ok := ev.Event["tile"].([2]int); ok {
				msg.Dug = append(msg.Dug, t)
			}
		}
	}
	return msg
}

func agentState(a *Agent) observerproto.AgentState {
	t := a.Pos.Tile()
	st := observerproto.AgentState{
		ID:      a.ID,
		Owner:   a.Owner,
		Pos:     posArr(a.Pos),
		Tile:    [2]int{t.X, t.Y},
		Angle:   a.Angle,
		Digging: a.DigActive,
	}
	if a.DigActive {
		st.DigTile = tileArr(a.DigTile)
	}
	if g := a.Goal; g != nil {
		st.Goal = &observerproto.GoalState{
			ID:        g.ID,
			Kind:      string(g.Kind),
			Target:    posArr(g.Target),
			Remaining: a.Route.Remaining(),
		}
		if a.Route.Valid {
			st.Follow = a.Route.State.String()
		}
		st.Nav = a.Nav.Kind.String()
	}
	return st
}

// Bootstrap describes the world for a newly connected observer.
func (w *World) Bootstrap() observerproto.BootstrapResponse {
	return observerproto.BootstrapResponse{
		ProtocolVersion: observerproto.Version,
		WorldID:         w.cfg.ID,
		Tick:            w.tick.Load(),
		WorldParams: observerproto.WorldParams{
			TickRateHz: w.cfg.Tuning.TickRateHz,
			Width:      w.m.W,
			Height:     w.m.H,
			TileSize:   coord.TileSize,
			Seed:       w.cfg.Seed,
		},
		Map: w.m.Format(),
	}
}
