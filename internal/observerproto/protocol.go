package observerproto

import "dungeonnav.ai/internal/protocol"

// Version is the observer protocol version (separate from the command protocol).
const Version = "1.0"

// Client -> Server. First message on the observer WS connection, and can be
// re-sent to change the agent filter.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// Optional: only stream these agents. Empty means all.
	Agents []string `json:"agents,omitempty"`
	// Optional: drop per-agent events from tick frames.
	NoEvents bool `json:"no_events,omitempty"`
}

// HTTP response for GET /observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	WorldID         string      `json:"world_id"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
	// Map rows in the scenario glyph format.
	Map []string `json:"map"`
}

type WorldParams struct {
	TickRateHz int   `json:"tick_rate_hz"`
	Width      int   `json:"width"`
	Height     int   `json:"height"`
	TileSize   int   `json:"tile_size"`
	Seed       int64 `json:"seed"`
}

// Server -> Client. Sent every tick.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Digest          string `json:"digest"`

	Agents []AgentState `json:"agents"`
	Events []EventEntry `json:"events,omitempty"`
	// Tiles that became path this tick.
	Dug   [][2]int `json:"dug,omitempty"`
	Tasks int      `json:"tasks"`
}

type AgentState struct {
	ID    string `json:"id"`
	Owner int    `json:"owner"`
	Pos   [3]int `json:"pos"`
	Tile  [2]int `json:"tile"`
	Angle int    `json:"angle"`

	Goal    *GoalState `json:"goal,omitempty"`
	Follow  string     `json:"follow,omitempty"`
	Nav     string     `json:"nav,omitempty"`
	Digging bool       `json:"digging,omitempty"`
	DigTile [2]int     `json:"dig_tile,omitempty"`
}

type GoalState struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Target [3]int `json:"target"`
	// Waypoints left on the planned route.
	Remaining int `json:"remaining"`
}

type EventEntry struct {
	AgentID string         `json:"agent_id"`
	Event   protocol.Event `json:"event"`
}

// Filter returns the frame restricted to what sub asked for. The input is
// not modified.
func (m TickMsg) Filter(sub SubscribeMsg) TickMsg {
	if len(sub.Agents) == 0 && !sub.NoEvents {
		return m
	}
	keep := map[string]bool{}
	for _, id := range sub.Agents {
		keep[id] = true
	}
	out := m
	out.Agents = nil
	out.Events = nil
	for _, a := range m.Agents {
		if len(keep) == 0 || keep[a.ID] {
			out.Agents = append(out.Agents, a)
		}
	}
	if !sub.NoEvents {
		for _, e := range m.Events {
			if len(keep) == 0 || keep[e.AgentID] {
				out.Events = append(out.Events, e)
			}
		}
	}
	return out
}
