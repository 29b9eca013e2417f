package protocol

import (
	"encoding/json"
	"fmt"
)

const Version = "1.0"

// Command types.
const (
	TypeMoveTo  = "MOVE_TO"
	TypeDigTo   = "DIG_TO"
	TypeDigPath = "DIG_PATH"
	TypeStop    = "STOP"
)

// Event is one entry of an agent's per-tick event list.
type Event map[string]interface{}

// Command is an external request for one agent, applied at a tick boundary
// in the order received.
type Command struct {
	ID      string `json:"id" yaml:"id"`
	Type    string `json:"type" yaml:"type"`
	AgentID string `json:"agent_id" yaml:"agent_id"`
	// Target tile.
	Target [2]int `json:"target" yaml:"target"`
	// Optional sub-tile offset of the target inside its tile, in position units.
	Offset [2]int `json:"offset,omitempty" yaml:"offset,omitempty"`
	// NoOwner plans through doors regardless of owner.
	NoOwner bool `json:"no_owner,omitempty" yaml:"no_owner,omitempty"`
}

func DecodeCommand(b []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("decode command: %w", err)
	}
	switch c.Type {
	case TypeMoveTo, TypeDigTo, TypeDigPath, TypeStop:
	default:
		return c, fmt.Errorf("decode command: unknown type %q", c.Type)
	}
	if c.AgentID == "" {
		return c, fmt.Errorf("decode command: missing agent_id")
	}
	return c, nil
}
