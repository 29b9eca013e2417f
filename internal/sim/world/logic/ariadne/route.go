package ariadne

import (
	"dungeonnav.ai/internal/sim/world/kernel/coord"
)

const (
	// StoredWaypoints is how many upcoming waypoints a route keeps at once.
	StoredWaypoints = 10
	MaxWaypoints    = 255
	PathCapacity    = 1400
)

type Result uint8

const (
	Ok Result = iota
	FinalOk
	Fail
	PartialOk
)

func (r Result) String() string {
	switch r {
	case Ok:
		return "OK"
	case FinalOk:
		return "FINAL_OK"
	case Fail:
		return "FAIL"
	case PartialOk:
		return "PARTIAL_OK"
	default:
		return "UNKNOWN"
	}
}

type Advance uint8

const (
	AdvanceNext Advance = iota
	AdvanceComplete
	AdvanceInvalid
)

type Flags uint8

const (
	// NoOwner plans as if every unlocked door were friendly.
	NoOwner Flags = 1 << iota
)

type FollowState uint8

const (
	FollowNone FollowState = iota
	FollowOnLine
	FollowWallHug
	FollowManoeuvre
)

func (s FollowState) String() string {
	switch s {
	case FollowOnLine:
		return "ON_LINE"
	case FollowWallHug:
		return "WALL_HUG"
	case FollowManoeuvre:
		return "MANOEUVRE"
	default:
		return "NONE"
	}
}

// Route is the per-agent planned route. The zero value is an invalid route.
type Route struct {
	Valid     bool                       `json:"valid"`
	Start     coord.Pos                  `json:"start"`
	End       coord.Pos                  `json:"end"`
	Current   int                        `json:"current"`
	Stored    int                        `json:"stored"`
	Total     int                        `json:"total"`
	Waypoints [StoredWaypoints]coord.Pos `json:"waypoints"`
	Speed     int                        `json:"speed"`
	Flags     Flags                      `json:"flags,omitempty"`
	State     FollowState                `json:"state"`

	// Waypoint is the current waypoint after pulling it off walls.
	Waypoint coord.Pos `json:"waypoint"`
	Next     coord.Pos `json:"next"`
	Angle    int       `json:"angle"`
	BestDist int       `json:"best_dist"`

	ManoeuvreTo  coord.Pos `json:"manoeuvre_to"`
	ManoeuvreHug coord.Pos `json:"manoeuvre_hug"`
}

// Invalidate drops the route. Calling it again has no further effect.
func (r *Route) Invalidate() {
	*r = Route{}
}

func (r *Route) Remaining() int {
	if !r.Valid {
		return 0
	}
	return r.Total - r.Current
}
