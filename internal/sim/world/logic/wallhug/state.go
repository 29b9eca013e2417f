package wallhug

import (
	"math"

	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/logic/collide"
)

type Kind uint8

const (
	Unset Kind = iota
	OnLine
	WallHug
	Manoeuvre
)

func (k Kind) String() string {
	switch k {
	case OnLine:
		return "ON_LINE"
	case WallHug:
		return "WALL_HUG"
	case Manoeuvre:
		return "MANOEUVRE"
	default:
		return "UNSET"
	}
}

// Phase refines Manoeuvre.
type Phase uint8

const (
	PhaseNone Phase = iota
	// walk next to a diggable block met while heading for the target
	PhaseApproachDig
	PhaseDigWait
	// walk next to a diggable block met while hugging
	PhaseApproachSlide
	PhaseSlideDigWait
	PhaseSlideAround
)

// Side is the hand kept on the wall.
type Side uint8

const (
	SideNone Side = iota
	SideLeft
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "LEFT"
	case SideRight:
		return "RIGHT"
	default:
		return "NONE"
	}
}

func (s Side) Opposite() Side {
	switch s {
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	default:
		return SideNone
	}
}

// State is the per-agent local navigation memory. It is a plain value so
// lookahead can work on copies.
type State struct {
	Kind  Kind      `json:"kind"`
	Phase Phase     `json:"phase,omitempty"`
	Side  Side      `json:"side,omitempty"`
	Angle int       `json:"angle"`
	Next  coord.Pos `json:"next"`
	Final coord.Pos `json:"final"`

	// box distance to the target when the hug started
	DistToFinal int `json:"dist_to_final"`
	// box distance to Next when it was chosen
	DistToNext int `json:"dist_to_next"`
	Push       int `json:"push,omitempty"`

	// consecutive quarter turns in one direction while hugging
	RotRun int `json:"rot_run,omitempty"`
	RotDir int `json:"rot_dir,omitempty"`

	Block       coord.Tile `json:"block"`
	BlockOwners uint32     `json:"block_owners,omitempty"`

	HugIters  int   `json:"hug_iters,omitempty"`
	BestDist2 int64 `json:"best_dist2"`
}

// Reset forgets everything and heads straight for target.
func (s *State) Reset(target coord.Pos) {
	*s = State{Kind: OnLine, Final: target, BestDist2: math.MaxInt64}
}

// Resume heads for target again. Stall bookkeeping survives when the target
// is unchanged, so a caller bouncing between line following and hugging
// still ends up stalling.
func (s *State) Resume(target coord.Pos) {
	if s.Kind == Unset || s.Final != target {
		s.Reset(target)
		return
	}
	s.backOnLine(target)
}

// backOnLine leaves hugging but keeps the stall bookkeeping.
func (s *State) backOnLine(target coord.Pos) {
	s.Kind = OnLine
	s.Phase = PhaseNone
	s.Final = target
	s.RotRun = 0
	s.RotDir = 0
	s.Push = 0
}

// Agent is the navigator's view of a creature. Step only writes Nav.
type Agent struct {
	Pos    coord.Pos
	Angle  int
	Speed  int
	Mover  collide.Mover
	Digger bool
	Nav    State
}

type Action uint8

const (
	ActionMove Action = iota
	ActionDig
	ActionStall
)

func (a Action) String() string {
	switch a {
	case ActionMove:
		return "MOVE"
	case ActionDig:
		return "DIG"
	case ActionStall:
		return "STALL"
	default:
		return "UNKNOWN"
	}
}

type StepResult struct {
	Next    coord.Pos
	Angle   int
	Action  Action
	DigTile coord.Tile
}
