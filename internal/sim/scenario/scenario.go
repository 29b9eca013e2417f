package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"dungeonnav.ai/internal/protocol"
	"dungeonnav.ai/internal/sim/tuning"
	"dungeonnav.ai/internal/sim/world"
	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/logic/mathx"
	"dungeonnav.ai/internal/sim/world/terrain/gen"
	"dungeonnav.ai/internal/sim/world/terrain/tilemap"
)

// Scenario is a map, the creatures on it and the commands they receive.
type Scenario struct {
	Name  string `yaml:"name"`
	Seed  int64  `yaml:"seed"`
	Ticks int    `yaml:"ticks"`

	// Map rows in glyph form. Generate is used when Map is empty.
	Map      []string  `yaml:"map"`
	Generate *Generate `yaml:"generate"`
	// Owner of owned glyphs (claimed floor, walls, doors) in Map.
	Owner int `yaml:"owner"`

	Agents   []Agent        `yaml:"agents"`
	Commands []TimedCommand `yaml:"commands"`
}

type Generate struct {
	Width        int `yaml:"width"`
	Height       int `yaml:"height"`
	RockCluster  int `yaml:"rock_cluster"`
	RockPermille int `yaml:"rock_permille"`
	GoldPermille int `yaml:"gold_permille"`
	GemsPermille int `yaml:"gems_permille"`
	LavaPermille int `yaml:"lava_permille"`
	// SpawnClear carves claimed floor this many tiles around each agent.
	SpawnClear int `yaml:"spawn_clear"`
}

type Agent struct {
	ID         string `yaml:"id"`
	Owner      int    `yaml:"owner"`
	Tile       [2]int `yaml:"tile"`
	Speed      int    `yaml:"speed"`
	Radius     int    `yaml:"radius"`
	Flying     bool   `yaml:"flying"`
	LavaImmune bool   `yaml:"lava_immune"`
	Digger     bool   `yaml:"digger"`
	AutoDig    bool   `yaml:"auto_dig"`
}

type TimedCommand struct {
	Tick    uint64           `yaml:"tick"`
	Command protocol.Command `yaml:"command"`
}

// Load reads and checks a scenario file. Unknown keys are errors.
func Load(path string) (Scenario, error) {
	var s Scenario
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s Scenario) Validate() error {
	if s.Name == "" {
		return errors.New("missing name")
	}
	switch {
	case len(s.Map) == 0 && s.Generate == nil:
		return errors.New("need map or generate")
	case len(s.Map) > 0 && s.Generate != nil:
		return errors.New("map and generate are exclusive")
	case s.Generate != nil && (s.Generate.Width < 3 || s.Generate.Height < 3):
		return errors.New("generate: width and height must be >= 3")
	}
	ids := map[string]bool{}
	for i, a := range s.Agents {
		if a.ID == "" {
			return fmt.Errorf("agents[%d]: missing id", i)
		}
		if ids[a.ID] {
			return fmt.Errorf("agents[%d]: duplicate id %q", i, a.ID)
		}
		ids[a.ID] = true
	}
	for i, c := range s.Commands {
		switch c.Command.Type {
		case protocol.TypeMoveTo, protocol.TypeDigTo, protocol.TypeDigPath, protocol.TypeStop:
		default:
			return fmt.Errorf("commands[%d]: unknown type %q", i, c.Command.Type)
		}
		if !ids[c.Command.AgentID] {
			return fmt.Errorf("commands[%d]: unknown agent %q", i, c.Command.AgentID)
		}
	}
	return nil
}

func (s Scenario) BuildMap() (*tilemap.Map, error) {
	if len(s.Map) > 0 {
		return tilemap.Parse(s.Map, s.Owner)
	}
	g := s.Generate
	m := gen.Generate(gen.Params{
		Seed:            s.Seed,
		W:               g.Width,
		H:               g.Height,
		RockClusterSize: g.RockCluster,
		RockPermille:    g.RockPermille,
		GoldPermille:    g.GoldPermille,
		GemsPermille:    g.GemsPermille,
		LavaPermille:    g.LavaPermille,
	})
	r := g.SpawnClear
	if r <= 0 {
		r = 1
	}
	for _, a := range s.Agents {
		x, y := a.Tile[0], a.Tile[1]
		gen.CarveRoom(m,
			mathx.ClampInt(x-r, 1, m.W-2), mathx.ClampInt(y-r, 1, m.H-2),
			mathx.ClampInt(x+r, 1, m.W-2), mathx.ClampInt(y+r, 1, m.H-2),
			a.Owner)
	}
	return m, nil
}

// Build creates the world with every agent standing on its tile centre.
func (s Scenario) Build(tune tuning.Tuning, logger *log.Logger) (*world.World, error) {
	m, err := s.BuildMap()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	w, err := world.New(world.WorldConfig{ID: s.Name, Seed: s.Seed, Tuning: tune}, m, logger)
	if err != nil {
		return nil, err
	}
	for _, a := range s.Agents {
		if err := w.AddAgent(&world.Agent{
			ID:         a.ID,
			Owner:      a.Owner,
			Pos:        coord.Tile{X: a.Tile[0], Y: a.Tile[1]}.Center(),
			Speed:      a.Speed,
			Radius:     a.Radius,
			Flying:     a.Flying,
			LavaImmune: a.LavaImmune,
			Digger:     a.Digger,
			AutoDig:    a.AutoDig,
		}); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	}
	return w, nil
}

// Schedule groups the commands by tick, keeping file order within a tick.
// Commands without an ID get one from their position in the file.
func (s Scenario) Schedule() map[uint64][]protocol.Command {
	out := map[uint64][]protocol.Command{}
	for i, tc := range s.Commands {
		c := tc.Command
		if c.ID == "" {
			c.ID = fmt.Sprintf("s%d", i+1)
		}
		out[tc.Tick] = append(out[tc.Tick], c)
	}
	return out
}
