package scenario

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"dungeonnav.ai/internal/protocol"
	"dungeonnav.ai/internal/sim/tuning"
	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/terrain/tilemap"
)

const scenarioDir = "../../../configs/scenarios"

func scenarioFiles(t *testing.T) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(scenarioDir, "*.yaml"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatalf("no scenarios under %s", scenarioDir)
	}
	return files
}

func TestLoadScenarioFiles(t *testing.T) {
	for _, path := range scenarioFiles(t) {
		s, err := Load(path)
		if err != nil {
			t.Fatalf("load %s: %v", path, err)
		}
		w, err := s.Build(tuning.Defaults(), nil)
		if err != nil {
			t.Fatalf("build %s: %v", path, err)
		}
		if len(w.Agents()) != len(s.Agents) {
			t.Fatalf("%s: %d agents placed, want %d", path, len(w.Agents()), len(s.Agents))
		}
		for _, a := range w.Agents() {
			if w.Probe().CheckAt(a.Mover(), a.Pos).Blocked() {
				t.Fatalf("%s: agent %s spawns inside a wall", path, a.ID)
			}
		}
	}
}

func compileSchema(t *testing.T) *jsonschema.Schema {
	t.Helper()
	c := jsonschema.NewCompiler()
	for _, name := range []string{"command.schema.json", "scenario.schema.json"} {
		f, err := os.Open(filepath.Join("..", "..", "..", "schemas", name))
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		defer f.Close()
		if err := c.AddResource("https://dungeonnav.ai/schemas/"+name, f); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	s, err := c.Compile("https://dungeonnav.ai/schemas/scenario.schema.json")
	if err != nil {
		t.Fatalf("compile scenario schema: %v", err)
	}
	return s
}

// yamlToJSON converts through JSON so the validator sees JSON types.
func yamlToJSON(t *testing.T, raw []byte) any {
	t.Helper()
	var v any
	if err := yaml.Unmarshal(raw, &v); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	return out
}

func TestScenarioFilesMatchSchema(t *testing.T) {
	s := compileSchema(t)
	for _, path := range scenarioFiles(t) {
		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if err := s.Validate(yamlToJSON(t, raw)); err != nil {
			t.Fatalf("%s: %v", path, err)
		}
	}

	bad := yamlToJSON(t, []byte("name: x\nmap: [\"#?#\"]\nagents: []\n"))
	if err := s.Validate(bad); err == nil {
		t.Fatalf("unknown glyph passed the schema")
	}
}

func TestValidateRejects(t *testing.T) {
	base := func() Scenario {
		return Scenario{
			Name:   "x",
			Map:    []string{"...", "...", "..."},
			Agents: []Agent{{ID: "a", Tile: [2]int{1, 1}}},
		}
	}
	cases := []struct {
		name string
		mod  func(*Scenario)
		want string
	}{
		{"no name", func(s *Scenario) { s.Name = "" }, "missing name"},
		{"no map", func(s *Scenario) { s.Map = nil }, "need map"},
		{"map and generate", func(s *Scenario) { s.Generate = &Generate{Width: 5, Height: 5} }, "exclusive"},
		{"duplicate agent", func(s *Scenario) { s.Agents = append(s.Agents, Agent{ID: "a"}) }, "duplicate"},
		{"unknown agent", func(s *Scenario) {
			s.Commands = []TimedCommand{{Command: protocol.Command{Type: protocol.TypeStop, AgentID: "b"}}}
		}, "unknown agent"},
		{"bad command", func(s *Scenario) {
			s.Commands = []TimedCommand{{Command: protocol.Command{Type: "JUMP", AgentID: "a"}}}
		}, "unknown type"},
	}
	for _, c := range cases {
		s := base()
		c.mod(&s)
		err := s.Validate()
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Fatalf("%s: err=%v want %q", c.name, err, c.want)
		}
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("valid scenario rejected: %v", err)
	}
}

func TestGeneratedMapClearsSpawns(t *testing.T) {
	s := Scenario{
		Name:     "gen",
		Seed:     7,
		Generate: &Generate{Width: 20, Height: 12, RockPermille: 1000},
		Agents:   []Agent{{ID: "d", Owner: 2, Tile: [2]int{1, 1}, Digger: true}},
	}
	m, err := s.BuildMap()
	if err != nil {
		t.Fatalf("build map: %v", err)
	}
	for y := 1; y <= 2; y++ {
		for x := 1; x <= 2; x++ {
			if c := m.At(coord.Tile{X: x, Y: y}); c.Kind != tilemap.Claimed || c.Owner != 2 {
				t.Fatalf("spawn cell %d,%d = %+v", x, y, c)
			}
		}
	}
	if m.At(coord.Tile{X: 0, Y: 0}).Kind != tilemap.Rock {
		t.Fatalf("frame carved away")
	}
}

func TestScheduleKeepsFileOrder(t *testing.T) {
	s := Scenario{Commands: []TimedCommand{
		{Tick: 3, Command: protocol.Command{ID: "x", Type: protocol.TypeStop, AgentID: "a"}},
		{Tick: 0, Command: protocol.Command{Type: protocol.TypeMoveTo, AgentID: "a"}},
		{Tick: 3, Command: protocol.Command{Type: protocol.TypeStop, AgentID: "b"}},
	}}
	got := s.Schedule()
	if len(got[3]) != 2 || got[3][0].ID != "x" || got[3][1].ID != "s3" {
		t.Fatalf("tick 3 = %+v", got[3])
	}
	if len(got[0]) != 1 || got[0][0].ID != "s2" {
		t.Fatalf("tick 0 = %+v", got[0])
	}
}
