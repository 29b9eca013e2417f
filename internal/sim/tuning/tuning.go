package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz         int `yaml:"tick_rate_hz"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`

	Movement Movement `yaml:"movement"`
	Digging  Digging  `yaml:"digging"`
}

type Movement struct {
	// Default speed in position units per tick.
	Speed             int `yaml:"speed"`
	NavRadius         int `yaml:"nav_radius"`
	HugMaxIterations  int `yaml:"hug_max_iterations"`
	WaypointTolerance int `yaml:"waypoint_tolerance"`
	MaxReplans        int `yaml:"max_replans"`
}

type Digging struct {
	TicksPerTile  int `yaml:"ticks_per_tile"`
	TaskLimit     int `yaml:"task_limit"`
	DigCallLimit  int `yaml:"dig_call_limit"`
	AutoDigRadius int `yaml:"auto_dig_radius"`
}

// Defaults is a speed of ten tiles a second at 20 Hz.
func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		TickRateHz:         20,
		SnapshotEveryTicks: 600,
		Movement: Movement{
			Speed:             384,
			NavRadius:         128,
			HugMaxIterations:  100,
			WaypointTolerance: 16,
			MaxReplans:        3,
		},
		Digging: Digging{
			TicksPerTile: 20,
			TaskLimit:    256,
			DigCallLimit: 356,
		},
	}
}

// Load reads a tuning file over Defaults, so a file only needs the values
// it changes.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.TickRateHz <= 0:
		return fmt.Errorf("tick_rate_hz must be > 0")
	case t.Movement.Speed <= 0:
		return fmt.Errorf("movement.speed must be > 0")
	case t.Movement.NavRadius < 0 || t.Movement.NavRadius >= 384:
		return fmt.Errorf("movement.nav_radius must be in [0,384)")
	case t.Movement.HugMaxIterations <= 0:
		return fmt.Errorf("movement.hug_max_iterations must be > 0")
	case t.Movement.WaypointTolerance < 0:
		return fmt.Errorf("movement.waypoint_tolerance must be >= 0")
	case t.Digging.TicksPerTile <= 0:
		return fmt.Errorf("digging.ticks_per_tile must be > 0")
	}
	return nil
}
