// Package config loads engine thresholds from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sweeney/squat-coach/internal/logic"
)

// Duration is a time.Duration written as a string such as "800ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Phase struct {
	StandAngle   float64 `toml:"stand_angle"`
	DescendAngle float64 `toml:"descend_angle"`
	BottomLower  float64 `toml:"bottom_lower"`
	BottomUpper  float64 `toml:"bottom_upper"`
	AscendMargin float64 `toml:"ascend_margin"`
}

type Depth struct {
	TargetKneeAngle float64 `toml:"target_knee_angle"`
	MinKneeAngle    float64 `toml:"min_knee_angle"`
}

type Lean struct {
	MaxForward  float64 `toml:"max_forward"`
	MaxBackward float64 `toml:"max_backward"`
}

type Heel struct {
	MaxLift float64 `toml:"max_lift"`
}

type Tempo struct {
	MinDescent     Duration `toml:"min_descent"`
	MaxRepDuration Duration `toml:"max_rep_duration"`
}

type Sync struct {
	MaxHipLead float64 `toml:"max_hip_lead"`
}

// Toml mirrors the file layout.
type Toml struct {
	HysteresisFrames int   `toml:"hysteresis_frames"`
	Phase            Phase `toml:"phase"`
	Depth            Depth `toml:"depth"`
	Lean             Lean  `toml:"lean"`
	Heel             Heel  `toml:"heel"`
	Tempo            Tempo `toml:"tempo"`
	Sync             Sync  `toml:"sync"`
}

// FromEngine converts an engine config into its file form.
func FromEngine(c logic.Config) Toml {
	return Toml{
		HysteresisFrames: c.HysteresisFrames,
		Phase: Phase{
			StandAngle:   c.Phase.StandAngle,
			DescendAngle: c.Phase.DescendAngle,
			BottomLower:  c.Phase.BottomLower,
			BottomUpper:  c.Phase.BottomUpper,
			AscendMargin: c.Phase.AscendMargin,
		},
		Depth: Depth{TargetKneeAngle: c.Depth.TargetKneeAngle, MinKneeAngle: c.Depth.MinKneeAngle},
		Lean:  Lean{MaxForward: c.Lean.MaxForward, MaxBackward: c.Lean.MaxBackward},
		Heel:  Heel{MaxLift: c.Heel.MaxLift},
		Tempo: Tempo{
			MinDescent:     Duration{c.Tempo.MinDescent},
			MaxRepDuration: Duration{c.Tempo.MaxRepDuration},
		},
		Sync: Sync{MaxHipLead: c.Sync.MaxHipLead},
	}
}

// Engine converts the file form into the engine config.
func (t Toml) Engine() logic.Config {
	return logic.Config{
		Phase: logic.PhaseThresholds{
			StandAngle:   t.Phase.StandAngle,
			DescendAngle: t.Phase.DescendAngle,
			BottomLower:  t.Phase.BottomLower,
			BottomUpper:  t.Phase.BottomUpper,
			AscendMargin: t.Phase.AscendMargin,
		},
		HysteresisFrames: t.HysteresisFrames,
		Depth:            logic.DepthConfig{TargetKneeAngle: t.Depth.TargetKneeAngle, MinKneeAngle: t.Depth.MinKneeAngle},
		Lean:             logic.LeanConfig{MaxForward: t.Lean.MaxForward, MaxBackward: t.Lean.MaxBackward},
		Heel:             logic.HeelConfig{MaxLift: t.Heel.MaxLift},
		Tempo: logic.TempoConfig{
			MinDescent:     t.Tempo.MinDescent.Duration,
			MaxRepDuration: t.Tempo.MaxRepDuration.Duration,
		},
		Sync: logic.SyncConfig{MaxHipLead: t.Sync.MaxHipLead},
	}
}

// Load reads path over the defaults and validates the result. An empty path
// returns the defaults.
func Load(path string) (logic.Config, error) {
	if path == "" {
		cfg := logic.DefaultConfig()
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return logic.Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return logic.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ErrUnknownKey is returned when the file sets a key that does not exist.
var ErrUnknownKey = errors.New("unknown config key")

// Parse decodes TOML text over the defaults and validates the result.
// Missing keys keep their default values.
func Parse(data string) (logic.Config, error) {
	t := FromEngine(logic.DefaultConfig())
	md, err := toml.Decode(data, &t)
	if err != nil {
		return logic.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return logic.Config{}, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(keys, ", "))
	}

	cfg := t.Engine()
	if err := cfg.Validate(); err != nil {
		return logic.Config{}, err
	}
	return cfg, nil
}
