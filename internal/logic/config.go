package logic

import (
	"fmt"
	"strings"
	"time"
)

// PhaseThresholds are the knee-angle bands (degrees) driving the phase machine.
type PhaseThresholds struct {
	StandAngle   float64 // above this, any active phase completes the rep
	DescendAngle float64 // at or below this, standing starts a descent
	BottomLower  float64 // at or below this, descending reaches the bottom
	BottomUpper  float64
	AscendMargin float64 // bottom ends once angle > BottomUpper + AscendMargin
}

// DepthConfig bounds the knee angle at the bottom of the rep.
type DepthConfig struct {
	TargetKneeAngle float64 // the rep must reach at least this flexion
	MinKneeAngle    float64 // below this the squat is flagged as too deep
}

// LeanConfig bounds the trunk lean, in degrees from vertical.
type LeanConfig struct {
	MaxForward  float64
	MaxBackward float64
}

// HeelConfig bounds heel lift as a fraction of the scale factor.
type HeelConfig struct {
	MaxLift float64
}

// TempoConfig bounds phase durations.
type TempoConfig struct {
	MinDescent     time.Duration
	MaxRepDuration time.Duration
}

// SyncConfig bounds how far the hips may rise ahead of the shoulders, as a
// fraction of the scale factor.
type SyncConfig struct {
	MaxHipLead float64
}

// Config holds every tunable threshold of the engine.
type Config struct {
	Phase            PhaseThresholds
	HysteresisFrames int
	Depth            DepthConfig
	Lean             LeanConfig
	Heel             HeelConfig
	Tempo            TempoConfig
	Sync             SyncConfig
}

// DefaultConfig returns the uncalibrated defaults. Lean and depth bounds vary
// with anthropometry and are expected to be overridden per population.
func DefaultConfig() Config {
	return Config{
		Phase: PhaseThresholds{
			StandAngle:   160,
			DescendAngle: 152,
			BottomLower:  100,
			BottomUpper:  100,
			AscendMargin: 5,
		},
		HysteresisFrames: 3,
		Depth: DepthConfig{
			TargetKneeAngle: 100,
			MinKneeAngle:    50,
		},
		Lean: LeanConfig{
			MaxForward:  40,
			MaxBackward: 5,
		},
		Heel: HeelConfig{
			MaxLift: 0.08,
		},
		Tempo: TempoConfig{
			MinDescent:     800 * time.Millisecond,
			MaxRepDuration: 8 * time.Second,
		},
		Sync: SyncConfig{
			MaxHipLead: 0.15,
		},
	}
}

// Validate reports every inconsistent threshold at once.
func (c Config) Validate() error {
	var problems []string

	p := c.Phase
	if !(p.StandAngle > p.DescendAngle) {
		problems = append(problems, "phase: stand angle must be above descend angle")
	}
	if !(p.DescendAngle > p.BottomLower) {
		problems = append(problems, "phase: descend angle must be above bottom lower bound")
	}
	if p.BottomUpper < p.BottomLower {
		problems = append(problems, "phase: bottom upper bound must not be below lower bound")
	}
	if p.AscendMargin < 0 {
		problems = append(problems, "phase: ascend margin must not be negative")
	}
	if p.BottomUpper+p.AscendMargin >= p.StandAngle {
		problems = append(problems, "phase: ascend threshold must be below stand angle")
	}
	if c.HysteresisFrames < 1 {
		problems = append(problems, "hysteresis_frames must be at least 1")
	}
	if c.Depth.MinKneeAngle >= c.Depth.TargetKneeAngle {
		problems = append(problems, "depth: min knee angle must be below target")
	}
	if c.Lean.MaxForward <= 0 || c.Lean.MaxForward >= 90 {
		problems = append(problems, "lean: max forward must be in (0, 90)")
	}
	if c.Lean.MaxBackward < 0 || c.Lean.MaxBackward >= 90 {
		problems = append(problems, "lean: max backward must be in [0, 90)")
	}
	if c.Heel.MaxLift <= 0 {
		problems = append(problems, "heel: max lift must be positive")
	}
	if c.Tempo.MinDescent < 0 {
		problems = append(problems, "tempo: min descent must not be negative")
	}
	if c.Tempo.MaxRepDuration <= c.Tempo.MinDescent {
		problems = append(problems, "tempo: max rep duration must exceed min descent")
	}
	if c.Sync.MaxHipLead <= 0 {
		problems = append(problems, "sync: max hip lead must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid engine config: %s", strings.Join(problems, "; "))
	}
	return nil
}
