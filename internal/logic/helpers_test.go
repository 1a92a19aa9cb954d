package logic

import (
	"math"
	"time"

	"github.com/golang/geo/r2"
	"github.com/sweeney/squat-coach/internal/pose"
)

const (
	thighLen = 0.2
	torsoLen = 0.3
)

var (
	testStart = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	kneePos   = r2.Point{X: 0.5, Y: 0.7}
	anklePos  = r2.Point{X: 0.5, Y: 0.9}
)

// squatFrame builds a left-facing frame whose knee angle and trunk lean are
// exactly knee and lean degrees. Heels are flat.
func squatFrame(at time.Time, knee, lean float64) pose.Frame {
	k := knee * math.Pi / 180
	hip := r2.Point{X: kneePos.X + thighLen*math.Sin(k), Y: kneePos.Y + thighLen*math.Cos(k)}

	l := lean * math.Pi / 180
	shoulder := r2.Point{X: hip.X - torsoLen*math.Sin(l), Y: hip.Y - torsoLen*math.Cos(l)}

	return pose.Frame{
		Time:   at,
		Facing: pose.FacingLeft,
		Scale:  torsoLen,
		Landmarks: map[pose.Joint]r2.Point{
			pose.Shoulder: shoulder,
			pose.Hip:      hip,
			pose.Knee:     kneePos,
			pose.Ankle:    anklePos,
			pose.Heel:     {X: 0.47, Y: 0.92},
			pose.Toe:      {X: 0.58, Y: 0.92},
		},
	}
}

// step is one scripted frame.
type step struct {
	knee float64
	lean float64
}

// run feeds steps at 100ms intervals starting at from and returns the
// results plus the time of the next frame.
func run(a *Aggregator, from time.Time, steps []step) ([]*FrameResult, time.Time) {
	results := make([]*FrameResult, 0, len(steps))
	at := from
	for _, s := range steps {
		results = append(results, a.Process(squatFrame(at, s.knee, s.lean)))
		at = at.Add(100 * time.Millisecond)
	}
	return results, at
}

// cleanRep is a controlled squat starting from standing. With 100ms frames:
//
//	index 0       standing
//	index 1-10    descending (enters at 100ms)
//	index 11-13   bottom (enters at 1100ms)
//	index 14-18   ascending (enters at 1400ms)
//	index 19      standing again, rep completes at 1900ms
func cleanRep(lean float64) []step {
	var steps []step
	steps = append(steps, step{170, lean})
	for k := 150.0; k > 100; k -= 5 {
		steps = append(steps, step{k, lean})
	}
	steps = append(steps, step{95, lean}, step{92, lean}, step{95, lean})
	for k := 110.0; k <= 150; k += 10 {
		steps = append(steps, step{k, lean})
	}
	steps = append(steps, step{170, lean})
	return steps
}

func phaseFaults(faults []Fault, ft FaultType) []Fault {
	var out []Fault
	for _, f := range faults {
		if f.Type == ft {
			out = append(out, f)
		}
	}
	return out
}
