package logic

import (
	"slices"
	"time"
)

// Metric is one independent form evaluator. The set is closed: Depth,
// TrunkLean, HeelRise, Tempo and HipShoulderSync.
type Metric interface {
	// Name identifies the metric in logs and debug telemetry.
	Name() string

	// Update is called every frame while the phase is not standing.
	Update(ctx *FrameContext)

	// OnStateTransition is delivered for every phase change, before the
	// next Update.
	OnStateTransition(from, to Phase, at time.Time)

	// Faults returns the faults logged this repetition.
	Faults() []Fault

	// Debug returns namespaced telemetry for the overlay.
	Debug() map[string]string

	// Reset clears all per-rep state. Called once per repetition.
	Reset()
}

type faultKey struct {
	phase Phase
	ft    FaultType
}

// faultLog is embedded by every metric. It keeps at most one fault per
// (phase, type) pair per repetition.
type faultLog struct {
	faults []Fault
	seen   map[faultKey]bool
}

// log appends f unless the same (phase, type) was already logged, and
// reports whether it was appended.
func (l *faultLog) log(f Fault) bool {
	k := faultKey{f.Phase, f.Type}
	if l.seen[k] {
		return false
	}
	if l.seen == nil {
		l.seen = make(map[faultKey]bool)
	}
	l.seen[k] = true
	l.faults = append(l.faults, f)
	return true
}

// Faults returns a copy of the logged faults.
func (l *faultLog) Faults() []Fault {
	return slices.Clone(l.faults)
}

func (l *faultLog) clearFaults() {
	l.faults = nil
	l.seen = nil
}

// noTransitions provides the default no-op transition hook.
type noTransitions struct{}

func (noTransitions) OnStateTransition(Phase, Phase, time.Time) {}
