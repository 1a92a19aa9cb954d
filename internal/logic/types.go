// Package logic contains the pure rep-counting and form-scoring engine.
// This package has NO I/O dependencies (no MQTT, GPIO, OS, or time.Sleep).
// Time is always injectable: every frame carries its own timestamp.
package logic

import "time"

// Phase is the classified stage of a squat repetition.
type Phase string

const (
	PhaseStanding   Phase = "standing"
	PhaseDescending Phase = "descending"
	PhaseBottom     Phase = "bottom"
	PhaseAscending  Phase = "ascending"
)

// Channel names a transient feedback slot. Each metric owns exactly one.
type Channel string

const (
	ChannelDepth Channel = "Depth"
	ChannelBack  Channel = "Back"
	ChannelHeel  Channel = "Heel"
	ChannelTempo Channel = "Tempo"
	ChannelSync  Channel = "Sync"
)

// FaultType tags a form error. Each type is owned by a single metric.
type FaultType string

const (
	FaultBack         FaultType = "Back"         // excessive forward lean
	FaultBackwardLean FaultType = "BackwardLean" // leaning back past vertical
	FaultShallow      FaultType = "Shallow"
	FaultTooDeep      FaultType = "TooDeep"
	FaultHeelLift     FaultType = "HeelLift"
	FaultFastDescent  FaultType = "FastDescent"
	FaultSlowRep      FaultType = "SlowRep"
	FaultHipsFirst    FaultType = "HipsFirst"
)

// Fault is a single phase-scoped form error detected during a repetition.
type Fault struct {
	Phase       Phase
	Type        FaultType
	Message     string
	AffectsForm bool // false = informational only
}

// Transition is a change of phase at a given frame time.
type Transition struct {
	From Phase
	To   Phase
	At   time.Time
}

// FaultMap is the per-rep summary keyed phase -> fault type -> message.
type FaultMap map[Phase]map[FaultType]string

// RepRecord is the finalized summary of one repetition.
type RepRecord struct {
	Number  int
	Start   time.Time
	End     time.Time
	Correct bool
	Faults  FaultMap
	Debug   map[string]string
}

// Duration returns how long the repetition took, zero if the start is unknown.
func (r RepRecord) Duration() time.Duration {
	if r.Start.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start)
}

// FrameResult is the engine output for a frame that produced something to
// show. Process returns nil for idle frames.
type FrameResult struct {
	Time       time.Time
	Reps       int
	Phase      Phase
	Transition *Transition        // set when the phase changed this frame
	Feedback   map[Channel]string // transient, this frame only
	Completed  *RepRecord         // set on the frame a rep completes
}

// Counts tracks totals since startup.
type Counts struct {
	Reps    int
	Correct int
	Faults  map[FaultType]int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}
