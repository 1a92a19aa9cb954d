// Package status provides a thread-safe view of the coaching session for the
// HTTP handlers and MQTT status events.
package status

import (
	"slices"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/sweeney/squat-coach/internal/logic"
)

// RecentLimit is how many completed reps the tracker keeps.
const RecentLimit = 10

// Config contains daemon configuration for display.
type Config struct {
	HeartbeatMs int64
	Broker      string
	FramesTopic string
	HTTPAddr    string
	GPIO        bool
}

// EngineView is the engine state mirrored after each frame.
type EngineView struct {
	Phase        logic.Phase
	Counts       logic.Counts
	Instructions map[logic.Phase]map[logic.FaultType]string
	Debug        map[string]string
}

// RepStats summarizes completed rep durations for the session.
type RepStats struct {
	MeanSeconds   float64
	StdDevSeconds float64
	CorrectRatio  float64
}

// Snapshot is a point-in-time view of the session.
// It is a value type: safe to use after the lock is released.
type Snapshot struct {
	Session       string
	Phase         logic.Phase
	Counts        logic.Counts
	Feedback      map[logic.Channel]string
	Instructions  map[logic.Phase]map[logic.FaultType]string
	Debug         map[string]string
	Recent        []logic.RepRecord
	Stats         RepStats
	LastFrame     time.Time
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable session state behind an RWMutex.
type Tracker struct {
	mu        sync.RWMutex
	snap      Snapshot
	durations []float64 // seconds, every rep this session
}

// NewTracker creates a Tracker for the given session.
func NewTracker(startTime time.Time, session string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Session:   session,
			Phase:     logic.PhaseStanding,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records one processed frame. res is nil for idle frames, which
// clear the feedback but keep everything else.
// Called from runLoop on every frame.
func (t *Tracker) Update(at time.Time, res *logic.FrameResult, view EngineView) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.LastFrame = at
	t.snap.Phase = view.Phase
	t.snap.Counts = view.Counts
	t.snap.Instructions = view.Instructions
	t.snap.Debug = view.Debug
	t.snap.Feedback = nil
	if res == nil {
		return
	}
	t.snap.Feedback = res.Feedback

	if res.Completed != nil {
		t.addRep(*res.Completed)
	}
}

func (t *Tracker) addRep(rec logic.RepRecord) {
	t.snap.Recent = append(t.snap.Recent, rec)
	if over := len(t.snap.Recent) - RecentLimit; over > 0 {
		t.snap.Recent = slices.Clone(t.snap.Recent[over:])
	}

	t.durations = append(t.durations, rec.Duration().Seconds())
	t.snap.Stats = summarize(t.durations, t.snap.Counts)
}

func summarize(durations []float64, counts logic.Counts) RepStats {
	var s RepStats
	switch len(durations) {
	case 0:
	case 1:
		s.MeanSeconds = durations[0]
	default:
		s.MeanSeconds, s.StdDevSeconds = stat.MeanStdDev(durations, nil)
	}
	if counts.Reps > 0 {
		s.CorrectRatio = float64(counts.Correct) / float64(counts.Reps)
	}
	return s
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the session state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Recent = slices.Clone(t.snap.Recent)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
