package logic

import (
	"time"

	"github.com/sweeney/squat-coach/internal/pose"
)

// Aggregator owns the phase machine and the metrics, counts reps and
// finalizes each one exactly once.
type Aggregator struct {
	machine *PhaseMachine
	sink    *ResultSink

	depth   *Depth
	tempo   *Tempo
	metrics []Metric // fixed evaluation order

	repStart    time.Time
	lastCorrect bool
	history     []RepRecord
	debug       map[string]string
	counts      Counts

	startTime     time.Time
	lastHeartbeat time.Time
}

// NewAggregator creates an engine with the given thresholds. The startTime
// is used for calculating uptime in heartbeat events. cfg is assumed valid;
// see Config.Validate.
func NewAggregator(cfg Config, startTime time.Time) *Aggregator {
	depth := NewDepth(cfg.Depth, cfg.HysteresisFrames)
	tempo := NewTempo(cfg.Tempo)
	return &Aggregator{
		machine: NewPhaseMachine(cfg.Phase),
		sink:    NewResultSink(),
		depth:   depth,
		tempo:   tempo,
		metrics: []Metric{
			depth,
			NewTrunkLean(cfg.Lean, cfg.HysteresisFrames),
			NewHeelRise(cfg.Heel, cfg.HysteresisFrames),
			tempo,
			NewHipShoulderSync(cfg.Sync, cfg.HysteresisFrames),
		},
		debug:         make(map[string]string),
		counts:        Counts{Faults: make(map[FaultType]int)},
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process takes one pose frame and returns what to show for it, or nil when
// there is nothing to show: the knee angle could not be measured, or the
// subject is standing and no rep has been counted yet.
func (a *Aggregator) Process(f pose.Frame) *FrameResult {
	a.sink.clearFeedback()

	knee, err := pose.JointAngle(f, pose.Hip, pose.Knee, pose.Ankle)
	if err != nil {
		// Without the driving signal nothing can advance this frame.
		return nil
	}

	prev := a.machine.Phase()
	phase, changed := a.machine.Step(knee)
	ctx := buildContext(f, knee, phase, a.sink)

	var tr *Transition
	if changed {
		tr = &Transition{From: prev, To: phase, At: f.Time}
		if phase == PhaseStanding {
			rec := a.completeRep(prev, ctx)
			return a.result(ctx, tr, &rec)
		}
		if phase == PhaseDescending {
			a.sink.clearInstructions()
			clear(a.debug)
			a.repStart = f.Time
		}
		a.broadcast(prev, phase, f.Time)
	}

	if phase == PhaseStanding {
		if a.counts.Reps == 0 {
			return nil
		}
		return a.result(ctx, tr, nil)
	}

	for _, m := range a.metrics {
		m.Update(ctx)
	}
	a.mergeDebug()
	return a.result(ctx, tr, nil)
}

func (a *Aggregator) broadcast(from, to Phase, at time.Time) {
	for _, m := range a.metrics {
		m.OnStateTransition(from, to, at)
	}
}

// completeRep runs the end-of-rep sequence. Order matters: depth judges the
// phase that was active, tempo needs the final transition before it can
// evaluate, and telemetry is captured before metrics reset.
func (a *Aggregator) completeRep(prev Phase, ctx *FrameContext) RepRecord {
	a.depth.CheckRepCompletion(prev, ctx)
	a.broadcast(prev, PhaseStanding, ctx.Time)
	a.tempo.EvaluateRep(a.sink)

	var faults []Fault
	for _, m := range a.metrics {
		faults = append(faults, m.Faults()...)
	}

	correct := true
	fm := make(FaultMap)
	for _, f := range faults {
		if f.AffectsForm {
			correct = false
		}
		if fm[f.Phase] == nil {
			fm[f.Phase] = make(map[FaultType]string)
		}
		fm[f.Phase][f.Type] = f.Message
		a.counts.Faults[f.Type]++
	}

	a.counts.Reps++
	if correct {
		a.counts.Correct++
	}
	a.lastCorrect = correct

	a.mergeDebug()
	rec := RepRecord{
		Number:  a.counts.Reps,
		Start:   a.repStart,
		End:     ctx.Time,
		Correct: correct,
		Faults:  fm,
		Debug:   a.Debug(),
	}
	a.history = append(a.history, rec)

	for _, m := range a.metrics {
		m.Reset()
	}
	a.repStart = time.Time{}
	return rec
}

func (a *Aggregator) mergeDebug() {
	for _, m := range a.metrics {
		for k, v := range m.Debug() {
			a.debug[k] = v
		}
	}
}

func (a *Aggregator) result(ctx *FrameContext, tr *Transition, completed *RepRecord) *FrameResult {
	return &FrameResult{
		Time:       ctx.Time,
		Reps:       a.counts.Reps,
		Phase:      ctx.Phase,
		Transition: tr,
		Feedback:   a.sink.Feedback(),
		Completed:  completed,
	}
}

// Phase returns the current phase.
func (a *Aggregator) Phase() Phase {
	return a.machine.Phase()
}

// Reps returns the number of completed repetitions.
func (a *Aggregator) Reps() int {
	return a.counts.Reps
}

// LastCorrect returns the verdict of the most recent repetition.
func (a *Aggregator) LastCorrect() bool {
	return a.lastCorrect
}

// History returns every completed repetition, oldest first.
func (a *Aggregator) History() []RepRecord {
	out := make([]RepRecord, len(a.history))
	copy(out, a.history)
	return out
}

// Instructions returns the coaching instructions pending for display.
func (a *Aggregator) Instructions() map[Phase]map[FaultType]string {
	return a.sink.Instructions()
}

// Debug returns a copy of the merged metric telemetry.
func (a *Aggregator) Debug() map[string]string {
	out := make(map[string]string, len(a.debug))
	for k, v := range a.debug {
		out[k] = v
	}
	return out
}

// CountsSnapshot returns a copy of the totals since startup.
func (a *Aggregator) CountsSnapshot() Counts {
	c := Counts{Reps: a.counts.Reps, Correct: a.counts.Correct, Faults: make(map[FaultType]int, len(a.counts.Faults))}
	for k, v := range a.counts.Faults {
		c.Faults[k] = v
	}
	return c
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (a *Aggregator) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(a.lastHeartbeat) < interval {
		return nil
	}

	a.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(a.startTime),
		Counts:    a.CountsSnapshot(),
	}
}
