package logic

import (
	"fmt"
	"time"
)

const (
	msgFastDescent = "Slow down on the way down, control the descent"
	msgSlowRep     = "Rep took a long time, keep a steady rhythm"
)

// Tempo measures phase durations from transition timestamps.
type Tempo struct {
	faultLog

	cfg TempoConfig

	repStart   time.Time
	repEnd     time.Time
	phaseStart time.Time

	descent    time.Duration
	pause      time.Duration
	ascent     time.Duration
	hasDescent bool
	hasAscent  bool

	instructed bool
}

// NewTempo creates the tempo metric.
func NewTempo(cfg TempoConfig) *Tempo {
	return &Tempo{cfg: cfg}
}

func (m *Tempo) Name() string { return "tempo" }

func (m *Tempo) OnStateTransition(from, to Phase, at time.Time) {
	switch {
	case to == PhaseDescending:
		m.repStart = at
	case from == PhaseDescending && to == PhaseBottom:
		m.descent = at.Sub(m.phaseStart)
		m.hasDescent = true
	case from == PhaseBottom && to == PhaseAscending:
		m.pause = at.Sub(m.phaseStart)
	case from == PhaseAscending && to == PhaseStanding:
		m.ascent = at.Sub(m.phaseStart)
		m.hasAscent = true
	}
	if to == PhaseStanding {
		m.repEnd = at
	}
	m.phaseStart = at
}

func (m *Tempo) Update(ctx *FrameContext) {
	if m.phaseStart.IsZero() {
		return
	}
	elapsed := ctx.Time.Sub(m.phaseStart)
	ctx.Sink.SetFeedback(ChannelTempo, fmt.Sprintf("%s %.1fs", ctx.Phase, elapsed.Seconds()))
}

// EvaluateRep judges the whole repetition once the completion transition
// has been delivered.
func (m *Tempo) EvaluateRep(sink *ResultSink) {
	if m.hasDescent && m.descent < m.cfg.MinDescent {
		m.log(Fault{Phase: PhaseDescending, Type: FaultFastDescent, Message: msgFastDescent, AffectsForm: true})
		if !m.instructed {
			sink.Instruct(PhaseStanding, FaultFastDescent, msgFastDescent)
			m.instructed = true
		}
	}
	if !m.repStart.IsZero() && !m.repEnd.IsZero() && m.repEnd.Sub(m.repStart) > m.cfg.MaxRepDuration {
		m.log(Fault{Phase: PhaseAscending, Type: FaultSlowRep, Message: msgSlowRep})
	}
}

func (m *Tempo) Debug() map[string]string {
	d := make(map[string]string)
	if m.hasDescent {
		d["tempo.descent_ms"] = fmt.Sprint(m.descent.Milliseconds())
		d["tempo.pause_ms"] = fmt.Sprint(m.pause.Milliseconds())
	}
	if m.hasAscent {
		d["tempo.ascent_ms"] = fmt.Sprint(m.ascent.Milliseconds())
	}
	return d
}

func (m *Tempo) Reset() {
	m.clearFaults()
	m.repStart = time.Time{}
	m.repEnd = time.Time{}
	m.phaseStart = time.Time{}
	m.descent, m.pause, m.ascent = 0, 0, 0
	m.hasDescent = false
	m.hasAscent = false
	m.instructed = false
}
