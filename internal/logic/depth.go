package logic

import (
	"fmt"
	"math"
)

const (
	msgShallow = "Squat deeper, bring your hips down to knee level"
	msgTooDeep = "Very deep squat, keep control at the bottom"
)

// Depth judges how far the subject squats.
type Depth struct {
	noTransitions
	faultLog

	cfg     DepthConfig
	tooDeep *Hysteresis

	minAngle      float64
	reachedBottom bool
}

// NewDepth creates the depth metric.
func NewDepth(cfg DepthConfig, hysteresisFrames int) *Depth {
	return &Depth{
		cfg:      cfg,
		tooDeep:  NewHysteresis(hysteresisFrames),
		minAngle: math.Inf(1),
	}
}

func (m *Depth) Name() string { return "depth" }

func (m *Depth) Update(ctx *FrameContext) {
	if ctx.KneeAngle < m.minAngle {
		m.minAngle = ctx.KneeAngle
	}

	switch ctx.Phase {
	case PhaseDescending:
		ctx.Sink.SetFeedback(ChannelDepth, "Go lower")
	case PhaseBottom:
		m.reachedBottom = true
		if m.tooDeep.Update(ctx.KneeAngle < m.cfg.MinKneeAngle) {
			ctx.Sink.SetFeedback(ChannelDepth, "Too deep")
			m.log(Fault{Phase: PhaseBottom, Type: FaultTooDeep, Message: msgTooDeep})
			return
		}
		ctx.Sink.SetFeedback(ChannelDepth, "Good depth")
	case PhaseAscending:
		ctx.Sink.SetFeedback(ChannelDepth, "Drive up")
	}
}

// CheckRepCompletion is called once, on the frame the rep completes, with
// the phase held just before standing back up.
func (m *Depth) CheckRepCompletion(prev Phase, ctx *FrameContext) {
	if prev != PhaseDescending && m.reachedBottom && m.minAngle <= m.cfg.TargetKneeAngle {
		return
	}
	m.log(Fault{Phase: PhaseBottom, Type: FaultShallow, Message: msgShallow, AffectsForm: true})
	ctx.Sink.Instruct(PhaseStanding, FaultShallow, msgShallow)
}

func (m *Depth) Debug() map[string]string {
	d := map[string]string{
		"depth.reached_bottom": fmt.Sprint(m.reachedBottom),
	}
	if !math.IsInf(m.minAngle, 1) {
		d["depth.min_knee"] = fmt.Sprintf("%.1f", m.minAngle)
	}
	return d
}

func (m *Depth) Reset() {
	m.clearFaults()
	m.tooDeep.Reset()
	m.minAngle = math.Inf(1)
	m.reachedBottom = false
}
