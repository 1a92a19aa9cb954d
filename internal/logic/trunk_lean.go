package logic

import (
	"fmt"

	"github.com/sweeney/squat-coach/internal/pose"
)

const (
	msgLeanForward  = "Keep your chest up, you are leaning too far forward"
	msgLeanBackward = "Don't lean back, keep your torso over your feet"
	msgLeanOK       = "Back angle OK"
)

// LeanAngle converts a hip->shoulder clock angle into a signed trunk lean,
// positive = forward, for a subject facing the given direction.
//
// Facing left, a forward lean tips the shoulder toward -x, so clock angles
// in [270, 360) are forward leans of 360-clock and [0, 90] are backward
// leans of -clock. Facing right mirrors this. Anything in (90, 270) would
// put the shoulders below the hips and is reported invalid, as is an unknown
// facing.
func LeanAngle(clock float64, facing pose.Facing) (float64, bool) {
	clock = pose.NormalizeDegrees(clock)

	var forward, backward bool
	var lean float64
	switch facing {
	case pose.FacingLeft:
		switch {
		case clock >= 270:
			lean, forward = 360-clock, true
		case clock <= 90:
			lean, backward = -clock, true
		}
	case pose.FacingRight:
		switch {
		case clock <= 90:
			lean, forward = clock, true
		case clock >= 270:
			lean, backward = -(360 - clock), true
		}
	}
	if !forward && !backward {
		return 0, false
	}
	if lean == 0 {
		lean = 0 // drop the sign of -0
	}
	return lean, true
}

// TrunkLean flags excessive forward or backward torso lean.
type TrunkLean struct {
	noTransitions
	faultLog

	cfg LeanConfig

	// Separate filters: a subject can swing from forward to backward
	// within one rep without a neutral run in between.
	forward  *Hysteresis
	backward *Hysteresis

	maxLean            float64
	hasLean            bool
	instructedForward  bool
	instructedBackward bool
}

// NewTrunkLean creates the trunk lean metric.
func NewTrunkLean(cfg LeanConfig, hysteresisFrames int) *TrunkLean {
	return &TrunkLean{
		cfg:      cfg,
		forward:  NewHysteresis(hysteresisFrames),
		backward: NewHysteresis(hysteresisFrames),
	}
}

func (m *TrunkLean) Name() string { return "lean" }

func (m *TrunkLean) Update(ctx *FrameContext) {
	if !ctx.HasTrunk || !ctx.LeanValid {
		return
	}
	lean := ctx.TrunkLean
	if !m.hasLean || lean > m.maxLean {
		m.maxLean = lean
		m.hasLean = true
	}

	forward := m.forward.Update(lean > m.cfg.MaxForward)
	backward := m.backward.Update(lean < -m.cfg.MaxBackward)

	switch {
	case forward:
		ctx.Sink.SetFeedback(ChannelBack, fmt.Sprintf("Leaning forward %.0f°", lean))
		m.log(Fault{Phase: ctx.Phase, Type: FaultBack, Message: msgLeanForward, AffectsForm: true})
		if !m.instructedForward {
			ctx.Sink.Instruct(PhaseStanding, FaultBack, msgLeanForward)
			m.instructedForward = true
		}
	case backward:
		ctx.Sink.SetFeedback(ChannelBack, fmt.Sprintf("Leaning back %.0f°", -lean))
		m.log(Fault{Phase: ctx.Phase, Type: FaultBackwardLean, Message: msgLeanBackward, AffectsForm: true})
		if !m.instructedBackward {
			ctx.Sink.Instruct(PhaseStanding, FaultBackwardLean, msgLeanBackward)
			m.instructedBackward = true
		}
	default:
		ctx.Sink.SetFeedback(ChannelBack, msgLeanOK)
	}
}

func (m *TrunkLean) Debug() map[string]string {
	d := map[string]string{
		"lean.forward_confirmed":  fmt.Sprint(m.forward.Confirmed()),
		"lean.backward_confirmed": fmt.Sprint(m.backward.Confirmed()),
	}
	if m.hasLean {
		d["lean.max"] = fmt.Sprintf("%.1f", m.maxLean)
	}
	return d
}

func (m *TrunkLean) Reset() {
	m.clearFaults()
	m.forward.Reset()
	m.backward.Reset()
	m.maxLean = 0
	m.hasLean = false
	m.instructedForward = false
	m.instructedBackward = false
}
