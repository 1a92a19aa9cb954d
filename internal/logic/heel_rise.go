package logic

import "fmt"

// HeelRise reports heels leaving the floor. It is informational: a heel
// lift does not fail the rep.
type HeelRise struct {
	noTransitions
	faultLog

	cfg    HeelConfig
	lifted *Hysteresis

	maxLift float64
}

// NewHeelRise creates the heel rise metric.
func NewHeelRise(cfg HeelConfig, hysteresisFrames int) *HeelRise {
	return &HeelRise{cfg: cfg, lifted: NewHysteresis(hysteresisFrames)}
}

func (m *HeelRise) Name() string { return "heel" }

func (m *HeelRise) Update(ctx *FrameContext) {
	if !ctx.HasHeel {
		return
	}
	lift, ok := ctx.Normalize(ctx.HeelOffset)
	if !ok {
		return
	}
	if lift > m.maxLift {
		m.maxLift = lift
	}

	if m.lifted.Update(lift > m.cfg.MaxLift) {
		ctx.Sink.SetFeedback(ChannelHeel, "Keep your heels down")
		m.log(Fault{Phase: ctx.Phase, Type: FaultHeelLift, Message: "Heels lifted off the floor"})
		return
	}
	ctx.Sink.SetFeedback(ChannelHeel, "Heels grounded")
}

func (m *HeelRise) Debug() map[string]string {
	return map[string]string{
		"heel.max_lift": fmt.Sprintf("%.3f", m.maxLift),
	}
}

func (m *HeelRise) Reset() {
	m.clearFaults()
	m.lifted.Reset()
	m.maxLift = 0
}
