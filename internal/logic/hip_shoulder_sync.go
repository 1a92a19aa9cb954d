package logic

import "fmt"

const msgHipsFirst = "Drive your chest up with your hips, don't let the hips shoot up first"

// HipShoulderSync checks that hips and shoulders rise together on the way
// up. Heights are measured above the knee so camera bob cancels out.
type HipShoulderSync struct {
	noTransitions
	faultLog

	cfg      SyncConfig
	hipsLead *Hysteresis

	captured     bool
	baseHip      float64
	baseShoulder float64
	maxLead      float64
	instructed   bool
}

// NewHipShoulderSync creates the hip-shoulder synchrony metric.
func NewHipShoulderSync(cfg SyncConfig, hysteresisFrames int) *HipShoulderSync {
	return &HipShoulderSync{cfg: cfg, hipsLead: NewHysteresis(hysteresisFrames)}
}

func (m *HipShoulderSync) Name() string { return "sync" }

func (m *HipShoulderSync) Update(ctx *FrameContext) {
	if ctx.Phase != PhaseAscending || !ctx.HasSync {
		return
	}
	hip, ok := ctx.Normalize(ctx.KneeY - ctx.HipY)
	if !ok {
		return
	}
	shoulder, _ := ctx.Normalize(ctx.KneeY - ctx.ShoulderY)

	if !m.captured {
		m.baseHip, m.baseShoulder = hip, shoulder
		m.captured = true
	}

	lead := (hip - m.baseHip) - (shoulder - m.baseShoulder)
	if lead > m.maxLead {
		m.maxLead = lead
	}

	if m.hipsLead.Update(lead > m.cfg.MaxHipLead) {
		ctx.Sink.SetFeedback(ChannelSync, "Chest up, hips are rising first")
		m.log(Fault{Phase: PhaseAscending, Type: FaultHipsFirst, Message: msgHipsFirst, AffectsForm: true})
		if !m.instructed {
			ctx.Sink.Instruct(PhaseStanding, FaultHipsFirst, msgHipsFirst)
			m.instructed = true
		}
		return
	}
	ctx.Sink.SetFeedback(ChannelSync, "Hips and shoulders together")
}

func (m *HipShoulderSync) Debug() map[string]string {
	return map[string]string{
		"sync.max_hip_lead": fmt.Sprintf("%.3f", m.maxLead),
	}
}

func (m *HipShoulderSync) Reset() {
	m.clearFaults()
	m.hipsLead.Reset()
	m.captured = false
	m.baseHip, m.baseShoulder = 0, 0
	m.maxLead = 0
	m.instructed = false
}
