package logic

import (
	"time"

	"github.com/sweeney/squat-coach/internal/pose"
)

// FrameContext is the per-frame view every metric reads. It is built once
// per frame by the Aggregator and must not be modified by metrics, except
// through Sink.
//
// The Has* flags mark fields that could be derived this frame. A metric
// whose inputs are missing skips the frame and leaves its state unchanged.
type FrameContext struct {
	Time   time.Time
	Phase  Phase
	Facing pose.Facing

	KneeAngle float64 // flexion at the knee, 180 = straight leg

	ClockAngle float64 // hip->shoulder direction, clockwise from vertical
	HasTrunk   bool
	TrunkLean  float64 // signed, positive = forward
	LeanValid  bool    // false when the clock angle is outside the valid range

	HeelOffset float64 // heel height above toe, raw image units
	HasHeel    bool

	Scale    float64
	HasScale bool

	HipY      float64
	ShoulderY float64
	KneeY     float64
	HasSync   bool

	Sink *ResultSink
}

// Normalize divides a raw distance by the scale factor.
func (c *FrameContext) Normalize(d float64) (float64, bool) {
	if !c.HasScale || c.Scale <= 0 {
		return 0, false
	}
	return d / c.Scale, true
}

func buildContext(f pose.Frame, knee float64, phase Phase, sink *ResultSink) *FrameContext {
	ctx := &FrameContext{
		Time:      f.Time,
		Phase:     phase,
		Facing:    f.Facing,
		KneeAngle: knee,
		Sink:      sink,
	}

	if clock, err := pose.ClockAngle(f, pose.Hip, pose.Shoulder); err == nil {
		ctx.ClockAngle = clock
		ctx.HasTrunk = true
		ctx.TrunkLean, ctx.LeanValid = LeanAngle(clock, f.Facing)
	}

	if off, err := pose.VerticalOffset(f, pose.Heel, pose.Toe); err == nil {
		ctx.HeelOffset = off
		ctx.HasHeel = true
	}

	if s, err := f.ResolveScale(); err == nil {
		ctx.Scale = s
		ctx.HasScale = true
	}

	hipY, errHip := f.Y(pose.Hip)
	shoulderY, errShoulder := f.Y(pose.Shoulder)
	kneeY, errKnee := f.Y(pose.Knee)
	if errHip == nil && errShoulder == nil && errKnee == nil {
		ctx.HipY, ctx.ShoulderY, ctx.KneeY = hipY, shoulderY, kneeY
		ctx.HasSync = true
	}

	return ctx
}
