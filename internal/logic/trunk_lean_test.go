package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/squat-coach/internal/pose"
)

func TestLeanAngle(t *testing.T) {
	tests := []struct {
		name   string
		clock  float64
		facing pose.Facing
		want   float64
		valid  bool
	}{
		{"left forward", 330, pose.FacingLeft, 30, true},
		{"left backward", 20, pose.FacingLeft, -20, true},
		{"left vertical", 0, pose.FacingLeft, 0, true},
		{"left horizontal forward", 270, pose.FacingLeft, 90, true},
		{"right forward", 30, pose.FacingRight, 30, true},
		{"right backward", 340, pose.FacingRight, -20, true},
		{"right vertical", 360, pose.FacingRight, 0, true},
		{"below hips", 180, pose.FacingLeft, 0, false},
		{"just past horizontal", 91, pose.FacingRight, 0, false},
		{"unknown facing", 330, pose.FacingUnknown, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LeanAngle(tt.clock, tt.facing)
			assert.Equal(t, tt.valid, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func newTestContext(phase Phase) *FrameContext {
	return &FrameContext{
		Time:     testStart,
		Phase:    phase,
		Facing:   pose.FacingLeft,
		Scale:    torsoLen,
		HasScale: true,
		Sink:     NewResultSink(),
	}
}

func leanContext(phase Phase, lean float64) *FrameContext {
	ctx := newTestContext(phase)
	ctx.HasTrunk = true
	ctx.TrunkLean = lean
	ctx.LeanValid = true
	return ctx
}

func TestTrunkLeanForwardFault(t *testing.T) {
	m := NewTrunkLean(DefaultConfig().Lean, 3)

	var last *FrameContext
	for i := 0; i < 3; i++ {
		last = leanContext(PhaseBottom, 45)
		m.Update(last)
	}

	faults := m.Faults()
	require.Len(t, faults, 1)
	assert.Equal(t, Fault{Phase: PhaseBottom, Type: FaultBack, Message: msgLeanForward, AffectsForm: true}, faults[0])
	assert.Equal(t, "Leaning forward 45°", last.Sink.Feedback()[ChannelBack])
	assert.Equal(t, msgLeanForward, last.Sink.Instructions()[PhaseStanding][FaultBack])
}

func TestTrunkLeanNeedsConsecutiveFrames(t *testing.T) {
	m := NewTrunkLean(DefaultConfig().Lean, 3)

	for _, lean := range []float64{45, 45, 10, 45, 45, 10} {
		ctx := leanContext(PhaseDescending, lean)
		m.Update(ctx)
		assert.Equal(t, msgLeanOK, ctx.Sink.Feedback()[ChannelBack])
	}
	assert.Empty(t, m.Faults())
}

func TestTrunkLeanBackwardFault(t *testing.T) {
	m := NewTrunkLean(DefaultConfig().Lean, 2)
	m.Update(leanContext(PhaseAscending, -12))
	ctx := leanContext(PhaseAscending, -12)
	m.Update(ctx)

	faults := m.Faults()
	require.Len(t, faults, 1)
	assert.Equal(t, FaultBackwardLean, faults[0].Type)
	assert.Equal(t, PhaseAscending, faults[0].Phase)
	assert.Equal(t, "Leaning back 12°", ctx.Sink.Feedback()[ChannelBack])
}

func TestTrunkLeanSkipsInvalidFrames(t *testing.T) {
	m := NewTrunkLean(DefaultConfig().Lean, 1)

	ctx := newTestContext(PhaseBottom)
	ctx.HasTrunk = true
	ctx.TrunkLean = 80
	m.Update(ctx)

	assert.Empty(t, m.Faults())
	assert.Empty(t, ctx.Sink.Feedback())
	assert.NotContains(t, m.Debug(), "lean.max")
}

func TestTrunkLeanDedupAndReset(t *testing.T) {
	m := NewTrunkLean(DefaultConfig().Lean, 1)
	for i := 0; i < 20; i++ {
		m.Update(leanContext(PhaseBottom, 50))
	}
	m.Update(leanContext(PhaseAscending, 50))

	assert.Len(t, m.Faults(), 2, "one fault per phase")
	assert.Equal(t, "50.0", m.Debug()["lean.max"])

	m.Reset()
	assert.Empty(t, m.Faults())
	assert.Equal(t, "false", m.Debug()["lean.forward_confirmed"])
}
