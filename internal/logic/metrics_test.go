package logic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kneeContext(phase Phase, knee float64) *FrameContext {
	ctx := newTestContext(phase)
	ctx.KneeAngle = knee
	return ctx
}

func TestDepthFeedbackPerPhase(t *testing.T) {
	m := NewDepth(DefaultConfig().Depth, 3)

	tests := []struct {
		phase Phase
		knee  float64
		want  string
	}{
		{PhaseDescending, 130, "Go lower"},
		{PhaseBottom, 90, "Good depth"},
		{PhaseAscending, 120, "Drive up"},
	}
	for _, tt := range tests {
		ctx := kneeContext(tt.phase, tt.knee)
		m.Update(ctx)
		assert.Equal(t, tt.want, ctx.Sink.Feedback()[ChannelDepth], tt.phase)
	}
	assert.Equal(t, "90.0", m.Debug()["depth.min_knee"])
	assert.Equal(t, "true", m.Debug()["depth.reached_bottom"])
}

func TestDepthCompletionOK(t *testing.T) {
	m := NewDepth(DefaultConfig().Depth, 3)
	m.Update(kneeContext(PhaseBottom, 92))

	ctx := kneeContext(PhaseStanding, 170)
	m.CheckRepCompletion(PhaseAscending, ctx)

	assert.Empty(t, m.Faults())
	assert.Empty(t, ctx.Sink.Instructions())
}

func TestDepthCompletionShallow(t *testing.T) {
	tests := []struct {
		name   string
		prev   Phase
		frames []*FrameContext
	}{
		{
			name:   "abandoned during descent",
			prev:   PhaseDescending,
			frames: []*FrameContext{kneeContext(PhaseDescending, 110)},
		},
		{
			name: "bottom never below target",
			prev: PhaseAscending,
			frames: []*FrameContext{
				kneeContext(PhaseBottom, 101),
				kneeContext(PhaseAscending, 120),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig().Depth
			m := NewDepth(cfg, 3)
			for _, ctx := range tt.frames {
				m.Update(ctx)
			}

			ctx := kneeContext(PhaseStanding, 170)
			m.CheckRepCompletion(tt.prev, ctx)

			faults := m.Faults()
			require.Len(t, faults, 1)
			assert.Equal(t, FaultShallow, faults[0].Type)
			assert.Equal(t, PhaseBottom, faults[0].Phase)
			assert.True(t, faults[0].AffectsForm)
			assert.Equal(t, msgShallow, ctx.Sink.Instructions()[PhaseStanding][FaultShallow])
		})
	}
}

func TestDepthTooDeepIsInformational(t *testing.T) {
	m := NewDepth(DefaultConfig().Depth, 2)
	m.Update(kneeContext(PhaseBottom, 45))
	ctx := kneeContext(PhaseBottom, 44)
	m.Update(ctx)

	faults := m.Faults()
	require.Len(t, faults, 1)
	assert.Equal(t, FaultTooDeep, faults[0].Type)
	assert.False(t, faults[0].AffectsForm)
	assert.Equal(t, "Too deep", ctx.Sink.Feedback()[ChannelDepth])
}

func TestDepthReset(t *testing.T) {
	m := NewDepth(DefaultConfig().Depth, 1)
	m.Update(kneeContext(PhaseBottom, 40))
	m.Reset()

	assert.Empty(t, m.Faults())
	assert.NotContains(t, m.Debug(), "depth.min_knee")
	assert.Equal(t, "false", m.Debug()["depth.reached_bottom"])
}

func heelContext(offset float64) *FrameContext {
	ctx := newTestContext(PhaseBottom)
	ctx.HeelOffset = offset
	ctx.HasHeel = true
	return ctx
}

func TestHeelRise(t *testing.T) {
	m := NewHeelRise(DefaultConfig().Heel, 2)

	ctx := heelContext(0)
	m.Update(ctx)
	assert.Equal(t, "Heels grounded", ctx.Sink.Feedback()[ChannelHeel])

	// 0.03 / 0.3 = 0.1 of the scale, above the 0.08 bound.
	m.Update(heelContext(0.03))
	ctx = heelContext(0.03)
	m.Update(ctx)
	assert.Equal(t, "Keep your heels down", ctx.Sink.Feedback()[ChannelHeel])

	faults := m.Faults()
	require.Len(t, faults, 1)
	assert.Equal(t, FaultHeelLift, faults[0].Type)
	assert.False(t, faults[0].AffectsForm)
	assert.Empty(t, ctx.Sink.Instructions(), "heel lift never instructs")
	assert.Equal(t, "0.100", m.Debug()["heel.max_lift"])
}

func TestHeelRiseWithoutScale(t *testing.T) {
	m := NewHeelRise(DefaultConfig().Heel, 1)
	ctx := heelContext(0.05)
	ctx.HasScale = false
	m.Update(ctx)

	assert.Empty(t, m.Faults())
	assert.Empty(t, ctx.Sink.Feedback())
}

func TestTempoDurations(t *testing.T) {
	m := NewTempo(DefaultConfig().Tempo)
	m.OnStateTransition(PhaseStanding, PhaseDescending, testStart)
	m.OnStateTransition(PhaseDescending, PhaseBottom, testStart.Add(1200*time.Millisecond))
	m.OnStateTransition(PhaseBottom, PhaseAscending, testStart.Add(1500*time.Millisecond))

	ctx := newTestContext(PhaseAscending)
	ctx.Time = testStart.Add(2000 * time.Millisecond)
	m.Update(ctx)
	assert.Equal(t, "ascending 0.5s", ctx.Sink.Feedback()[ChannelTempo])

	m.OnStateTransition(PhaseAscending, PhaseStanding, testStart.Add(2400*time.Millisecond))
	sink := NewResultSink()
	m.EvaluateRep(sink)

	assert.Empty(t, m.Faults())
	assert.Equal(t, map[string]string{
		"tempo.descent_ms": "1200",
		"tempo.pause_ms":   "300",
		"tempo.ascent_ms":  "900",
	}, m.Debug())
}

func TestTempoFastDescent(t *testing.T) {
	m := NewTempo(DefaultConfig().Tempo)
	m.OnStateTransition(PhaseStanding, PhaseDescending, testStart)
	m.OnStateTransition(PhaseDescending, PhaseBottom, testStart.Add(400*time.Millisecond))
	m.OnStateTransition(PhaseBottom, PhaseAscending, testStart.Add(500*time.Millisecond))
	m.OnStateTransition(PhaseAscending, PhaseStanding, testStart.Add(1200*time.Millisecond))

	sink := NewResultSink()
	m.EvaluateRep(sink)

	faults := m.Faults()
	require.Len(t, faults, 1)
	assert.Equal(t, Fault{Phase: PhaseDescending, Type: FaultFastDescent, Message: msgFastDescent, AffectsForm: true}, faults[0])
	assert.Equal(t, msgFastDescent, sink.Instructions()[PhaseStanding][FaultFastDescent])
}

func TestTempoSlowRep(t *testing.T) {
	m := NewTempo(DefaultConfig().Tempo)
	m.OnStateTransition(PhaseStanding, PhaseDescending, testStart)
	m.OnStateTransition(PhaseDescending, PhaseBottom, testStart.Add(time.Second))
	m.OnStateTransition(PhaseBottom, PhaseAscending, testStart.Add(8*time.Second))
	m.OnStateTransition(PhaseAscending, PhaseStanding, testStart.Add(9*time.Second))

	sink := NewResultSink()
	m.EvaluateRep(sink)

	faults := m.Faults()
	require.Len(t, faults, 1)
	assert.Equal(t, FaultSlowRep, faults[0].Type)
	assert.False(t, faults[0].AffectsForm)
	assert.Empty(t, sink.Instructions())
}

func TestTempoAbandonedRep(t *testing.T) {
	m := NewTempo(DefaultConfig().Tempo)
	m.OnStateTransition(PhaseStanding, PhaseDescending, testStart)
	m.OnStateTransition(PhaseDescending, PhaseStanding, testStart.Add(300*time.Millisecond))

	m.EvaluateRep(NewResultSink())
	assert.Empty(t, m.Faults(), "no descent duration without reaching the bottom")
	assert.Empty(t, m.Debug())
}

func syncContext(hipY, shoulderY float64) *FrameContext {
	ctx := newTestContext(PhaseAscending)
	ctx.KneeY = 0.7
	ctx.HipY = hipY
	ctx.ShoulderY = shoulderY
	ctx.HasSync = true
	return ctx
}

func TestHipShoulderSyncTogether(t *testing.T) {
	m := NewHipShoulderSync(DefaultConfig().Sync, 2)
	for i := 0; i < 5; i++ {
		rise := float64(i) * 0.02
		ctx := syncContext(0.69-rise, 0.40-rise)
		m.Update(ctx)
		assert.Equal(t, "Hips and shoulders together", ctx.Sink.Feedback()[ChannelSync])
	}
	assert.Empty(t, m.Faults())
}

func TestHipShoulderSyncHipsFirst(t *testing.T) {
	m := NewHipShoulderSync(DefaultConfig().Sync, 2)
	m.Update(syncContext(0.69, 0.40))

	// Hips rise 0.06 (0.2 of scale) with the shoulders fixed.
	m.Update(syncContext(0.63, 0.40))
	ctx := syncContext(0.63, 0.40)
	m.Update(ctx)

	faults := m.Faults()
	require.Len(t, faults, 1)
	assert.Equal(t, Fault{Phase: PhaseAscending, Type: FaultHipsFirst, Message: msgHipsFirst, AffectsForm: true}, faults[0])
	assert.Equal(t, "Chest up, hips are rising first", ctx.Sink.Feedback()[ChannelSync])
	assert.Equal(t, msgHipsFirst, ctx.Sink.Instructions()[PhaseStanding][FaultHipsFirst])
	assert.Equal(t, "0.200", m.Debug()["sync.max_hip_lead"])
}

func TestHipShoulderSyncIgnoresOtherPhases(t *testing.T) {
	m := NewHipShoulderSync(DefaultConfig().Sync, 1)
	ctx := syncContext(0.5, 0.4)
	ctx.Phase = PhaseBottom
	m.Update(ctx)

	assert.Empty(t, ctx.Sink.Feedback())
	assert.Equal(t, "0.000", m.Debug()["sync.max_hip_lead"])
}

func TestFaultLogDedup(t *testing.T) {
	var l faultLog
	f := Fault{Phase: PhaseBottom, Type: FaultBack}

	assert.True(t, l.log(f))
	assert.False(t, l.log(f))
	assert.True(t, l.log(Fault{Phase: PhaseAscending, Type: FaultBack}))
	assert.Len(t, l.Faults(), 2)

	l.clearFaults()
	assert.Empty(t, l.Faults())
	assert.True(t, l.log(f))
}
