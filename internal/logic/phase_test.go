package logic

import "testing"

func TestPhaseMachineFullRep(t *testing.T) {
	m := NewPhaseMachine(DefaultConfig().Phase)

	tests := []struct {
		angle   float64
		want    Phase
		changed bool
	}{
		{170, PhaseStanding, false},
		{155, PhaseStanding, false},
		{145, PhaseDescending, true},
		{120, PhaseDescending, false},
		{90, PhaseBottom, true},
		{104, PhaseBottom, false},
		{110, PhaseAscending, true},
		{150, PhaseAscending, false},
		{165, PhaseStanding, true},
		{170, PhaseStanding, false},
	}

	for i, tt := range tests {
		got, changed := m.Step(tt.angle)
		if got != tt.want || changed != tt.changed {
			t.Errorf("step %d (angle %.0f): expected (%s, %v), got (%s, %v)",
				i, tt.angle, tt.want, tt.changed, got, changed)
		}
	}
}

func TestPhaseMachineStandShortcut(t *testing.T) {
	for _, from := range []Phase{PhaseDescending, PhaseBottom} {
		t.Run(string(from), func(t *testing.T) {
			m := NewPhaseMachine(DefaultConfig().Phase)
			m.Step(140)
			if from == PhaseBottom {
				m.Step(90)
			}
			if m.Phase() != from {
				t.Fatalf("setup: expected %s, got %s", from, m.Phase())
			}

			got, changed := m.Step(175)
			if got != PhaseStanding || !changed {
				t.Errorf("expected shortcut to standing, got (%s, %v)", got, changed)
			}
		})
	}
}

func TestPhaseMachineOneTransitionPerFrame(t *testing.T) {
	m := NewPhaseMachine(DefaultConfig().Phase)

	// 40 degrees satisfies both the descend and bottom rules.
	got, _ := m.Step(40)
	if got != PhaseDescending {
		t.Fatalf("expected descending, got %s", got)
	}
	got, _ = m.Step(40)
	if got != PhaseBottom {
		t.Errorf("expected bottom on the next frame, got %s", got)
	}
}

func TestPhaseMachineReset(t *testing.T) {
	m := NewPhaseMachine(DefaultConfig().Phase)
	m.Step(140)
	m.Reset()
	if m.Phase() != PhaseStanding {
		t.Errorf("expected standing after reset, got %s", m.Phase())
	}
}

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from, to Phase
		want     bool
	}{
		{PhaseStanding, PhaseDescending, true},
		{PhaseDescending, PhaseBottom, true},
		{PhaseBottom, PhaseAscending, true},
		{PhaseAscending, PhaseStanding, true},
		{PhaseDescending, PhaseStanding, true},
		{PhaseBottom, PhaseStanding, true},
		{PhaseStanding, PhaseBottom, false},
		{PhaseAscending, PhaseBottom, false},
		{PhaseBottom, PhaseDescending, false},
		{PhaseStanding, PhaseStanding, false},
	}

	for _, tt := range tests {
		if got := IsValidTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("IsValidTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
