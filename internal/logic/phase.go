package logic

// validTransitions is the forward phase order. The only backward edge is
// the completion shortcut to standing, allowed from every active phase.
var validTransitions = map[Phase]map[Phase]bool{
	PhaseStanding:   {PhaseDescending: true},
	PhaseDescending: {PhaseBottom: true, PhaseStanding: true},
	PhaseBottom:     {PhaseAscending: true, PhaseStanding: true},
	PhaseAscending:  {PhaseStanding: true},
}

// IsValidTransition checks if a phase transition is legal.
func IsValidTransition(from, to Phase) bool {
	return validTransitions[from][to]
}

// PhaseMachine classifies the squat phase from the knee flexion angle.
type PhaseMachine struct {
	th    PhaseThresholds
	phase Phase
}

// NewPhaseMachine creates a machine in the standing phase.
func NewPhaseMachine(th PhaseThresholds) *PhaseMachine {
	return &PhaseMachine{th: th, phase: PhaseStanding}
}

// Phase returns the current phase.
func (m *PhaseMachine) Phase() Phase {
	return m.phase
}

// Step feeds one knee angle and returns the new phase and whether it
// changed. At most one transition happens per frame; an angle matching no
// rule leaves the phase unchanged.
func (m *PhaseMachine) Step(kneeAngle float64) (Phase, bool) {
	next := m.next(kneeAngle)
	if next == m.phase || !IsValidTransition(m.phase, next) {
		return m.phase, false
	}
	m.phase = next
	return next, true
}

func (m *PhaseMachine) next(angle float64) Phase {
	// Completion is checked first so a fast stand-up is never missed.
	if m.phase != PhaseStanding && angle > m.th.StandAngle {
		return PhaseStanding
	}

	switch m.phase {
	case PhaseStanding:
		if angle <= m.th.DescendAngle {
			return PhaseDescending
		}
	case PhaseDescending:
		if angle <= m.th.BottomLower {
			return PhaseBottom
		}
	case PhaseBottom:
		if angle > m.th.BottomUpper+m.th.AscendMargin {
			return PhaseAscending
		}
	}
	return m.phase
}

// Reset returns the machine to standing without reporting a transition.
func (m *PhaseMachine) Reset() {
	m.phase = PhaseStanding
}
