package logic

// ResultSink collects what metrics want to show. Feedback lives for one
// frame; instructions live for one repetition and are shown once it ends.
// Each metric writes only its own channel and fault-type keys.
type ResultSink struct {
	feedback     map[Channel]string
	instructions map[Phase]map[FaultType]string
}

// NewResultSink creates an empty sink.
func NewResultSink() *ResultSink {
	return &ResultSink{
		feedback:     make(map[Channel]string),
		instructions: make(map[Phase]map[FaultType]string),
	}
}

// SetFeedback replaces the transient message on ch for this frame.
func (s *ResultSink) SetFeedback(ch Channel, msg string) {
	s.feedback[ch] = msg
}

// Instruct records a coaching instruction to display during phase.
func (s *ResultSink) Instruct(phase Phase, ft FaultType, msg string) {
	m, ok := s.instructions[phase]
	if !ok {
		m = make(map[FaultType]string)
		s.instructions[phase] = m
	}
	m[ft] = msg
}

// Feedback returns a copy of this frame's feedback.
func (s *ResultSink) Feedback() map[Channel]string {
	out := make(map[Channel]string, len(s.feedback))
	for k, v := range s.feedback {
		out[k] = v
	}
	return out
}

// Instructions returns a deep copy of the pending instructions.
func (s *ResultSink) Instructions() map[Phase]map[FaultType]string {
	out := make(map[Phase]map[FaultType]string, len(s.instructions))
	for phase, m := range s.instructions {
		cp := make(map[FaultType]string, len(m))
		for k, v := range m {
			cp[k] = v
		}
		out[phase] = cp
	}
	return out
}

func (s *ResultSink) clearFeedback() {
	clear(s.feedback)
}

func (s *ResultSink) clearInstructions() {
	clear(s.instructions)
}
