package gpio

import "sync"

// LED is the observable state of a FakeIndicator.
type LED string

const (
	LEDOff  LED = "off"
	LEDGood LED = "good"
	LEDBad  LED = "bad"
)

// FakeIndicator records what would have been shown.
type FakeIndicator struct {
	mu sync.Mutex

	// History contains every state set, in order.
	History []LED

	// Closed tracks if Close was called.
	Closed bool

	// Err, if set, is returned by Show and Clear.
	Err error

	state LED
}

// NewFakeIndicator creates a FakeIndicator with both LEDs off.
func NewFakeIndicator() *FakeIndicator {
	return &FakeIndicator{state: LEDOff}
}

func (f *FakeIndicator) Show(correct bool) error {
	if correct {
		return f.set(LEDGood)
	}
	return f.set(LEDBad)
}

func (f *FakeIndicator) Clear() error {
	return f.set(LEDOff)
}

func (f *FakeIndicator) set(s LED) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.state = s
	f.History = append(f.History, s)
	return nil
}

// State returns the current LED state.
func (f *FakeIndicator) State() LED {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Close marks the indicator as closed.
func (f *FakeIndicator) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}
