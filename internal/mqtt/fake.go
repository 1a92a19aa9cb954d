package mqtt

import "sync"

// FakeClient records published events and replays scripted frames for test
// assertions. It is safe for use from the run loop and the test goroutine.
type FakeClient struct {
	mu sync.Mutex

	// Reps contains all rep events that were published.
	Reps []RepEvent

	// RepPayloads contains the JSON payloads for rep events.
	RepPayloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by PublishRep.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool

	frames chan<- []byte
}

// NewFakeClient creates a FakeClient for testing.
func NewFakeClient() *FakeClient {
	return &FakeClient{}
}

// PublishRep records the rep event.
func (f *FakeClient) PublishRep(event RepEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatRepPayload(event)
	if err != nil {
		return err
	}
	f.Reps = append(f.Reps, event)
	f.RepPayloads = append(f.RepPayloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakeClient) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// SubscribeFrames remembers out so Deliver can feed it.
func (f *FakeClient) SubscribeFrames(out chan<- []byte) error {
	f.mu.Lock()
	f.frames = out
	f.mu.Unlock()
	return nil
}

// Deliver pushes a frame payload to the subscriber, blocking until it is
// accepted. It panics if nothing subscribed.
func (f *FakeClient) Deliver(payload []byte) {
	f.mu.Lock()
	out := f.frames
	f.mu.Unlock()
	if out == nil {
		panic("mqtt: Deliver before SubscribeFrames")
	}
	out <- payload
}

// Close marks the client as closed.
func (f *FakeClient) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// IsConnected reports whether the fake client is "connected".
func (f *FakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// SetConnected changes the reported connection state.
func (f *FakeClient) SetConnected(v bool) {
	f.mu.Lock()
	f.Connected = v
	f.mu.Unlock()
}

// RepSnapshot returns a copy of the recorded rep events.
func (f *FakeClient) RepSnapshot() []RepEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RepEvent, len(f.Reps))
	copy(out, f.Reps)
	return out
}

// SystemSnapshot returns a copy of the recorded system events.
func (f *FakeClient) SystemSnapshot() []SystemEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SystemEvent, len(f.SystemEvents))
	copy(out, f.SystemEvents)
	return out
}

// Reset clears recorded events.
func (f *FakeClient) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reps = nil
	f.RepPayloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
