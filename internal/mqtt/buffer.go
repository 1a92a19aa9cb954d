package mqtt

// bufferedMsg is one serialized message awaiting replay.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO of rep and system messages published
// while the broker is unreachable. When full, the oldest message is
// overwritten. Callers synchronize.
type ringBuffer struct {
	buf     []bufferedMsg
	start   int // oldest message
	count   int
	dropped int // overwritten since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer{buf: make([]bufferedMsg, capacity)}
}

// push appends msg and reports whether an older message was dropped to
// make room.
func (r *ringBuffer) push(msg bufferedMsg) bool {
	end := (r.start + r.count) % len(r.buf)
	r.buf[end] = msg
	if r.count < len(r.buf) {
		r.count++
		return false
	}
	r.start = (r.start + 1) % len(r.buf)
	r.dropped++
	return true
}

// drainAll returns the buffered messages oldest first, and how many were
// lost to overflow, then empties the buffer.
func (r *ringBuffer) drainAll() ([]bufferedMsg, int) {
	dropped := r.dropped
	if r.count == 0 {
		r.dropped = 0
		return nil, dropped
	}

	out := make([]bufferedMsg, r.count)
	for i := range out {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
		r.buf[(r.start+i)%len(r.buf)] = bufferedMsg{}
	}
	r.start, r.count, r.dropped = 0, 0, 0
	return out, dropped
}

func (r *ringBuffer) len() int {
	return r.count
}
