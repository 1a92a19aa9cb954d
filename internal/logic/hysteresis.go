package logic

// Hysteresis debounces a per-frame boolean condition. A true condition is
// confirmed once it has held for the required number of consecutive frames;
// the first frame that disagrees drops the confirmation immediately.
type Hysteresis struct {
	required  int
	value     bool
	run       int
	confirmed bool
}

// NewHysteresis creates a filter that confirms after required consecutive
// true inputs. Values below 1 are treated as 1.
func NewHysteresis(required int) *Hysteresis {
	if required < 1 {
		required = 1
	}
	return &Hysteresis{required: required}
}

// Update feeds one frame's condition and returns whether it is confirmed.
func (h *Hysteresis) Update(cond bool) bool {
	if h.run == 0 || cond != h.value {
		h.value = cond
		h.run = 1
	} else if h.run < h.required {
		h.run++
	}
	h.confirmed = h.value && h.run >= h.required
	return h.confirmed
}

// Confirmed returns the result of the last Update.
func (h *Hysteresis) Confirmed() bool {
	return h.confirmed
}

// Reset clears the run and un-confirms.
func (h *Hysteresis) Reset() {
	h.value = false
	h.run = 0
	h.confirmed = false
}
