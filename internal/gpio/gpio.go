// Package gpio drives the rep verdict LEDs with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Indicator shows the verdict of the last repetition.
type Indicator interface {
	// Show lights the good LED when correct is true, the bad LED
	// otherwise. The other LED is switched off.
	Show(correct bool) error

	// Clear switches both LEDs off.
	Clear() error

	// Close releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinGood = 17 // green
	DefaultPinBad  = 27 // red
)

// Nop is an Indicator that does nothing, used when GPIO is disabled.
type Nop struct{}

func (Nop) Show(bool) error { return nil }
func (Nop) Clear() error    { return nil }
func (Nop) Close() error    { return nil }
