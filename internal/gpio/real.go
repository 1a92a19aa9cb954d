//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/multierr"
)

// RealIndicator drives two LEDs through the Linux GPIO character device.
type RealIndicator struct {
	chip *gpiocdev.Chip
	good *gpiocdev.Line
	bad  *gpiocdev.Line
}

// NewRealIndicator requests pinGood and pinBad as outputs, both off.
func NewRealIndicator(pinGood, pinBad int) (*RealIndicator, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	good, err := chip.RequestLine(pinGood, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("squat-coach"))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request good pin %d: %w", pinGood, err)
	}

	bad, err := chip.RequestLine(pinBad, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("squat-coach"))
	if err != nil {
		good.Close()
		chip.Close()
		return nil, fmt.Errorf("request bad pin %d: %w", pinBad, err)
	}

	return &RealIndicator{chip: chip, good: good, bad: bad}, nil
}

// Show lights exactly one LED.
func (r *RealIndicator) Show(correct bool) error {
	g, b := 0, 1
	if correct {
		g, b = 1, 0
	}
	return r.set(g, b)
}

// Clear switches both LEDs off.
func (r *RealIndicator) Clear() error {
	return r.set(0, 0)
}

func (r *RealIndicator) set(good, bad int) error {
	var err error
	if e := r.good.SetValue(good); e != nil {
		err = multierr.Append(err, fmt.Errorf("set good pin: %w", e))
	}
	if e := r.bad.SetValue(bad); e != nil {
		err = multierr.Append(err, fmt.Errorf("set bad pin: %w", e))
	}
	return err
}

// Close switches the LEDs off and returns the lines to inputs with
// pull-down, matching the Pi boot defaults, before releasing them.
func (r *RealIndicator) Close() error {
	var err error
	for _, l := range []struct {
		name string
		line *gpiocdev.Line
	}{{"good", r.good}, {"bad", r.bad}} {
		name, line := l.name, l.line
		if line == nil {
			continue
		}
		if e := line.SetValue(0); e != nil {
			err = multierr.Append(err, fmt.Errorf("switch off %s pin: %w", name, e))
		}
		if e := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); e != nil {
			err = multierr.Append(err, fmt.Errorf("reconfigure %s pin: %w", name, e))
		}
		if e := line.Close(); e != nil {
			err = multierr.Append(err, fmt.Errorf("close %s pin: %w", name, e))
		}
	}
	if r.chip != nil {
		if e := r.chip.Close(); e != nil {
			err = multierr.Append(err, fmt.Errorf("close chip: %w", e))
		}
	}
	return err
}
