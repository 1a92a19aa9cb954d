// Package pose holds the per-frame pose snapshot handed to the rep engine and
// the landmark geometry used to derive angles and distances from it.
//
// Snapshots arrive already smoothed, orientation-tagged and filtered to a
// single subject. Nothing here tracks state across frames.
package pose

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang/geo/r2"
)

// Joint names a side-resolved body landmark. The upstream tracker picks the
// side facing the camera, so each joint appears at most once per frame.
type Joint string

const (
	Shoulder Joint = "shoulder"
	Hip      Joint = "hip"
	Knee     Joint = "knee"
	Ankle    Joint = "ankle"
	Heel     Joint = "heel"
	Toe      Joint = "toe"
)

// Facing is the direction the subject faces in image coordinates.
type Facing string

const (
	FacingUnknown Facing = ""
	FacingLeft    Facing = "left"
	FacingRight   Facing = "right"
)

var (
	// ErrMissingLandmark is returned when a joint needed for a computation is
	// absent from the frame.
	ErrMissingLandmark = errors.New("pose: missing landmark")

	// ErrDegenerateGeometry is returned when a segment has zero length, so
	// the requested angle or ratio is undefined.
	ErrDegenerateGeometry = errors.New("pose: degenerate geometry")
)

// Frame is one pose snapshot. Landmark coordinates are image coordinates
// with y growing downward.
type Frame struct {
	Time      time.Time
	Facing    Facing
	Scale     float64 // reference segment length; <= 0 means not supplied
	Landmarks map[Joint]r2.Point
}

// Point returns the position of j.
func (f Frame) Point(j Joint) (r2.Point, error) {
	p, ok := f.Landmarks[j]
	if !ok {
		return r2.Point{}, fmt.Errorf("%w: %s", ErrMissingLandmark, j)
	}
	return p, nil
}

// Y returns the vertical image coordinate of j.
func (f Frame) Y(j Joint) (float64, error) {
	p, err := f.Point(j)
	if err != nil {
		return 0, err
	}
	return p.Y, nil
}

// ResolveScale returns the supplied scale factor, falling back to the
// hip-shoulder (torso) length when the tracker did not provide one.
func (f Frame) ResolveScale() (float64, error) {
	if f.Scale > 0 {
		return f.Scale, nil
	}
	d, err := Distance(f, Hip, Shoulder)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("%w: zero torso length", ErrDegenerateGeometry)
	}
	return d, nil
}
