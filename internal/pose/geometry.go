package pose

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// JointAngle returns the angle in degrees at vertex b formed by the segments
// b->a and b->c, in [0, 180].
func JointAngle(f Frame, a, b, c Joint) (float64, error) {
	pa, err := f.Point(a)
	if err != nil {
		return 0, err
	}
	pb, err := f.Point(b)
	if err != nil {
		return 0, err
	}
	pc, err := f.Point(c)
	if err != nil {
		return 0, err
	}
	return angleBetween(pa.Sub(pb), pc.Sub(pb), b)
}

func angleBetween(u, v r2.Point, at Joint) (float64, error) {
	if u.Norm() == 0 || v.Norm() == 0 {
		return 0, fmt.Errorf("%w: zero-length segment at %s", ErrDegenerateGeometry, at)
	}
	return degrees(math.Atan2(math.Abs(u.Cross(v)), u.Dot(v))), nil
}

// ClockAngle returns the direction of the segment from->to measured
// clockwise from image-up, in [0, 360). A segment pointing straight up is 0,
// one leaning toward +x is in (0, 90].
func ClockAngle(f Frame, from, to Joint) (float64, error) {
	pf, err := f.Point(from)
	if err != nil {
		return 0, err
	}
	pt, err := f.Point(to)
	if err != nil {
		return 0, err
	}
	d := pt.Sub(pf)
	if d.Norm() == 0 {
		return 0, fmt.Errorf("%w: %s and %s coincide", ErrDegenerateGeometry, from, to)
	}
	// y grows downward, so image-up is -y.
	return NormalizeDegrees(degrees(math.Atan2(d.X, -d.Y))), nil
}

// VerticalOffset returns how far upper sits above lower, positive when upper
// is higher in the image.
func VerticalOffset(f Frame, upper, lower Joint) (float64, error) {
	uy, err := f.Y(upper)
	if err != nil {
		return 0, err
	}
	ly, err := f.Y(lower)
	if err != nil {
		return 0, err
	}
	return ly - uy, nil
}

// Distance returns the Euclidean distance between two joints.
func Distance(f Frame, a, b Joint) (float64, error) {
	pa, err := f.Point(a)
	if err != nil {
		return 0, err
	}
	pb, err := f.Point(b)
	if err != nil {
		return 0, err
	}
	return pa.Sub(pb).Norm(), nil
}

// NormalizeDegrees maps any angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
