package pose

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/geo/r2"
)

// FramePayload is the JSON shape of a pose frame published by the tracker.
type FramePayload struct {
	TimestampMs int64                `json:"ts_ms"`
	Facing      string               `json:"facing"`
	Scale       float64              `json:"scale,omitempty"`
	Landmarks   map[string]PointJSON `json:"landmarks"`
}

// PointJSON is a single landmark position.
type PointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

var knownJoints = map[Joint]bool{
	Shoulder: true,
	Hip:      true,
	Knee:     true,
	Ankle:    true,
	Heel:     true,
	Toe:      true,
}

// DecodeFrame parses a tracker payload. Unknown landmark names are ignored;
// a zero timestamp is left as the zero time for the caller to stamp.
func DecodeFrame(data []byte) (Frame, error) {
	var p FramePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}

	facing := Facing(p.Facing)
	switch facing {
	case FacingLeft, FacingRight, FacingUnknown:
	default:
		return Frame{}, fmt.Errorf("decode frame: unknown facing %q", p.Facing)
	}

	f := Frame{
		Facing:    facing,
		Scale:     p.Scale,
		Landmarks: make(map[Joint]r2.Point, len(p.Landmarks)),
	}
	if p.TimestampMs > 0 {
		f.Time = time.UnixMilli(p.TimestampMs).UTC()
	}
	for name, pt := range p.Landmarks {
		j := Joint(name)
		if !knownJoints[j] {
			continue
		}
		f.Landmarks[j] = r2.Point{X: pt.X, Y: pt.Y}
	}
	return f, nil
}

// EncodeFrame is the inverse of DecodeFrame. Used by tools and tests that
// replay recorded frames onto the broker.
func EncodeFrame(f Frame) ([]byte, error) {
	p := FramePayload{
		Facing:    string(f.Facing),
		Scale:     f.Scale,
		Landmarks: make(map[string]PointJSON, len(f.Landmarks)),
	}
	if !f.Time.IsZero() {
		p.TimestampMs = f.Time.UnixMilli()
	}
	for j, pt := range f.Landmarks {
		p.Landmarks[string(j)] = PointJSON{X: pt.X, Y: pt.Y}
	}
	return json.Marshal(p)
}
