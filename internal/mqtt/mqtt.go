// Package mqtt carries pose frames in and rep results out, with an
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/squat-coach/internal/logic"
)

// Default topics.
const (
	TopicFrames = "squat/coach/frames"
	TopicReps   = "squat/coach/reps"
	TopicSystem = "squat/coach/system"
)

// Publisher publishes results to MQTT.
type Publisher interface {
	// PublishRep sends a completed repetition.
	// Returns error if publishing fails (should not crash the process).
	PublishRep(event RepEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// FrameSubscriber delivers raw frame payloads.
type FrameSubscriber interface {
	// SubscribeFrames forwards every message on the frames topic to out.
	// Messages are dropped when out is full.
	SubscribeFrames(out chan<- []byte) error
}

// RepEvent is one completed repetition plus the running totals.
type RepEvent struct {
	Session string
	Record  logic.RepRecord
	Totals  logic.Counts
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Session    string
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// RepPayload is the MQTT message for a completed repetition.
type RepPayload struct {
	Rep RepPayloadInner `json:"rep"`
}

type RepPayloadInner struct {
	Session    string                       `json:"session"`
	Number     int                          `json:"number"`
	Start      string                       `json:"start"`
	End        string                       `json:"end"`
	DurationMs int64                        `json:"duration_ms"`
	Correct    bool                         `json:"correct"`
	Faults     map[string]map[string]string `json:"faults"`
	Totals     TotalsJSON                   `json:"totals"`
}

// TotalsJSON is the session tally after the rep.
type TotalsJSON struct {
	Reps    int `json:"reps"`
	Correct int `json:"correct"`
}

// FormatRepPayload creates the JSON payload for a completed repetition.
func FormatRepPayload(event RepEvent) ([]byte, error) {
	rec := event.Record
	faults := make(map[string]map[string]string, len(rec.Faults))
	for phase, byType := range rec.Faults {
		m := make(map[string]string, len(byType))
		for ft, msg := range byType {
			m[string(ft)] = msg
		}
		faults[string(phase)] = m
	}

	payload := RepPayload{
		Rep: RepPayloadInner{
			Session:    event.Session,
			Number:     rec.Number,
			Start:      rec.Start.UTC().Format(time.RFC3339Nano),
			End:        rec.End.UTC().Format(time.RFC3339Nano),
			DurationMs: rec.Duration().Milliseconds(),
			Correct:    rec.Correct,
			Faults:     faults,
			Totals:     TotalsJSON{Reps: event.Totals.Reps, Correct: event.Totals.Correct},
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Session   string `json:"session,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Session:   event.Session,
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
