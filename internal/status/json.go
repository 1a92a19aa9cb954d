package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string                       `json:"event,omitempty"`
	Reason        string                       `json:"reason,omitempty"`
	Session       string                       `json:"session"`
	Phase         string                       `json:"phase"`
	Reps          int                          `json:"reps"`
	CorrectReps   int                          `json:"correct_reps"`
	FaultCounts   map[string]int               `json:"fault_counts"`
	Stats         StatsJSON                    `json:"stats"`
	Feedback      map[string]string            `json:"feedback,omitempty"`
	Instructions  map[string]map[string]string `json:"instructions,omitempty"`
	Debug         map[string]string            `json:"debug,omitempty"`
	UptimeSeconds int64                        `json:"uptime_seconds"`
	StartTime     string                       `json:"start_time"`
	Timestamp     string                       `json:"timestamp"`
	LastFrame     string                       `json:"last_frame,omitempty"`
	MQTT          MQTTStatus                   `json:"mqtt"`
	Config        ConfigJSON                   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// StatsJSON is the JSON representation of RepStats.
type StatsJSON struct {
	MeanRepSeconds   float64 `json:"mean_rep_seconds"`
	StdDevRepSeconds float64 `json:"stddev_rep_seconds"`
	CorrectRatio     float64 `json:"correct_ratio"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	FramesTopic string `json:"frames_topic"`
	HTTPAddr    string `json:"http_addr"`
	GPIO        bool   `json:"gpio"`
}

func buildInner(snap Snapshot) StatusInner {
	phase := string(snap.Phase)
	if phase == "" {
		phase = "unknown"
	}

	faults := make(map[string]int, len(snap.Counts.Faults))
	for ft, n := range snap.Counts.Faults {
		faults[string(ft)] = n
	}

	inner := StatusInner{
		Session:     snap.Session,
		Phase:       phase,
		Reps:        snap.Counts.Reps,
		CorrectReps: snap.Counts.Correct,
		FaultCounts: faults,
		Stats: StatsJSON{
			MeanRepSeconds:   snap.Stats.MeanSeconds,
			StdDevRepSeconds: snap.Stats.StdDevSeconds,
			CorrectRatio:     snap.Stats.CorrectRatio,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			FramesTopic: snap.Config.FramesTopic,
			HTTPAddr:    snap.Config.HTTPAddr,
			GPIO:        snap.Config.GPIO,
		},
	}
	if !snap.LastFrame.IsZero() {
		inner.LastFrame = snap.LastFrame.UTC().Format(time.RFC3339Nano)
	}
	return inner
}

func addLive(snap Snapshot, inner *StatusInner) {
	if len(snap.Feedback) > 0 {
		inner.Feedback = make(map[string]string, len(snap.Feedback))
		for ch, msg := range snap.Feedback {
			inner.Feedback[string(ch)] = msg
		}
	}
	if len(snap.Instructions) > 0 {
		inner.Instructions = make(map[string]map[string]string, len(snap.Instructions))
		for phase, byType := range snap.Instructions {
			m := make(map[string]string, len(byType))
			for ft, msg := range byType {
				m[string(ft)] = msg
			}
			inner.Instructions[string(phase)] = m
		}
	}
	if len(snap.Debug) > 0 {
		inner.Debug = snap.Debug
	}
}

// FormatJSON returns the JSON status for the web endpoint, including the
// live feedback, instructions and debug telemetry.
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	addLive(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the compact JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
