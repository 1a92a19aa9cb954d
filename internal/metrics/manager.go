// Package metrics exposes session counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sweeney/squat-coach/internal/logic"
)

type Manager struct {
	// counters
	CounterFrames        prometheus.Counter
	CounterFramesIdle    prometheus.Counter
	CounterFramesInvalid prometheus.Counter
	CounterReps          *prometheus.CounterVec
	CounterFaults        *prometheus.CounterVec
	CounterPublishErrors prometheus.Counter

	// gauges
	GaugePhase *prometheus.GaugeVec

	// histograms
	HistFrameDuration prometheus.Histogram
	HistRepDuration   prometheus.Histogram
}

var phases = []logic.Phase{logic.PhaseStanding, logic.PhaseDescending, logic.PhaseBottom, logic.PhaseAscending}

func NewTestManager() *Manager {
	return NewManager("squat", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("squat", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	m := &Manager{
		CounterFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_total",
			Help:      "The total number of pose frames received",
		}),
		CounterFramesIdle: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_idle_total",
			Help:      "Frames that produced no result",
		}),
		CounterFramesInvalid: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_invalid_total",
			Help:      "Frames that could not be decoded",
		}),
		CounterReps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reps_total",
			Help:      "Completed repetitions by verdict",
		}, []string{"correct"}),
		CounterFaults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "faults_total",
			Help:      "Faults recorded on completed repetitions",
		}, []string{"type"}),
		CounterPublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "publish_errors_total",
			Help:      "MQTT publish failures",
		}),
		GaugePhase: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "phase",
			Help:      "1 for the current squat phase, 0 otherwise",
		}, []string{"phase"}),
		HistFrameDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frame_processing_seconds",
			Help:      "Time spent processing one frame",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		HistRepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rep_duration_seconds",
			Help:      "Duration of completed repetitions",
			Buckets:   []float64{0.5, 1, 1.5, 2, 3, 4, 6, 8, 12, 20},
		}),
	}

	m.SetPhase(logic.PhaseStanding)
	return m
}

// ObserveFrame records one processed frame. res may be nil for idle frames.
func (m *Manager) ObserveFrame(res *logic.FrameResult, took time.Duration) {
	m.CounterFrames.Inc()
	m.HistFrameDuration.Observe(took.Seconds())
	if res == nil {
		m.CounterFramesIdle.Inc()
		return
	}
	m.SetPhase(res.Phase)
	if res.Completed != nil {
		m.ObserveRep(*res.Completed)
	}
}

// ObserveRep records a completed repetition and its faults.
func (m *Manager) ObserveRep(rec logic.RepRecord) {
	verdict := "false"
	if rec.Correct {
		verdict = "true"
	}
	m.CounterReps.WithLabelValues(verdict).Inc()
	for _, byType := range rec.Faults {
		for ft := range byType {
			m.CounterFaults.WithLabelValues(string(ft)).Inc()
		}
	}
	if d := rec.Duration(); d > 0 {
		m.HistRepDuration.Observe(d.Seconds())
	}
}

// SetPhase marks p as the current phase.
func (m *Manager) SetPhase(p logic.Phase) {
	for _, ph := range phases {
		v := 0.0
		if ph == p {
			v = 1
		}
		m.GaugePhase.WithLabelValues(string(ph)).Set(v)
	}
}
