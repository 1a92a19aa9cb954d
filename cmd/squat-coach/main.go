// Command squat-coach reads pose frames from MQTT, counts squat repetitions,
// judges their form and publishes the results.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/squat-coach/internal/config"
	"github.com/sweeney/squat-coach/internal/gpio"
	"github.com/sweeney/squat-coach/internal/logging"
	"github.com/sweeney/squat-coach/internal/logic"
	"github.com/sweeney/squat-coach/internal/metrics"
	"github.com/sweeney/squat-coach/internal/mqtt"
	"github.com/sweeney/squat-coach/internal/pose"
	"github.com/sweeney/squat-coach/internal/status"
	"github.com/sweeney/squat-coach/internal/web"
)

// houseKeeping is how often the loop refreshes connection state and checks
// for a due heartbeat.
const houseKeeping = time.Second

type params struct {
	configPath  string
	broker      string
	framesTopic string
	heartbeat   time.Duration
	httpAddr    string
	pinGood     int
	pinBad      int
	noGPIO      bool
}

func main() {
	var p params
	flag.StringVar(&p.configPath, "config", "", "TOML file with engine thresholds (empty for defaults)")
	flag.StringVar(&p.broker, "broker", "tcp://localhost:1883", "MQTT broker address")
	flag.StringVar(&p.framesTopic, "frames-topic", mqtt.TopicFrames, "MQTT topic carrying pose frames")
	flag.DurationVar(&p.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&p.httpAddr, "http", ":8080", "HTTP status address (empty to disable)")
	flag.IntVar(&p.pinGood, "pin-good", gpio.DefaultPinGood, "BCM pin number for the good-rep LED")
	flag.IntVar(&p.pinBad, "pin-bad", gpio.DefaultPinBad, "BCM pin number for the bad-rep LED")
	flag.BoolVar(&p.noGPIO, "no-gpio", false, "Run without the LED indicator")
	logLevel := flag.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	logFile := flag.String("log-file", "", "Log file, rotated (empty for stdout only)")
	logJSON := flag.Bool("log-json", false, "Log in JSON format")

	flag.Parse()

	logging.Setup(logging.SetupParams{
		LogFileName:   *logFile,
		LogToStdout:   true,
		LogLevel:      *logLevel,
		LogFormatJSON: *logJSON,
	})

	if err := run(p); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(p params) error {
	engine, err := config.Load(p.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	session := uuid.NewString()

	client, err := mqtt.NewRealClient(mqtt.Options{
		Broker:      p.broker,
		ClientID:    "squat-coach-" + session[:8],
		Session:     session,
		FramesTopic: p.framesTopic,
	})
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer client.Close()

	var indicator gpio.Indicator = gpio.Nop{}
	if !p.noGPIO {
		leds, err := gpio.NewRealIndicator(p.pinGood, p.pinBad)
		if err != nil {
			log.Warnf("gpio: indicator unavailable, continuing without it: %v", err)
		} else {
			indicator = leds
		}
	}
	defer func() {
		if err := indicator.Close(); err != nil {
			log.Errorf("gpio: close: %v", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mm := metrics.NewManager("squat", "coach", reg)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), session, status.Config{
		HeartbeatMs: p.heartbeat.Milliseconds(),
		Broker:      p.broker,
		FramesTopic: p.framesTopic,
		HTTPAddr:    p.httpAddr,
		GPIO:        !p.noGPIO,
	})
	tracker.SetMQTTConnected(client.IsConnected())

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Session:    session,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := client.PublishSystem(startup); err != nil {
		log.Errorf("failed to publish startup event: %v", err)
	} else {
		log.Info("published startup event")
	}

	if p.httpAddr != "" {
		srv := web.New(p.httpAddr, tracker, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infof("http status server listening on %s", p.httpAddr)
	}

	frames := make(chan []byte, 64)
	if err := client.SubscribeFrames(frames); err != nil {
		return fmt.Errorf("subscribe frames: %w", err)
	}

	log.WithFields(log.Fields{
		"session":   session,
		"broker":    p.broker,
		"frames":    p.framesTopic,
		"heartbeat": p.heartbeat,
		"gpio":      !p.noGPIO,
	}).Info("started")

	ticker := time.NewTicker(houseKeeping)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(loopDeps{
		engine:     engine,
		session:    session,
		publisher:  client,
		mqttStatus: client,
		indicator:  indicator,
		tracker:    tracker,
		metrics:    mm,
		heartbeat:  p.heartbeat,
		now:        time.Now,
	}, frames, ticker.C, sigCh)
}

// loopDeps is everything runLoop needs besides its input channels.
type loopDeps struct {
	engine     logic.Config
	session    string
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	indicator  gpio.Indicator
	tracker    *status.Tracker
	metrics    *metrics.Manager
	heartbeat  time.Duration
	now        func() time.Time
}

func runLoop(d loopDeps, frames <-chan []byte, tick <-chan time.Time, sig <-chan os.Signal) error {
	agg := logic.NewAggregator(d.engine, d.now())

	for {
		select {
		case s := <-sig:
			log.Infof("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if err := d.indicator.Clear(); err != nil {
				log.Errorf("gpio: clear: %v", err)
			}
			refreshConnection(d)
			snap := d.tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  d.now(),
				Session:    d.session,
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Errorf("failed to publish shutdown event: %v", err)
			} else {
				log.Info("published shutdown event")
			}
			return nil

		case payload, ok := <-frames:
			if !ok {
				frames = nil
				log.Warn("frame source closed")
				continue
			}
			handleFrame(d, agg, payload)

		case <-tick:
			t := d.now()
			refreshConnection(d)

			hb := agg.CheckHeartbeat(t, d.heartbeat)
			if hb == nil {
				continue
			}
			log.WithFields(log.Fields{
				"uptime":  hb.Uptime,
				"reps":    hb.Counts.Reps,
				"correct": hb.Counts.Correct,
			}).Info("heartbeat")

			snap := d.tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  hb.Timestamp,
				Session:    d.session,
				Event:      "HEARTBEAT",
				RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Errorf("heartbeat publish error: %v", err)
				d.metrics.CounterPublishErrors.Inc()
			}
		}
	}
}

func handleFrame(d loopDeps, agg *logic.Aggregator, payload []byte) {
	f, err := pose.DecodeFrame(payload)
	if err != nil {
		log.Debugf("dropping frame: %v", err)
		d.metrics.CounterFramesInvalid.Inc()
		return
	}
	if f.Time.IsZero() {
		f.Time = d.now()
	}

	began := time.Now()
	res := agg.Process(f)
	d.metrics.ObserveFrame(res, time.Since(began))
	d.tracker.Update(f.Time, res, status.EngineView{
		Phase:        agg.Phase(),
		Counts:       agg.CountsSnapshot(),
		Instructions: agg.Instructions(),
		Debug:        agg.Debug(),
	})
	if res == nil {
		return
	}

	if res.Transition != nil && res.Transition.To == logic.PhaseDescending {
		if err := d.indicator.Clear(); err != nil {
			log.Errorf("gpio: clear: %v", err)
		}
	}

	if res.Completed == nil {
		return
	}
	rec := *res.Completed
	log.WithFields(log.Fields{
		"rep":      rec.Number,
		"correct":  rec.Correct,
		"duration": rec.Duration(),
		"faults":   faultList(rec.Faults),
	}).Info("rep complete")

	if err := d.indicator.Show(rec.Correct); err != nil {
		log.Errorf("gpio: show: %v", err)
	}
	event := mqtt.RepEvent{Session: d.session, Record: rec, Totals: agg.CountsSnapshot()}
	if err := d.publisher.PublishRep(event); err != nil {
		log.Errorf("publish error: %v", err)
		d.metrics.CounterPublishErrors.Inc()
	}
}

func refreshConnection(d loopDeps) {
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

// faultList flattens a fault map into "phase/type" strings for logging.
func faultList(fm logic.FaultMap) []string {
	var out []string
	for phase, byType := range fm {
		for ft := range byType {
			out = append(out, string(phase)+"/"+string(ft))
		}
	}
	slices.Sort(out)
	return out
}
