package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	bufferCapacity = 256
)

// Options configures a RealClient.
type Options struct {
	Broker      string
	ClientID    string
	Session     string
	FramesTopic string
	RepsTopic   string
	SystemTopic string
}

func (o *Options) applyDefaults() {
	if o.ClientID == "" {
		o.ClientID = "squat-coach"
	}
	if o.FramesTopic == "" {
		o.FramesTopic = TopicFrames
	}
	if o.RepsTopic == "" {
		o.RepsTopic = TopicReps
	}
	if o.SystemTopic == "" {
		o.SystemTopic = TopicSystem
	}
}

// RealClient talks to an actual MQTT broker. Messages published while the
// connection is down are buffered and replayed on reconnect.
type RealClient struct {
	client paho.Client
	opts   Options

	mu        sync.Mutex
	buffer    *ringBuffer
	frames    chan<- []byte
	connected bool // at least one successful connect
}

// NewRealClient creates a client for the given broker. A broker that is not
// reachable yet is not an error: paho keeps retrying in the background and
// publishes are buffered meanwhile.
func NewRealClient(o Options) (*RealClient, error) {
	o.applyDefaults()
	c := &RealClient{opts: o, buffer: newRingBuffer(bufferCapacity)}

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Session: o.Session, Event: "OFFLINE", Reason: "LWT"})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	popts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(o.SystemTopic, string(will), 1, true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warnf("mqtt: connection lost: %v", err)
		})

	c.client = paho.NewClient(popts)
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Warnf("mqtt: broker %s not reachable yet, buffering until connected", o.Broker)
		return c, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return c, nil
}

func (c *RealClient) onConnect(client paho.Client) {
	c.mu.Lock()
	reconnect := c.connected
	c.connected = true
	frames := c.frames
	pending, dropped := c.buffer.drainAll()
	c.mu.Unlock()

	log.Infof("mqtt: connected to %s", c.opts.Broker)

	if frames != nil {
		c.subscribe(client, frames)
	}

	if len(pending) > 0 {
		log.Infof("mqtt: replaying %d buffered messages (%d dropped while offline)", len(pending), dropped)
	}
	for _, msg := range pending {
		if err := c.send(msg); err != nil {
			log.Errorf("mqtt: replay to %s: %v", msg.topic, err)
		}
	}

	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Session: c.opts.Session, Event: "RECONNECTED"})
		if err := c.send(bufferedMsg{topic: c.opts.SystemTopic, payload: payload, qos: 1, retained: true}); err != nil {
			log.Errorf("mqtt: publish reconnected: %v", err)
		}
	}
}

// SubscribeFrames forwards frame payloads to out. The subscription is
// renewed on every reconnect.
func (c *RealClient) SubscribeFrames(out chan<- []byte) error {
	c.mu.Lock()
	c.frames = out
	c.mu.Unlock()

	if !c.client.IsConnectionOpen() {
		// onConnect will subscribe.
		return nil
	}
	return c.subscribe(c.client, out)
}

func (c *RealClient) subscribe(client paho.Client, out chan<- []byte) error {
	token := client.Subscribe(c.opts.FramesTopic, 0, func(_ paho.Client, m paho.Message) {
		select {
		case out <- m.Payload():
		default:
			log.Debug("mqtt: frame channel full, dropping frame")
		}
	})
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("subscribe %s: timeout", c.opts.FramesTopic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", c.opts.FramesTopic, err)
	}
	log.Infof("mqtt: subscribed to %s", c.opts.FramesTopic)
	return nil
}

// PublishRep sends a completed repetition to the broker.
func (c *RealClient) PublishRep(event RepEvent) error {
	payload, err := FormatRepPayload(event)
	if err != nil {
		return fmt.Errorf("format rep payload: %w", err)
	}
	// QoS 1: a lost rep cannot be recomputed.
	return c.publish(bufferedMsg{topic: c.opts.RepsTopic, payload: payload, qos: 1})
}

// PublishSystem sends a system lifecycle event to the broker.
func (c *RealClient) PublishSystem(event SystemEvent) error {
	if event.Session == "" {
		event.Session = c.opts.Session
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return c.publish(bufferedMsg{topic: c.opts.SystemTopic, payload: payload, qos: 1, retained: event.Retained})
}

func (c *RealClient) publish(msg bufferedMsg) error {
	c.mu.Lock()
	if !c.client.IsConnectionOpen() {
		if c.buffer.push(msg) {
			log.Debugf("mqtt: offline buffer full, dropped oldest message")
		}
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.send(msg)
}

func (c *RealClient) send(msg bufferedMsg) error {
	token := c.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (c *RealClient) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a connection.
func (c *RealClient) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer.len()
}

// Close disconnects from the broker.
func (c *RealClient) Close() error {
	c.client.Disconnect(1000) // 1 second quiesce
	return nil
}
