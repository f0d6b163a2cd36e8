// Package mqtt implements the host node-server protocol over MQTT
package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/weatherlink-ns/internal/host"
	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	publishTimeout = 5 * time.Second
	connectPoll    = 200 * time.Millisecond
)

// Config holds the broker connection settings
type Config struct {
	Broker   string
	Port     int
	ClientID string
	Username string
	Password string
	Profile  int
}

// Host talks to the home-automation controller through its MQTT broker
type Host struct {
	cfg    Config
	client paho.Client
	logger *zap.SugaredLogger

	mu        sync.RWMutex
	connected bool
	onConfig  func(host.CustomParams)
	onCommand func(host.Command)

	stopCh   chan struct{}
	stopOnce sync.Once
}

var _ host.Host = (*Host)(nil)

// New creates an MQTT host.  The connection is established by Start.
func New(cfg Config, logger *zap.SugaredLogger) (*Host, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt broker must be set")
	}
	if cfg.Port == 0 {
		cfg.Port = 1883
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("mqtt client id must be set")
	}

	h := &Host{
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	if will, err := encodeConnected(cfg.Profile, false); err == nil {
		opts.SetBinaryWill(h.connectionTopic(), will, 1, true)
	}

	opts.SetOnConnectHandler(func(c paho.Client) {
		h.setConnected(true)
		logger.Infow("mqtt connected", "broker", cfg.Broker, "port", cfg.Port)
		// Subscriptions do not survive a clean-session reconnect
		if err := h.subscribe(c); err != nil {
			logger.Errorf("mqtt subscribe failed: %v", err)
		}
		if msg, err := encodeConnected(cfg.Profile, true); err == nil {
			c.Publish(h.connectionTopic(), 1, true, msg)
		}
	})

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		h.setConnected(false)
		logger.Warnw("mqtt connection lost", "error", err)
	})

	h.client = paho.NewClient(opts)
	return h, nil
}

// inboundTopic is where the host sends config and commands for our profile
func (h *Host) inboundTopic() string {
	return fmt.Sprintf("udi/polyglot/ns/%d", h.cfg.Profile)
}

// outboundTopic is where node updates go
func (h *Host) outboundTopic() string {
	return "udi/polyglot/connections/polyglot"
}

func (h *Host) connectionTopic() string {
	return fmt.Sprintf("udi/polyglot/connections/%d", h.cfg.Profile)
}

// Start connects to the broker, waiting until the first connection succeeds or
// ctx is cancelled
func (h *Host) Start(ctx context.Context) error {
	select {
	case <-h.stopCh:
		return fmt.Errorf("mqtt host stopped")
	default:
	}

	if h.IsConnected() {
		return nil
	}

	token := h.client.Connect()
	for {
		if token.WaitTimeout(connectPoll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			h.client.Disconnect(0)
			return ctx.Err()
		case <-h.stopCh:
			h.client.Disconnect(0)
			return fmt.Errorf("mqtt host stopped")
		default:
		}
	}
}

// Stop disconnects from the broker.  It is safe to call more than once.
func (h *Host) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })

	if h.IsConnected() {
		if msg, err := encodeConnected(h.cfg.Profile, false); err == nil {
			h.client.Publish(h.connectionTopic(), 1, true, msg).WaitTimeout(time.Second)
		}
		h.client.Unsubscribe(h.inboundTopic()).WaitTimeout(2 * time.Second)
	}
	h.client.Disconnect(250)

	h.setConnected(false)
	h.logger.Info("mqtt disconnected")
}

func (h *Host) subscribe(c paho.Client) error {
	topic := h.inboundTopic()
	token := c.Subscribe(topic, 1, func(_ paho.Client, msg paho.Message) {
		h.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("subscribe timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	h.logger.Infow("subscribed to mqtt topic", "topic", topic)
	return nil
}

func (h *Host) handleMessage(topic string, payload []byte) {
	h.logger.Debugw("received mqtt message", "topic", topic, "size", len(payload))

	params, cmds, err := decodeInbound(payload)
	if err != nil {
		h.logger.Warnw("failed to parse host message", "topic", topic, "error", err)
		return
	}

	h.mu.RLock()
	onConfig, onCommand := h.onConfig, h.onCommand
	h.mu.RUnlock()

	if params != nil && onConfig != nil {
		onConfig(params)
	}
	if onCommand != nil {
		for _, c := range cmds {
			onCommand(c)
		}
	}
}

func (h *Host) publish(ctx context.Context, payload []byte, err error) error {
	if err != nil {
		return fmt.Errorf("encode host message: %w", err)
	}
	if !h.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	topic := h.outboundTopic()
	token := h.client.Publish(topic, 1, false, payload)

	select {
	case <-token.Done():
	case <-time.After(publishTimeout):
		return fmt.Errorf("publish timeout for topic %s", topic)
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (h *Host) AddNode(ctx context.Context, n host.NodeDef) error {
	msg, err := encodeAddNode(h.cfg.Profile, n)
	return h.publish(ctx, msg, err)
}

func (h *Host) SetDriver(ctx context.Context, address string, d host.Driver) error {
	msg, err := encodeStatus(h.cfg.Profile, address, d)
	return h.publish(ctx, msg, err)
}

func (h *Host) ReportCommand(ctx context.Context, address, cmd string, value int) error {
	msg, err := encodeCommand(h.cfg.Profile, address, cmd, value)
	return h.publish(ctx, msg, err)
}

func (h *Host) AddNotice(ctx context.Context, n host.Notice) error {
	msg, err := encodeNotice(h.cfg.Profile, n)
	return h.publish(ctx, msg, err)
}

func (h *Host) RemoveNoticesAll(ctx context.Context) error {
	msg, err := encodeRemoveNoticesAll(h.cfg.Profile)
	return h.publish(ctx, msg, err)
}

func (h *Host) OnConfig(fn func(host.CustomParams)) {
	h.mu.Lock()
	h.onConfig = fn
	h.mu.Unlock()
}

func (h *Host) OnCommand(fn func(host.Command)) {
	h.mu.Lock()
	h.onCommand = fn
	h.mu.Unlock()
}

// IsConnected returns whether the broker connection is up
func (h *Host) IsConnected() bool {
	h.mu.RLock()
	connected := h.connected
	h.mu.RUnlock()
	return connected && h.client.IsConnected()
}

func (h *Host) setConnected(v bool) {
	h.mu.Lock()
	h.connected = v
	h.mu.Unlock()
}
