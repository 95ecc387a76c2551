// Package mqtt publishes mode transitions to an MQTT broker as retained
// messages: the mode token on the IME topic and an LED payload on the LED topic.
package mqtt

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/imecue/internal/config"
	"github.com/jmylchreest/imecue/internal/model"
)

// ErrSinkDisabled is wrapped by Dial when the broker could not be reached.
// The returned sink stays disabled for the life of the process.
var ErrSinkDisabled = errors.New("mqtt sink disabled")

// disconnectQuiesce is how long Disconnect waits for in-flight work, in milliseconds.
const disconnectQuiesce = 250

// client is the part of paho.Client the sink uses.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// connector is a client that still has to connect.
type connector interface {
	client
	Connect() paho.Token
}

// Sink is the pub/sub bridge sink.
type Sink struct {
	client   client
	cfg      config.MQTTConfig
	logger   *slog.Logger
	disabled bool
	closed   bool
}

// Dial connects to the configured broker with a single attempt. On failure
// it still returns a usable, disabled sink together with an error wrapping
// ErrSinkDisabled, so callers can report the problem and carry on.
func Dial(cfg config.MQTTConfig, logger *slog.Logger) (*Sink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("sink", "mqtt")

	clientID, err := newClientID()
	if err != nil {
		return &Sink{cfg: cfg, logger: logger, disabled: true}, fmt.Errorf("%w: %w", ErrSinkDisabled, err)
	}

	timeout := cfg.ConnectTimeout.Duration()
	opts := paho.NewClientOptions().
		AddBroker(cfg.BrokerURL()).
		SetClientID(clientID).
		SetConnectTimeout(timeout).
		SetConnectRetry(false).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("mqtt connection lost", "error", err)
		}).
		SetReconnectingHandler(func(_ paho.Client, _ *paho.ClientOptions) {
			logger.Debug("mqtt reconnecting")
		})

	return connect(paho.NewClient(opts), cfg, clientID, logger)
}

// connect makes the single connect attempt. On failure the client is
// disconnected so a late connect or auto-reconnect cannot outlive the
// disabled sink.
func connect(c connector, cfg config.MQTTConfig, clientID string, logger *slog.Logger) (*Sink, error) {
	timeout := cfg.ConnectTimeout.Duration()
	token := c.Connect()
	if !token.WaitTimeout(timeout) {
		c.Disconnect(0)
		return &Sink{cfg: cfg, logger: logger, disabled: true},
			fmt.Errorf("%w: connect to %s timed out after %s", ErrSinkDisabled, cfg.BrokerURL(), timeout)
	}
	if err := token.Error(); err != nil {
		c.Disconnect(0)
		return &Sink{cfg: cfg, logger: logger, disabled: true},
			fmt.Errorf("%w: connect to %s: %w", ErrSinkDisabled, cfg.BrokerURL(), err)
	}

	logger.Info("mqtt connected", "broker", cfg.BrokerURL(), "client_id", clientID)
	return newSink(c, cfg, logger), nil
}

func newSink(c client, cfg config.MQTTConfig, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{client: c, cfg: cfg, logger: logger}
}

func newClientID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate client id: %w", err)
	}
	return "imecued-" + id.String(), nil
}

// Name identifies the sink in logs.
func (s *Sink) Name() string {
	return "mqtt"
}

// Disabled reports whether the initial connect failed.
func (s *Sink) Disabled() bool {
	return s.disabled
}

// Publish sends the mode token and, if an LED topic is configured, the LED
// payload. Both are retained. Publishing does not wait for the broker; a
// disabled or closed sink silently skips.
func (s *Sink) Publish(mode model.Mode) error {
	if s.disabled || s.closed {
		return nil
	}

	s.send(s.cfg.IMETopic, mode.Token())

	if s.cfg.LEDTopic != "" {
		payload, err := json.Marshal(s.cfg.LEDFor(mode))
		if err != nil {
			return fmt.Errorf("failed to encode led payload: %w", err)
		}
		s.send(s.cfg.LEDTopic, payload)
	}
	return nil
}

func (s *Sink) send(topic string, payload interface{}) {
	token := s.client.Publish(topic, 0, true, payload)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			s.logger.Debug("mqtt publish failed", "topic", topic, "error", err)
		}
	}()
}

// Close disconnects from the broker.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.disabled || s.client == nil {
		return nil
	}
	s.client.Disconnect(disconnectQuiesce)
	s.logger.Debug("mqtt disconnected")
	return nil
}
