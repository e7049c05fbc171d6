// Package ingest consumes driver fixes published to an MQTT broker.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fleet_portal/internal/tracking"
)

const (
	qos            = 1
	connectTimeout = 10 * time.Second
	handleTimeout  = 5 * time.Second
)

var ErrTopic = errors.New("topic does not carry a driver id")

// Ingester records one fix for a driver.
type Ingester interface {
	Ingest(ctx context.Context, driverID uint, in tracking.LocationInput, now time.Time) (*tracking.DriverView, error)
}

// Config describes the broker connection.
type Config struct {
	Broker   string
	Topic    string // must contain exactly one '+' level standing for the driver id
	Username string
	Password string
}

// Subscriber feeds messages from Topic into an Ingester.
type Subscriber struct {
	cfg    Config
	sink   Ingester
	clock  func() time.Time
	client mqtt.Client
}

func NewSubscriber(cfg Config, sink Ingester, clock func() time.Time) (*Subscriber, error) {
	if _, err := wildcardLevel(cfg.Topic); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Subscriber{cfg: cfg, sink: sink, clock: clock}, nil
}

// Start connects and subscribes. The subscription is renewed on every reconnect.
func (s *Subscriber) Start() error {
	opts := mqtt.NewClientOptions().
		AddBroker(s.cfg.Broker).
		SetClientID("fleet-portal-" + uuid.NewString()).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(s.subscribe).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logrus.WithError(err).Warn("MQTT connection lost.")
		})
	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username).SetPassword(s.cfg.Password)
	}

	s.client = mqtt.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect to %s: timed out", s.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect to %s: %w", s.cfg.Broker, err)
	}
	return nil
}

func (s *Subscriber) subscribe(c mqtt.Client) {
	token := c.Subscribe(s.cfg.Topic, qos, s.handle)
	if token.WaitTimeout(connectTimeout) && token.Error() == nil {
		logrus.WithFields(logrus.Fields{"broker": s.cfg.Broker, "topic": s.cfg.Topic}).Info("Subscribed to driver locations.")
		return
	}
	logrus.WithError(token.Error()).WithField("topic", s.cfg.Topic).Error("MQTT subscribe failed.")
}

// Stop disconnects, giving in-flight work a moment to finish.
func (s *Subscriber) Stop() {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(250)
	}
}

func (s *Subscriber) handle(_ mqtt.Client, msg mqtt.Message) {
	log := logrus.WithField("topic", msg.Topic())
	driverID, err := DriverIDFromTopic(s.cfg.Topic, msg.Topic())
	if err != nil {
		log.WithError(err).Warn("Ignoring MQTT message.")
		return
	}
	var in tracking.LocationInput
	if err := json.Unmarshal(msg.Payload(), &in); err != nil {
		log.WithError(err).Warn("Invalid location payload.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()
	if _, err := s.sink.Ingest(ctx, driverID, in, s.clock()); err != nil {
		log.WithError(err).WithField("driver_id", driverID).Warn("Rejected driver location.")
	}
}

// DriverIDFromTopic extracts the driver id from topic at the position of the
// '+' level in filter, e.g. fleet/drivers/42/location under fleet/drivers/+/location.
func DriverIDFromTopic(filter, topic string) (uint, error) {
	idx, err := wildcardLevel(filter)
	if err != nil {
		return 0, err
	}
	want := strings.Split(filter, "/")
	got := strings.Split(topic, "/")
	if len(got) != len(want) {
		return 0, fmt.Errorf("%w: %q", ErrTopic, topic)
	}
	for i := range want {
		if i != idx && want[i] != got[i] {
			return 0, fmt.Errorf("%w: %q", ErrTopic, topic)
		}
	}
	id, err := strconv.ParseUint(got[idx], 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q", ErrTopic, topic)
	}
	return uint(id), nil
}

func wildcardLevel(filter string) (int, error) {
	idx := -1
	for i, level := range strings.Split(filter, "/") {
		switch level {
		case "+":
			if idx >= 0 {
				return 0, fmt.Errorf("mqtt topic %q: more than one '+' level", filter)
			}
			idx = i
		case "#":
			return 0, fmt.Errorf("mqtt topic %q: '#' is not supported", filter)
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("mqtt topic %q: no '+' level for the driver id", filter)
	}
	return idx, nil
}
