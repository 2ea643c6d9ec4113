// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

package forward

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// DefaultPublishTimeout is used when MQTTConfig.Timeout is zero.
const DefaultPublishTimeout = 5 * time.Second

// MQTTConfig configures an MQTTPublisher.
type MQTTConfig struct {
	// Broker is the broker URL, for example tcp://localhost:1883.
	Broker string

	// Topic receives every published entry.
	Topic string

	// ClientID identifies this collector to the broker.
	ClientID string

	// QoS is the MQTT quality of service level, 0 through 2.
	QoS byte

	// Timeout bounds a single publish, including the broker's
	// acknowledgement at QoS 1 and 2.
	Timeout time.Duration

	// Logger receives connection state changes. Required.
	Logger *slog.Logger
}

// MQTTPublisher publishes payloads to a fixed topic.
type MQTTPublisher struct {
	client  mqtt.Client
	topic   string
	qos     byte
	timeout time.Duration
}

// NewMQTTPublisher creates a publisher and starts connecting in the
// background. Connection failures are retried indefinitely; publishes
// made while disconnected fail after Timeout.
func NewMQTTPublisher(config MQTTConfig) (*MQTTPublisher, error) {
	if config.Broker == "" {
		return nil, fmt.Errorf("mqtt broker URL is required")
	}
	if config.Topic == "" {
		return nil, fmt.Errorf("mqtt topic is required")
	}
	if config.QoS > 2 {
		return nil, fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", config.QoS)
	}
	if config.Logger == nil {
		panic("forward.NewMQTTPublisher: Logger is required")
	}
	logger := config.Logger.With("broker", config.Broker)

	options := mqtt.NewClientOptions().
		AddBroker(config.Broker).
		SetClientID(config.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOnConnectHandler(func(mqtt.Client) {
			logger.Info("mqtt connected")
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("mqtt connection lost", "error", err)
		})

	client := mqtt.NewClient(options)
	client.Connect()
	return newMQTTPublisher(client, config), nil
}

func newMQTTPublisher(client mqtt.Client, config MQTTConfig) *MQTTPublisher {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultPublishTimeout
	}
	return &MQTTPublisher{
		client:  client,
		topic:   config.Topic,
		qos:     config.QoS,
		timeout: timeout,
	}
}

// Publish sends payload and waits for the token to complete, for ctx
// to be cancelled, or for the publish timeout, whichever is first.
func (p *MQTTPublisher) Publish(ctx context.Context, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	token := p.client.Publish(p.topic, p.qos, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publishing to %s: %w", p.topic, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publishing to %s: %w", p.topic, ctx.Err())
	}
}

// Close disconnects from the broker, allowing up to 250ms for pending
// work to complete.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
