package notify

import (
	"encoding/json"
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// MQTT is a Sink backed by an MQTT broker.
type MQTT struct {
	client      paho.Client
	topicPrefix string
	qos         byte
}

// NewMQTT connects to the broker and returns a ready sink.
func NewMQTT(broker, clientID, topicPrefix string, qos byte) (*MQTT, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := paho.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	log.Info().Str("broker", broker).Str("client_id", clientID).Msg("Connected to MQTT broker")

	return &MQTT{
		client:      client,
		topicPrefix: topicPrefix,
		qos:         qos,
	}, nil
}

// Publish implements Sink. The payload is marshalled as JSON and published
// asynchronously; any failure is logged and swallowed.
func (m *MQTT) Publish(topic string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("Failed to encode notification payload")
		return
	}

	fullTopic := m.topicPrefix + "/" + topic

	token := m.client.Publish(fullTopic, m.qos, false, data)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			log.Warn().Err(err).Str("topic", fullTopic).Msg("Failed to publish notification")
		}
	}()
}

// Close disconnects from the broker.
func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
