package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"store-traffic-service/internal/model"
)

const publishTimeout = 2 * time.Second

type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher publishes each event on <prefix>/<store_id> with QoS 0.
type MQTTPublisher struct {
	client mqttPublisher
	prefix string
}

func NewMQTTPublisher(client mqttPublisher, prefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: prefix}
}

// ConnectMQTT dials the broker with auto-reconnect enabled.
func ConnectMQTT(brokerURL string, log zerolog.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID("store-traffic-" + time.Now().Format("20060102150405"))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt connection lost")
	}
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", brokerURL).Msg("mqtt connected")
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return client, nil // keeps retrying in the background
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return client, nil
}

func (p *MQTTPublisher) Topic(storeID int) string {
	return p.prefix + "/" + strconv.Itoa(storeID)
}

func (p *MQTTPublisher) Broadcast(_ context.Context, event model.TrafficEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	token := p.client.Publish(p.Topic(event.StoreID), 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt publish timed out")
	}
	return token.Error()
}
