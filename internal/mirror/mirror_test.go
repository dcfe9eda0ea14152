package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"store-traffic-service/internal/model"
)

type fakeRedis struct {
	channel string
	payload []byte
	err     error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.payload = message.([]byte)
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool { return true }

func (t doneToken) WaitTimeout(time.Duration) bool { return true }

func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (t doneToken) Error() error { return t.err }

type fakeMQTT struct {
	topic   string
	qos     byte
	payload []byte
	err     error
}

func (f *fakeMQTT) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	f.topic = topic
	f.qos = qos
	f.payload = payload.([]byte)
	return doneToken{err: f.err}
}

func event() model.TrafficEvent {
	return model.TrafficEvent{StoreID: 10, CustomersIn: 2, CustomersOut: 1, TimeStamp: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
}

func TestRedisPublisher(t *testing.T) {
	client := &fakeRedis{}
	require.NoError(t, NewRedisPublisher(client, "store-traffic:live").Broadcast(context.Background(), event()))

	assert.Equal(t, "store-traffic:live", client.channel)
	var got model.TrafficEvent
	require.NoError(t, json.Unmarshal(client.payload, &got))
	assert.Equal(t, event(), got)
}

func TestRedisPublisherError(t *testing.T) {
	client := &fakeRedis{err: errors.New("connection reset")}
	err := NewRedisPublisher(client, "c").Broadcast(context.Background(), event())
	assert.EqualError(t, err, "connection reset")
}

func TestMQTTPublisher(t *testing.T) {
	client := &fakeMQTT{}
	pub := NewMQTTPublisher(client, "store-traffic/events")

	require.NoError(t, pub.Broadcast(context.Background(), event()))
	assert.Equal(t, "store-traffic/events/10", client.topic)
	assert.Equal(t, byte(0), client.qos)
	assert.JSONEq(t, `{"id":"00000000-0000-0000-0000-000000000000","store_id":10,"customers_in":2,"customers_out":1,"time_stamp":"2026-10-15T12:00:00Z"}`, string(client.payload))
}

func TestMQTTPublisherError(t *testing.T) {
	client := &fakeMQTT{err: errors.New("not connected")}
	assert.EqualError(t, NewMQTTPublisher(client, "p").Broadcast(context.Background(), event()), "not connected")
}
