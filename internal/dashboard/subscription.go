package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"store-traffic-service/internal/live"
	"store-traffic-service/internal/model"
)

var (
	ErrAlreadySubscribed = errors.New("live feed already has a subscriber")
	ErrUnknownToken      = errors.New("unknown subscription token")
	ErrNoEventHandler    = errors.New("event handler is required")
)

const defaultRetryDelay = 2 * time.Second

// Token identifies an active subscription.
type Token string

// Handler receives live events and connection state transitions. Both
// callbacks run on the feed's goroutine.
type Handler struct {
	Event func(model.TrafficEvent)
	State func(connected bool)
}

// Feed is a push source of traffic events with at most one subscriber.
type Feed interface {
	Subscribe(ctx context.Context, handler Handler) (Token, error)
	Unsubscribe(token Token) error
}

type subscription struct {
	token  Token
	cancel context.CancelFunc
	done   chan struct{}
}

// SocketFeed subscribes to the service websocket and reconnects until the
// subscription is cancelled.
type SocketFeed struct {
	url        string
	dialer     *websocket.Dialer
	retryDelay time.Duration
	log        zerolog.Logger

	mu     sync.Mutex
	active *subscription
}

func NewSocketFeed(url string, retryDelay time.Duration, log zerolog.Logger) *SocketFeed {
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	return &SocketFeed{
		url:        url,
		dialer:     websocket.DefaultDialer,
		retryDelay: retryDelay,
		log:        log,
	}
}

func (f *SocketFeed) Subscribe(ctx context.Context, handler Handler) (Token, error) {
	if handler.Event == nil {
		return "", ErrNoEventHandler
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.active != nil {
		return "", ErrAlreadySubscribed
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		token:  Token(uuid.NewString()),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	f.active = sub

	go f.run(subCtx, sub, handler)
	return sub.token, nil
}

// Unsubscribe stops the subscription and waits for its goroutine to exit.
func (f *SocketFeed) Unsubscribe(token Token) error {
	f.mu.Lock()
	sub := f.active
	if sub == nil || sub.token != token {
		f.mu.Unlock()
		return ErrUnknownToken
	}
	f.active = nil
	f.mu.Unlock()

	sub.cancel()
	<-sub.done
	return nil
}

func (f *SocketFeed) run(ctx context.Context, sub *subscription, handler Handler) {
	defer close(sub.done)

	for {
		err := f.session(ctx, handler)
		if ctx.Err() != nil {
			return
		}
		f.log.Debug().Err(err).Str("url", f.url).Msg("live feed unavailable, retrying")

		select {
		case <-ctx.Done():
			return
		case <-time.After(f.retryDelay):
		}
	}
}

func (f *SocketFeed) session(ctx context.Context, handler Handler) error {
	conn, _, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	notify(handler, true)
	defer notify(handler, false)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			f.log.Warn().Err(err).Msg("malformed live feed message")
			continue
		}

		switch msg.Type {
		case live.MessageTypeTraffic:
			var event model.TrafficEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				f.log.Warn().Err(err).Msg("malformed traffic event")
				continue
			}
			handler.Event(event)
		case live.MessageTypeWelcome:
			f.log.Debug().RawJSON("welcome", msg.Data).Msg("live feed connected")
		}
	}
}

func notify(handler Handler, connected bool) {
	if handler.State != nil {
		handler.State(connected)
	}
}
