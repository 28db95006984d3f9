package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/creditdesk/internal/config"
	"github.com/Additional-Code/creditdesk/internal/messaging"
)

// chanClient delivers queued messages and then blocks until cancelled.
type chanClient struct {
	msgs chan messaging.Message
}

func (c *chanClient) Publish(context.Context, []byte, []byte, map[string]string) error { return nil }

func (c *chanClient) Consume(ctx context.Context, handler messaging.Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-c.msgs:
			_ = handler(ctx, msg)
		}
	}
}

func (c *chanClient) Topic() string { return "review.events" }

func enabledConfig() config.Config {
	cfg := config.Config{}
	cfg.Messaging.Enabled = true
	cfg.Messaging.Workers.Enabled = true
	cfg.Messaging.Workers.Concurrency = 2
	return cfg
}

func TestEngineDeliversToRegisteredHandler(t *testing.T) {
	client := &chanClient{msgs: make(chan messaging.Message, 4)}
	var handled atomic.Int32

	engine := NewEngine(Params{
		Client: client,
		Logger: zaptest.NewLogger(t),
		Config: enabledConfig(),
		Registrations: []HandlerRegistration{{
			Topic: "review.events",
			Handler: func(context.Context, messaging.Message) error {
				handled.Add(1)
				return nil
			},
		}},
	})
	require.NoError(t, engine.Start(context.Background()))

	client.msgs <- messaging.Message{Topic: "review.events"}
	client.msgs <- messaging.Message{Topic: "other"}
	client.msgs <- messaging.Message{Topic: "review.events"}

	assert.Eventually(t, func() bool { return handled.Load() == 2 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, engine.Stop(ctx))
}

func TestEngineDispatchReturnsHandlerError(t *testing.T) {
	engine := NewEngine(Params{
		Client: &chanClient{},
		Logger: zaptest.NewLogger(t),
		Config: enabledConfig(),
		Registrations: []HandlerRegistration{{
			Topic:   "review.events",
			Handler: func(context.Context, messaging.Message) error { return errors.New("boom") },
		}},
	})

	assert.EqualError(t, engine.Dispatch(context.Background(), messaging.Message{Topic: "review.events"}), "boom")
	assert.NoError(t, engine.Dispatch(context.Background(), messaging.Message{Topic: "unknown"}))
}

func TestEngineDisabledDoesNothing(t *testing.T) {
	engine := NewEngine(Params{
		Client: &chanClient{},
		Logger: zaptest.NewLogger(t),
		Config: config.Config{},
	})
	require.NoError(t, engine.Start(context.Background()))
	assert.NoError(t, engine.Stop(context.Background()))
}
