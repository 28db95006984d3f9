package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/creditdesk/internal/config"
)

func TestHeadersRoundTrip(t *testing.T) {
	headers := toKafkaHeaders(map[string]string{
		HeaderEventType: "review.order_settled",
		"event-id":      "e-1",
	})
	require.Len(t, headers, 2)
	assert.Equal(t, "event-id", headers[0].Key)

	msg := fromKafka(kafka.Message{Topic: "review.events", Key: []byte("o1"), Headers: headers})
	assert.Equal(t, "review.order_settled", msg.Headers[HeaderEventType])
	assert.Equal(t, []byte("o1"), msg.Key)
	assert.Nil(t, toKafkaHeaders(nil))
}

func TestDisabledMessagingUsesNoop(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{}
	cfg.Messaging.Enabled = false
	cfg.Messaging.Kafka.Topic = "review.events"

	client, err := NewClient(lc, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "review.events", client.Topic())
	assert.NoError(t, client.Publish(context.Background(), []byte("k"), []byte("v"), nil))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, client.Consume(ctx, nil), context.DeadlineExceeded)
}
