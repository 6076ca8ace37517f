package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Well-known topics
const (
	TopicAlerts      = "alerts"
	TopicEscalations = "escalations"
	TopicEvents      = "events"
)

const publishTimeout = 3 * time.Second

// Dispatcher publishes to out-of-band channels (SMS/email workers subscribe
// downstream) and emits fire-and-forget events for consumers outside this
// core's concern.
type Dispatcher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
	Emit(eventType string, detail interface{})
}

type redisDispatcher struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisDispatcher creates a Dispatcher over Redis pub/sub
func NewRedisDispatcher(client *redis.Client, prefix string, logger *zap.Logger) Dispatcher {
	return &redisDispatcher{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

// Publish sends one payload to a topic. Failures are returned to the caller
// for logging; they never carry delivery obligations for registry state.
func (d *redisDispatcher) Publish(ctx context.Context, topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := d.client.Publish(ctx, d.channel(topic), data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Emit announces an event on the shared events topic. Fire-and-forget:
// errors are logged and swallowed.
func (d *redisDispatcher) Emit(eventType string, detail interface{}) {
	envelope := map[string]interface{}{
		"event_type": eventType,
		"detail":     detail,
		"timestamp":  time.Now().Unix(),
	}

	if err := d.Publish(context.Background(), TopicEvents, envelope); err != nil {
		d.logger.Warn("event emit failed",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func (d *redisDispatcher) channel(topic string) string {
	if d.prefix == "" {
		return topic
	}
	return d.prefix + ":" + topic
}
