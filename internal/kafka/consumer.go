package kafka

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/twmb/franz-go/pkg/kgo"

	"vn.io.arda/console-sync/internal/domain"
	"vn.io.arda/console-sync/internal/kafka/registry"

	// Blank imports trigger init() in each handler file,
	// registering all event handlers into the registry.
	_ "vn.io.arda/console-sync/internal/kafka/handlers"
)

// Invalidator applies what a server event means for local state.
// application.Service implements it.
type Invalidator interface {
	ApplyInvalidation(ctx context.Context, inv domain.Invalidation)
}

// Consumer wraps the franz-go Kafka client.
type Consumer struct {
	client *kgo.Client
	target Invalidator
}

// New creates a Consumer for topics. It joins no consumer group and starts
// at the log end: every instance holds its own cache, so every instance must
// see every event, and history before startup is already reflected in the
// first fetch.
func New(brokers []string, topics []string, target Invalidator) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topics...),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
	)
	if err != nil {
		return nil, err
	}
	return &Consumer{client: client, target: target}, nil
}

// Start begins polling Kafka and processing records. Blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	log.Info().Msg("kafka consumer started")

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			break
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			log.Error().Err(err).Str("topic", topic).Int32("partition", partition).Msg("kafka fetch error")
		})

		fetches.EachRecord(func(r *kgo.Record) {
			c.process(ctx, r)
		})
	}

	c.client.Close()
	log.Info().Msg("kafka consumer stopped")
}

// process dispatches a Kafka record to the registered handler via the registry,
// then applies the resulting invalidation.
func (c *Consumer) process(ctx context.Context, r *kgo.Record) {
	log.Debug().
		Str("topic", r.Topic).
		Str("key", string(r.Key)).
		Msg("processing kafka record")

	// console-cache-commands doesn't use eventType routing
	inv := registry.DispatchDirect(r.Topic, r.Value)
	if inv == nil {
		inv = registry.Dispatch(r.Topic, r.Value)
	}

	if inv == nil {
		evt := log.Debug().Str("topic", r.Topic)
		if env, err := ParseEnvelope(r.Value); err == nil {
			evt = evt.Str("event_type", env.EventType).Str("event_id", env.EventID)
		}
		evt.Msg("no handler matched, skipping")
		return
	}

	c.target.ApplyInvalidation(ctx, *inv)
}

// --- Shared event envelope ---

// EventEnvelope is the common wrapper used by all arda services for Kafka messages.
type EventEnvelope struct {
	EventType string          `json:"eventType"`
	EventID   string          `json:"eventId"`
	TenantKey string          `json:"tenantKey"`
	Payload   json.RawMessage `json:"payload"`
}

// ParseEnvelope decodes the common event envelope.
func ParseEnvelope(data []byte) (*EventEnvelope, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
