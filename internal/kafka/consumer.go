package kafka

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/twmb/franz-go/pkg/kgo"
	"onsalenow.io/analytics/internal/application"
	"onsalenow.io/analytics/internal/domain"
	"onsalenow.io/analytics/internal/kafka/registry"

	// Blank imports trigger init() in each handler file,
	// registering all event handlers into the registry.
	_ "onsalenow.io/analytics/internal/kafka/handlers"
)

// PassRunner runs one evaluation pass. Implemented by *application.Service.
type PassRunner interface {
	RunPass(ctx context.Context, trigger application.Trigger) (*application.PassResult, error)
}

// Consumer wraps the franz-go Kafka client.
type Consumer struct {
	client *kgo.Client
	runner PassRunner
}

// New creates a Consumer with the given brokers, group ID, and topics.
func New(brokers []string, groupID string, topics []string, runner PassRunner) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, err
	}
	return &Consumer{client: client, runner: runner}, nil
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

		var changes []*domain.SnapshotChange
		fetches.EachRecord(func(r *kgo.Record) {
			if change := decode(r); change != nil {
				changes = append(changes, change)
			}
		})
		c.evaluate(ctx, changes)

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			log.Error().Err(err).Msg("kafka commit error")
		}
	}

	c.client.Close()
	log.Info().Msg("kafka consumer stopped")
}

// decode dispatches a Kafka record to the registered handler via the registry.
func decode(r *kgo.Record) *domain.SnapshotChange {
	log.Debug().
		Str("topic", r.Topic).
		Str("key", string(r.Key)).
		Msg("processing kafka record")

	// analytics-commands doesn't use eventType routing
	change := registry.DispatchDirect(r.Topic, r.Value)
	if change == nil {
		change = registry.Dispatch(r.Topic, r.Value)
	}
	if change == nil {
		log.Debug().Str("topic", r.Topic).Msg("no handler matched, skipping")
	}
	return change
}

// evaluate runs a single pass for a batch of changes. Every pass reloads the
// full snapshot, so one pass covers any number of changes in the batch.
func (c *Consumer) evaluate(ctx context.Context, changes []*domain.SnapshotChange) {
	if len(changes) == 0 {
		return
	}
	first := changes[0]

	result, err := c.runner.RunPass(ctx, application.TriggerEvent)
	switch {
	case errors.Is(err, application.ErrPassInProgress):
		log.Info().Int("changes", len(changes)).Msg("pass already running elsewhere, changes left to it")
	case err != nil:
		log.Error().Err(err).
			Str("source", string(first.Source)).
			Str("event_type", first.EventType).
			Str("event_id", first.EventID).
			Int("changes", len(changes)).
			Msg("failed to evaluate sell-through after snapshot change")
	default:
		log.Info().
			Str("pass", result.PassID.String()).
			Int("changes", len(changes)).
			Int("sent", result.Sent).
			Msg("sell-through evaluated after snapshot change")
	}
}
