// Package kafka publishes submitted registrations to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/trace"

	"ehopa/internal/notify"
	"ehopa/internal/registration/models"
	"ehopa/pkg/platform/circuit"
)

// EventType tags every published registration.
const EventType = "registration.submitted"

// Producer is the subset of *kgo.Client the notifier uses.
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// TopicCreator is the subset of *kadm.Client used by EnsureTopic.
type TopicCreator interface {
	CreateTopics(ctx context.Context, partitions int32, replicationFactor int16, configs map[string]*string, topics ...string) (kadm.CreateTopicResponses, error)
}

// Event is the record value.
type Event struct {
	Type    string         `json:"type"`
	Summary models.Summary `json:"summary"`
	Text    string         `json:"text"`
}

// Notifier produces one record per submission, keyed by generated ID.
// Produce is asynchronous; failures are logged and tracked by a breaker so
// a dead broker shows up in health checks instead of flooding the log.
type Notifier struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

// WithBreaker replaces the default breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(n *Notifier) {
		n.breaker = b
	}
}

func New(producer Producer, topic string, opts ...Option) *Notifier {
	n := &Notifier{
		producer: producer,
		topic:    topic,
		breaker:  circuit.New("kafka-notifier", circuit.WithFailureThreshold(3)),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NewClient connects a franz-go client with the topic as default.
func NewClient(brokers []string, topic string) (*kgo.Client, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return cl, nil
}

// EnsureTopic creates topic if it does not exist.
func EnsureTopic(ctx context.Context, adm TopicCreator, topic string, partitions int32, replication int16) error {
	resps, err := adm.CreateTopics(ctx, partitions, replication, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, r := range resps {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Notify enqueues the record and returns without waiting for the broker.
func (n *Notifier) Notify(ctx context.Context, summary models.Summary) {
	id := summary.Record.GeneratedID
	value, err := json.Marshal(Event{Type: EventType, Summary: summary, Text: notify.Message(summary)})
	if err != nil {
		n.logger.ErrorContext(ctx, "encode registration event", "id", id, "error", err)
		return
	}

	rec := &kgo.Record{
		Topic: n.topic,
		Key:   []byte(id),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "event-type", Value: []byte(EventType)},
		},
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: "trace-id", Value: []byte(sc.TraceID().String())})
	}
	ctx = context.WithoutCancel(ctx)
	n.producer.Produce(ctx, rec, func(r *kgo.Record, err error) {
		n.settle(ctx, id, err)
	})
}

// Healthy reports whether recent produces succeeded.
func (n *Notifier) Healthy() bool {
	return !n.breaker.IsOpen()
}

func (n *Notifier) settle(ctx context.Context, id string, err error) {
	if err == nil {
		if _, change := n.breaker.RecordSuccess(); change.Closed {
			n.logger.InfoContext(ctx, "kafka notifier recovered", "topic", n.topic)
		}
		return
	}
	degraded, change := n.breaker.RecordFailure()
	switch {
	case change.Opened:
		n.logger.ErrorContext(ctx, "kafka notifier degraded",
			"topic", n.topic,
			"id", id,
			"error", err,
		)
	case degraded:
		n.logger.DebugContext(ctx, "registration event dropped",
			"id", id,
			"error", err,
		)
	default:
		n.logger.WarnContext(ctx, "registration event not delivered",
			"id", id,
			"error", err,
		)
	}
}
