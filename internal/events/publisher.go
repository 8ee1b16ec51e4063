package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Source tells consumers why a snapshot was published.
type Source string

const (
	SourceFetch   Source = "fetch"
	SourceRefresh Source = "refresh"
)

// SnapshotEvent is the message body for a freshly fetched reading.
type SnapshotEvent struct {
	Snapshot    weather.WeatherSnapshot `json:"snapshot"`
	Source      Source                  `json:"source"`
	PublishedAt time.Time               `json:"publishedAt"`
}

// Publisher announces snapshots fetched from the network. Publishing is
// fire-and-forget; failures are logged by the implementation.
type Publisher interface {
	PublishSnapshot(ctx context.Context, snap weather.WeatherSnapshot, source Source)
}

// Nop discards every event.
type Nop struct{}

func (Nop) PublishSnapshot(context.Context, weather.WeatherSnapshot, Source) {}

// KafkaPublisher produces SnapshotEvents keyed by normalized city name.
type KafkaPublisher struct {
	topic  string
	client *kgo.Client
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	logger.Info("kafka producer initialized", zap.String("topic", topic), zap.Strings("brokers", brokers))
	return &KafkaPublisher{topic: topic, client: client, logger: logger.Named("events")}, nil
}

func (p *KafkaPublisher) PublishSnapshot(ctx context.Context, snap weather.WeatherSnapshot, source Source) {
	value, err := json.Marshal(SnapshotEvent{
		Snapshot:    snap,
		Source:      source,
		PublishedAt: time.Now().UTC(),
	})
	if err != nil {
		p.logger.Error("failed to marshal snapshot event", zap.Error(err))
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(common.NormalizeCity(snap.City)),
		Value: value,
	}

	// The caller's context usually ends with its request; the record must outlive it.
	p.client.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			p.logger.Warn("kafka publish error", zap.String("key", string(r.Key)), zap.Error(err))
			return
		}
		p.logger.Debug("published snapshot", zap.String("topic", r.Topic), zap.String("key", string(r.Key)))
	})
}

// Close flushes buffered records and closes the client.
func (p *KafkaPublisher) Close(ctx context.Context) {
	if err := p.client.Flush(ctx); err != nil {
		p.logger.Warn("kafka flush error", zap.Error(err))
	}
	p.client.Close()
}
