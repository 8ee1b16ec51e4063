package events

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Requires a reachable broker; set TEST_KAFKA_BROKERS=host:port[,host:port].
func TestKafkaPublisherRoundTrip(t *testing.T) {
	raw := os.Getenv("TEST_KAFKA_BROKERS")
	if raw == "" {
		t.Skip("TEST_KAFKA_BROKERS not set")
	}
	brokers := strings.Split(raw, ",")
	topic := "weather-dashboard-test-" + uuid.NewString()

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		t.Fatalf("consumer: %v", err)
	}
	defer consumer.Close()

	pub, err := NewKafkaPublisher(brokers, topic, zap.NewNop())
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	pub.PublishSnapshot(ctx, weather.WeatherSnapshot{City: "Toronto", TemperatureC: 12}, SourceRefresh)
	pub.Close(ctx)

	for {
		fetches := consumer.PollFetches(ctx)
		if ctx.Err() != nil {
			t.Fatalf("no record received: %v", ctx.Err())
		}
		var got *kgo.Record
		fetches.EachRecord(func(r *kgo.Record) {
			if got == nil {
				got = r
			}
		})
		if got == nil {
			continue
		}

		if string(got.Key) != "toronto" {
			t.Fatalf("expected normalized key, got %q", got.Key)
		}
		var ev SnapshotEvent
		if err := json.Unmarshal(got.Value, &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if ev.Source != SourceRefresh || ev.Snapshot.TemperatureC != 12 {
			t.Fatalf("unexpected event %+v", ev)
		}
		return
	}
}
