//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climatesphere/internal/adapter/kafka"
	"github.com/couchcryptid/climatesphere/internal/config"
	"github.com/couchcryptid/climatesphere/internal/domain"
	"github.com/couchcryptid/climatesphere/internal/observability"
	"github.com/couchcryptid/climatesphere/internal/pipeline"
)

const testTopic = "test-climate-simulations"

// snapshotMessage holds a deserialized message read from the snapshot topic.
type snapshotMessage struct {
	Sim     domain.Simulation
	Key     string
	Headers map[string]string
}

func readSnapshot(ctx context.Context, t *testing.T, consumer *kafkago.Reader) snapshotMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from snapshot topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var sim domain.Simulation
	require.NoError(t, json.Unmarshal(msg.Value, &sim), "unmarshal snapshot")

	return snapshotMessage{Sim: sim, Key: string(msg.Key), Headers: headers}
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestSimulatorPublishesSnapshots runs simulations through the Simulator with
// a real Kafka publisher and checks every run arrives keyed by its id.
func TestSimulatorPublishesSnapshots(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	publisher := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	sim := pipeline.NewSimulator(domain.DefaultRegionTable(), nil, publisher, pipeline.SimulatorOptions{PredictTimeout: time.Second},
		discardLogger(), observability.NewMetricsForTesting())

	regions := []string{"india-delhi", "uk-london", "brazil-amazon"}
	ids := make(map[string]string, len(regions))
	for i, region := range regions {
		sel, err := domain.NewSelection(domain.TargetRainfall, map[string]float64{"waterConservation": 20})
		require.NoError(t, err)
		out, err := sim.Run(ctx, domain.ScenarioInput{
			RegionID:  region,
			Selection: sel,
			Years:     5,
			Seed:      uint64(i + 1),
		})
		require.NoError(t, err)
		ids[out.ID] = region
	}
	sim.Flush()

	consumer := newConsumer(t, broker)
	for range regions {
		msg := readSnapshot(ctx, t, consumer)

		region, ok := ids[msg.Key]
		require.True(t, ok, "unexpected key %s", msg.Key)
		assert.Equal(t, msg.Key, msg.Sim.ID)
		assert.Equal(t, region, msg.Sim.RegionID)
		assert.Equal(t, "rainfall", msg.Headers["target"])
		assert.Equal(t, region, msg.Headers["region"])
		_, err := time.Parse(time.RFC3339, msg.Headers["created_at"])
		assert.NoError(t, err, "created_at should be valid RFC3339")

		assert.Len(t, msg.Sim.Projection.Values, 5)
		assert.Equal(t, domain.RiskSourceFallback, msg.Sim.RiskSource)
		delete(ids, msg.Key)
	}
	assert.Empty(t, ids, "every run should be published once")
}

// TestPublishFailureDoesNotFailRun points the publisher at a dead broker and
// verifies the simulation still succeeds.
func TestPublishFailureDoesNotFailRun(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := &config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaTopic: testTopic}
	publisher := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	sim := pipeline.NewSimulator(domain.DefaultRegionTable(), nil, publisher, pipeline.SimulatorOptions{PredictTimeout: time.Second, PublishTimeout: 2 * time.Second},
		discardLogger(), observability.NewMetricsForTesting())

	start := time.Now()
	out, err := sim.Run(ctx, domain.ScenarioInput{
		RegionID:  "india-delhi",
		Selection: domain.DefaultSelection(domain.TargetTemperature),
		Years:     3,
		Seed:      1,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)
	assert.Less(t, time.Since(start), time.Second, "run should not wait on the dead broker")
	sim.Flush()
}
