//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/disease-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/disease-risk-service/internal/alerting"
	"github.com/couchcryptid/disease-risk-service/internal/config"
	"github.com/couchcryptid/disease-risk-service/internal/domain"
	"github.com/couchcryptid/disease-risk-service/internal/engine"
	"github.com/couchcryptid/disease-risk-service/internal/observability"
	"github.com/couchcryptid/disease-risk-service/internal/pipeline"
	"github.com/couchcryptid/disease-risk-service/internal/registry"
	"github.com/couchcryptid/disease-risk-service/internal/riskdata"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	testSourceTopic = "test-risk-updates"
	testSinkTopic   = "test-risk-alerts"
)

// --- helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("disease-risk-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 2 * time.Second,
	}
}

func defaultData(t *testing.T) (*registry.Registry, *riskdata.Store) {
	t.Helper()
	reg, err := registry.Default()
	require.NoError(t, err)
	table, err := riskdata.LoadFile("", reg)
	require.NoError(t, err)
	return reg, riskdata.NewStore(table)
}

func updateValue(t *testing.T, city, disease string, v float64) []byte {
	t.Helper()
	risks := make([]float64, 12)
	for i := range risks {
		risks[i] = v
	}
	data, err := json.Marshal(map[string]any{"city": city, "disease": disease, "risks": risks})
	require.NoError(t, err)
	return data
}

// --- tests ---

// TestPipelineRefreshesRiskTable publishes row replacements, including a
// poison pill, and verifies the valid rows reach the store.
func TestPipelineRefreshesRiskTable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)

	reg, store := defaultData(t)
	_, ok := store.Lookup("Mumbai", domain.Dengue, 7)
	require.False(t, ok, "Mumbai dengue starts without authoritative data")

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("Mumbai|dengue"), Value: updateValue(t, "Mumbai", "Dengue", 77)},
		kafkago.Message{Key: []byte("Pune|cholera"), Value: updateValue(t, "pune", "cholera", 33)},
	))

	cfg := testConfig(broker, "test-refresh")
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, pipeline.NewTransformer(reg, discardLogger()), store, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	require.Eventually(t, func() bool {
		_, mumbai := store.Lookup("Mumbai", domain.Dengue, 7)
		_, pune := store.Lookup("Pune", domain.Cholera, 0)
		return mumbai && pune
	}, 60*time.Second, 100*time.Millisecond)

	pipelineCancel()
	require.NoError(t, <-errCh)

	v, _ := store.Lookup("Mumbai", domain.Dengue, 7)
	assert.InDelta(t, 77, v, 0)
	v, _ = store.Lookup("Pune", domain.Cholera, 0)
	assert.InDelta(t, 33, v, 0)
}

// TestScannerPublishesAlerts runs one scan against real Kafka and reads the
// alerts back from the sink topic.
func TestScannerPublishesAlerts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	reg, store := defaultData(t)
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.August, 1, 6, 0, 0, 0, time.UTC))
	eng := engine.New(reg, store, engine.WithClock(clock))

	cfg := testConfig(broker, "test-alerts")
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	scanner := alerting.NewScanner(eng, reg, nil, writer, alerting.Config{
		Interval:      time.Hour,
		MinRisk:       70,
		OutlookMonths: 3,
	}, clock, discardLogger(), observability.NewMetricsForTesting())

	published, err := scanner.Scan(ctx)
	require.NoError(t, err)
	require.Positive(t, published)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	for i := 0; i < published; i++ {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read alert %d", i)

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}

		var a alerting.Alert
		require.NoError(t, json.Unmarshal(msg.Value, &a))
		assert.Equal(t, a.ID, string(msg.Key))
		assert.Equal(t, string(a.Disease), headers["disease"])
		assert.Equal(t, string(a.Tier), headers["tier"])
		_, err = time.Parse(time.RFC3339, headers["generated_at"])
		assert.NoError(t, err, "generated_at should be valid RFC3339")
		assert.GreaterOrEqual(t, a.Risk, 70.0)
		assert.Len(t, a.Outlook, 3)
	}
}
