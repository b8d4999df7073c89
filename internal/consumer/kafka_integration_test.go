//go:build integration

package consumer

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkaContainer "github.com/testcontainers/testcontainers-go/modules/kafka"

	"example.com/template/internal/event"
)

func TestKafkaDriftMonitorObservesTemplateEvents(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	kafkaC, err := kafkaContainer.RunContainer(ctx, testcontainers.WithEnv(map[string]string{
		"KAFKA_AUTO_CREATE_TOPICS_ENABLE": "true",
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kafkaC.Terminate(context.Background()) })

	brokers, err := kafkaC.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	broker := brokers[0]

	topic := "template_events"

	conn, err := kafka.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{broker},
		GroupID:     "drift-integration",
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	defer reader.Close()

	consumerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	proc := NewProcessor(reader, NewDriftHandler(nil))
	go func() {
		_ = proc.Run(consumerCtx)
	}()

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	defer writer.Close()

	beforeObserved := testutil.ToFloat64(intensityDistributionCounter.WithLabelValues("POWER"))
	beforeDrift := testutil.ToFloat64(driftCounter.WithLabelValues("SANFT", "POWER"))

	matching := event.TemplateClassified{
		TemplateID: "tpl-drift-1",
		TenantID:   "tenant",
		UserID:     "user",
		Name:       "HIIT Tabata Blast",
		Intensity:  "POWER",
		Trigger:    event.TriggerCreate,
		OccurredAt: time.Now().UTC(),
	}
	drifted := event.TemplateClassified{
		TemplateID: "tpl-drift-2",
		TenantID:   "tenant",
		UserID:     "user",
		Name:       "Power Yoga",
		Intensity:  "SANFT",
		Trigger:    event.TriggerCreate,
		OccurredAt: time.Now().UTC(),
	}

	for _, evt := range []event.TemplateClassified{matching, drifted} {
		payload, marshalErr := json.Marshal(evt)
		require.NoError(t, marshalErr)

		err = writer.WriteMessages(context.Background(), kafka.Message{
			Key:   []byte(evt.TemplateID),
			Value: frameWirePayload(1, payload),
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte("template.classified")},
				{Key: "tenant_id", Value: []byte(evt.TenantID)},
				{Key: "schema_subject", Value: []byte("template_events-value")},
			},
		})
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(intensityDistributionCounter.WithLabelValues("POWER")) >= beforeObserved+1
	}, 30*time.Second, 500*time.Millisecond)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(driftCounter.WithLabelValues("SANFT", "POWER")) >= beforeDrift+1
	}, 30*time.Second, 500*time.Millisecond)
}

func frameWirePayload(schemaID int, payload []byte) []byte {
	frame := make([]byte, 5+len(payload))
	frame[0] = 0
	binary.BigEndian.PutUint32(frame[1:5], uint32(schemaID))
	copy(frame[5:], payload)
	return frame
}
