package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/google/uuid"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	kafkautils "github.com/nimeshabuddhika/copytrade-ledger/pkg/kafka"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/configs"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/observability"
	"go.uber.org/zap"
)

// EventPublisher hands committed ledger changes to downstream consumers. Publishing is best effort:
// failures are logged and never undo the committed change.
type EventPublisher interface {
	Publish(ctx context.Context, traceID string, event views.LedgerEvent)
	Close()
}

type KafkaEventPublisher struct {
	logger    *zap.Logger
	producer  *kafka.Producer
	topic     string
	partition uint32
}

// NewEventPublisher returns a Kafka publisher, or a no-op publisher when no brokers are configured.
func NewEventPublisher(ctx context.Context, logger *zap.Logger, cfg *configs.Config) (EventPublisher, error) {
	if !kafkautils.Enabled(cfg.KafkaBrokers) {
		logger.Info("kafka disabled; ledger events are not published")
		return NoopEventPublisher{}, nil
	}
	err := kafkautils.InitKafkaTopics(ctx, logger, kafkautils.KafkaConfig{
		BootstrapServers: cfg.KafkaBrokers,
		Topics: []kafkautils.TopicConfig{
			{
				Topic:             cfg.KafkaTopic,
				NumPartitions:     int(cfg.KafkaPartition),
				ReplicationFactor: 1,
				Config: map[string]string{
					"cleanup.policy": "delete",
					"retention.ms":   fmt.Sprintf("%d", cfg.KafkaRetention.Milliseconds()),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize kafka topics: %w", err)
	}

	p, err := kafka.NewProducer(kafkautils.ProducerConfig(cfg.KafkaBrokers, cfg.KafkaRetry))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	logger.Info("kafka producer created successfully", zap.String("brokers", cfg.KafkaBrokers))
	go kafkautils.HandleDeliveryReports(logger, p)
	return &KafkaEventPublisher{
		logger:    logger,
		producer:  p,
		topic:     cfg.KafkaTopic,
		partition: cfg.KafkaPartition,
	}, nil
}

func (k *KafkaEventPublisher) Publish(_ context.Context, traceID string, event views.LedgerEvent) {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		k.logger.Error("failed to encode ledger event", zap.String(pkg.TraceId, traceID), zap.Error(err))
		observability.EventsPublished.WithLabelValues(string(event.Type), "error").Inc()
		return
	}

	// Partition by account so one account's events stay ordered
	partition := kafka.PartitionAny
	if accountID, err := uuid.Parse(event.AccountID); err == nil {
		partition = int32(accountID.ID() % k.partition)
	}

	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &k.topic, Partition: partition},
		Key:            []byte(event.AccountID),
		Value:          msgBytes,
		Headers: []kafka.Header{
			{Key: pkg.HeaderTraceId, Value: []byte(traceID)},
			{Key: pkg.EventId, Value: []byte(event.ID)},
		},
	}, nil)
	if err != nil {
		k.logger.Error("failed to publish ledger event",
			zap.String(pkg.TraceId, traceID),
			zap.String(pkg.EventId, event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
		observability.EventsPublished.WithLabelValues(string(event.Type), "error").Inc()
		return
	}
	observability.EventsPublished.WithLabelValues(string(event.Type), "queued").Inc()
}

func (k *KafkaEventPublisher) Close() {
	k.producer.Flush(5000)
	k.producer.Close()
}

// NoopEventPublisher drops events.
type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(context.Context, string, views.LedgerEvent) {}

func (NoopEventPublisher) Close() {}
