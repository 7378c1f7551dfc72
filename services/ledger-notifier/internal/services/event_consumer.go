package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	kafkautils "github.com/nimeshabuddhika/copytrade-ledger/pkg/kafka"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-notifier/configs"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-notifier/internal/observability"
	"go.uber.org/zap"
)

const pollTimeout = 200 * time.Millisecond

// Consumer is the part of *kafka.Consumer the event consumer uses.
type Consumer interface {
	kafkautils.OffsetCommitter
	SubscribeTopics(topics []string, rebalanceCb kafka.RebalanceCb) error
	ReadMessage(timeout time.Duration) (*kafka.Message, error)
	Close() error
}

// Producer is the part of *kafka.Producer used for the DLQ.
type Producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

// EventConsumerConfig holds configuration and dependencies for the ledger event consumer.
// Consumer and DLQProducer are created from Config when nil.
type EventConsumerConfig struct {
	Context     context.Context
	Logger      *zap.Logger
	Config      *configs.Config
	Notifier    Notifier
	Consumer    Consumer
	DLQProducer Producer
}

type EventConsumer struct {
	ctx      context.Context
	logger   *zap.Logger
	cfg      *configs.Config
	notifier Notifier
	consumer Consumer
	dlq      Producer
	commits  *kafkautils.CommitManager
	validate *validator.Validate
	sem      chan struct{} // bounds concurrent deliveries
	wg       sync.WaitGroup
}

func NewEventConsumer(cfg EventConsumerConfig) (*EventConsumer, error) {
	consumer := cfg.Consumer
	if consumer == nil {
		c, err := kafka.NewConsumer(kafkautils.ConsumerConfig(cfg.Config.KafkaBrokers, cfg.Config.KafkaConsumerGroup))
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
		}
		consumer = c
	}

	dlq := cfg.DLQProducer
	if dlq == nil {
		p, err := kafka.NewProducer(kafkautils.ProducerConfig(cfg.Config.KafkaBrokers, cfg.Config.KafkaRetry))
		if err != nil {
			_ = consumer.Close()
			return nil, fmt.Errorf("failed to create DLQ producer: %w", err)
		}
		go kafkautils.HandleDeliveryReports(cfg.Logger, p)
		dlq = p
	}

	return &EventConsumer{
		ctx:      cfg.Context,
		logger:   cfg.Logger,
		cfg:      cfg.Config,
		notifier: cfg.Notifier,
		consumer: consumer,
		dlq:      dlq,
		commits:  kafkautils.NewCommitManager(consumer, cfg.Logger),
		validate: validator.New(),
		sem:      make(chan struct{}, cfg.Config.MaxConcurrentJobs),
	}, nil
}

// Start subscribes and runs the poll loop in a goroutine. The returned func stops polling,
// waits for in-flight deliveries and closes the Kafka clients.
func (e *EventConsumer) Start() (func(), error) {
	if err := e.consumer.SubscribeTopics([]string{e.cfg.KafkaTopic}, nil); err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", e.cfg.KafkaTopic, err)
	}
	e.logger.Info("listening to kafka topic",
		zap.String("topic", e.cfg.KafkaTopic),
		zap.String("group", e.cfg.KafkaConsumerGroup))

	ctx, stop := context.WithCancel(e.ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.poll(ctx)
	}()

	return func() {
		stop()
		<-done
		e.wg.Wait()
		e.dlq.Flush(5000)
		e.dlq.Close()
		if err := e.consumer.Close(); err != nil {
			e.logger.Error("failed to close kafka consumer", zap.Error(err))
			return
		}
		e.logger.Info("kafka consumer closed successfully")
	}, nil
}

func (e *EventConsumer) poll(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := e.consumer.ReadMessage(pollTimeout)
		if err != nil {
			var kerr kafka.Error
			if errors.As(err, &kerr) && kerr.Code() == kafka.ErrTimedOut {
				continue
			}
			e.logger.Error("failed to read kafka message", zap.Error(err))
			continue
		}

		// Track in receive order so commits never skip an unfinished offset
		e.commits.Track(msg)

		select {
		case e.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		observability.InflightJobs.Inc()
		e.wg.Add(1)
		go func(m *kafka.Message) {
			defer func() {
				<-e.sem
				observability.InflightJobs.Dec()
				e.wg.Done()
			}()
			e.handle(ctx, m)
		}(msg)
	}
}

// handle delivers one message. The offset is acked once the event is delivered or parked in the DLQ;
// a delivery cut short by shutdown is left unacked so it is redelivered.
func (e *EventConsumer) handle(ctx context.Context, msg *kafka.Message) {
	start := time.Now()
	topic := e.cfg.KafkaTopic
	observability.MessagesReceived.WithLabelValues(topic).Inc()
	defer func() {
		observability.ProcessLatency.WithLabelValues(topic).Observe(time.Since(start).Seconds())
	}()

	traceID := headerValue(msg, pkg.HeaderTraceId)
	if traceID == "" {
		traceID = uuid.NewString()
	}

	var event views.LedgerEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		e.logger.Error("failed to decode ledger event", zap.String(pkg.TraceId, traceID), zap.Error(err))
		e.fail(msg, traceID, "", "decode_error", err)
		return
	}
	if err := e.validate.Struct(&event); err != nil {
		e.logger.Error("invalid ledger event",
			zap.String(pkg.TraceId, traceID),
			zap.String(pkg.EventId, event.ID),
			zap.Error(err))
		e.fail(msg, traceID, event.ID, "validation_error", err)
		return
	}

	if err := e.notifier.Notify(ctx, traceID, event); err != nil {
		if ctx.Err() != nil {
			e.logger.Warn("delivery interrupted by shutdown",
				zap.String(pkg.TraceId, traceID),
				zap.String(pkg.EventId, event.ID))
			return
		}
		reason := "delivery_error"
		switch {
		case errors.Is(err, ErrWebhookRejected):
			reason = "rejected"
		case errors.Is(err, ErrRetriesExhausted):
			reason = "retries_exhausted"
		}
		e.logger.Error("failed to deliver ledger event",
			zap.String(pkg.TraceId, traceID),
			zap.String(pkg.EventId, event.ID),
			zap.String("type", string(event.Type)),
			zap.String("reason", reason),
			zap.Error(err))
		e.fail(msg, traceID, event.ID, reason, err)
		return
	}

	observability.EventsDelivered.WithLabelValues(string(event.Type)).Inc()
	e.logger.Info("ledger event delivered",
		zap.String(pkg.TraceId, traceID),
		zap.String(pkg.EventId, event.ID),
		zap.String("type", string(event.Type)))
	e.commits.Ack(event.ID, msg)
}

func (e *EventConsumer) fail(msg *kafka.Message, traceID, eventID, reason string, cause error) {
	observability.EventsFailed.WithLabelValues(reason).Inc()
	e.sendToDLQ(msg, traceID, eventID, reason, cause.Error())
	e.commits.Ack(eventID, msg)
}

// sendToDLQ parks the original payload with the failure context.
func (e *EventConsumer) sendToDLQ(msg *kafka.Message, traceID, eventID, reason, errMsg string) {
	source := map[string]any{"partition": msg.TopicPartition.Partition, "offset": int64(msg.TopicPartition.Offset)}
	if msg.TopicPartition.Topic != nil {
		source["topic"] = *msg.TopicPartition.Topic
	}
	payload := map[string]any{
		"eventId":       eventID,
		"payload":       string(msg.Value),
		"source":        source,
		"failureReason": reason,
		"error":         errMsg,
		"failedAt":      time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		e.logger.Error("failed to marshal DLQ payload", zap.String(pkg.EventId, eventID), zap.Error(err))
		return
	}

	err = e.dlq.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &e.cfg.KafkaDLQTopic, Partition: kafka.PartitionAny},
		Key:            msg.Key,
		Value:          b,
		Headers:        []kafka.Header{{Key: pkg.HeaderTraceId, Value: []byte(traceID)}},
	}, nil)
	if err != nil {
		e.logger.Error("failed to publish to DLQ",
			zap.String(pkg.TraceId, traceID),
			zap.String(pkg.EventId, eventID),
			zap.Error(err))
		return
	}
	observability.DLQPublished.WithLabelValues(reason).Inc()
	e.logger.Info("sent to ledger DLQ",
		zap.String(pkg.TraceId, traceID),
		zap.String(pkg.EventId, eventID),
		zap.String("reason", reason))
}

func headerValue(msg *kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
