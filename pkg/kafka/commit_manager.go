package kafkautils

import (
	"sync"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"go.uber.org/zap"
)

// OffsetCommitter is satisfied by *kafka.Consumer.
type OffsetCommitter interface {
	CommitOffsets(offsets []kafka.TopicPartition) ([]kafka.TopicPartition, error)
}

type tp struct {
	topic     string
	partition int32
}

// CommitManager commits offsets in partition order even though messages finish out of order.
// Track must be called from the poll loop in receive order; Ack may be called from any goroutine.
type CommitManager struct {
	mu        sync.Mutex
	inflight  map[tp][]int64            // tracked offsets in receive order
	done      map[tp]map[int64]struct{} // acked offsets not yet committed
	committed map[tp]int64              // last committed offset per partition
	committer OffsetCommitter
	log       *zap.Logger
}

func NewCommitManager(c OffsetCommitter, l *zap.Logger) *CommitManager {
	return &CommitManager{
		inflight:  make(map[tp][]int64),
		done:      make(map[tp]map[int64]struct{}),
		committed: make(map[tp]int64),
		committer: c,
		log:       l,
	}
}

// Track registers msg as in flight.
func (m *CommitManager) Track(msg *kafka.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := keyOf(msg)
	m.inflight[key] = append(m.inflight[key], int64(msg.TopicPartition.Offset))
}

// Ack marks msg processed and commits the longest finished prefix of its partition.
func (m *CommitManager) Ack(eventID string, msg *kafka.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := keyOf(msg)
	off := int64(msg.TopicPartition.Offset)
	if m.done[key] == nil {
		m.done[key] = map[int64]struct{}{}
	}
	m.done[key][off] = struct{}{}

	queue := m.inflight[key]
	next := int64(-1)
	i := 0
	for ; i < len(queue); i++ {
		if _, ok := m.done[key][queue[i]]; !ok {
			break
		}
		next = queue[i]
	}
	if next < 0 {
		return
	}

	topic := key.topic
	tpToCommit := kafka.TopicPartition{Topic: &topic, Partition: key.partition, Offset: kafka.Offset(next + 1)}
	if _, err := m.committer.CommitOffsets([]kafka.TopicPartition{tpToCommit}); err != nil {
		// Offsets stay queued; the next Ack retries the commit.
		m.log.Error("offset_commit_failed",
			zap.String(pkg.EventId, eventID),
			zap.String("topic", key.topic),
			zap.Int32("partition", key.partition),
			zap.Int64("attempted_offset", next), zap.Error(err))
		return
	}
	for _, o := range queue[:i] {
		delete(m.done[key], o)
	}
	m.inflight[key] = queue[i:]
	m.committed[key] = next
	m.log.Debug("offset_committed",
		zap.String(pkg.EventId, eventID),
		zap.String("topic", key.topic),
		zap.Int32("partition", key.partition),
		zap.Int64("offset", next))
}

// Committed returns the last committed offset for the partition, or -1.
func (m *CommitManager) Committed(topic string, partition int32) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if off, ok := m.committed[tp{topic: topic, partition: partition}]; ok {
		return off
	}
	return -1
}

func keyOf(msg *kafka.Message) tp {
	topic := ""
	if msg.TopicPartition.Topic != nil {
		topic = *msg.TopicPartition.Topic
	}
	return tp{topic: topic, partition: msg.TopicPartition.Partition}
}
