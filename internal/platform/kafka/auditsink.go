package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"registrar/pkg/platform/audit"
)

// AuditSink publishes audit events to a Kafka topic, keyed by account ID so
// downstream consumers see each account's trail in order.
type AuditSink struct {
	producer *Producer
	topic    string
}

func NewAuditSink(producer *Producer, topic string) *AuditSink {
	return &AuditSink{producer: producer, topic: topic}
}

func (s *AuditSink) Publish(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return s.producer.Produce(ctx, s.topic, []byte(event.AccountID.String()), payload)
}
