//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"registrar/internal/platform/kafka"
	"registrar/pkg/domain"
	"registrar/pkg/platform/audit"
	"registrar/pkg/testutil/containers"
)

func TestAuditSink_PublishRoundTrip(t *testing.T) {
	broker := containers.StartRedpanda(t)
	logger := slog.New(slog.DiscardHandler)

	producer, err := kafka.NewProducer([]string{broker}, logger)
	require.NoError(t, err)
	defer producer.Close()

	const topic = "registrar.audit.test"
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, producer.EnsureTopic(ctx, topic))
	// Creating an existing topic must not error.
	require.NoError(t, producer.EnsureTopic(ctx, topic))

	sink := kafka.NewAuditSink(producer, topic)
	sent := audit.Event{
		AccountID: domain.AccountID(42),
		Action:    audit.ActionAccountRegistered,
		Detail:    "display_name=walter.white",
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, sink.Publish(ctx, sent))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)

	assert.Equal(t, "42", string(records[0].Key))

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, sent.AccountID, got.AccountID)
	assert.Equal(t, sent.Action, got.Action)
	assert.Equal(t, sent.Detail, got.Detail)
}
