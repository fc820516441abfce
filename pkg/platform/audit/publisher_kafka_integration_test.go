//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	id "residora/pkg/domain"
	"residora/pkg/platform/audit"
	"residora/pkg/testutil/containers"
)

func TestKafkaPublisherDeliversEvents(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)
	ctx := context.Background()
	const topic = "residora.audit.test"

	publisher, err := audit.NewKafkaPublisher(ctx, []string{rp.Broker}, topic, slog.Default())
	require.NoError(t, err)
	defer publisher.Close()

	accountID := id.NewAccountID()
	event := audit.Event{
		Action:    string(audit.EventAccountDeleted),
		Category:  audit.CategoryCompliance,
		AccountID: accountID,
		Email:     "karim@example.com",
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, publisher.Emit(ctx, event))

	flushCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	require.NoError(t, publisher.Flush(flushCtx))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	pollCtx, cancelPoll := context.WithTimeout(ctx, 15*time.Second)
	defer cancelPoll()
	fetches := consumer.PollFetches(pollCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, string(audit.EventAccountDeleted), string(records[0].Key))

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, accountID, got.AccountID)
	assert.Equal(t, "karim@example.com", got.Email)
	assert.Equal(t, audit.CategoryCompliance, got.Category)
}
