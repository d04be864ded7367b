package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medledger/claimguard/internal/domain/event"
	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
	appErrors "github.com/medledger/claimguard/pkg/errors"
)

// mockWriter captures written messages.
type mockWriter struct {
	messages []kafka.Message
	writeErr error
	closed   bool
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.writeErr != nil {
		return w.writeErr
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *mockWriter) Close() error {
	w.closed = true
	return nil
}

func testEvent() event.FraudEvent {
	return event.FraudEvent{
		Type:       event.TypeClaimFlagged,
		ClaimID:    "claim-1",
		PatientID:  "patient-1",
		ProviderID: "provider-1",
		Score:      85,
		RiskLevel:  "HIGH",
		OccurredAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestPublish_KeyedByClaimID(t *testing.T) {
	w := &mockWriter{}
	p := NewPublisherWithWriter(w, logging.NewNopLogger())

	require.NoError(t, p.Publish(context.Background(), testEvent()))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, []byte("claim-1"), msg.Key)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event-type", msg.Headers[0].Key)
	assert.Equal(t, []byte("claim.flagged"), msg.Headers[0].Value)

	var decoded event.FraudEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, testEvent(), decoded)

	assert.Equal(t, int64(1), p.Metrics().MessagesSent.Load())
	assert.Equal(t, int64(0), p.Metrics().MessagesFailed.Load())
}

func TestPublish_WriteFailureCounted(t *testing.T) {
	w := &mockWriter{writeErr: assert.AnError}
	p := NewPublisherWithWriter(w, logging.NewNopLogger())

	err := p.Publish(context.Background(), testEvent())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCodeMessagingError, appErrors.GetCode(err))
	assert.Equal(t, int64(1), p.Metrics().MessagesFailed.Load())
}

func TestPublish_AfterCloseRejected(t *testing.T) {
	w := &mockWriter{}
	p := NewPublisherWithWriter(w, logging.NewNopLogger())

	require.NoError(t, p.Close())
	assert.True(t, w.closed)

	err := p.Publish(context.Background(), testEvent())
	assert.ErrorIs(t, err, ErrPublisherClosed)

	// Close is idempotent.
	assert.NoError(t, p.Close())
}
