package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditbot/events"
)

type publishedMessage struct {
	subject string
	data    []byte
}

// recordingPublisher is an in-memory MessagePublisher
type recordingPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

func (r *recordingPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, publishedMessage{subject: subject, data: data})
	return nil
}

func (r *recordingPublisher) Messages() []publishedMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]publishedMessage(nil), r.messages...)
}

func TestNATSEventPublisher_Envelope(t *testing.T) {
	rec := &recordingPublisher{}
	pub := NewNATSEventPublisher(rec)
	pub.now = func() time.Time { return time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC) }

	err := pub.Publish(context.Background(), events.CodeRedeemedEvent{UserID: 7, Code: "PROMO", Amount: 50})
	require.NoError(t, err)

	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ledger.code_redeemed", msgs[0].subject)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(msgs[0].data, &envelope))
	assert.Equal(t, "code_redeemed", envelope.EventType)
	assert.Equal(t, "creditbot", envelope.SourceService)
	assert.Equal(t, time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC), envelope.Timestamp)
	_, err = uuid.Parse(envelope.EventID)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"user_id":7,"code":"PROMO","amount":50}`, string(envelope.Payload))
}

func TestNATSEventPublisher_PublishError(t *testing.T) {
	rec := &recordingPublisher{err: errors.New("no responders")}
	pub := NewNATSEventPublisher(rec)

	err := pub.Publish(context.Background(), events.CodesExpiredEvent{Count: 1})
	assert.Error(t, err)
}

func TestNATSEventPublisher_AttachForwardsBusEvents(t *testing.T) {
	rec := &recordingPublisher{}
	bus := events.NewBus()
	NewNATSEventPublisher(rec).Attach(bus)

	bus.Emit(context.Background(), events.BalanceChangedEvent{UserID: 1, Delta: 3, Reason: events.ReasonReferral})
	bus.Emit(context.Background(), events.UserRegisteredEvent{UserID: 2, InitialCredits: 5})

	assert.Eventually(t, func() bool { return len(rec.Messages()) == 2 }, time.Second, 10*time.Millisecond)

	subjects := []string{}
	for _, m := range rec.Messages() {
		subjects = append(subjects, m.subject)
	}
	assert.ElementsMatch(t, []string{"ledger.balance_changed", "ledger.user_registered"}, subjects)
}

func TestSubjectForEvent(t *testing.T) {
	assert.Equal(t, "ledger.referral_bonus", SubjectForEvent(events.ReferralBonusEvent{}))
	assert.Equal(t, "ledger.codes_expired", SubjectForEvent(events.CodesExpiredEvent{}))
}
