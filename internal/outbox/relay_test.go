package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/induwarapathirana/cv-creator-sub000/internal/storage/models"
)

type fakePublisher struct {
	failFor map[string]bool
	sent    []string
}

func (f *fakePublisher) PublishMessage(_ context.Context, exchange, key string, body []byte, persistent bool) error {
	if f.failFor[string(body)] {
		return errors.New("broker unavailable")
	}
	f.sent = append(f.sent, exchange+"/"+key+":"+string(body))
	return nil
}

func TestApplyPublishResult(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	msg := &models.OutboxMessage{Status: models.OutboxStatusPending, ErrorMessage: "old"}
	applyPublishResult(msg, nil, now)
	assert.Equal(t, models.OutboxStatusSent, msg.Status)
	require.NotNil(t, msg.ProcessedAt)
	assert.Equal(t, now, *msg.ProcessedAt)
	assert.Empty(t, msg.ErrorMessage)

	msg = &models.OutboxMessage{Status: models.OutboxStatusPending}
	applyPublishResult(msg, errors.New("x"), now)
	assert.Equal(t, models.OutboxStatusPending, msg.Status, "未达上限保持PENDING")
	assert.Equal(t, 1, msg.RetryCount)
	assert.Equal(t, "x", msg.ErrorMessage)

	msg = &models.OutboxMessage{Status: models.OutboxStatusPending, RetryCount: maxRetryCount - 1}
	applyPublishResult(msg, errors.New("x"), now)
	assert.Equal(t, models.OutboxStatusFailed, msg.Status)
}

func TestPublishBatch(t *testing.T) {
	pub := &fakePublisher{failFor: map[string]bool{`{"n":2}`: true}}
	r := NewMessageRelay(nil, pub, zerolog.Nop())

	msgs := []models.OutboxMessage{
		{ID: 1, Payload: `{"n":1}`, TargetExchange: "resume.events.exchange", TargetRoutingKey: "resume.parsed", Status: models.OutboxStatusPending},
		{ID: 2, Payload: `{"n":2}`, TargetExchange: "resume.events.exchange", TargetRoutingKey: "resume.parsed", Status: models.OutboxStatusPending},
	}
	sent, failed := r.publishBatch(context.Background(), msgs, time.Now())
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, failed)
	assert.Equal(t, models.OutboxStatusSent, msgs[0].Status)
	assert.Equal(t, models.OutboxStatusPending, msgs[1].Status)
	assert.Equal(t, []string{`resume.events.exchange/resume.parsed:{"n":1}`}, pub.sent)
}

func TestOptions(t *testing.T) {
	r := NewMessageRelay(nil, &fakePublisher{}, zerolog.Nop(), WithPollingInterval(time.Second), WithBatchSize(50))
	assert.Equal(t, time.Second, r.pollingInterval)
	assert.Equal(t, 50, r.batchSize)

	r = NewMessageRelay(nil, &fakePublisher{}, zerolog.Nop(), WithPollingInterval(0), WithBatchSize(-1))
	assert.Equal(t, defaultPollingInterval, r.pollingInterval)
	assert.Equal(t, defaultBatchSize, r.batchSize)
}

func TestStart_StopsOnCancel(t *testing.T) {
	r := NewMessageRelay(nil, &fakePublisher{}, zerolog.Nop(), WithPollingInterval(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	done := r.Start(ctx)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}
