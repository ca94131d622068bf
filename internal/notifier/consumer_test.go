package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/toggle-audit-pipeline/internal/domain"
	"go.uber.org/zap"
)

type fakeMail struct {
	sent    []string
	failFor map[string]bool
}

func (f *fakeMail) Send(_ context.Context, to, _ string, _ any) error {
	if f.failFor[to] {
		return errors.New("smtp rejected")
	}
	f.sent = append(f.sent, to)
	return nil
}

func newTestConsumer() (*Consumer, *fakeMail) {
	mail := &fakeMail{failFor: map[string]bool{}}
	return NewConsumer(mail, nil, zap.NewNop()), mail
}

func encode(t *testing.T, msg domain.NotificationMessage) []byte {
	t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	return raw
}

// Round-trip сценария A: письмо уходит ровно одному подписанному.
func TestProcessBatchDispatchesOnlySubscribed(t *testing.T) {
	c, mail := newTestConsumer()

	body := encode(t, domain.NotificationMessage{
		CompanyID:   "c1",
		FeatureName: "darkMode",
		Values:      map[string]any{"enabled": true},
		Users: []domain.CompanyUser{
			{Email: "a@x.com", IsSubscribed: 1},
			{Email: "b@x.com", IsSubscribed: 0},
		},
	})

	c.ProcessBatch(context.Background(), [][]byte{body})
	assert.Equal(t, []string{"a@x.com"}, mail.sent)
}

// Сценарий D: битое и неполное сообщения не мешают валидному.
func TestProcessBatchIsolatesMalformedMessages(t *testing.T) {
	c, mail := newTestConsumer()

	missingFeature := encode(t, domain.NotificationMessage{
		CompanyID: "c1",
		Values:    map[string]any{"enabled": true},
		Users:     []domain.CompanyUser{{Email: "x@x.com", IsSubscribed: 1}},
	})
	valid := encode(t, domain.NotificationMessage{
		CompanyID:   "c1",
		FeatureName: "darkMode",
		Values:      map[string]any{"enabled": true},
		Users:       []domain.CompanyUser{{Email: "a@x.com", IsSubscribed: 1}},
	})

	c.ProcessBatch(context.Background(), [][]byte{
		[]byte("{not json"),
		missingFeature,
		valid,
	})

	assert.Equal(t, []string{"a@x.com"}, mail.sent)
}

func TestProcessBatchIsolatesDispatchFailures(t *testing.T) {
	c, mail := newTestConsumer()
	mail.failFor["a@x.com"] = true

	body := encode(t, domain.NotificationMessage{
		CompanyID:   "c1",
		FeatureName: "darkMode",
		Values:      map[string]any{"enabled": true},
		Users: []domain.CompanyUser{
			{Email: "a@x.com", IsSubscribed: 1},
			{Email: "b@x.com", IsSubscribed: 1},
		},
	})

	c.ProcessBatch(context.Background(), [][]byte{body})

	// Отказ на первом получателе не останавливает остальных
	assert.Equal(t, []string{"b@x.com"}, mail.sent)
}

func TestProcessBatchSkipsUnexpectedFlagShapes(t *testing.T) {
	c, mail := newTestConsumer()

	body := encode(t, domain.NotificationMessage{
		CompanyID:   "c1",
		FeatureName: "darkMode",
		Values:      map[string]any{"enabled": true},
		Users: []domain.CompanyUser{
			{Email: "weird@x.com", IsSubscribed: "yes"}, // неожиданная форма
			{Email: "", IsSubscribed: 1},                // подписан, но без адреса
			{Email: "ok@x.com", IsSubscribed: 1},
		},
	})

	c.ProcessBatch(context.Background(), [][]byte{body})
	assert.Equal(t, []string{"ok@x.com"}, mail.sent)
}

func TestProcessBatchPreservesRecipientOrder(t *testing.T) {
	c, mail := newTestConsumer()

	body := encode(t, domain.NotificationMessage{
		CompanyID:   "c1",
		FeatureName: "darkMode",
		Values:      map[string]any{"enabled": true},
		Users: []domain.CompanyUser{
			{Email: "first@x.com", IsSubscribed: 1},
			{Email: "second@x.com", IsSubscribed: 1},
			{Email: "third@x.com", IsSubscribed: 1},
		},
	})

	c.ProcessBatch(context.Background(), [][]byte{body})
	assert.Equal(t, []string{"first@x.com", "second@x.com", "third@x.com"}, mail.sent)
}
