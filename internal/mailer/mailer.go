package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xela07ax/toggle-audit-pipeline/internal/infra"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer отправляет уведомления об обновлении фич через SMTP-реле.
// Реализует notifier.MailSender; кадрирование SMTP целиком на gomail.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

func New(cfg infra.MailConfig, logger *zap.Logger) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger.Named("mailer"),
	}
}

// Send собирает и отправляет одно письмо. Контекст здесь только для
// симметрии интерфейса: таймауты — забота SMTP-транспорта.
func (m *Mailer) Send(_ context.Context, to, featureName string, values any) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Feature update: %s", featureName))
	msg.SetBody("text/plain", renderBody(to, featureName, values))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("mailer: failed to send to %s: %w", to, err)
	}
	return nil
}

func renderBody(to, featureName string, values any) string {
	details, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		details = []byte(fmt.Sprintf("%v", values))
	}
	return fmt.Sprintf(
		"Hello %s,\n\nThe feature %q has been updated.\n\nDetails:\n%s\n\nYou are receiving this because you are subscribed to feature updates for your company.\n",
		to, featureName, details,
	)
}
