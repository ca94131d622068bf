package notifier

import (
	"context"
	"encoding/json"

	"github.com/xela07ax/toggle-audit-pipeline/internal/domain"
	"github.com/xela07ax/toggle-audit-pipeline/internal/infra"
	"go.uber.org/zap"
)

// MailSender — транспортный коллаборатор. SMTP-детали живут в пакете mailer.
type MailSender interface {
	Send(ctx context.Context, to, featureName string, values any) error
}

// Consumer превращает пачку сырых сообщений очереди в письма подписчикам.
// Два уровня изоляции отказов: битое сообщение не останавливает пачку,
// отказ отправки одному адресату не останавливает остальных.
// Ретраев здесь нет — повторная доставка целиком на совести брокера.
type Consumer struct {
	mail    MailSender
	metrics *infra.Metrics
	logger  *zap.Logger
}

func NewConsumer(mail MailSender, metrics *infra.Metrics, logger *zap.Logger) *Consumer {
	if metrics == nil {
		metrics = infra.NewMetrics(nil)
	}
	return &Consumer{
		mail:    mail,
		metrics: metrics,
		logger:  logger.Named("notifier"),
	}
}

// ProcessBatch обрабатывает сообщения пачки строго последовательно,
// в порядке доставки. Никогда не возвращает ошибку: все исходы уже
// залогированы и посчитаны внутри.
func (c *Consumer) ProcessBatch(ctx context.Context, bodies [][]byte) {
	for _, body := range bodies {
		c.processMessage(ctx, body)
	}
}

func (c *Consumer) processMessage(ctx context.Context, body []byte) {
	var msg domain.NotificationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		c.metrics.MessagesProcessed.WithLabelValues("malformed").Inc()
		c.logger.Warn("malformed queue message, skipped", zap.Error(err))
		return
	}

	// Сообщение без любого из обязательных полей бракуем целиком
	if msg.CompanyID == "" || msg.FeatureName == "" || msg.Values == nil || len(msg.Users) == 0 {
		c.metrics.MessagesProcessed.WithLabelValues("malformed").Inc()
		c.logger.Warn("incomplete queue message, skipped",
			zap.String("company_id", msg.CompanyID),
			zap.String("feature", msg.FeatureName),
		)
		return
	}

	log := c.logger.With(
		zap.String("company_id", msg.CompanyID),
		zap.String("feature", msg.FeatureName),
	)

	// Снимок получателей обходим как есть, без пересортировки
	for _, u := range msg.Users {
		switch u.Eligibility() {
		case domain.Subscribed:
			if u.Email == "" {
				// Подписан, но писать некуда — это уже не "не подписан", а брак данных
				log.Warn("subscribed user without email, skipped")
				continue
			}
			if err := c.mail.Send(ctx, u.Email, msg.FeatureName, msg.Values); err != nil {
				c.metrics.EmailsFailed.Inc()
				log.Error("email dispatch failed", zap.String("to", u.Email), zap.Error(err))
				continue // изоляция по получателю
			}
			c.metrics.EmailsSent.Inc()
			log.Info("email sent", zap.String("to", u.Email))

		case domain.Unsubscribed:
			log.Info("user not subscribed, no email", zap.String("email", u.Email))

		default: // domain.UnknownSubscription
			log.Warn("unexpected subscription flag shape",
				zap.String("email", u.Email),
				zap.Any("is_subscribed", u.IsSubscribed),
			)
		}
	}

	c.metrics.MessagesProcessed.WithLabelValues("ok").Inc()
}
