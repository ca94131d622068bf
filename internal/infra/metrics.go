package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Traffic: записанные аудит-записи по видам сущностей
	RecordsTotal *prometheus.CounterVec

	// Errors: отклоненные записи (хранилище)
	RecordFailures prometheus.Counter

	// Нотификационный подконвейер: опубликовано / пропущено (с причиной)
	NotificationsPublished prometheus.Counter
	NotificationsSkipped   *prometheus.CounterVec

	// Консьюмер: результат обработки сообщений и писем
	MessagesProcessed *prometheus.CounterVec
	EmailsSent        prometheus.Counter
	EmailsFailed      prometheus.Counter

	// Директория: отказы внешнего user-service по операциям
	DirectoryErrors *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RecordsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "audit_records_total",
			Help: "Total number of audit records written.",
		}, []string{"entity"}),

		RecordFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "audit_record_failures_total",
			Help: "Total number of rejected audit writes.",
		}),

		NotificationsPublished: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "audit_notifications_published_total",
			Help: "Total number of notification messages handed to the queue.",
		}),

		NotificationsSkipped: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "audit_notifications_skipped_total",
			Help: "Notification attempts dropped before publish, by reason.",
		}, []string{"reason"}), // причины: company_lookup_failed, no_company, users_lookup_failed, no_users, publish_failed

		MessagesProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_messages_total",
			Help: "Queue messages handled by the notifier, by outcome.",
		}, []string{"outcome"}), // outcome: ok, malformed

		EmailsSent: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "notifier_emails_sent_total",
			Help: "Emails successfully handed to the mail relay.",
		}),

		EmailsFailed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "notifier_emails_failed_total",
			Help: "Emails rejected by the mail relay.",
		}),

		DirectoryErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "directory_errors_total",
			Help: "Failed calls to the user directory, by operation.",
		}, []string{"op"}), // op: company, users
	}
}
