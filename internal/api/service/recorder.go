package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/toggle-audit-pipeline/internal/domain"
	"github.com/xela07ax/toggle-audit-pipeline/internal/infra"
	"go.uber.org/zap"
)

// AuditStore описывает требования рекордера к хранилищу
type AuditStore interface {
	Insert(ctx context.Context, rec domain.AuditRecord) error
	Fetch(ctx context.Context, f domain.AuditFilter) ([]domain.AuditRecord, error)
}

// DirectoryProvider разрешает связи пользователь <-> компания во внешней директории
type DirectoryProvider interface {
	CompanyForUser(ctx context.Context, userID string) (string, error)
	CompanyUsers(ctx context.Context, companyID string) ([]domain.CompanyUser, error)
}

// EventPublisher кладет собранное уведомление в очередь (fire-and-forget)
type EventPublisher interface {
	Publish(ctx context.Context, msg domain.NotificationMessage) error
}

// skipReason — явная причина остановки нотификационного подконвейера.
// Раньше такие ветки прятались в catch-log-continue; здесь каждая — отдельный,
// проверяемый исход.
type skipReason string

const (
	skipNone                skipReason = ""
	skipCompanyLookupFailed skipReason = "company_lookup_failed"
	skipNoCompany           skipReason = "no_company"
	skipUsersLookupFailed   skipReason = "users_lookup_failed"
	skipNoUsers             skipReason = "no_users"
	skipPublishFailed       skipReason = "publish_failed"
)

// AuditService — оркестратор синхронного пути: валидация -> запись -> [обогащение -> публикация].
// Запись первична; всё после успешной вставки — best-effort и никогда
// не превращается в ошибку вызова Record.
type AuditService struct {
	store     AuditStore
	directory DirectoryProvider
	publisher EventPublisher
	metrics   *infra.Metrics
	logger    *zap.Logger
}

func NewAuditService(
	store AuditStore,
	directory DirectoryProvider,
	publisher EventPublisher,
	metrics *infra.Metrics,
	logger *zap.Logger,
) *AuditService {
	if metrics == nil {
		metrics = infra.NewMetrics(nil)
	}
	return &AuditService{
		store:     store,
		directory: directory,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.Named("recorder"),
	}
}

// Record валидирует вход, атомарно пишет запись и для entity == "feature"
// запускает нотификационный подконвейер. Наверх уходят только
// *domain.ValidationError и *domain.StorageError.
func (s *AuditService) Record(ctx context.Context, in domain.AuditInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	rec := domain.AuditRecord{
		ID:        uuid.New().String(),
		Action:    in.Action,
		Entity:    in.Entity,
		EntityID:  in.EntityID,
		Details:   in.Details,
		UserID:    in.UserID,
		Timestamp: time.Now().UTC(), // проставляем сами, не доверяем клиенту
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		s.metrics.RecordFailures.Inc()
		return &domain.StorageError{Err: err}
	}
	s.metrics.RecordsTotal.WithLabelValues(rec.Entity).Inc()

	// Публикация строго ПОСЛЕ успешной записи. Не feature — выходим сразу,
	// директорию и очередь даже не трогаем.
	if rec.Entity != domain.EntityFeature {
		return nil
	}

	if reason := s.notify(ctx, rec); reason != skipNone {
		s.metrics.NotificationsSkipped.WithLabelValues(string(reason)).Inc()
	}
	return nil
}

// notify ведет подконвейер обогащения и публикации до первого стоп-условия.
// Возвращает skipNone, если сообщение ушло в очередь.
func (s *AuditService) notify(ctx context.Context, rec domain.AuditRecord) skipReason {
	log := s.logger.With(
		zap.String("record_id", rec.ID),
		zap.String("feature", rec.EntityID),
	)

	companyID, err := s.directory.CompanyForUser(ctx, rec.UserID)
	if err != nil {
		log.Warn("company lookup failed, notification skipped",
			zap.String("user_id", rec.UserID), zap.Error(err))
		return skipCompanyLookupFailed
	}
	if companyID == "" {
		log.Info("user has no company, notification skipped",
			zap.String("user_id", rec.UserID))
		return skipNoCompany
	}

	users, err := s.directory.CompanyUsers(ctx, companyID)
	if err != nil {
		log.Warn("users lookup failed, notification skipped",
			zap.String("company_id", companyID), zap.Error(err))
		return skipUsersLookupFailed
	}
	if len(users) == 0 {
		log.Info("company has no users, notification skipped",
			zap.String("company_id", companyID))
		return skipNoUsers
	}

	msg := domain.NotificationMessage{
		CompanyID:   companyID,
		FeatureName: rec.EntityID,
		Values:      rec.Details,
		Users:       users, // снимок на момент публикации
	}

	if err := s.publisher.Publish(ctx, msg); err != nil {
		// Аудит уже записан — отказ очереди глотаем, но громко
		log.Error("notification publish failed", zap.Error(err))
		return skipPublishFailed
	}

	s.metrics.NotificationsPublished.Inc()
	log.Info("notification published",
		zap.String("company_id", companyID),
		zap.Int("recipients", len(users)),
	)
	return skipNone
}

// FetchLogs запрашивает записи аудита по фильтру одним запросом.
func (s *AuditService) FetchLogs(ctx context.Context, f domain.AuditFilter) ([]domain.AuditRecord, error) {
	records, err := s.store.Fetch(ctx, f)
	if err != nil {
		return nil, &domain.QueryError{Err: err}
	}
	return records, nil
}
