package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/toggle-audit-pipeline/internal/domain"
	"github.com/xela07ax/toggle-audit-pipeline/internal/infra"
	"go.uber.org/zap"
)

// statsCacheTTL — отчет агрегатный, минутная свежесть устраивает админку
const statsCacheTTL = time.Minute

// StatsProvider описывает требования отчета к хранилищу
type StatsProvider interface {
	ActionStats(ctx context.Context, start, end *time.Time) ([]domain.ActionStat, error)
}

// StatsService отдает сводку по действиям, кэшируя результат в Redis.
type StatsService struct {
	repo   StatsProvider
	rdb    *redis.Client // nil — кэш выключен
	logger *zap.Logger
}

func NewStatsService(repo StatsProvider, rdb *redis.Client, logger *zap.Logger) *StatsService {
	return &StatsService{
		repo:   repo,
		rdb:    rdb,
		logger: logger.Named("stats"),
	}
}

// GetActionStats возвращает количество записей по каждому действию.
// Диапазон дат опционален и применяется только парой.
func (s *StatsService) GetActionStats(ctx context.Context, start, end *time.Time) ([]domain.ActionStat, error) {
	key := infra.StatsCacheKey(rangeTag(start, end))

	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, key).Result(); err == nil {
			var cached []domain.ActionStat
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return cached, nil
			}
		}
	}

	stats, err := s.repo.ActionStats(ctx, start, end)
	if err != nil {
		return nil, &domain.QueryError{Err: err}
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.rdb.Set(ctx, key, raw, statsCacheTTL).Err(); err != nil {
				s.logger.Debug("stats cache write failed", zap.Error(err))
			}
		}
	}
	return stats, nil
}

func rangeTag(start, end *time.Time) string {
	if start == nil || end == nil {
		return "all"
	}
	return fmt.Sprintf("%d-%d", start.Unix(), end.Unix())
}
