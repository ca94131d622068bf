package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/toggle-audit-pipeline/internal/domain"
	"github.com/xela07ax/toggle-audit-pipeline/internal/infra"
	"go.uber.org/zap"
)

// Client — HTTP-клиент внешнего user-service (директории).
// Контракт деградации: любая ошибка здесь означает "компания не найдена" /
// "пользователей нет" для вызывающего — решает оркестратор, клиент лишь
// возвращает честную ошибку.
//
// Контракт директории:
//
//	GET {base}/{userId}/company  -> {"company_id": "..."}
//	GET {base}/{companyId}/users -> [{"email": "...", "is_subscribed": 0|1}, ...]
type Client struct {
	base     string
	httpc    *http.Client
	rdb      *redis.Client // nil — кэш выключен
	cacheTTL time.Duration
	guard    *callGuard
	metrics  *infra.Metrics
	logger   *zap.Logger
}

func NewClient(cfg infra.DirectoryConfig, rdb *redis.Client, metrics *infra.Metrics, logger *zap.Logger) *Client {
	if metrics == nil {
		metrics = infra.NewMetrics(nil)
	}
	return &Client{
		base:     cfg.BaseURL,
		httpc:    &http.Client{Timeout: cfg.Timeout},
		rdb:      rdb,
		cacheTTL: cfg.CacheTTL,
		guard:    newCallGuard(cfg.RPS),
		metrics:  metrics,
		logger:   logger.Named("directory"),
	}
}

type companyResponse struct {
	CompanyID string `json:"company_id"`
}

// CompanyForUser разрешает userId -> companyId.
// Пустая строка без ошибки — у пользователя нет компании.
func (c *Client) CompanyForUser(ctx context.Context, userID string) (string, error) {
	// Кэш первым: директория — горячий путь каждого feature-аудита
	if cached, ok := c.cacheGet(ctx, infra.CompanyCacheKey(userID)); ok {
		return cached, nil
	}

	var resp companyResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s/company", c.base, userID), &resp); err != nil {
		c.metrics.DirectoryErrors.WithLabelValues("company").Inc()
		return "", err
	}

	if resp.CompanyID != "" {
		c.cacheSet(ctx, infra.CompanyCacheKey(userID), resp.CompanyID)
	}
	return resp.CompanyID, nil
}

// CompanyUsers возвращает участников компании в порядке, который отдала директория.
// Пустой срез — валидный результат, а не ошибка.
func (c *Client) CompanyUsers(ctx context.Context, companyID string) ([]domain.CompanyUser, error) {
	var users []domain.CompanyUser
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s/users", c.base, companyID), &users); err != nil {
		c.metrics.DirectoryErrors.WithLabelValues("users").Inc()
		return nil, err
	}
	return users, nil
}

// getJSON выполняет GET под защитой лимитера, предохранителя и ретраев.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	return c.guard.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("directory: failed to build request: %w", err)
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			return fmt.Errorf("directory: request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			// Вычитываем тело, чтобы соединение вернулось в пул
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("directory: unexpected status %d from %s", resp.StatusCode, url)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("directory: failed to decode response: %w", err)
		}
		return nil
	})
}

// cacheGet / cacheSet — best-effort: отказ Redis не должен ломать разрешение компании.
func (c *Client) cacheGet(ctx context.Context, key string) (string, bool) {
	if c.rdb == nil {
		return "", false
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return val, true
}

func (c *Client) cacheSet(ctx context.Context, key, val string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, key, val, c.cacheTTL).Err(); err != nil {
		c.logger.Debug("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
