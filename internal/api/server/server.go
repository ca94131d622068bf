package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xela07ax/toggle-audit-pipeline/internal/api/handler"
	"github.com/xela07ax/toggle-audit-pipeline/internal/domain"
	"github.com/xela07ax/toggle-audit-pipeline/internal/infra/auth"
	"go.uber.org/zap"
)

type APIServer struct {
	router *chi.Mux
	logger *zap.Logger

	// Интерфейс для проверки токенов (RS256)
	authValidator auth.TokenValidator

	// Обработчики бизнес-доменов
	authHandler  *handler.AuthHandler  // /auth/token
	auditHandler *handler.AuditHandler // /log, /logs
	statsHandler *handler.StatsHandler // /v1/stats
}

// NewAPIServer инициализирует HTTP-сервер аудита со всеми зависимостями
func NewAPIServer(
	logger *zap.Logger,
	validator auth.TokenValidator,
	authH *handler.AuthHandler,
	auditH *handler.AuditHandler,
	statsH *handler.StatsHandler,
) *APIServer {
	s := &APIServer{
		router:        chi.NewRouter(),
		logger:        logger.Named("audit-api"),
		authValidator: validator,
		authHandler:   authH,
		auditHandler:  auditH,
		statsHandler:  statsH,
	}

	s.routes()
	return s
}

func (s *APIServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TracingMiddleware)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ ---
	r.Group(func(r chi.Router) {
		// Запись аудита приходит от внутренних сервисов без токена,
		// как и в остальной платформе
		r.Post("/log", s.auditHandler.PostLog)

		// Логин должен быть доступен без токена
		r.Post("/auth/token", s.authHandler.Login)

		// Healthcheck для мониторинга
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР (токен + роль admin) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.authValidator, s.logger))
		r.Use(auth.RequireRole(domain.RoleAdmin, s.logger))

		// Чтение журнала аудита
		r.Get("/logs", s.auditHandler.GetLogs)

		// Сводный отчет по действиям
		r.Get("/v1/stats", s.statsHandler.GetStats)
	})
}

// requestLogger пишет итог каждого запроса в zap вместе с trace_id —
// по нему запрос склеивается с логами сервисного слоя.
// Ставится ПОСЛЕ TracingMiddleware, иначе в контексте еще нет ID.
func (s *APIServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info("request completed",
			zap.String("trace_id", TraceIDFromContext(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

// ServeHTTP позволяет использовать APIServer как стандартный http.Handler
func (s *APIServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
