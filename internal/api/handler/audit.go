package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/xela07ax/toggle-audit-pipeline/internal/domain"
)

// AuditRecorder Описываем, что хендлеру нужно от сервиса
type AuditRecorder interface {
	Record(ctx context.Context, in domain.AuditInput) error
	FetchLogs(ctx context.Context, f domain.AuditFilter) ([]domain.AuditRecord, error)
}

type AuditHandler struct {
	service AuditRecorder
}

func NewAuditHandler(s AuditRecorder) *AuditHandler {
	return &AuditHandler{service: s}
}

// PostLog регистрирует действие аудита.
// POST /log
// 200 — записано; 400 — не хватает поля; 500 — отказ хранилища.
// Отказы нотификационного подконвейера клиент не видит никогда.
func (h *AuditHandler) PostLog(w http.ResponseWriter, r *http.Request) {
	var in domain.AuditInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.service.Record(r.Context(), in); err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": vErr.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to record audit action"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "audit action recorded"})
}

// GetLogs возвращает записи аудита с поддержкой фильтрации.
// GET /logs?startDate=...&endDate=...&action=...&userId=...
func (h *AuditHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.AuditFilter{
		Action: q.Get("action"),
		UserID: q.Get("userId"),
	}

	// Диапазон дат действует только парой — одиночный параметр игнорируем
	if q.Get("startDate") != "" && q.Get("endDate") != "" {
		start, err := parseDate(q.Get("startDate"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid startDate"})
			return
		}
		end, err := parseDate(q.Get("endDate"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid endDate"})
			return
		}
		filter.StartDate = &start
		filter.EndDate = &end
	}

	logs, err := h.service.FetchLogs(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch audit logs"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

// parseDate принимает RFC3339 или короткую форму YYYY-MM-DD
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
