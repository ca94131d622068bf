package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/xela07ax/toggle-audit-pipeline/internal/domain"
)

type StatsReader interface {
	GetActionStats(ctx context.Context, start, end *time.Time) ([]domain.ActionStat, error)
}

type StatsHandler struct {
	service StatsReader
}

func NewStatsHandler(s StatsReader) *StatsHandler {
	return &StatsHandler{service: s}
}

// GetStats возвращает сводку записей аудита по действиям.
// GET /v1/stats?startDate=...&endDate=...
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var start, end *time.Time
	if q.Get("startDate") != "" && q.Get("endDate") != "" {
		s, err := parseDate(q.Get("startDate"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid startDate"})
			return
		}
		e, err := parseDate(q.Get("endDate"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid endDate"})
			return
		}
		start, end = &s, &e
	}

	stats, err := h.service.GetActionStats(r.Context(), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch stats"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}
