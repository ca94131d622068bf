package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/toggle-audit-pipeline/internal/domain"
)

type fakeStatsReader struct {
	stats      []domain.ActionStat
	err        error
	start, end *time.Time
}

func (f *fakeStatsReader) GetActionStats(_ context.Context, start, end *time.Time) ([]domain.ActionStat, error) {
	f.start, f.end = start, end
	return f.stats, f.err
}

func TestGetStatsOK(t *testing.T) {
	reader := &fakeStatsReader{stats: []domain.ActionStat{
		{Action: "update", Count: 7},
		{Action: "delete", Count: 2},
	}}
	h := NewStatsHandler(reader)

	w := httptest.NewRecorder()
	h.GetStats(w, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Stats []domain.ActionStat `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, reader.stats, resp.Stats)
	assert.Nil(t, reader.start)
	assert.Nil(t, reader.end)
}

func TestGetStatsPassesDateRange(t *testing.T) {
	reader := &fakeStatsReader{}
	h := NewStatsHandler(reader)

	req := httptest.NewRequest(http.MethodGet, "/v1/stats?startDate=2024-01-01&endDate=2024-02-01", nil)
	w := httptest.NewRecorder()
	h.GetStats(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, reader.start)
	require.NotNil(t, reader.end)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *reader.start)
}

func TestGetStatsRejectsBadDate(t *testing.T) {
	h := NewStatsHandler(&fakeStatsReader{})

	req := httptest.NewRequest(http.MethodGet, "/v1/stats?startDate=yesterday&endDate=2024-02-01", nil)
	w := httptest.NewRecorder()
	h.GetStats(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStatsQueryFailureIs500(t *testing.T) {
	reader := &fakeStatsReader{err: &domain.QueryError{Err: errors.New("relation missing")}}
	h := NewStatsHandler(reader)

	w := httptest.NewRecorder()
	h.GetStats(w, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "relation missing")
}
