package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/toggle-audit-pipeline/internal/infra"
	"go.uber.org/zap"
)

func newTestClient(baseURL string) *Client {
	cfg := infra.DirectoryConfig{
		BaseURL:  baseURL,
		Timeout:  2 * time.Second,
		CacheTTL: time.Minute,
		RPS:      100,
	}
	return NewClient(cfg, nil, nil, zap.NewNop())
}

func TestCompanyForUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/u1/company", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"company_id":"c1"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	company, err := c.CompanyForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "c1", company)
}

func TestCompanyForUserNoCompany(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"company_id":""}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	company, err := c.CompanyForUser(context.Background(), "orphan")

	// Отсутствие компании — не ошибка, а пустой результат
	require.NoError(t, err)
	assert.Empty(t, company)
}

func TestCompanyUsersPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/c1/users", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"email":"a@x.com","is_subscribed":1},
			{"email":"b@x.com","is_subscribed":0},
			{"email":"c@x.com","is_subscribed":1}
		]`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	users, err := c.CompanyUsers(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "a@x.com", users[0].Email)
	assert.Equal(t, "b@x.com", users[1].Email)
	assert.Equal(t, "c@x.com", users[2].Email)
	assert.Equal(t, float64(1), users[0].IsSubscribed)
}

func TestCompanyForUserServerErrorIsRetriedThenSurfaced(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.CompanyForUser(context.Background(), "u1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
	assert.Equal(t, int32(3), hits.Load(), "guard retries the call before giving up")
}

func TestCompanyUsersBadJSONIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{broken`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.CompanyUsers(context.Background(), "c1")
	require.Error(t, err)
}
