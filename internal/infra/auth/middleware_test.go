package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/toggle-audit-pipeline/internal/domain"
	"go.uber.org/zap"
)

type fakeValidator struct {
	claims *domain.CustomClaims
	err    error
}

func (f *fakeValidator) VerifyToken(string) (*domain.CustomClaims, error) {
	return f.claims, f.err
}

func protectedEcho(t *testing.T, wantUserID string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, wantUserID, UserIDFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	mw := NewMiddleware(&fakeValidator{}, zap.NewNop())
	h := mw(protectedEcho(t, ""))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/logs", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareRejectsInvalidToken(t *testing.T) {
	mw := NewMiddleware(&fakeValidator{err: errors.New("signature mismatch")}, zap.NewNop())
	h := mw(protectedEcho(t, ""))

	req := httptest.NewRequest(http.MethodGet, "/logs", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewarePutsPrincipalIntoContext(t *testing.T) {
	mw := NewMiddleware(&fakeValidator{claims: &domain.CustomClaims{UserID: "u1", Role: domain.RoleAdmin}}, zap.NewNop())
	h := mw(protectedEcho(t, "u1"))

	req := httptest.NewRequest(http.MethodGet, "/logs", nil)
	req.Header.Set("Authorization", "Bearer ok")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name string
		role string
		want int
	}{
		{"admin passes", domain.RoleAdmin, http.StatusOK},
		{"member is forbidden", "member", http.StatusForbidden},
		{"anonymous is forbidden", "", http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mw := NewMiddleware(&fakeValidator{claims: &domain.CustomClaims{UserID: "u1", Role: tc.role}}, zap.NewNop())
			guard := RequireRole(domain.RoleAdmin, zap.NewNop())
			h := mw(guard(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})))

			req := httptest.NewRequest(http.MethodGet, "/logs", nil)
			req.Header.Set("Authorization", "Bearer ok")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

// Полный круг RS256: подписываем настоящим ключом, проверяем валидатором.
func TestBaseValidatorRoundTrip(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	claims := domain.CustomClaims{
		UserID: "u1",
		Role:   domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "toggle-audit",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(priv)
	require.NoError(t, err)

	v := NewBaseValidator(&priv.PublicKey)

	got, err := v.VerifyToken("Bearer " + signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, domain.RoleAdmin, got.Role)

	// Просроченный токен отклоняется
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	expired, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(priv)
	require.NoError(t, err)
	_, err = v.VerifyToken(expired)
	assert.Error(t, err)

	// Токен с чужой подписью отклоняется
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	forged, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(other)
	require.NoError(t, err)
	_, err = v.VerifyToken(forged)
	assert.Error(t, err)
}
