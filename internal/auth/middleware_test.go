package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthstock/healthstock-backend/internal/auth"
	"github.com/healthstock/healthstock-backend/internal/auth/jwt"
	"github.com/healthstock/healthstock-backend/pkg/actor"
	"github.com/healthstock/healthstock-backend/pkg/config"
	"github.com/healthstock/healthstock-backend/pkg/testutil"
)

func newManager() *jwt.Manager {
	return jwt.NewManager(&config.JWTConfig{
		Secret:        "test-secret-key-for-unit-tests",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        "healthstock",
	})
}

func protected(manager *jwt.Manager, captured **actor.Actor) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = actor.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return auth.Middleware(manager)(next)
}

func TestMiddleware_ValidToken(t *testing.T) {
	manager := newManager()

	pair, err := manager.GenerateTokenPair(&jwt.UserInfo{
		ID:           testutil.TestActor().ID,
		Username:     "jdoe",
		Email:        "jdoe@example.org",
		Role:         "inventory_manager",
		HospitalName: "General Hospital",
	})
	require.NoError(t, err)

	var got *actor.Actor
	handler := protected(manager, &got)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "jdoe", got.Username)
	assert.Equal(t, "inventory_manager", got.Role)
	assert.Equal(t, "General Hospital", got.HospitalName)
}

func TestMiddleware_MissingHeader(t *testing.T) {
	var got *actor.Actor
	handler := protected(newManager(), &got)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, got)
}

func TestMiddleware_MalformedHeader(t *testing.T) {
	var got *actor.Actor
	handler := protected(newManager(), &got)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Token abcdef")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, got)
}

func TestMiddleware_GarbageToken(t *testing.T) {
	var got *actor.Actor
	handler := protected(newManager(), &got)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, got)
}
