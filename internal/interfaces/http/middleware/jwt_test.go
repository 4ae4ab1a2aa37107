package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trainhub/backend/internal/domain/identity"
	"github.com/trainhub/backend/internal/infrastructure/auth"
	"github.com/trainhub/backend/internal/infrastructure/config"
	"github.com/trainhub/backend/internal/infrastructure/logger"
	"github.com/trainhub/backend/internal/interfaces/http/dto"
)

const testJWTSecret = "test-secret-key-at-least-32-chars"

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                testJWTSecret,
		Issuer:                "trainhub-test",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func newTestToken(t *testing.T, svc *auth.JWTService, role identity.Role, additional ...identity.Role) (string, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	token, _, err := svc.GenerateAccessToken(auth.TokenInput{
		UserID:          userID,
		Email:           "user@example.com",
		Role:            role,
		AdditionalRoles: additional,
	})
	require.NoError(t, err)
	return token, userID
}

func signClaims(t *testing.T, claims *auth.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func authRouter(svc *auth.JWTService, h gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), JWTAuthMiddleware(svc))
	router.GET("/api/v1/finance/dashboard", h)
	router.GET("/api/v1/health", h)
	router.GET("/swagger/index.html", h)
	return router
}

func doGet(router http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(AuthHeaderKey, token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestJWTAuthMiddleware_ValidTokenSetsActor(t *testing.T) {
	svc := newTestJWTService()
	token, userID := newTestToken(t, svc, identity.RoleTrainer, identity.RoleCoordinator)

	router := authRouter(svc, func(c *gin.Context) {
		actor, ok := GetActor(c)
		require.True(t, ok)
		assert.Equal(t, userID, actor.UserID)
		assert.True(t, actor.HasRole(identity.RoleTrainer))
		assert.True(t, actor.HasRole(identity.RoleCoordinator))
		assert.Equal(t, userID.String(), c.GetString(logger.GinUserIDKey))
		require.NotNil(t, GetJWTClaims(c))
		c.Status(http.StatusOK)
	})

	w := doGet(router, "/api/v1/finance/dashboard", BearerPrefix+token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	svc := newTestJWTService()
	router := authRouter(svc, func(c *gin.Context) { c.Status(http.StatusOK) })
	valid, _ := newTestToken(t, svc, identity.RoleFinance)

	expired := signClaims(t, &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "trainhub-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
		UserID: uuid.NewString(),
		Role:   string(identity.RoleFinance),
	})

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", dto.ErrCodeUnauthorized},
		{"not bearer", "Basic " + valid, dto.ErrCodeUnauthorized},
		{"empty token", BearerPrefix, dto.ErrCodeUnauthorized},
		{"garbage token", BearerPrefix + "not.a.jwt", dto.ErrCodeUnauthorized},
		{"expired token", BearerPrefix + expired, dto.ErrCodeTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(router, "/api/v1/finance/dashboard", tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestJWTAuthMiddleware_RejectsNonUUIDSubject(t *testing.T) {
	svc := newTestJWTService()
	router := authRouter(svc, func(c *gin.Context) { c.Status(http.StatusOK) })

	token := signClaims(t, &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "trainhub-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: "42",
		Role:   string(identity.RoleAdmin),
	})

	w := doGet(router, "/api/v1/finance/dashboard", BearerPrefix+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_DefaultSkipPaths(t *testing.T) {
	router := authRouter(newTestJWTService(), func(c *gin.Context) {
		_, ok := GetActor(c)
		assert.False(t, ok)
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, doGet(router, "/api/v1/health", "").Code)
	assert.Equal(t, http.StatusOK, doGet(router, "/swagger/index.html", "").Code)
}

func TestJWTAuthMiddleware_CustomOnError(t *testing.T) {
	cfg := DefaultJWTConfig(newTestJWTService())
	cfg.OnError = func(c *gin.Context, err error) {
		c.JSON(http.StatusTeapot, gin.H{"err": err.Error()})
	}
	called := false
	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/x", func(c *gin.Context) { called = true })

	w := doGet(router, "/x", "")
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.False(t, called)
}

func TestGetActor_NotFound(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := GetActor(c)
	assert.False(t, ok)
	assert.Nil(t, GetJWTClaims(c))
}
