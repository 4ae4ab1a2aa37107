package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trainhub/backend/internal/domain/identity"
	"github.com/trainhub/backend/internal/domain/shared"
	"github.com/trainhub/backend/internal/infrastructure/logger"
	"github.com/trainhub/backend/internal/interfaces/http/dto"
	"github.com/trainhub/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// testResponse mirrors dto.Response with a raw data payload
type testResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

// newTestRouter returns an engine whose requests are authenticated as actor.
// A nil actor leaves requests anonymous.
func newTestRouter(actor *identity.Actor) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(logger.GinRequestIDKey, "req-test")
		if actor != nil {
			c.Set(middleware.JWTActorKey, *actor)
		}
		c.Next()
	})
	return r
}

func financeActor() *identity.Actor {
	a := identity.NewActor(uuid.New(), string(identity.RoleFinance), nil)
	return &a
}

func performRequest(r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) testResponse {
	t.Helper()
	var resp testResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	resp := decodeResponse(t, w)
	require.True(t, resp.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, w.Code, w.Body.String())
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, code, resp.Error.Code)
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name:       "from context",
			setup:      func(c *gin.Context) { c.Set(logger.GinRequestIDKey, "ctx-id") },
			expectedID: "ctx-id",
		},
		{
			name:       "from header when context empty",
			setup:      func(c *gin.Context) { c.Request.Header.Set(middleware.HeaderRequestID, "header-id") },
			expectedID: "header-id",
		},
		{
			name: "context takes precedence",
			setup: func(c *gin.Context) {
				c.Set(logger.GinRequestIDKey, "ctx-id")
				c.Request.Header.Set(middleware.HeaderRequestID, "header-id")
			},
			expectedID: "ctx-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		contains string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound, "not found"},
		{"invalid state", shared.NewDomainError(shared.CodeInvalidState, "Invoice is not approved"), http.StatusUnprocessableEntity, dto.ErrCodeInvalidState, "not approved"},
		{"conflict", shared.NewDomainError(shared.CodeConcurrency, "stale"), http.StatusConflict, dto.ErrCodeConcurrency, "stale"},
		{"forbidden", shared.NewDomainError(shared.CodeForbidden, "no"), http.StatusForbidden, dto.ErrCodeForbidden, "no"},
		{"wrapped domain error", errors.Join(errors.New("ctx"), shared.NewDomainError(shared.CodeValidation, "bad amount")), http.StatusBadRequest, dto.ErrCodeValidation, "bad amount"},
		{"unknown error is hidden", errors.New("pq: connection refused"), http.StatusInternalServerError, dto.ErrCodeInternal, "unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			r := newTestRouter(nil)
			r.GET("/", func(c *gin.Context) { h.HandleError(c, tt.err) })

			w := performRequest(r, http.MethodGet, "/", nil)

			assertErrorCode(t, w, tt.status, tt.code)
			resp := decodeResponse(t, w)
			assert.Contains(t, strings.ToLower(resp.Error.Message), tt.contains)
			assert.Equal(t, "req-test", resp.Error.RequestID)
			assert.NotContains(t, w.Body.String(), "pq:")
		})
	}
}

func TestBaseHandler_HandleBindError(t *testing.T) {
	type payload struct {
		Name  string `json:"name" binding:"required"`
		Count int    `json:"count"`
	}
	h := &BaseHandler{}
	r := newTestRouter(nil)
	r.POST("/", func(c *gin.Context) {
		var p payload
		if err := c.ShouldBindJSON(&p); err != nil {
			h.HandleBindError(c, err)
			return
		}
		h.Success(c, p)
	})

	t.Run("validation failure lists fields", func(t *testing.T) {
		w := performRequest(r, http.MethodPost, "/", map[string]any{"count": 1})
		assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
		resp := decodeResponse(t, w)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "name", resp.Error.Details[0].Field)
	})

	t.Run("malformed json", func(t *testing.T) {
		w := performRequest(r, http.MethodPost, "/", `{"name":`)
		assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeInvalidJSON)
	})

	t.Run("wrong type", func(t *testing.T) {
		w := performRequest(r, http.MethodPost, "/", `{"name":"a","count":"three"}`)
		assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeInvalidJSON)
	})

	t.Run("oversized body", func(t *testing.T) {
		limited := newTestRouter(nil)
		limited.Use(middleware.BodyLimit(16))
		limited.POST("/", func(c *gin.Context) {
			var p payload
			if err := c.ShouldBindJSON(&p); err != nil {
				h.HandleBindError(c, err)
				return
			}
			h.Success(c, p)
		})
		body := `{"name":"` + strings.Repeat("x", 64) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.ContentLength = -1
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, req)
		assertErrorCode(t, w, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge)
	})
}

func TestBaseHandler_ActorAndUUIDParam(t *testing.T) {
	h := &BaseHandler{}
	handler := func(c *gin.Context) {
		actor, ok := h.actor(c)
		if !ok {
			return
		}
		id, ok := h.uuidParam(c, "id")
		if !ok {
			return
		}
		h.Success(c, gin.H{"actor": actor.UserID, "id": id})
	}

	t.Run("anonymous request is unauthorized", func(t *testing.T) {
		r := newTestRouter(nil)
		r.GET("/:id", handler)
		w := performRequest(r, http.MethodGet, "/"+uuid.NewString(), nil)
		assertErrorCode(t, w, http.StatusUnauthorized, dto.ErrCodeUnauthorized)
	})

	t.Run("bad uuid is rejected", func(t *testing.T) {
		r := newTestRouter(financeActor())
		r.GET("/:id", handler)
		w := performRequest(r, http.MethodGet, "/not-a-uuid", nil)
		assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeInvalidInput)
	})

	t.Run("both resolved", func(t *testing.T) {
		actor := financeActor()
		id := uuid.New()
		r := newTestRouter(actor)
		r.GET("/:id", handler)
		w := performRequest(r, http.MethodGet, "/"+id.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var data map[string]uuid.UUID
		decodeData(t, w, &data)
		assert.Equal(t, actor.UserID, data["actor"])
		assert.Equal(t, id, data["id"])
	})
}

func TestBaseHandler_SuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	r := newTestRouter(nil)
	r.GET("/", func(c *gin.Context) { h.SuccessWithMeta(c, []int{1, 2}, 7, 2, 4) })

	w := performRequest(r, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(7), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Limit)
	assert.Equal(t, 4, resp.Meta.Offset)
}
