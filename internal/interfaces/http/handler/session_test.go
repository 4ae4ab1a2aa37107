package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	trainingapp "github.com/trainhub/backend/internal/application/training"
	"github.com/trainhub/backend/internal/domain/identity"
	"github.com/trainhub/backend/internal/domain/shared"
	"github.com/trainhub/backend/internal/interfaces/http/dto"
)

// MockSessionService is a mock implementation of SessionService
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Create(ctx context.Context, actorID uuid.UUID, input trainingapp.CreateSessionInput) (*trainingapp.SessionResponse, error) {
	args := m.Called(ctx, actorID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trainingapp.SessionResponse), args.Error(1)
}

func (m *MockSessionService) Get(ctx context.Context, id uuid.UUID) (*trainingapp.SessionResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trainingapp.SessionResponse), args.Error(1)
}

func sessionBody() map[string]any {
	return map[string]any{
		"name":              "Leadership Essentials",
		"company_id":        uuid.NewString(),
		"programme_id":      uuid.NewString(),
		"start_date":        "2026-03-02",
		"end_date":          "2026-03-04",
		"venue":             "Kuala Lumpur",
		"participant_count": 20,
	}
}

func TestSessionHandler_CreateSession(t *testing.T) {
	svc := new(MockSessionService)
	h := NewSessionHandler(svc)
	coordinator := identity.NewActor(uuid.New(), string(identity.RoleCoordinator), nil)
	r := newTestRouter(&coordinator)
	r.POST("/sessions", h.CreateSession)

	marketingUser := uuid.New()
	var captured trainingapp.CreateSessionInput
	svc.On("Create", mock.Anything, coordinator.UserID, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(2).(trainingapp.CreateSessionInput) }).
		Return(&trainingapp.SessionResponse{ID: uuid.New(), Name: "Leadership Essentials"}, nil)

	body := sessionBody()
	body["marketing"] = map[string]any{
		"marketing_user_id": marketingUser.String(),
		"commission_type":   "fixed",
		"fixed_amount":      "750",
	}
	w := performRequest(r, http.MethodPost, "/sessions", body)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Leadership Essentials", captured.Name)
	assert.Equal(t, 20, captured.ParticipantCount)
	assert.Equal(t, "2026-03-04", captured.EndDate.Format("2006-01-02"))
	require.NotNil(t, captured.Marketing)
	assert.Equal(t, marketingUser, captured.Marketing.MarketingUserID)
	assert.True(t, decimal.NewFromInt(750).Equal(captured.Marketing.FixedAmount))
}

func TestSessionHandler_CreateSession_Validation(t *testing.T) {
	svc := new(MockSessionService)
	h := NewSessionHandler(svc)
	r := newTestRouter(financeActor())
	r.POST("/sessions", h.CreateSession)

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing name", func(b map[string]any) { delete(b, "name") }},
		{"bad company", func(b map[string]any) { b["company_id"] = "acme" }},
		{"bad date", func(b map[string]any) { b["start_date"] = "March 2" }},
		{"negative headcount", func(b map[string]any) { b["participant_count"] = -1 }},
		{"unknown commission type", func(b map[string]any) {
			b["marketing"] = map[string]any{"marketing_user_id": uuid.NewString(), "commission_type": "tiered"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := sessionBody()
			tt.mutate(body)
			w := performRequest(r, http.MethodPost, "/sessions", body)
			assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
		})
	}
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionHandler_CreateSession_DomainError(t *testing.T) {
	svc := new(MockSessionService)
	h := NewSessionHandler(svc)
	r := newTestRouter(financeActor())
	r.POST("/sessions", h.CreateSession)

	svc.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, shared.NewDomainError(shared.CodeNotFound, "Company not found"))

	w := performRequest(r, http.MethodPost, "/sessions", sessionBody())

	assertErrorCode(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
}

func TestSessionHandler_GetSession(t *testing.T) {
	svc := new(MockSessionService)
	h := NewSessionHandler(svc)
	r := newTestRouter(financeActor())
	r.GET("/sessions/:id", h.GetSession)

	id := uuid.New()
	svc.On("Get", mock.Anything, id).Return(&trainingapp.SessionResponse{ID: id, InvoiceNumber: "INV-2026-0003"}, nil)

	w := performRequest(r, http.MethodGet, "/sessions/"+id.String(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var session trainingapp.SessionResponse
	decodeData(t, w, &session)
	assert.Equal(t, "INV-2026-0003", session.InvoiceNumber)
}
