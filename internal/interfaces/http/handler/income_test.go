package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	financeapp "github.com/trainhub/backend/internal/application/finance"
	"github.com/trainhub/backend/internal/domain/finance"
	"github.com/trainhub/backend/internal/domain/identity"
	"github.com/trainhub/backend/internal/domain/shared"
	"github.com/trainhub/backend/internal/interfaces/http/dto"
)

// MockIncomeService is a mock implementation of IncomeService
type MockIncomeService struct {
	mock.Mock
}

func (m *MockIncomeService) GetIncome(ctx context.Context, actor identity.Actor, q financeapp.IncomeQuery) (*financeapp.IncomeResult, error) {
	args := m.Called(ctx, actor, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.IncomeResult), args.Error(1)
}

// MockPayableService is a mock implementation of PayableService
type MockPayableService struct {
	mock.Mock
}

func (m *MockPayableService) MarkPaid(ctx context.Context, kind finance.PayableKind, recordID, actorID uuid.UUID) (*financeapp.PayableResponse, error) {
	args := m.Called(ctx, kind, recordID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.PayableResponse), args.Error(1)
}

func newIncomeRouter(actor *identity.Actor) (*MockIncomeService, *MockPayableService, http.Handler) {
	income, payables := new(MockIncomeService), new(MockPayableService)
	h := NewIncomeHandler(income, payables)
	r := newTestRouter(actor)
	r.GET("/income/trainer/:id", h.GetTrainerIncome)
	r.GET("/income/coordinator/:id", h.GetCoordinatorIncome)
	r.GET("/income/marketing/:id", h.GetMarketingIncome)
	r.POST("/income/trainer/:id/mark-paid", h.MarkTrainerIncomePaid)
	r.POST("/income/coordinator/:id/mark-paid", h.MarkCoordinatorFeePaid)
	r.POST("/income/commission/:id/mark-paid", h.MarkCommissionPaid)
	return income, payables, r
}

func TestIncomeHandler_Views(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		view       financeapp.IncomeView
		summaryKey string
	}{
		{"trainer", "/income/trainer/", financeapp.IncomeViewTrainer, "total_income"},
		{"coordinator", "/income/coordinator/", financeapp.IncomeViewCoordinator, "total_fees"},
		{"marketing", "/income/marketing/", financeapp.IncomeViewMarketing, "total_commission"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := financeActor()
			income, _, r := newIncomeRouter(actor)
			personID := uuid.New()

			result := &financeapp.IncomeResult{
				View:    tt.view,
				Records: []financeapp.IncomeRecord{{ID: uuid.New(), Amount: decimal.NewFromInt(500), Status: "paid"}},
			}
			result.Summary.Add(decimal.NewFromInt(500), true)
			income.On("GetIncome", mock.Anything, *actor, financeapp.IncomeQuery{View: tt.view, PersonID: personID}).
				Return(result, nil)

			w := performRequest(r, http.MethodGet, tt.path+personID.String(), nil)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var body struct {
				Records []financeapp.IncomeRecord  `json:"records"`
				Summary map[string]json.RawMessage `json:"summary"`
			}
			decodeData(t, w, &body)
			assert.Len(t, body.Records, 1)
			assert.Contains(t, body.Summary, tt.summaryKey)
			assert.Len(t, body.Summary, 3)
			income.AssertExpectations(t)
		})
	}
}

func TestIncomeHandler_PeriodQuery(t *testing.T) {
	actor := financeActor()
	income, _, r := newIncomeRouter(actor)
	personID := uuid.New()

	var captured financeapp.IncomeQuery
	income.On("GetIncome", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(2).(financeapp.IncomeQuery) }).
		Return(&financeapp.IncomeResult{View: financeapp.IncomeViewTrainer}, nil)

	w := performRequest(r, http.MethodGet, "/income/trainer/"+personID.String()+"?year=2026&month=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured.Year)
	require.NotNil(t, captured.Month)
	assert.Equal(t, 2026, *captured.Year)
	assert.Equal(t, 3, *captured.Month)
	assert.Contains(t, w.Body.String(), `"records":[]`)

	w = performRequest(r, http.MethodGet, "/income/trainer/"+personID.String()+"?month=13", nil)
	assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	w = performRequest(r, http.MethodGet, "/income/trainer/"+personID.String()+"?year=1999", nil)
	assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	income.AssertNumberOfCalls(t, "GetIncome", 1)
}

func TestIncomeHandler_ForbiddenView(t *testing.T) {
	trainer := identity.NewActor(uuid.New(), string(identity.RoleTrainer), nil)
	income, _, r := newIncomeRouter(&trainer)

	income.On("GetIncome", mock.Anything, trainer, mock.Anything).
		Return(nil, shared.NewDomainError(shared.CodeForbidden, "Insufficient permissions"))

	w := performRequest(r, http.MethodGet, "/income/trainer/"+uuid.NewString(), nil)

	assertErrorCode(t, w, http.StatusForbidden, dto.ErrCodeForbidden)
}

func TestIncomeHandler_MarkPaid(t *testing.T) {
	tests := []struct {
		path string
		kind finance.PayableKind
	}{
		{"/income/trainer/%s/mark-paid", finance.PayableKindTrainerIncome},
		{"/income/coordinator/%s/mark-paid", finance.PayableKindCoordinatorFee},
		{"/income/commission/%s/mark-paid", finance.PayableKindCommission},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			actor := financeActor()
			_, payables, r := newIncomeRouter(actor)
			recordID := uuid.New()
			payables.On("MarkPaid", mock.Anything, tt.kind, recordID, actor.UserID).
				Return(&financeapp.PayableResponse{ID: recordID, Kind: string(tt.kind), Status: "paid", Changed: true}, nil)

			w := performRequest(r, http.MethodPost, fmt.Sprintf(tt.path, recordID), nil)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var payable financeapp.PayableResponse
			decodeData(t, w, &payable)
			assert.Equal(t, "paid", payable.Status)
			payables.AssertExpectations(t)
		})
	}
}

func TestIncomeHandler_MarkPaid_AlreadyPaidIsOK(t *testing.T) {
	actor := financeActor()
	_, payables, r := newIncomeRouter(actor)
	recordID := uuid.New()
	payables.On("MarkPaid", mock.Anything, finance.PayableKindTrainerIncome, recordID, actor.UserID).
		Return(&financeapp.PayableResponse{ID: recordID, Status: "paid", Changed: false}, nil)

	w := performRequest(r, http.MethodPost, fmt.Sprintf("/income/trainer/%s/mark-paid", recordID), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var payable financeapp.PayableResponse
	decodeData(t, w, &payable)
	assert.False(t, payable.Changed)
}

func TestIncomeHandler_MarkPaid_PendingCommission(t *testing.T) {
	actor := financeActor()
	_, payables, r := newIncomeRouter(actor)
	payables.On("MarkPaid", mock.Anything, finance.PayableKindCommission, mock.Anything, actor.UserID).
		Return(nil, shared.NewDomainError(shared.CodeInvalidState, "Commission must be approved before payment"))

	w := performRequest(r, http.MethodPost, fmt.Sprintf("/income/commission/%s/mark-paid", uuid.New()), nil)

	assertErrorCode(t, w, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState)
}
