package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	financeapp "github.com/trainhub/backend/internal/application/finance"
	"github.com/trainhub/backend/internal/interfaces/http/dto"
)

// MockDashboardService is a mock implementation of DashboardService
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) GetDashboard(ctx context.Context) (*financeapp.DashboardResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.DashboardResponse), args.Error(1)
}

// MockAuditService is a mock implementation of AuditService
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) List(ctx context.Context, q financeapp.AuditLogQuery) ([]financeapp.AuditEntryResponse, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]financeapp.AuditEntryResponse), args.Error(1)
}

// MockMarketingUserService is a mock implementation of MarketingUserService
type MockMarketingUserService struct {
	mock.Mock
}

func (m *MockMarketingUserService) List(ctx context.Context) ([]financeapp.MarketingUserResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]financeapp.MarketingUserResponse), args.Error(1)
}

type overviewMocks struct {
	dashboard *MockDashboardService
	audit     *MockAuditService
	marketing *MockMarketingUserService
}

func newOverviewRouter() (overviewMocks, http.Handler) {
	mocks := overviewMocks{
		dashboard: new(MockDashboardService),
		audit:     new(MockAuditService),
		marketing: new(MockMarketingUserService),
	}
	h := NewOverviewHandler(mocks.dashboard, mocks.audit, mocks.marketing)
	r := newTestRouter(financeActor())
	r.GET("/dashboard", h.GetDashboard)
	r.GET("/audit-log", h.ListAuditLog)
	r.GET("/marketing-users", h.ListMarketingUsers)
	return mocks, r
}

func TestOverviewHandler_GetDashboard(t *testing.T) {
	mocks, r := newOverviewRouter()
	mocks.dashboard.On("GetDashboard", mock.Anything).Return(&financeapp.DashboardResponse{
		Invoices:   financeapp.DashboardInvoices{Total: 4, Issued: 2, Paid: 1, Draft: 1},
		Financials: financeapp.DashboardFinancials{OutstandingReceivables: decimal.NewFromInt(7000)},
	}, nil)

	w := performRequest(r, http.MethodGet, "/dashboard", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var dashboard financeapp.DashboardResponse
	decodeData(t, w, &dashboard)
	assert.Equal(t, int64(4), dashboard.Invoices.Total)
	assert.True(t, decimal.NewFromInt(7000).Equal(dashboard.Financials.OutstandingReceivables))
}

func TestOverviewHandler_GetDashboard_Error(t *testing.T) {
	mocks, r := newOverviewRouter()
	mocks.dashboard.On("GetDashboard", mock.Anything).Return(nil, errors.New("db down"))

	w := performRequest(r, http.MethodGet, "/dashboard", nil)

	assertErrorCode(t, w, http.StatusInternalServerError, dto.ErrCodeInternal)
}

func TestOverviewHandler_ListAuditLog(t *testing.T) {
	mocks, r := newOverviewRouter()
	entityID := uuid.New()
	mocks.audit.On("List", mock.Anything, financeapp.AuditLogQuery{EntityType: "invoice", EntityID: &entityID, Limit: 20}).
		Return([]financeapp.AuditEntryResponse{{EntityType: "invoice", EntityID: entityID, Action: "issue", ChangedByName: "Unknown"}}, nil)

	w := performRequest(r, http.MethodGet, "/audit-log?entity_type=invoice&entity_id="+entityID.String()+"&limit=20", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var entries []financeapp.AuditEntryResponse
	decodeData(t, w, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "issue", entries[0].Action)
	mocks.audit.AssertExpectations(t)
}

func TestOverviewHandler_ListAuditLog_Validation(t *testing.T) {
	mocks, r := newOverviewRouter()

	w := performRequest(r, http.MethodGet, "/audit-log?entity_type=widget", nil)
	assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	w = performRequest(r, http.MethodGet, "/audit-log?limit=5000", nil)
	assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	mocks.audit.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestOverviewHandler_ListMarketingUsers(t *testing.T) {
	mocks, r := newOverviewRouter()
	mocks.marketing.On("List", mock.Anything).Return([]financeapp.MarketingUserResponse{
		{ID: uuid.New(), FullName: "Mei Ling", Role: "marketing"},
	}, nil)

	w := performRequest(r, http.MethodGet, "/marketing-users", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var users []financeapp.MarketingUserResponse
	decodeData(t, w, &users)
	require.Len(t, users, 1)
	assert.Equal(t, "Mei Ling", users[0].FullName)
}
