package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	financeapp "github.com/trainhub/backend/internal/application/finance"
)

// DashboardService builds the finance overview
type DashboardService interface {
	GetDashboard(ctx context.Context) (*financeapp.DashboardResponse, error)
}

// AuditService reads the audit trail
type AuditService interface {
	List(ctx context.Context, q financeapp.AuditLogQuery) ([]financeapp.AuditEntryResponse, error)
}

// MarketingUserService lists users eligible for commissions
type MarketingUserService interface {
	List(ctx context.Context) ([]financeapp.MarketingUserResponse, error)
}

// OverviewHandler serves the read-only finance endpoints: dashboard,
// audit log and marketing users
type OverviewHandler struct {
	BaseHandler
	dashboard DashboardService
	audit     AuditService
	marketing MarketingUserService
}

// NewOverviewHandler creates a new OverviewHandler
func NewOverviewHandler(dashboard DashboardService, audit AuditService, marketing MarketingUserService) *OverviewHandler {
	return &OverviewHandler{dashboard: dashboard, audit: audit, marketing: marketing}
}

// AuditLogQueryParams filters the audit log
type AuditLogQueryParams struct {
	EntityType string `form:"entity_type" binding:"omitempty,oneof=invoice payment trainer_income coordinator_fee marketing_commission session_costing"`
	EntityID   string `form:"entity_id" binding:"omitempty,uuid"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// GetDashboard godoc
// @ID           getFinanceDashboard
// @Summary      Finance dashboard
// @Description  Invoice counts per status, receivables and pending payables
// @Tags         finance-overview
// @Produce      json
// @Success      200 {object} dto.Response{data=financeapp.DashboardResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/dashboard [get]
func (h *OverviewHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.dashboard.GetDashboard(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dashboard)
}

// ListAuditLog godoc
// @ID           listAuditLog
// @Summary      Audit log
// @Description  Lists finance audit entries newest first
// @Tags         finance-overview
// @Produce      json
// @Param        entity_type query string false "Entity type" Enums(invoice, payment, trainer_income, coordinator_fee, marketing_commission, session_costing)
// @Param        entity_id query string false "Entity ID" format(uuid)
// @Param        limit query int false "Maximum entries" default(100) maximum(1000)
// @Success      200 {object} dto.Response{data=[]financeapp.AuditEntryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/audit-log [get]
func (h *OverviewHandler) ListAuditLog(c *gin.Context) {
	var q AuditLogQueryParams
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleBindError(c, err)
		return
	}
	query := financeapp.AuditLogQuery{EntityType: q.EntityType, Limit: q.Limit}
	if q.EntityID != "" {
		id := uuid.MustParse(q.EntityID)
		query.EntityID = &id
	}

	entries, err := h.audit.List(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

// ListMarketingUsers godoc
// @ID           listMarketingUsers
// @Summary      Marketing users
// @Description  Lists active users holding the marketing role
// @Tags         finance-overview
// @Produce      json
// @Success      200 {object} dto.Response{data=[]financeapp.MarketingUserResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/marketing-users [get]
func (h *OverviewHandler) ListMarketingUsers(c *gin.Context) {
	users, err := h.marketing.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, users)
}
