package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	financeapp "github.com/trainhub/backend/internal/application/finance"
	"github.com/trainhub/backend/internal/domain/finance"
	"github.com/trainhub/backend/internal/domain/identity"
)

// IncomeService is the income view surface the handler depends on
type IncomeService interface {
	GetIncome(ctx context.Context, actor identity.Actor, q financeapp.IncomeQuery) (*financeapp.IncomeResult, error)
}

// PayableService settles trainer, coordinator and commission payables
type PayableService interface {
	MarkPaid(ctx context.Context, kind finance.PayableKind, recordID, actorID uuid.UUID) (*financeapp.PayableResponse, error)
}

// IncomeHandler handles the income views and their mark-paid actions
type IncomeHandler struct {
	BaseHandler
	income   IncomeService
	payables PayableService
}

// NewIncomeHandler creates a new IncomeHandler
func NewIncomeHandler(income IncomeService, payables PayableService) *IncomeHandler {
	return &IncomeHandler{income: income, payables: payables}
}

// IncomePeriodQuery narrows an income view to a year and month
type IncomePeriodQuery struct {
	Year  *int `form:"year" binding:"omitempty,gte=2000,lte=2100" example:"2026"`
	Month *int `form:"month" binding:"omitempty,gte=1,lte=12" example:"3"`
}

// IncomeViewResponse is the body of an income view. Summary keys depend on
// the view: total_income, total_fees or total_commission and their paid and
// pending counterparts.
type IncomeViewResponse struct {
	Records []financeapp.IncomeRecord  `json:"records"`
	Summary map[string]decimal.Decimal `json:"summary" swaggertype:"object,string"`
}

// GetTrainerIncome godoc
// @ID           getTrainerIncome
// @Summary      Trainer income
// @Description  Lists a trainer's fees with paid and pending totals. Trainers may read their own income.
// @Tags         finance-income
// @Produce      json
// @Param        id path string true "Trainer user ID" format(uuid)
// @Param        year query int false "Year" minimum(2000) maximum(2100)
// @Param        month query int false "Month" minimum(1) maximum(12)
// @Success      200 {object} dto.Response{data=IncomeViewResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/income/trainer/{id} [get]
func (h *IncomeHandler) GetTrainerIncome(c *gin.Context) {
	h.view(c, financeapp.IncomeViewTrainer)
}

// GetCoordinatorIncome godoc
// @ID           getCoordinatorIncome
// @Summary      Coordinator income
// @Description  Lists a coordinator's fees with paid and pending totals
// @Tags         finance-income
// @Produce      json
// @Param        id path string true "Coordinator user ID" format(uuid)
// @Param        year query int false "Year" minimum(2000) maximum(2100)
// @Param        month query int false "Month" minimum(1) maximum(12)
// @Success      200 {object} dto.Response{data=IncomeViewResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/income/coordinator/{id} [get]
func (h *IncomeHandler) GetCoordinatorIncome(c *gin.Context) {
	h.view(c, financeapp.IncomeViewCoordinator)
}

// GetMarketingIncome godoc
// @ID           getMarketingIncome
// @Summary      Marketing commission
// @Description  Lists a marketing user's commissions with paid and pending totals
// @Tags         finance-income
// @Produce      json
// @Param        id path string true "Marketing user ID" format(uuid)
// @Param        year query int false "Year" minimum(2000) maximum(2100)
// @Param        month query int false "Month" minimum(1) maximum(12)
// @Success      200 {object} dto.Response{data=IncomeViewResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/income/marketing/{id} [get]
func (h *IncomeHandler) GetMarketingIncome(c *gin.Context) {
	h.view(c, financeapp.IncomeViewMarketing)
}

// MarkTrainerIncomePaid godoc
// @ID           markTrainerIncomePaid
// @Summary      Mark trainer fee paid
// @Description  Settles a trainer fee. Paying an already paid record returns it unchanged.
// @Tags         finance-income
// @Produce      json
// @Param        id path string true "Trainer income ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.PayableResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/income/trainer/{id}/mark-paid [post]
func (h *IncomeHandler) MarkTrainerIncomePaid(c *gin.Context) {
	h.markPaid(c, finance.PayableKindTrainerIncome)
}

// MarkCoordinatorFeePaid godoc
// @ID           markCoordinatorFeePaid
// @Summary      Mark coordinator fee paid
// @Description  Settles a coordinator fee. Paying an already paid record returns it unchanged.
// @Tags         finance-income
// @Produce      json
// @Param        id path string true "Coordinator fee ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.PayableResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/income/coordinator/{id}/mark-paid [post]
func (h *IncomeHandler) MarkCoordinatorFeePaid(c *gin.Context) {
	h.markPaid(c, finance.PayableKindCoordinatorFee)
}

// MarkCommissionPaid godoc
// @ID           markCommissionPaid
// @Summary      Mark commission paid
// @Description  Settles an approved marketing commission. Pending commissions cannot be paid.
// @Tags         finance-income
// @Produce      json
// @Param        id path string true "Commission ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.PayableResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/income/commission/{id}/mark-paid [post]
func (h *IncomeHandler) MarkCommissionPaid(c *gin.Context) {
	h.markPaid(c, finance.PayableKindCommission)
}

func (h *IncomeHandler) view(c *gin.Context, view financeapp.IncomeView) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	personID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var q IncomePeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleBindError(c, err)
		return
	}

	result, err := h.income.GetIncome(c.Request.Context(), actor, financeapp.IncomeQuery{
		View:     view,
		PersonID: personID,
		Year:     q.Year,
		Month:    q.Month,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	records := result.Records
	if records == nil {
		records = []financeapp.IncomeRecord{}
	}
	h.Success(c, IncomeViewResponse{Records: records, Summary: result.SummaryJSON()})
}

func (h *IncomeHandler) markPaid(c *gin.Context, kind finance.PayableKind) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	recordID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	payable, err := h.payables.MarkPaid(c.Request.Context(), kind, recordID, actor.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payable)
}
