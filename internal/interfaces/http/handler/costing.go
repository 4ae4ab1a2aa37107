package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	financeapp "github.com/trainhub/backend/internal/application/finance"
	"github.com/trainhub/backend/internal/domain/finance"
)

// CostingService is the session costing surface the handler depends on
type CostingService interface {
	GetSessionCosting(ctx context.Context, sessionID uuid.UUID) (*financeapp.CostingResponse, error)
	SaveTrainerFees(ctx context.Context, sessionID, actorID uuid.UUID, fees []financeapp.TrainerFeeInput) (*financeapp.CostingResponse, error)
	SaveCoordinatorFee(ctx context.Context, sessionID, actorID uuid.UUID, input financeapp.CoordinatorFeeInput) (*financeapp.CostingResponse, error)
	SaveExpenses(ctx context.Context, sessionID, actorID uuid.UUID, inputs []financeapp.ExpenseInput) (*financeapp.CostingResponse, error)
	SaveMarketing(ctx context.Context, sessionID, actorID uuid.UUID, input financeapp.MarketingInput) (*financeapp.CostingResponse, error)
	ExpenseCategories() []finance.ExpenseCategoryInfo
}

// CostingHandler handles session costing endpoints
type CostingHandler struct {
	BaseHandler
	costing CostingService
}

// NewCostingHandler creates a new CostingHandler
func NewCostingHandler(costing CostingService) *CostingHandler {
	return &CostingHandler{costing: costing}
}

// TrainerFeeRequest is one trainer's fee for a session
type TrainerFeeRequest struct {
	TrainerID   string          `json:"trainer_id" binding:"required,uuid"`
	TrainerName string          `json:"trainer_name" binding:"max=200"`
	Role        string          `json:"role" binding:"omitempty,oneof=chief_trainer trainer" example:"trainer"`
	FeeAmount   decimal.Decimal `json:"fee_amount" binding:"gte=0" swaggertype:"string" example:"1500.00"`
	Remark      string          `json:"remark" binding:"max=500"`
}

// SaveTrainerFeesRequest replaces the trainer fee list of a session
type SaveTrainerFeesRequest struct {
	Trainers []TrainerFeeRequest `json:"trainers" binding:"dive"`
}

// SaveCoordinatorFeeRequest sets the coordinator fee of a session
type SaveCoordinatorFeeRequest struct {
	CoordinatorID   string          `json:"coordinator_id" binding:"required,uuid"`
	CoordinatorName string          `json:"coordinator_name" binding:"max=200"`
	NumDays         int             `json:"num_days" binding:"gte=0" example:"3"`
	DailyRate       decimal.Decimal `json:"daily_rate" binding:"gte=0" swaggertype:"string" example:"300.00"`
	TotalFee        decimal.Decimal `json:"total_fee" binding:"gte=0" swaggertype:"string" example:"900.00"`
}

// ExpenseRequest is one cash expense line
type ExpenseRequest struct {
	Category        string          `json:"category" binding:"required,max=50" example:"accommodation"`
	Description     string          `json:"description" binding:"max=500"`
	ExpenseType     string          `json:"expense_type" binding:"omitempty,oneof=fixed per_pax percentage" example:"fixed"`
	Quantity        decimal.Decimal `json:"quantity" binding:"gte=0" swaggertype:"string"`
	UnitPrice       decimal.Decimal `json:"unit_price" binding:"gte=0" swaggertype:"string"`
	PercentageRate  decimal.Decimal `json:"percentage_rate" binding:"gte=0" swaggertype:"string"`
	EstimatedAmount decimal.Decimal `json:"estimated_amount" binding:"gte=0" swaggertype:"string"`
	ActualAmount    decimal.Decimal `json:"actual_amount" binding:"gte=0" swaggertype:"string"`
	Remark          string          `json:"remark" binding:"max=500"`
}

// SaveExpensesRequest replaces the cash expense list of a session
type SaveExpensesRequest struct {
	Expenses []ExpenseRequest `json:"expenses" binding:"dive"`
}

// SaveMarketingRequest assigns the marketing user and commission terms of a session
type SaveMarketingRequest struct {
	MarketingUserID string          `json:"marketing_user_id" binding:"required,uuid"`
	CommissionType  string          `json:"commission_type" binding:"required,oneof=percentage fixed" example:"percentage"`
	CommissionRate  decimal.Decimal `json:"commission_rate" binding:"gte=0,lte=100" swaggertype:"string" example:"10"`
	FixedAmount     decimal.Decimal `json:"fixed_amount" binding:"gte=0" swaggertype:"string" example:"0"`
}

// GetSessionCosting godoc
// @ID           getSessionCosting
// @Summary      Get session costing
// @Description  Returns the cost sheet of a session: fees, expenses, commission and profit.
// @Description  invoice_total is the invoice subtotal before tax, so gross_revenue = invoice_total - tax_amount.
// @Tags         finance-costing
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.CostingResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/session/{id}/costing [get]
func (h *CostingHandler) GetSessionCosting(c *gin.Context) {
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	costing, err := h.costing.GetSessionCosting(c.Request.Context(), sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, costing)
}

// SaveTrainerFees godoc
// @ID           saveTrainerFees
// @Summary      Replace trainer fees
// @Description  Replaces the pending trainer fees of a session. Paid fees are kept and entries for an already paid trainer are skipped.
// @Tags         finance-costing
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Param        request body SaveTrainerFeesRequest true "Trainer fees"
// @Success      200 {object} dto.Response{data=financeapp.CostingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/session/{id}/trainer-fees [put]
func (h *CostingHandler) SaveTrainerFees(c *gin.Context) {
	actor, sessionID, ok := h.sessionWrite(c)
	if !ok {
		return
	}
	var req SaveTrainerFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}
	fees := make([]financeapp.TrainerFeeInput, len(req.Trainers))
	for i, t := range req.Trainers {
		fees[i] = financeapp.TrainerFeeInput{
			TrainerID:   uuid.MustParse(t.TrainerID),
			TrainerName: t.TrainerName,
			Role:        t.Role,
			FeeAmount:   t.FeeAmount,
			Remark:      t.Remark,
		}
	}
	h.respond(c)(h.costing.SaveTrainerFees(c.Request.Context(), sessionID, actor, fees))
}

// SaveCoordinatorFee godoc
// @ID           saveCoordinatorFee
// @Summary      Set coordinator fee
// @Description  Sets the single coordinator fee of a session. A zero total fee is derived from days times daily rate.
// @Tags         finance-costing
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Param        request body SaveCoordinatorFeeRequest true "Coordinator fee"
// @Success      200 {object} dto.Response{data=financeapp.CostingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/session/{id}/coordinator-fee [put]
func (h *CostingHandler) SaveCoordinatorFee(c *gin.Context) {
	actor, sessionID, ok := h.sessionWrite(c)
	if !ok {
		return
	}
	var req SaveCoordinatorFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}
	h.respond(c)(h.costing.SaveCoordinatorFee(c.Request.Context(), sessionID, actor, financeapp.CoordinatorFeeInput{
		CoordinatorID:   uuid.MustParse(req.CoordinatorID),
		CoordinatorName: req.CoordinatorName,
		NumDays:         req.NumDays,
		DailyRate:       req.DailyRate,
		TotalFee:        req.TotalFee,
	}))
}

// SaveExpenses godoc
// @ID           saveExpenses
// @Summary      Replace cash expenses
// @Description  Replaces the cash expenses of a session. Percentage expenses are computed from the invoice total.
// @Tags         finance-costing
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Param        request body SaveExpensesRequest true "Expenses"
// @Success      200 {object} dto.Response{data=financeapp.CostingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/session/{id}/expenses [put]
func (h *CostingHandler) SaveExpenses(c *gin.Context) {
	actor, sessionID, ok := h.sessionWrite(c)
	if !ok {
		return
	}
	var req SaveExpensesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}
	inputs := make([]financeapp.ExpenseInput, len(req.Expenses))
	for i, e := range req.Expenses {
		inputs[i] = financeapp.ExpenseInput{
			Category:        e.Category,
			Description:     e.Description,
			ExpenseType:     e.ExpenseType,
			Quantity:        e.Quantity,
			UnitPrice:       e.UnitPrice,
			PercentageRate:  e.PercentageRate,
			EstimatedAmount: e.EstimatedAmount,
			ActualAmount:    e.ActualAmount,
			Remark:          e.Remark,
		}
	}
	h.respond(c)(h.costing.SaveExpenses(c.Request.Context(), sessionID, actor, inputs))
}

// SaveMarketing godoc
// @ID           saveSessionMarketing
// @Summary      Set marketing commission terms
// @Description  Assigns the marketing user of a session and recomputes the pending commission. Rejected once the commission is paid.
// @Tags         finance-costing
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Param        request body SaveMarketingRequest true "Commission terms"
// @Success      200 {object} dto.Response{data=financeapp.CostingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/session/{id}/marketing [put]
func (h *CostingHandler) SaveMarketing(c *gin.Context) {
	actor, sessionID, ok := h.sessionWrite(c)
	if !ok {
		return
	}
	var req SaveMarketingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}
	h.respond(c)(h.costing.SaveMarketing(c.Request.Context(), sessionID, actor, financeapp.MarketingInput{
		MarketingUserID: uuid.MustParse(req.MarketingUserID),
		CommissionType:  req.CommissionType,
		CommissionRate:  req.CommissionRate,
		FixedAmount:     req.FixedAmount,
	}))
}

// ListExpenseCategories godoc
// @ID           listExpenseCategories
// @Summary      List expense categories
// @Tags         finance-costing
// @Produce      json
// @Success      200 {object} dto.Response{data=[]finance.ExpenseCategoryInfo}
// @Security     BearerAuth
// @Router       /finance/expense-categories [get]
func (h *CostingHandler) ListExpenseCategories(c *gin.Context) {
	h.Success(c, h.costing.ExpenseCategories())
}

func (h *CostingHandler) sessionWrite(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	actor, ok := h.actor(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return actor.UserID, sessionID, true
}

func (h *CostingHandler) respond(c *gin.Context) func(*financeapp.CostingResponse, error) {
	return func(costing *financeapp.CostingResponse, err error) {
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, costing)
	}
}
