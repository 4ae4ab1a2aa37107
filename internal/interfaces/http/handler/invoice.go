package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	financeapp "github.com/trainhub/backend/internal/application/finance"
	"github.com/trainhub/backend/internal/domain/finance"
	"github.com/trainhub/backend/internal/interfaces/http/dto"
)

// InvoiceService is the invoice use-case surface the handler depends on
type InvoiceService interface {
	List(ctx context.Context, filter financeapp.InvoiceListFilter) (*financeapp.InvoiceListResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*financeapp.InvoiceResponse, error)
	CreateForSession(ctx context.Context, sessionID, actorID uuid.UUID) (*financeapp.InvoiceResponse, error)
	Update(ctx context.Context, id, actorID uuid.UUID, input financeapp.UpdateInvoiceInput) (*financeapp.InvoiceResponse, error)
	Approve(ctx context.Context, id, actorID uuid.UUID) (*financeapp.InvoiceResponse, error)
	Issue(ctx context.Context, id, actorID uuid.UUID) (*financeapp.InvoiceResponse, error)
	Cancel(ctx context.Context, id, actorID uuid.UUID, reason string) (*financeapp.InvoiceResponse, error)
}

// InvoiceHandler handles the invoice lifecycle endpoints
type InvoiceHandler struct {
	BaseHandler
	invoices InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// ListInvoicesQuery are the query parameters of the invoice listing
type ListInvoicesQuery struct {
	dto.PageRequest
	Status    string `form:"status" binding:"omitempty,oneof=auto_draft finance_review approved issued paid cancelled"`
	CompanyID string `form:"company_id" binding:"omitempty,uuid"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// LineItemRequest is one billable line of an invoice update
type LineItemRequest struct {
	Description string          `json:"description" binding:"required,max=500" example:"Leadership Essentials - 2 days"`
	Quantity    decimal.Decimal `json:"quantity" binding:"gte=0" swaggertype:"string" example:"20"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"gte=0" swaggertype:"string" example:"500.00"`
	Amount      decimal.Decimal `json:"amount" binding:"gte=0" swaggertype:"string" example:"10000.00"`
}

// UpdateInvoiceRequest is a partial invoice edit; omitted fields are kept
type UpdateInvoiceRequest struct {
	CompanyName       *string            `json:"company_name" binding:"omitempty,max=200"`
	ProgrammeName     *string            `json:"programme_name" binding:"omitempty,max=200"`
	TrainingStartDate *string            `json:"training_start_date" binding:"omitempty,datetime=2006-01-02" example:"2026-01-02"`
	TrainingEndDate   *string            `json:"training_end_date" binding:"omitempty,datetime=2006-01-02" example:"2026-01-04"`
	Venue             *string            `json:"venue" binding:"omitempty,max=200"`
	Headcount         *int               `json:"headcount" binding:"omitempty,gte=0"`
	LineItems         *[]LineItemRequest `json:"line_items" binding:"omitempty,dive"`
	Subtotal          *decimal.Decimal   `json:"subtotal" swaggertype:"string" example:"10000.00"`
	TaxRate           *decimal.Decimal   `json:"tax_rate" swaggertype:"string" example:"6"`
	TotalAmount       *decimal.Decimal   `json:"total_amount" swaggertype:"string" example:"10000.00"`
	Notes             *string            `json:"notes" binding:"omitempty,max=2000"`
	Status            *string            `json:"status" binding:"omitempty,oneof=auto_draft finance_review approved issued paid cancelled"`
}

// CancelInvoiceRequest carries the reason for voiding an invoice
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"max=500" example:"Session postponed indefinitely"`
}

// ToInput converts the request to the service input
func (r UpdateInvoiceRequest) ToInput() financeapp.UpdateInvoiceInput {
	input := financeapp.UpdateInvoiceInput{
		CompanyName:       r.CompanyName,
		ProgrammeName:     r.ProgrammeName,
		TrainingStartDate: parseDatePtr(r.TrainingStartDate),
		TrainingEndDate:   parseDatePtr(r.TrainingEndDate),
		Venue:             r.Venue,
		Headcount:         r.Headcount,
		Subtotal:          r.Subtotal,
		TaxRate:           r.TaxRate,
		TotalAmount:       r.TotalAmount,
		Notes:             r.Notes,
		Status:            r.Status,
	}
	if r.LineItems != nil {
		items := make([]finance.LineItem, len(*r.LineItems))
		for i, li := range *r.LineItems {
			items[i] = finance.LineItem{
				Description: li.Description,
				Quantity:    li.Quantity,
				UnitPrice:   li.UnitPrice,
				Amount:      li.Amount,
			}
		}
		input.LineItems = &items
	}
	return input
}

// parseDatePtr parses a binding-validated YYYY-MM-DD value
func parseDatePtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		return nil
	}
	return &t
}

// ListInvoices godoc
// @ID           listInvoices
// @Summary      List invoices
// @Description  Lists invoices newest first, optionally filtered by status and company
// @Tags         finance-invoices
// @Produce      json
// @Param        status query string false "Invoice status" Enums(auto_draft, finance_review, approved, issued, paid, cancelled)
// @Param        company_id query string false "Company ID" format(uuid)
// @Param        sort_by query string false "Sort field" Enums(created_at, updated_at, invoice_number, company_name, training_start_date, status, total_amount)
// @Param        sort_order query string false "Sort order" Enums(asc, desc)
// @Param        limit query int false "Page size" default(50) maximum(500)
// @Param        offset query int false "Offset" default(0)
// @Success      200 {object} dto.Response{data=[]financeapp.InvoiceResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var q ListInvoicesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleBindError(c, err)
		return
	}

	filter := financeapp.InvoiceListFilter{
		Status:    q.Status,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
		Limit:     q.EffectiveLimit(),
		Offset:    q.Offset,
	}
	if q.CompanyID != "" {
		companyID := uuid.MustParse(q.CompanyID)
		filter.CompanyID = &companyID
	}

	result, err := h.invoices.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Invoices, result.Total, filter.Limit, filter.Offset)
}

// GetInvoice godoc
// @ID           getInvoice
// @Summary      Get invoice by ID
// @Tags         finance-invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	inv, err := h.invoices.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// UpdateInvoice godoc
// @ID           updateInvoice
// @Summary      Edit an invoice
// @Description  Applies a partial edit while the invoice is auto_draft or finance_review. Totals are recomputed from subtotal and tax rate.
// @Tags         finance-invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body UpdateInvoiceRequest true "Fields to change"
// @Success      200 {object} dto.Response{data=financeapp.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/invoices/{id} [put]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	inv, err := h.invoices.Update(c.Request.Context(), id, actor.UserID, req.ToInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// ApproveInvoice godoc
// @ID           approveInvoice
// @Summary      Approve an invoice
// @Description  Moves an auto_draft or finance_review invoice with a positive total to approved
// @Tags         finance-invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/invoices/{id}/approve [post]
func (h *InvoiceHandler) ApproveInvoice(c *gin.Context) {
	h.transition(c, h.invoices.Approve)
}

// IssueInvoice godoc
// @ID           issueInvoice
// @Summary      Issue an invoice
// @Description  Moves an approved invoice to issued and finalizes the session's marketing commission
// @Tags         finance-invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/invoices/{id}/issue [post]
func (h *InvoiceHandler) IssueInvoice(c *gin.Context) {
	h.transition(c, h.invoices.Issue)
}

// CancelInvoice godoc
// @ID           cancelInvoice
// @Summary      Cancel an invoice
// @Description  Voids any invoice that is not paid or already cancelled
// @Tags         finance-invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body CancelInvoiceRequest false "Cancellation reason"
// @Success      200 {object} dto.Response{data=financeapp.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/invoices/{id}/cancel [post]
func (h *InvoiceHandler) CancelInvoice(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req CancelInvoiceRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.HandleBindError(c, err)
			return
		}
	}

	inv, err := h.invoices.Cancel(c.Request.Context(), id, actor.UserID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// CreateSessionInvoice godoc
// @ID           createSessionInvoice
// @Summary      Create the invoice of a session
// @Description  Creates the auto_draft invoice of a session from its participant count and programme
// @Tags         finance-invoices
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Success      201 {object} dto.Response{data=financeapp.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /finance/session/{id}/invoice [post]
func (h *InvoiceHandler) CreateSessionInvoice(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	inv, err := h.invoices.CreateForSession(c.Request.Context(), sessionID, actor.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, inv)
}

func (h *InvoiceHandler) transition(c *gin.Context, apply func(ctx context.Context, id, actorID uuid.UUID) (*financeapp.InvoiceResponse, error)) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	inv, err := apply(c.Request.Context(), id, actor.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}
