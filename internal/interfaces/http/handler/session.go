package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	trainingapp "github.com/trainhub/backend/internal/application/training"
	"github.com/trainhub/backend/internal/interfaces/http/dto"
)

// SessionService creates and reads training sessions
type SessionService interface {
	Create(ctx context.Context, actorID uuid.UUID, input trainingapp.CreateSessionInput) (*trainingapp.SessionResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*trainingapp.SessionResponse, error)
}

// SessionHandler handles training session endpoints
type SessionHandler struct {
	BaseHandler
	sessions SessionService
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessions SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// SessionMarketingRequest credits a marketing user with a new session
type SessionMarketingRequest struct {
	MarketingUserID string          `json:"marketing_user_id" binding:"required,uuid"`
	CommissionType  string          `json:"commission_type" binding:"required,oneof=percentage fixed" example:"percentage"`
	CommissionRate  decimal.Decimal `json:"commission_rate" binding:"gte=0,lte=100" swaggertype:"string" example:"10"`
	FixedAmount     decimal.Decimal `json:"fixed_amount" binding:"gte=0" swaggertype:"string" example:"0"`
}

// CreateSessionRequest schedules a training session. Creating it also
// creates its auto_draft invoice.
type CreateSessionRequest struct {
	Name             string                   `json:"name" binding:"required,min=1,max=200" example:"Leadership Essentials - Acme"`
	CompanyID        string                   `json:"company_id" binding:"required,uuid"`
	ProgrammeID      string                   `json:"programme_id" binding:"required,uuid"`
	StartDate        string                   `json:"start_date" binding:"required,datetime=2006-01-02" example:"2026-03-02"`
	EndDate          string                   `json:"end_date" binding:"required,datetime=2006-01-02" example:"2026-03-04"`
	Venue            string                   `json:"venue" binding:"max=200" example:"Kuala Lumpur"`
	ParticipantCount int                      `json:"participant_count" binding:"gte=0" example:"20"`
	Marketing        *SessionMarketingRequest `json:"marketing"`
}

// CreateSession godoc
// @ID           createTrainingSession
// @Summary      Create a training session
// @Description  Schedules a session for a company and programme. Its invoice is drafted asynchronously.
// @Tags         training-sessions
// @Accept       json
// @Produce      json
// @Param        request body CreateSessionRequest true "Session"
// @Success      201 {object} dto.Response{data=trainingapp.SessionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /training/sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}
	start, errStart := time.Parse(time.DateOnly, req.StartDate)
	end, errEnd := time.Parse(time.DateOnly, req.EndDate)
	if errStart != nil || errEnd != nil {
		h.ErrorWithCode(c, dto.ErrCodeValidation, "Dates must be YYYY-MM-DD")
		return
	}

	input := trainingapp.CreateSessionInput{
		Name:             req.Name,
		CompanyID:        uuid.MustParse(req.CompanyID),
		ProgrammeID:      uuid.MustParse(req.ProgrammeID),
		StartDate:        start,
		EndDate:          end,
		Venue:            req.Venue,
		ParticipantCount: req.ParticipantCount,
	}
	if m := req.Marketing; m != nil {
		input.Marketing = &trainingapp.MarketingInput{
			MarketingUserID: uuid.MustParse(m.MarketingUserID),
			CommissionType:  m.CommissionType,
			CommissionRate:  m.CommissionRate,
			FixedAmount:     m.FixedAmount,
		}
	}

	session, err := h.sessions.Create(c.Request.Context(), actor.UserID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, session)
}

// GetSession godoc
// @ID           getTrainingSession
// @Summary      Get a training session
// @Tags         training-sessions
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Success      200 {object} dto.Response{data=trainingapp.SessionResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /training/sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	session, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}
