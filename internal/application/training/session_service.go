package training

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trainhub/backend/internal/domain/shared"
	"github.com/trainhub/backend/internal/domain/training"
	"github.com/trainhub/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CreateSessionInput carries a new training session
type CreateSessionInput struct {
	Name             string
	CompanyID        uuid.UUID
	ProgrammeID      uuid.UUID
	StartDate        time.Time
	EndDate          time.Time
	Venue            string
	ParticipantCount int
	Marketing        *MarketingInput
}

// MarketingInput credits a marketing user with the session
type MarketingInput struct {
	MarketingUserID uuid.UUID
	CommissionType  string
	CommissionRate  decimal.Decimal
	FixedAmount     decimal.Decimal
}

// SessionResponse is the read model of a session
type SessionResponse struct {
	ID                    uuid.UUID        `json:"id"`
	Name                  string           `json:"name"`
	CompanyID             uuid.UUID        `json:"company_id"`
	ProgrammeID           uuid.UUID        `json:"programme_id"`
	StartDate             string           `json:"start_date"`
	EndDate               string           `json:"end_date"`
	Venue                 string           `json:"venue"`
	ParticipantCount      int              `json:"participant_count"`
	MarketingUserID       *uuid.UUID       `json:"marketing_user_id,omitempty"`
	CommissionType        string           `json:"commission_type,omitempty"`
	CommissionRate        *decimal.Decimal `json:"commission_rate,omitempty"`
	CommissionFixedAmount *decimal.Decimal `json:"commission_fixed_amount,omitempty"`
	InvoiceID             *uuid.UUID       `json:"invoice_id,omitempty"`
	InvoiceNumber         string           `json:"invoice_number,omitempty"`
	InvoiceStatus         string           `json:"invoice_status,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
}

// ToSessionResponse converts a session to its read model
func ToSessionResponse(s *training.Session) SessionResponse {
	resp := SessionResponse{
		ID:               s.ID,
		Name:             s.Name,
		CompanyID:        s.CompanyID,
		ProgrammeID:      s.ProgrammeID,
		StartDate:        s.StartDate.Format(time.DateOnly),
		EndDate:          s.EndDate.Format(time.DateOnly),
		Venue:            s.Venue,
		ParticipantCount: s.ParticipantCount,
		InvoiceID:        s.InvoiceID,
		InvoiceNumber:    s.InvoiceNumber,
		InvoiceStatus:    s.InvoiceStatus,
		CreatedAt:        s.CreatedAt,
	}
	if s.HasMarketing() {
		m := s.Marketing
		resp.MarketingUserID = &m.UserID
		resp.CommissionType = string(m.Type)
		rate, fixed := m.Rate, m.FixedAmount
		resp.CommissionRate = &rate
		resp.CommissionFixedAmount = &fixed
	}
	return resp
}

// SessionService creates and reads training sessions
type SessionService struct {
	sessionRepo    training.SessionRepository
	companyRepo    training.CompanyRepository
	programmeRepo  training.ProgrammeRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(
	sessionRepo training.SessionRepository,
	companyRepo training.CompanyRepository,
	programmeRepo training.ProgrammeRepository,
	logger *zap.Logger,
) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		sessionRepo:   sessionRepo,
		companyRepo:   companyRepo,
		programmeRepo: programmeRepo,
		logger:        logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *SessionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create persists a session and publishes TrainingSessionCreated. With the
// in-process bus the auto invoice exists by the time Create returns.
func (s *SessionService) Create(ctx context.Context, actorID uuid.UUID, input CreateSessionInput) (*SessionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "session", "create")
	defer span.End()

	if err := s.checkReference(ctx, "Company", func() error {
		_, err := s.companyRepo.FindByID(ctx, input.CompanyID)
		return err
	}); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.checkReference(ctx, "Programme", func() error {
		_, err := s.programmeRepo.FindByID(ctx, input.ProgrammeID)
		return err
	}); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	session, err := training.NewSession(
		input.Name,
		input.CompanyID,
		input.ProgrammeID,
		input.StartDate,
		input.EndDate,
		input.Venue,
		input.ParticipantCount,
		actorID,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if m := input.Marketing; m != nil {
		if err := session.SetMarketing(training.MarketingAttribution{
			UserID:      m.MarketingUserID,
			Type:        training.CommissionType(m.CommissionType),
			Rate:        m.CommissionRate,
			FixedAmount: m.FixedAmount,
		}); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if err := s.sessionRepo.Save(ctx, session); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrSessionID, session.ID.String())
	s.logger.Info("training session created",
		zap.String("session_id", session.ID.String()),
		zap.String("name", session.Name),
	)

	events := session.GetDomainEvents()
	session.ClearDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("failed to publish session events", zap.Error(err))
		}
	}

	// Re-read so the response carries the invoice linked by the event handlers
	saved, err := s.sessionRepo.FindByID(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	resp := ToSessionResponse(saved)
	return &resp, nil
}

func (s *SessionService) checkReference(_ context.Context, name string, find func() error) error {
	err := find()
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewDomainError(shared.CodeValidation, name+" not found")
	}
	return err
}

// Get returns a session by ID
func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (*SessionResponse, error) {
	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSessionResponse(session)
	return &resp, nil
}
