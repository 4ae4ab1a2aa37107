package training

import (
	"time"

	"github.com/google/uuid"
	"github.com/trainhub/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeSessionCreated = "TrainingSessionCreated"
)

// AggregateTypeSession is the aggregate type used on session events
const AggregateTypeSession = "TrainingSession"

// SessionCreatedEvent is raised when a training session is persisted
type SessionCreatedEvent struct {
	shared.BaseDomainEvent
	SessionID   uuid.UUID `json:"session_id"`
	SessionName string    `json:"session_name"`
	CompanyID   uuid.UUID `json:"company_id"`
	ProgrammeID uuid.UUID `json:"programme_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Venue       string    `json:"venue"`
	Headcount   int       `json:"headcount"`
}

// NewSessionCreatedEvent builds the event from the session
func NewSessionCreatedEvent(s *Session) *SessionCreatedEvent {
	return &SessionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionCreated, AggregateTypeSession, s.ID, s.CreatedBy),
		SessionID:       s.ID,
		SessionName:     s.Name,
		CompanyID:       s.CompanyID,
		ProgrammeID:     s.ProgrammeID,
		StartDate:       s.StartDate,
		EndDate:         s.EndDate,
		Venue:           s.Venue,
		Headcount:       s.ParticipantCount,
	}
}
