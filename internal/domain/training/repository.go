package training

import (
	"context"

	"github.com/google/uuid"
)

// SessionRepository defines persistence for sessions
type SessionRepository interface {
	// Save creates or updates a session
	Save(ctx context.Context, session *Session) error

	// FindByID finds a session by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)

	// FindByIDs loads several sessions at once, skipping unknown IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Session, error)

	// UpdateInvoiceStatus writes only the invoice status mirror
	UpdateInvoiceStatus(ctx context.Context, sessionID uuid.UUID, status string) error
}

// CompanyRepository is a read-only company lookup
type CompanyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)
	NamesByIDs(ctx context.Context, ids []uuid.UUID) (Names, error)
}

// ProgrammeRepository is a read-only programme lookup
type ProgrammeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Programme, error)
}
