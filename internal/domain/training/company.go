package training

import (
	"strings"

	"github.com/google/uuid"
	"github.com/trainhub/backend/internal/domain/shared"
)

// Company is a client organisation that books training
type Company struct {
	shared.BaseEntity
	Name string
}

// Programme is a training course that sessions are scheduled from
type Programme struct {
	shared.BaseEntity
	Name string
	Code string
}

// NewCompany creates a company
func NewCompany(name string) (*Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Company name cannot be empty")
	}
	return &Company{BaseEntity: shared.NewBaseEntity(), Name: name}, nil
}

// NewProgramme creates a programme
func NewProgramme(name, code string) (*Programme, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Programme name cannot be empty")
	}
	return &Programme{BaseEntity: shared.NewBaseEntity(), Name: name, Code: code}, nil
}

// Names is a lookup result for display enrichment
type Names map[uuid.UUID]string
