package training

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	d, _ := time.Parse(time.DateOnly, s)
	return d
}

func TestNewSession(t *testing.T) {
	companyID, programmeID, creator := uuid.New(), uuid.New(), uuid.New()

	t.Run("valid session raises created event", func(t *testing.T) {
		s, err := NewSession(" Leadership Batch 3 ", companyID, programmeID, date("2026-03-02"), date("2026-03-04"), "KL", 20, creator)
		require.NoError(t, err)

		assert.Equal(t, "Leadership Batch 3", s.Name)
		assert.False(t, s.HasInvoice())
		assert.False(t, s.HasMarketing())

		events := s.GetDomainEvents()
		require.Len(t, events, 1)
		ev, ok := events[0].(*SessionCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, EventTypeSessionCreated, ev.EventType())
		assert.Equal(t, s.ID, ev.SessionID)
		assert.Equal(t, 20, ev.Headcount)
		assert.Equal(t, creator, ev.ActorID)
	})

	tests := []struct {
		name        string
		sessionName string
		company     uuid.UUID
		programme   uuid.UUID
		start, end  time.Time
		headcount   int
	}{
		{"empty name", "", companyID, programmeID, date("2026-03-02"), date("2026-03-02"), 1},
		{"missing company", "x", uuid.Nil, programmeID, date("2026-03-02"), date("2026-03-02"), 1},
		{"missing programme", "x", companyID, uuid.Nil, date("2026-03-02"), date("2026-03-02"), 1},
		{"missing dates", "x", companyID, programmeID, time.Time{}, date("2026-03-02"), 1},
		{"end before start", "x", companyID, programmeID, date("2026-03-04"), date("2026-03-02"), 1},
		{"negative headcount", "x", companyID, programmeID, date("2026-03-02"), date("2026-03-02"), -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSession(tc.sessionName, tc.company, tc.programme, tc.start, tc.end, "", tc.headcount, creator)
			assert.Error(t, err)
		})
	}
}

func TestSession_SetMarketing(t *testing.T) {
	s, err := NewSession("S", uuid.New(), uuid.New(), date("2026-03-02"), date("2026-03-02"), "", 5, uuid.New())
	require.NoError(t, err)

	err = s.SetMarketing(MarketingAttribution{UserID: uuid.New(), Type: CommissionPercentage, Rate: decimal.NewFromInt(150)})
	assert.Error(t, err)
	assert.False(t, s.HasMarketing())

	err = s.SetMarketing(MarketingAttribution{UserID: uuid.New(), Type: "tiered"})
	assert.Error(t, err)

	err = s.SetMarketing(MarketingAttribution{UserID: uuid.New(), Type: CommissionFixed, FixedAmount: decimal.NewFromInt(-1)})
	assert.Error(t, err)

	require.NoError(t, s.SetMarketing(MarketingAttribution{UserID: uuid.New(), Type: CommissionPercentage, Rate: decimal.NewFromInt(10)}))
	assert.True(t, s.HasMarketing())
}

func TestSession_LinkInvoice(t *testing.T) {
	s, err := NewSession("S", uuid.New(), uuid.New(), date("2026-03-02"), date("2026-03-02"), "", 5, uuid.New())
	require.NoError(t, err)

	invoiceID := uuid.New()
	s.LinkInvoice(invoiceID, "INV-2026-0001", "auto_draft")

	assert.True(t, s.HasInvoice())
	assert.Equal(t, invoiceID, *s.InvoiceID)
	assert.Equal(t, "INV-2026-0001", s.InvoiceNumber)
	assert.Equal(t, "auto_draft", s.InvoiceStatus)
}

func TestFormatDateRange(t *testing.T) {
	assert.Equal(t, "02 Mar 2026 - 04 Mar 2026", FormatDateRange(date("2026-03-02"), date("2026-03-04")))
	assert.Equal(t, "02 Mar 2026", FormatDateRange(date("2026-03-02"), date("2026-03-02")))
	assert.Equal(t, "02 Mar 2026", FormatDateRange(date("2026-03-02"), time.Time{}))
	assert.Equal(t, "", FormatDateRange(time.Time{}, time.Time{}))
}

func TestNewCompanyAndProgramme(t *testing.T) {
	c, err := NewCompany("Acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", c.Name)

	_, err = NewCompany(" ")
	assert.Error(t, err)

	p, err := NewProgramme("Leadership", "LDR")
	require.NoError(t, err)
	assert.Equal(t, "LDR", p.Code)
}
