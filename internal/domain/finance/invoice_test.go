package finance

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trainhub/backend/internal/domain/shared"
)

func newTestInvoice(t *testing.T) *Invoice {
	t.Helper()
	inv, err := NewAutoDraftInvoice("INV-2026-0001", uuid.New(), uuid.New(), "Acme Sdn Bhd", "Leadership 101",
		mustDate("2026-03-02"), mustDate("2026-03-04"), "KL Hotel", 20, uuid.New())
	require.NoError(t, err)
	return inv
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func statusPtr(s InvoiceStatus) *InvoiceStatus {
	return &s
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, code, de.Code)
}

func TestInvoiceStatus_Predicates(t *testing.T) {
	tests := []struct {
		status   InvoiceStatus
		editable bool
		terminal bool
		payable  bool
	}{
		{InvoiceStatusAutoDraft, true, false, false},
		{InvoiceStatusFinanceReview, true, false, false},
		{InvoiceStatusApproved, false, false, false},
		{InvoiceStatusIssued, false, false, true},
		{InvoiceStatusPaid, false, true, true},
		{InvoiceStatusCancelled, false, true, false},
	}

	for _, tc := range tests {
		t.Run(tc.status.String(), func(t *testing.T) {
			assert.True(t, tc.status.IsValid())
			assert.Equal(t, tc.editable, tc.status.IsEditable())
			assert.Equal(t, tc.terminal, tc.status.IsTerminal())
			assert.Equal(t, tc.payable, tc.status.AcceptsPayments())
		})
	}
	assert.False(t, InvoiceStatus("draft").IsValid())
}

func TestNewAutoDraftInvoice(t *testing.T) {
	t.Run("creates zero valued draft", func(t *testing.T) {
		inv := newTestInvoice(t)

		assert.Equal(t, InvoiceStatusAutoDraft, inv.Status)
		assert.True(t, inv.TotalAmount.IsZero())
		assert.True(t, inv.Subtotal.IsZero())
		assert.Empty(t, inv.LineItems)
		require.Len(t, inv.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeInvoiceCreated, inv.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects empty number", func(t *testing.T) {
		_, err := NewAutoDraftInvoice(" ", uuid.New(), uuid.New(), "", "", mustDate("2026-01-01"), mustDate("2026-01-01"), "", 0, uuid.New())
		assertDomainCode(t, err, shared.CodeValidation)
	})

	t.Run("rejects nil session", func(t *testing.T) {
		_, err := NewAutoDraftInvoice("INV-2026-0002", uuid.Nil, uuid.New(), "", "", mustDate("2026-01-01"), mustDate("2026-01-01"), "", 0, uuid.New())
		assertDomainCode(t, err, shared.CodeValidation)
	})
}

func TestInvoice_Update(t *testing.T) {
	t.Run("subtotal and rate recompute tax and total", func(t *testing.T) {
		inv := newTestInvoice(t)
		_, err := inv.Update(InvoiceUpdate{Subtotal: decPtr("10000"), TaxRate: decPtr("6")}, uuid.New())
		require.NoError(t, err)

		assert.True(t, inv.TaxAmount.Equal(decimal.NewFromInt(600)))
		assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(10600)))
		assert.Equal(t, 1, inv.Version)
	})

	t.Run("total amount is taken as pre-tax base", func(t *testing.T) {
		inv := newTestInvoice(t)
		_, err := inv.Update(InvoiceUpdate{TotalAmount: decPtr("5000"), TaxRate: decPtr("8")}, uuid.New())
		require.NoError(t, err)

		assert.Equal(t, "5000.00", inv.Subtotal.StringFixed(2))
		assert.Equal(t, "400.00", inv.TaxAmount.StringFixed(2))
		assert.Equal(t, "5400.00", inv.TotalAmount.StringFixed(2))
	})

	t.Run("line items drive subtotal", func(t *testing.T) {
		inv := newTestInvoice(t)
		items := []LineItem{
			{Description: "Training fee", Quantity: decimal.NewFromInt(20), UnitPrice: decimal.NewFromInt(450)},
			{Description: "Materials", Amount: decimal.NewFromInt(1000)},
		}
		_, err := inv.Update(InvoiceUpdate{LineItems: &items}, uuid.New())
		require.NoError(t, err)

		assert.Equal(t, "9000.00", inv.LineItems[0].Amount.StringFixed(2))
		assert.Equal(t, "10000.00", inv.Subtotal.StringFixed(2))
		assert.Equal(t, "10000.00", inv.TotalAmount.StringFixed(2))
	})

	t.Run("editable status change emits event", func(t *testing.T) {
		inv := newTestInvoice(t)
		inv.ClearDomainEvents()
		previous, err := inv.Update(InvoiceUpdate{Status: statusPtr(InvoiceStatusFinanceReview)}, uuid.New())
		require.NoError(t, err)

		assert.Equal(t, InvoiceStatusAutoDraft, previous)
		assert.Equal(t, InvoiceStatusFinanceReview, inv.Status)
		require.Len(t, inv.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeInvoiceStatusChanged, inv.GetDomainEvents()[0].EventType())
	})

	t.Run("cannot jump to issued", func(t *testing.T) {
		inv := newTestInvoice(t)
		_, err := inv.Update(InvoiceUpdate{Status: statusPtr(InvoiceStatusIssued)}, uuid.New())
		assertDomainCode(t, err, shared.CodeInvalidState)
		assert.Equal(t, InvoiceStatusAutoDraft, inv.Status)
	})

	t.Run("rejects out of range tax rate", func(t *testing.T) {
		inv := newTestInvoice(t)
		_, err := inv.Update(InvoiceUpdate{TaxRate: decPtr("101")}, uuid.New())
		assertDomainCode(t, err, shared.CodeValidation)
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		inv := newTestInvoice(t)
		_, err := inv.Update(InvoiceUpdate{Subtotal: decPtr("-1")}, uuid.New())
		assertDomainCode(t, err, shared.CodeValidation)
	})

	t.Run("issued invoice is frozen", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.Approve(uuid.New()))
		require.NoError(t, inv.Issue(uuid.New()))

		notes := "late change"
		_, err := inv.Update(InvoiceUpdate{Notes: &notes}, uuid.New())
		assertDomainCode(t, err, shared.CodeInvalidState)
		assert.Contains(t, err.Error(), "Cannot modify issued/paid invoice")
		assert.Empty(t, inv.Notes)
	})
}

func TestInvoice_Lifecycle(t *testing.T) {
	t.Run("approve then issue", func(t *testing.T) {
		inv := newTestInvoice(t)
		approver, issuer := uuid.New(), uuid.New()

		require.NoError(t, inv.Approve(approver))
		assert.Equal(t, InvoiceStatusApproved, inv.Status)
		assert.Equal(t, approver, *inv.ApprovedBy)
		assert.NotNil(t, inv.ApprovedAt)

		require.NoError(t, inv.Issue(issuer))
		assert.Equal(t, InvoiceStatusIssued, inv.Status)
		assert.Equal(t, issuer, *inv.IssuedBy)
		assert.NotNil(t, inv.IssuedAt)
	})

	t.Run("issue requires approved", func(t *testing.T) {
		inv := newTestInvoice(t)
		err := inv.Issue(uuid.New())
		assertDomainCode(t, err, shared.CodeInvalidState)
		assert.Equal(t, "Only approved invoices can be issued", err.(*shared.DomainError).Message)
	})

	t.Run("approve twice fails", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.Approve(uuid.New()))
		assertDomainCode(t, inv.Approve(uuid.New()), shared.CodeInvalidState)
	})

	t.Run("cancel requires reason", func(t *testing.T) {
		inv := newTestInvoice(t)
		assertDomainCode(t, inv.Cancel(uuid.New(), "  "), shared.CodeValidation)
		assert.Equal(t, InvoiceStatusAutoDraft, inv.Status)
	})

	t.Run("cancel from issued", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.Approve(uuid.New()))
		require.NoError(t, inv.Issue(uuid.New()))
		require.NoError(t, inv.Cancel(uuid.New(), "client withdrew"))

		assert.Equal(t, InvoiceStatusCancelled, inv.Status)
		assert.Equal(t, "client withdrew", inv.CancellationReason)
		assert.NotNil(t, inv.CancelledAt)
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.Cancel(uuid.New(), "duplicate"))
		assertDomainCode(t, inv.Cancel(uuid.New(), "again"), shared.CodeInvalidState)
		assertDomainCode(t, inv.Approve(uuid.New()), shared.CodeInvalidState)
	})
}

func TestInvoice_MarkPaid(t *testing.T) {
	issued := func(t *testing.T) *Invoice {
		inv := newTestInvoice(t)
		_, err := inv.Update(InvoiceUpdate{Subtotal: decPtr("10000"), TaxRate: decPtr("6")}, uuid.New())
		require.NoError(t, err)
		require.NoError(t, inv.Approve(uuid.New()))
		require.NoError(t, inv.Issue(uuid.New()))
		return inv
	}

	t.Run("partial payment keeps issued", func(t *testing.T) {
		inv := issued(t)
		flipped, err := inv.MarkPaid(decimal.NewFromInt(5000))
		require.NoError(t, err)
		assert.False(t, flipped)
		assert.Equal(t, InvoiceStatusIssued, inv.Status)
	})

	t.Run("full coverage flips to paid", func(t *testing.T) {
		inv := issued(t)
		flipped, err := inv.MarkPaid(decimal.NewFromInt(10600))
		require.NoError(t, err)
		assert.True(t, flipped)
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.NotNil(t, inv.PaidAt)
	})

	t.Run("overpayment flips to paid", func(t *testing.T) {
		inv := issued(t)
		flipped, err := inv.MarkPaid(decimal.NewFromInt(11000))
		require.NoError(t, err)
		assert.True(t, flipped)
	})

	t.Run("already paid is a no-op", func(t *testing.T) {
		inv := issued(t)
		_, err := inv.MarkPaid(decimal.NewFromInt(10600))
		require.NoError(t, err)
		version := inv.Version

		flipped, err := inv.MarkPaid(decimal.NewFromInt(20000))
		require.NoError(t, err)
		assert.False(t, flipped)
		assert.Equal(t, version, inv.Version)
	})

	t.Run("draft cannot be paid", func(t *testing.T) {
		inv := newTestInvoice(t)
		_, err := inv.MarkPaid(decimal.NewFromInt(1))
		assertDomainCode(t, err, shared.CodeInvalidState)
	})
}

func TestCalculateTax(t *testing.T) {
	tests := []struct {
		amount, rate, expected string
	}{
		{"10000", "6", "600"},
		{"10000", "0", "0"},
		{"333.33", "8", "26.67"},
		{"0", "6", "0"},
	}

	for _, tc := range tests {
		t.Run(tc.amount+"@"+tc.rate, func(t *testing.T) {
			got := CalculateTax(decimal.RequireFromString(tc.amount), decimal.RequireFromString(tc.rate))
			assert.True(t, got.Equal(decimal.RequireFromString(tc.expected)), "got %s", got)
		})
	}
}

func TestInvoice_Snapshot(t *testing.T) {
	inv := newTestInvoice(t)
	snap := inv.Snapshot()

	assert.Equal(t, "INV-2026-0001", snap["invoice_number"])
	assert.Equal(t, "auto_draft", snap["status"])
	assert.Equal(t, "0.00", snap["total_amount"])
}
