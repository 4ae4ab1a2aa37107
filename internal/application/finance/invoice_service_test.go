package finance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trainhub/backend/internal/domain/finance"
	"github.com/trainhub/backend/internal/domain/identity"
	"github.com/trainhub/backend/internal/domain/shared"
	"github.com/trainhub/backend/internal/domain/training"
)

var testNow = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

type financeFixture struct {
	store      *memStore
	keys       *memKeyStore
	invoices   *InvoiceService
	payments   *PaymentService
	payables   *PayableService
	costing    *CostingService
	session    *training.Session
	marketerID uuid.UUID
	trainerID  uuid.UUID
	coordID    uuid.UUID
	actorID    uuid.UUID
}

func newFinanceFixture(t *testing.T) *financeFixture {
	t.Helper()
	store := newMemStore()

	company, err := training.NewCompany("Acme Sdn Bhd")
	require.NoError(t, err)
	programme, err := training.NewProgramme("Leadership Essentials", "LE-01")
	require.NoError(t, err)
	store.companies[company.ID] = company
	store.programmes[programme.ID] = programme

	f := &financeFixture{
		store:      store,
		keys:       newMemKeyStore(),
		marketerID: uuid.New(),
		trainerID:  uuid.New(),
		coordID:    uuid.New(),
		actorID:    uuid.New(),
	}
	f.session = f.addSession(t, company.ID, programme.ID)

	repos := store.repositories()
	scope := store.scope()
	numbers := finance.NewInvoiceNumberGenerator(repos.Counter, finance.DefaultInvoicePrefix, time.UTC).
		WithClock(func() time.Time { return testNow })

	f.invoices = NewInvoiceService(scope, repos.Invoices, repos.Sessions, memCompanies{store}, memProgrammes{store}, numbers, nil)
	f.payments = NewPaymentService(scope, repos.Payments, f.keys, nil)
	f.payables = NewPayableService(scope, time.UTC, nil)
	f.costing = NewCostingService(scope, memCompanies{store}, nil)
	return f
}

func (f *financeFixture) addSession(t *testing.T, companyID, programmeID uuid.UUID) *training.Session {
	t.Helper()
	start := time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC)
	session, err := training.NewSession("Leadership Essentials May", companyID, programmeID,
		start, start.AddDate(0, 0, 1), "Kuala Lumpur", 20, f.actorID)
	require.NoError(t, err)
	require.NoError(t, session.SetMarketing(training.MarketingAttribution{
		UserID: f.marketerID,
		Type:   training.CommissionPercentage,
		Rate:   decimal.NewFromInt(10),
	}))
	session.ClearDomainEvents()
	f.store.sessions[session.ID] = session
	return session
}

// addCosts books 2100 of direct costs: trainer 1500, coordinator 2 x 200, petrol 200
func (f *financeFixture) addCosts(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.costing.SaveTrainerFees(ctx, f.session.ID, f.actorID, []TrainerFeeInput{
		{TrainerID: f.trainerID, TrainerName: "Aisyah", Role: "chief_trainer", FeeAmount: decimal.NewFromInt(1500)},
	})
	require.NoError(t, err)
	_, err = f.costing.SaveCoordinatorFee(ctx, f.session.ID, f.actorID, CoordinatorFeeInput{
		CoordinatorID: f.coordID, CoordinatorName: "Hafiz", NumDays: 2, DailyRate: decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	_, err = f.costing.SaveExpenses(ctx, f.session.ID, f.actorID, []ExpenseInput{
		{Category: "petrol", Description: "KL return trip", UnitPrice: decimal.NewFromInt(200)},
	})
	require.NoError(t, err)
}

func (f *financeFixture) draft(t *testing.T, subtotal, taxRate int64) *InvoiceResponse {
	t.Helper()
	ctx := context.Background()
	created, err := f.invoices.CreateForSession(ctx, f.session.ID, f.actorID)
	require.NoError(t, err)
	sub, rate := decimal.NewFromInt(subtotal), decimal.NewFromInt(taxRate)
	updated, err := f.invoices.Update(ctx, created.ID, f.actorID, UpdateInvoiceInput{Subtotal: &sub, TaxRate: &rate})
	require.NoError(t, err)
	return updated
}

func (f *financeFixture) issue(t *testing.T, subtotal, taxRate int64) *InvoiceResponse {
	t.Helper()
	ctx := context.Background()
	inv := f.draft(t, subtotal, taxRate)
	_, err := f.invoices.Approve(ctx, inv.ID, f.actorID)
	require.NoError(t, err)
	issued, err := f.invoices.Issue(ctx, inv.ID, f.actorID)
	require.NoError(t, err)
	return issued
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

func TestInvoiceService_CreateForSession(t *testing.T) {
	f := newFinanceFixture(t)
	ctx := context.Background()

	inv, err := f.invoices.CreateForSession(ctx, f.session.ID, f.actorID)
	require.NoError(t, err)

	assert.Equal(t, "INV-2026-0001", inv.InvoiceNumber)
	assert.Equal(t, string(finance.InvoiceStatusAutoDraft), inv.Status)
	assert.Equal(t, "Acme Sdn Bhd", inv.CompanyName)
	assert.Equal(t, "Leadership Essentials", inv.ProgrammeName)
	assert.Equal(t, 20, inv.Headcount)
	assert.True(t, inv.TotalAmount.IsZero())

	assert.Equal(t, inv.ID, *f.session.InvoiceID)
	assert.Equal(t, "INV-2026-0001", f.session.InvoiceNumber)
	assert.Equal(t, "auto_draft", f.session.InvoiceStatus)

	commission := f.store.commissions[f.session.ID]
	require.NotNil(t, commission)
	assert.Equal(t, finance.CommissionStatusPending, commission.Status)

	entries := f.store.auditFor(inv.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, finance.AuditActionCreated, entries[0].Action)

	t.Run("second invoice for the session is rejected", func(t *testing.T) {
		_, err := f.invoices.CreateForSession(ctx, f.session.ID, f.actorID)
		assertDomainCode(t, err, shared.CodeAlreadyExists)
		assert.Len(t, f.store.invoices, 1)
	})

	t.Run("numbers keep increasing within the year", func(t *testing.T) {
		other := f.addSession(t, f.session.CompanyID, f.session.ProgrammeID)
		next, err := f.invoices.CreateForSession(ctx, other.ID, f.actorID)
		require.NoError(t, err)
		assert.Equal(t, "INV-2026-0002", next.InvoiceNumber)
	})
}

func TestInvoiceService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("total amount is taken as the pre-tax amount", func(t *testing.T) {
		f := newFinanceFixture(t)
		inv, err := f.invoices.CreateForSession(ctx, f.session.ID, f.actorID)
		require.NoError(t, err)

		total, rate := decimal.NewFromInt(1000), decimal.NewFromInt(6)
		updated, err := f.invoices.Update(ctx, inv.ID, f.actorID, UpdateInvoiceInput{TotalAmount: &total, TaxRate: &rate})
		require.NoError(t, err)
		assert.Equal(t, "1000", updated.Subtotal.String())
		assert.Equal(t, "60", updated.TaxAmount.String())
		assert.Equal(t, "1060", updated.TotalAmount.String())
		assert.Equal(t, string(finance.InvoiceStatusAutoDraft), updated.Status)
	})

	t.Run("moving to finance review is mirrored on the session", func(t *testing.T) {
		f := newFinanceFixture(t)
		inv, err := f.invoices.CreateForSession(ctx, f.session.ID, f.actorID)
		require.NoError(t, err)

		status := "finance_review"
		updated, err := f.invoices.Update(ctx, inv.ID, f.actorID, UpdateInvoiceInput{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
		assert.Equal(t, status, f.session.InvoiceStatus)
	})

	t.Run("lifecycle statuses cannot be set directly", func(t *testing.T) {
		f := newFinanceFixture(t)
		inv, err := f.invoices.CreateForSession(ctx, f.session.ID, f.actorID)
		require.NoError(t, err)

		status := "issued"
		_, err = f.invoices.Update(ctx, inv.ID, f.actorID, UpdateInvoiceInput{Status: &status})
		assertDomainCode(t, err, shared.CodeInvalidState)
	})

	t.Run("issued invoices are read-only", func(t *testing.T) {
		f := newFinanceFixture(t)
		inv := f.issue(t, 1000, 0)

		notes := "late change"
		_, err := f.invoices.Update(ctx, inv.ID, f.actorID, UpdateInvoiceInput{Notes: &notes})
		assertDomainCode(t, err, shared.CodeInvalidState)
		assert.Contains(t, err.Error(), "Cannot modify issued/paid invoice")
	})
}

func TestInvoiceService_IssueFinalizesCommission(t *testing.T) {
	f := newFinanceFixture(t)
	ctx := context.Background()
	f.addCosts(t)

	inv := f.issue(t, 10000, 6)

	assert.Equal(t, string(finance.InvoiceStatusIssued), inv.Status)
	assert.Equal(t, "10600", inv.TotalAmount.String())
	require.NotNil(t, inv.IssuedAt)
	assert.Equal(t, "issued", f.session.InvoiceStatus)

	commission := f.store.commissions[f.session.ID]
	require.NotNil(t, commission)
	assert.Equal(t, finance.CommissionStatusApproved, commission.Status)
	assert.Equal(t, "730", commission.CalculatedAmount.String())
	require.NotNil(t, commission.InvoiceID)
	assert.Equal(t, inv.ID, *commission.InvoiceID)
	assert.Len(t, f.store.auditFor(commission.ID), 1)

	t.Run("second issue is rejected and leaves the commission alone", func(t *testing.T) {
		_, err := f.invoices.Issue(ctx, inv.ID, f.actorID)
		assertDomainCode(t, err, shared.CodeInvalidState)
		assert.Equal(t, "730", f.store.commissions[f.session.ID].CalculatedAmount.String())
		assert.Len(t, f.store.auditFor(commission.ID), 1)
	})

	t.Run("marketing terms are locked after issue", func(t *testing.T) {
		_, err := f.costing.SaveMarketing(ctx, f.session.ID, f.actorID, MarketingInput{
			MarketingUserID: f.marketerID,
			CommissionType:  "fixed",
			FixedAmount:     decimal.NewFromInt(100),
		})
		assertDomainCode(t, err, shared.CodeInvalidState)
	})
}

func TestInvoiceService_IssueRequiresApproval(t *testing.T) {
	f := newFinanceFixture(t)
	inv := f.draft(t, 1000, 0)

	_, err := f.invoices.Issue(context.Background(), inv.ID, f.actorID)
	assertDomainCode(t, err, shared.CodeInvalidState)
	assert.Equal(t, finance.CommissionStatusPending, f.store.commissions[f.session.ID].Status)
}

func TestInvoiceService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a reason", func(t *testing.T) {
		f := newFinanceFixture(t)
		inv := f.draft(t, 1000, 0)
		_, err := f.invoices.Cancel(ctx, inv.ID, f.actorID, "  ")
		assertDomainCode(t, err, shared.CodeValidation)
	})

	t.Run("records the reason in the audit trail", func(t *testing.T) {
		f := newFinanceFixture(t)
		inv := f.issue(t, 1000, 0)

		cancelled, err := f.invoices.Cancel(ctx, inv.ID, f.actorID, "Client postponed")
		require.NoError(t, err)
		assert.Equal(t, "cancelled", cancelled.Status)
		assert.Equal(t, "Client postponed", cancelled.CancellationReason)
		assert.Equal(t, "cancelled", f.session.InvoiceStatus)

		entries := f.store.auditFor(inv.ID)
		last := entries[len(entries)-1]
		assert.Equal(t, finance.AuditActionStatusChanged, last.Action)
		assert.Equal(t, "Client postponed", last.Reason)
		assert.Equal(t, map[string]any{"status": "issued"}, last.Before)
	})

	t.Run("voids the finalized commission", func(t *testing.T) {
		f := newFinanceFixture(t)
		f.addCosts(t)
		inv := f.issue(t, 10000, 6)
		commission := f.store.commissions[f.session.ID]
		require.Equal(t, finance.CommissionStatusApproved, commission.Status)

		_, err := f.invoices.Cancel(ctx, inv.ID, f.actorID, "Client withdrew")
		require.NoError(t, err)
		assert.Equal(t, finance.CommissionStatusVoided, f.store.commissions[f.session.ID].Status)

		entries := f.store.auditFor(commission.ID)
		require.Len(t, entries, 2)
		assert.Equal(t, "Voided on invoice cancel", entries[1].Reason)

		_, err = f.payables.MarkPaid(ctx, finance.PayableKindCommission, commission.ID, f.actorID)
		assertDomainCode(t, err, shared.CodeInvalidState)

		c, err := f.costing.GetSessionCosting(ctx, f.session.ID)
		require.NoError(t, err)
		assert.True(t, c.MarketingCommission.IsZero())

		view, err := newIncomeService(f).GetIncome(ctx, identity.NewActor(f.marketerID, "marketing", nil),
			IncomeQuery{View: IncomeViewMarketing, PersonID: f.marketerID})
		require.NoError(t, err)
		require.Len(t, view.Records, 1)
		assert.Equal(t, "voided", view.Records[0].Status)
		assert.True(t, view.Summary.Pending.IsZero())
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		f := newFinanceFixture(t)
		inv := f.draft(t, 1000, 0)
		_, err := f.invoices.Cancel(ctx, inv.ID, f.actorID, "duplicate")
		require.NoError(t, err)
		_, err = f.invoices.Cancel(ctx, inv.ID, f.actorID, "again")
		assertDomainCode(t, err, shared.CodeInvalidState)
	})
}

func TestInvoiceService_List(t *testing.T) {
	f := newFinanceFixture(t)
	f.draft(t, 1000, 0)

	resp, err := f.invoices.List(context.Background(), InvoiceListFilter{Status: "auto_draft"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, resp.Total)

	_, err = f.invoices.List(context.Background(), InvoiceListFilter{Status: "draft"})
	assertDomainCode(t, err, shared.CodeInvalidInput)
}
