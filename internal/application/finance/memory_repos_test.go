package finance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trainhub/backend/internal/domain/finance"
	"github.com/trainhub/backend/internal/domain/identity"
	"github.com/trainhub/backend/internal/domain/shared"
	"github.com/trainhub/backend/internal/domain/training"
)

// memStore backs the in-memory repositories used by the service tests
type memStore struct {
	mu              sync.Mutex
	invoices        map[uuid.UUID]*finance.Invoice
	payments        []*finance.Payment
	commissions     map[uuid.UUID]*finance.MarketingCommission
	trainerIncomes  map[uuid.UUID]*finance.TrainerIncome
	coordinatorFees map[uuid.UUID]*finance.CoordinatorFee
	expenses        map[uuid.UUID][]*finance.CashExpense
	audit           []*finance.AuditEntry
	sessions        map[uuid.UUID]*training.Session
	companies       map[uuid.UUID]*training.Company
	programmes      map[uuid.UUID]*training.Programme
	users           map[uuid.UUID]*identity.User
	sequences       map[string]int64
}

func newMemStore() *memStore {
	return &memStore{
		invoices:        map[uuid.UUID]*finance.Invoice{},
		commissions:     map[uuid.UUID]*finance.MarketingCommission{},
		trainerIncomes:  map[uuid.UUID]*finance.TrainerIncome{},
		coordinatorFees: map[uuid.UUID]*finance.CoordinatorFee{},
		expenses:        map[uuid.UUID][]*finance.CashExpense{},
		sessions:        map[uuid.UUID]*training.Session{},
		companies:       map[uuid.UUID]*training.Company{},
		programmes:      map[uuid.UUID]*training.Programme{},
		users:           map[uuid.UUID]*identity.User{},
		sequences:       map[string]int64{},
	}
}

func (s *memStore) repositories() Repositories {
	return Repositories{
		Invoices:        memInvoices{s},
		Counter:         memCounter{s},
		Payments:        memPayments{s},
		Commissions:     memCommissions{s},
		TrainerIncomes:  memTrainerIncomes{s},
		CoordinatorFees: memCoordinatorFees{s},
		CashExpenses:    memExpenses{s},
		Audit:           memAudit{s},
		Sessions:        memSessions{s},
	}
}

func (s *memStore) scope() *NoOpTransactionScope {
	return NewNoOpTransactionScope(s.repositories())
}

func (s *memStore) auditFor(entityID uuid.UUID) []*finance.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*finance.AuditEntry
	for _, e := range s.audit {
		if e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out
}

type memInvoices struct{ s *memStore }

func (r memInvoices) FindByID(_ context.Context, id uuid.UUID) (*finance.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if inv, ok := r.s.invoices[id]; ok {
		return inv, nil
	}
	return nil, shared.ErrNotFound
}

func (r memInvoices) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.Invoice, error) {
	return r.FindByID(ctx, id)
}

func (r memInvoices) FindBySessionID(_ context.Context, sessionID uuid.UUID) (*finance.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.invoices {
		if inv.SessionID == sessionID {
			return inv, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memInvoices) FindAll(_ context.Context, filter finance.InvoiceFilter) ([]*finance.Invoice, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*finance.Invoice
	for _, inv := range r.s.invoices {
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		if filter.CompanyID != nil && inv.CompanyID != *filter.CompanyID {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (r memInvoices) Create(_ context.Context, inv *finance.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.invoices {
		if existing.SessionID == inv.SessionID {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Session already has an invoice")
		}
	}
	r.s.invoices[inv.ID] = inv
	return nil
}

func (r memInvoices) SaveWithLock(_ context.Context, inv *finance.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.invoices[inv.ID]; !ok {
		return shared.ErrNotFound
	}
	inv.IncrementVersion()
	r.s.invoices[inv.ID] = inv
	return nil
}

func (r memInvoices) CountByStatus(_ context.Context) (map[finance.InvoiceStatus]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := map[finance.InvoiceStatus]int64{}
	for _, inv := range r.s.invoices {
		counts[inv.Status]++
	}
	return counts, nil
}

func (r memInvoices) SumTotalByStatus(_ context.Context, statuses ...finance.InvoiceStatus) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := decimal.Zero
	for _, inv := range r.s.invoices {
		for _, st := range statuses {
			if inv.Status == st {
				total = total.Add(inv.TotalAmount)
			}
		}
	}
	return total, nil
}

type memCounter struct{ s *memStore }

func (r memCounter) NextSequence(_ context.Context, prefix string, year int) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := finance.FormatInvoiceNumber(prefix, year, 0)
	r.s.sequences[key]++
	return r.s.sequences[key], nil
}

type memPayments struct{ s *memStore }

func (r memPayments) Create(_ context.Context, p *finance.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.payments = append(r.s.payments, p)
	return nil
}

func (r memPayments) FindByID(_ context.Context, id uuid.UUID) (*finance.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memPayments) FindAll(_ context.Context, filter finance.PaymentFilter) ([]*finance.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*finance.Payment
	for i := len(r.s.payments) - 1; i >= 0; i-- {
		p := r.s.payments[i]
		if filter.InvoiceID == nil || p.InvoiceID == *filter.InvoiceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memPayments) SumByInvoice(_ context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := decimal.Zero
	for _, p := range r.s.payments {
		if p.InvoiceID == invoiceID {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

type memCommissions struct{ s *memStore }

func (r memCommissions) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.MarketingCommission, error) {
	return r.FindByID(ctx, id)
}

func (r memCommissions) FindByID(_ context.Context, id uuid.UUID) (*finance.MarketingCommission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.commissions {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memCommissions) FindBySessionID(_ context.Context, sessionID uuid.UUID) (*finance.MarketingCommission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.commissions[sessionID]; ok {
		return c, nil
	}
	return nil, shared.ErrNotFound
}

func (r memCommissions) FindByMarketingUser(_ context.Context, userID uuid.UUID) ([]*finance.MarketingCommission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*finance.MarketingCommission
	for _, c := range r.s.commissions {
		if c.MarketingUserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r memCommissions) Save(_ context.Context, c *finance.MarketingCommission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.commissions[c.SessionID] = c
	return nil
}

func (r memCommissions) SumByStatus(_ context.Context, statuses ...finance.CommissionStatus) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := decimal.Zero
	for _, c := range r.s.commissions {
		for _, st := range statuses {
			if c.Status == st {
				total = total.Add(c.CalculatedAmount)
			}
		}
	}
	return total, nil
}

type memTrainerIncomes struct{ s *memStore }

func (r memTrainerIncomes) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.TrainerIncome, error) {
	return r.FindByID(ctx, id)
}

func (r memTrainerIncomes) FindByID(_ context.Context, id uuid.UUID) (*finance.TrainerIncome, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.trainerIncomes[id]; ok {
		return t, nil
	}
	return nil, shared.ErrNotFound
}

func (r memTrainerIncomes) FindBySessionID(_ context.Context, sessionID uuid.UUID) ([]*finance.TrainerIncome, error) {
	return r.filter(func(t *finance.TrainerIncome) bool { return t.SessionID == sessionID }), nil
}

func (r memTrainerIncomes) FindByTrainer(_ context.Context, trainerID uuid.UUID) ([]*finance.TrainerIncome, error) {
	return r.filter(func(t *finance.TrainerIncome) bool { return t.TrainerID == trainerID }), nil
}

func (r memTrainerIncomes) filter(keep func(*finance.TrainerIncome) bool) []*finance.TrainerIncome {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*finance.TrainerIncome
	for _, t := range r.s.trainerIncomes {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrainerName < out[j].TrainerName })
	return out
}

func (r memTrainerIncomes) ReplacePendingForSession(_ context.Context, sessionID uuid.UUID, incomes []*finance.TrainerIncome) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, t := range r.s.trainerIncomes {
		if t.SessionID == sessionID && !t.IsPaid() {
			delete(r.s.trainerIncomes, id)
		}
	}
	for _, t := range incomes {
		r.s.trainerIncomes[t.ID] = t
	}
	return nil
}

func (r memTrainerIncomes) Save(_ context.Context, t *finance.TrainerIncome) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.trainerIncomes[t.ID] = t
	return nil
}

func (r memTrainerIncomes) SumByStatus(_ context.Context, status finance.PayableStatus) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := decimal.Zero
	for _, t := range r.s.trainerIncomes {
		if t.Status == status {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

type memCoordinatorFees struct{ s *memStore }

func (r memCoordinatorFees) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.CoordinatorFee, error) {
	return r.FindByID(ctx, id)
}

func (r memCoordinatorFees) FindByID(_ context.Context, id uuid.UUID) (*finance.CoordinatorFee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, f := range r.s.coordinatorFees {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memCoordinatorFees) FindBySessionID(_ context.Context, sessionID uuid.UUID) (*finance.CoordinatorFee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if f, ok := r.s.coordinatorFees[sessionID]; ok {
		return f, nil
	}
	return nil, shared.ErrNotFound
}

func (r memCoordinatorFees) FindByCoordinator(_ context.Context, coordinatorID uuid.UUID) ([]*finance.CoordinatorFee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*finance.CoordinatorFee
	for _, f := range r.s.coordinatorFees {
		if f.CoordinatorID == coordinatorID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r memCoordinatorFees) Save(_ context.Context, f *finance.CoordinatorFee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.coordinatorFees[f.SessionID] = f
	return nil
}

func (r memCoordinatorFees) SumByStatus(_ context.Context, status finance.PayableStatus) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := decimal.Zero
	for _, f := range r.s.coordinatorFees {
		if f.Status == status {
			total = total.Add(f.Amount)
		}
	}
	return total, nil
}

type memExpenses struct{ s *memStore }

func (r memExpenses) FindBySessionID(_ context.Context, sessionID uuid.UUID) ([]*finance.CashExpense, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.expenses[sessionID], nil
}

func (r memExpenses) ReplaceForSession(_ context.Context, sessionID uuid.UUID, expenses []*finance.CashExpense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.expenses[sessionID] = expenses
	return nil
}

type memAudit struct{ s *memStore }

func (r memAudit) Append(_ context.Context, e *finance.AuditEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = uuid.NewString()
	r.s.audit = append(r.s.audit, e)
	return nil
}

func (r memAudit) List(_ context.Context, filter finance.AuditLogFilter) ([]*finance.AuditEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*finance.AuditEntry
	for i := len(r.s.audit) - 1; i >= 0 && len(out) < filter.EffectiveLimit(); i-- {
		e := r.s.audit[i]
		if filter.EntityType != nil && e.EntityType != *filter.EntityType {
			continue
		}
		if filter.EntityID != nil && e.EntityID != *filter.EntityID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type memSessions struct{ s *memStore }

func (r memSessions) Save(_ context.Context, session *training.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sessions[session.ID] = session
	return nil
}

func (r memSessions) FindByID(_ context.Context, id uuid.UUID) (*training.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if session, ok := r.s.sessions[id]; ok {
		return session, nil
	}
	return nil, shared.ErrNotFound
}

func (r memSessions) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*training.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*training.Session
	for _, id := range ids {
		if session, ok := r.s.sessions[id]; ok {
			out = append(out, session)
		}
	}
	return out, nil
}

func (r memSessions) UpdateInvoiceStatus(_ context.Context, sessionID uuid.UUID, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[sessionID]
	if !ok {
		return shared.ErrNotFound
	}
	session.InvoiceStatus = status
	return nil
}

type memCompanies struct{ s *memStore }

func (r memCompanies) FindByID(_ context.Context, id uuid.UUID) (*training.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.companies[id]; ok {
		return c, nil
	}
	return nil, shared.ErrNotFound
}

func (r memCompanies) NamesByIDs(_ context.Context, ids []uuid.UUID) (training.Names, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	names := training.Names{}
	for _, id := range ids {
		if c, ok := r.s.companies[id]; ok {
			names[id] = c.Name
		}
	}
	return names, nil
}

type memProgrammes struct{ s *memStore }

func (r memProgrammes) FindByID(_ context.Context, id uuid.UUID) (*training.Programme, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.programmes[id]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

type memUsers struct{ s *memStore }

func (r memUsers) Save(_ context.Context, u *identity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[u.ID] = u
	return nil
}

func (r memUsers) FindByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (r memUsers) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*identity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*identity.User
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r memUsers) FindByRole(_ context.Context, role identity.Role) ([]*identity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*identity.User
	for _, u := range r.s.users {
		if u.IsActive && (u.Role == role || containsRole(u.AdditionalRoles, role)) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func containsRole(roles []identity.Role, role identity.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// memKeyStore is an in-memory idempotency key store
type memKeyStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemKeyStore() *memKeyStore {
	return &memKeyStore{keys: map[string]string{}}
}

func (k *memKeyStore) Claim(_ context.Context, key, value string, _ time.Duration) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if existing, ok := k.keys[key]; ok {
		return existing, false, nil
	}
	k.keys[key] = value
	return value, true, nil
}

func (k *memKeyStore) Release(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.keys, key)
	return nil
}

var (
	_ finance.InvoiceRepository             = memInvoices{}
	_ finance.InvoiceCounter                = memCounter{}
	_ finance.PaymentRepository             = memPayments{}
	_ finance.MarketingCommissionRepository = memCommissions{}
	_ finance.TrainerIncomeRepository       = memTrainerIncomes{}
	_ finance.CoordinatorFeeRepository      = memCoordinatorFees{}
	_ finance.CashExpenseRepository         = memExpenses{}
	_ finance.AuditLogRepository            = memAudit{}
	_ training.SessionRepository            = memSessions{}
	_ training.CompanyRepository            = memCompanies{}
	_ training.ProgrammeRepository          = memProgrammes{}
	_ identity.UserRepository               = memUsers{}
	_ shared.IdempotencyKeyStore            = (*memKeyStore)(nil)
)
