package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trainhub/backend/internal/domain/shared"
)

func TestNewTrainerIncome(t *testing.T) {
	t.Run("defaults role", func(t *testing.T) {
		ti, err := NewTrainerIncome(uuid.New(), uuid.New(), " Aisyah ", "", decimal.NewFromInt(800), "")
		require.NoError(t, err)
		assert.Equal(t, TrainerRoleTrainer, ti.Role)
		assert.Equal(t, "Aisyah", ti.TrainerName)
		assert.Equal(t, PayableStatusPending, ti.Status)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := NewTrainerIncome(uuid.New(), uuid.Nil, "", "", decimal.Zero, "")
		assertDomainCode(t, err, shared.CodeValidation)

		_, err = NewTrainerIncome(uuid.New(), uuid.New(), "", "assistant", decimal.Zero, "")
		assertDomainCode(t, err, shared.CodeValidation)

		_, err = NewTrainerIncome(uuid.New(), uuid.New(), "", "", decimal.NewFromInt(-1), "")
		assertDomainCode(t, err, shared.CodeValidation)
	})
}

func TestTrainerIncome_MarkPaid_Idempotent(t *testing.T) {
	ti, err := NewTrainerIncome(uuid.New(), uuid.New(), "Aisyah", TrainerRoleChief, decimal.NewFromInt(800), "")
	require.NoError(t, err)
	first := uuid.New()

	assert.True(t, ti.MarkPaid(first, "2026-04-01"))
	assert.True(t, ti.IsPaid())

	assert.False(t, ti.MarkPaid(uuid.New(), "2026-04-02"))
	assert.Equal(t, "2026-04-01", ti.PaidDate)
	assert.Equal(t, first, *ti.PaidBy)
}

func TestNewCoordinatorFee(t *testing.T) {
	t.Run("derives total from days and rate", func(t *testing.T) {
		fee, err := NewCoordinatorFee(uuid.New(), uuid.New(), "Chong", 3, decimal.NewFromInt(150), decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, "450.00", fee.Amount.StringFixed(2))
	})

	t.Run("explicit total wins", func(t *testing.T) {
		fee, err := NewCoordinatorFee(uuid.New(), uuid.New(), "Chong", 3, decimal.NewFromInt(150), decimal.NewFromInt(400))
		require.NoError(t, err)
		assert.Equal(t, "400.00", fee.Amount.StringFixed(2))
	})

	t.Run("rejects negatives", func(t *testing.T) {
		_, err := NewCoordinatorFee(uuid.New(), uuid.New(), "Chong", -1, decimal.Zero, decimal.Zero)
		assertDomainCode(t, err, shared.CodeValidation)
	})
}

func TestCoordinatorFee_ReplaceAndPay(t *testing.T) {
	fee, err := NewCoordinatorFee(uuid.New(), uuid.New(), "Chong", 2, decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)
	next, err := NewCoordinatorFee(fee.SessionID, uuid.New(), "Devi", 4, decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)

	id := fee.ID
	require.NoError(t, fee.Replace(next))
	assert.Equal(t, id, fee.ID)
	assert.Equal(t, "Devi", fee.CoordinatorName)
	assert.Equal(t, "400.00", fee.Amount.StringFixed(2))

	assert.True(t, fee.MarkPaid(uuid.New(), "2026-04-01"))
	assert.False(t, fee.MarkPaid(uuid.New(), "2026-04-02"))
	assertDomainCode(t, fee.Replace(next), shared.CodeInvalidState)
}

func TestPaidDateIn(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kuala_Lumpur")
	require.NoError(t, err)
	assert.Equal(t, time.Now().In(loc).Format(time.DateOnly), PaidDateIn(loc))
	assert.Len(t, PaidDateIn(nil), 10)
}

func TestIncomeSummary_Add(t *testing.T) {
	var s IncomeSummary
	s.Add(decimal.NewFromInt(100), true)
	s.Add(decimal.NewFromInt(250), false)
	s.Add(decimal.NewFromInt(50), false)

	assert.Equal(t, "400.00", s.Total.StringFixed(2))
	assert.Equal(t, "100.00", s.Paid.StringFixed(2))
	assert.Equal(t, "300.00", s.Pending.StringFixed(2))
	assert.Equal(t, "total=400.00 paid=100.00 pending=300.00", s.String())
}
