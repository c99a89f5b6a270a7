package statement

import (
	"context"
	"testing"
	"time"

	"github.com/propertyhub/backend/internal/domain/ledger"
	"github.com/propertyhub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrialBalanceGenerate(t *testing.T) {
	entries := []ledger.LedgerEntry{
		postedEntry(day(2025, time.January, 5), ledger.SourcePayment, "Rent payment unit 4B",
			debitLine("1000", "Cash on Hand", ledger.AccountTypeAsset, 900),
			creditLine("4000", "Rental Income", ledger.AccountTypeIncome, 900)),
		postedEntry(day(2025, time.January, 20), ledger.SourceVendorPayment, "Plumbing repair paid",
			creditLine("1000", "Cash on Hand", ledger.AccountTypeAsset, 300),
			debitLine("5000", "Maintenance Expense", ledger.AccountTypeExpense, 300)),
	}
	svc := NewTrialBalanceService(&stubEntryRepo{entries: entries}, &stubAccountRepo{accounts: testChart()})

	asOf := day(2025, time.March, 31)
	tb, err := svc.Generate(context.Background(), TrialBalanceInput{AsOf: &asOf})
	require.NoError(t, err)

	t.Run("total debits equal total credits", func(t *testing.T) {
		assert.True(t, tb.TotalDebits.Equal(decimal.NewFromFloat(1200)))
		assert.True(t, tb.TotalCredits.Equal(decimal.NewFromFloat(1200)))
		assert.True(t, tb.Balanced)
		assert.Empty(t, tb.Warnings)
	})

	t.Run("rows are per account, sorted by code", func(t *testing.T) {
		require.Len(t, tb.Rows, 3)
		assert.Equal(t, "1000", tb.Rows[0].Code)
		assert.Equal(t, "4000", tb.Rows[1].Code)
		assert.Equal(t, "5000", tb.Rows[2].Code)
		// Cash: 900 debit, 300 credit, debit-normal balance 600.
		assert.True(t, tb.Rows[0].DebitTotal.Equal(decimal.NewFromFloat(900)))
		assert.True(t, tb.Rows[0].CreditTotal.Equal(decimal.NewFromFloat(300)))
		assert.True(t, tb.Rows[0].Balance.Equal(decimal.NewFromFloat(600)))
	})

	t.Run("as-of mode is recorded without a period", func(t *testing.T) {
		require.NotNil(t, tb.AsOf)
		assert.Nil(t, tb.PeriodStart)
		assert.Nil(t, tb.PeriodEnd)
	})
}

func TestTrialBalanceUnbalancedEntry(t *testing.T) {
	lopsided := postedEntry(day(2025, time.February, 3), ledger.SourceManual, "Opening balance adjustment",
		debitLine("1000", "Cash on Hand", ledger.AccountTypeAsset, 250),
		creditLine("3000", "Owner Equity", ledger.AccountTypeEquity, 200))
	svc := NewTrialBalanceService(&stubEntryRepo{entries: []ledger.LedgerEntry{lopsided}}, &stubAccountRepo{accounts: testChart()})

	asOf := day(2025, time.December, 31)
	tb, err := svc.Generate(context.Background(), TrialBalanceInput{AsOf: &asOf})
	require.NoError(t, err)

	t.Run("unbalanced entries warn instead of failing", func(t *testing.T) {
		require.Len(t, tb.Warnings, 1)
		assert.Contains(t, tb.Warnings[0], "is unbalanced")
		assert.Contains(t, tb.Warnings[0], lopsided.ID.String())
	})

	t.Run("the lopsided amounts still flow into the totals", func(t *testing.T) {
		assert.True(t, tb.TotalDebits.Equal(decimal.NewFromFloat(250)))
		assert.True(t, tb.TotalCredits.Equal(decimal.NewFromFloat(200)))
		assert.False(t, tb.Balanced)
	})
}

func TestTrialBalancePeriodMode(t *testing.T) {
	entries := []ledger.LedgerEntry{
		postedEntry(day(2024, time.December, 20), ledger.SourcePayment, "December rent",
			debitLine("1000", "Cash on Hand", ledger.AccountTypeAsset, 900),
			creditLine("4000", "Rental Income", ledger.AccountTypeIncome, 900)),
		postedEntry(day(2025, time.January, 20), ledger.SourcePayment, "January rent",
			debitLine("1000", "Cash on Hand", ledger.AccountTypeAsset, 950),
			creditLine("4000", "Rental Income", ledger.AccountTypeIncome, 950)),
	}
	svc := NewTrialBalanceService(&stubEntryRepo{entries: entries}, &stubAccountRepo{accounts: testChart()})

	from, to := day(2025, time.January, 1), day(2025, time.January, 31)
	tb, err := svc.Generate(context.Background(), TrialBalanceInput{From: &from, To: &to})
	require.NoError(t, err)

	t.Run("only entries inside the window are counted", func(t *testing.T) {
		assert.True(t, tb.TotalDebits.Equal(decimal.NewFromFloat(950)))
		assert.True(t, tb.Balanced)
	})

	t.Run("the window is recorded on the statement", func(t *testing.T) {
		assert.Nil(t, tb.AsOf)
		require.NotNil(t, tb.PeriodStart)
		assert.Equal(t, from, *tb.PeriodStart)
	})
}

func TestGeneralLedger(t *testing.T) {
	entries := []ledger.LedgerEntry{
		postedEntry(day(2025, time.January, 5), ledger.SourcePayment, "Rent payment unit 4B",
			debitLine("1000", "Cash on Hand", ledger.AccountTypeAsset, 900),
			creditLine("4000", "Rental Income", ledger.AccountTypeIncome, 900)),
		postedEntry(day(2025, time.January, 20), ledger.SourceVendorPayment, "Plumbing repair paid",
			creditLine("1000", "Cash on Hand", ledger.AccountTypeAsset, 300),
			debitLine("5000", "Maintenance Expense", ledger.AccountTypeExpense, 300)),
	}
	svc := NewTrialBalanceService(&stubEntryRepo{entries: entries}, &stubAccountRepo{accounts: testChart()})

	t.Run("running balance follows the account's normal side", func(t *testing.T) {
		gl, err := svc.GeneralLedger(context.Background(), "1000", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "Cash on Hand", gl.AccountName)
		require.Len(t, gl.Lines, 2)
		assert.True(t, gl.Lines[0].RunningBalance.Equal(decimal.NewFromFloat(900)))
		assert.True(t, gl.Lines[1].RunningBalance.Equal(decimal.NewFromFloat(600)))
		assert.True(t, gl.ClosingBalance.Equal(decimal.NewFromFloat(600)))
	})

	t.Run("credit-normal accounts grow by credits", func(t *testing.T) {
		gl, err := svc.GeneralLedger(context.Background(), "4000", nil, nil)
		require.NoError(t, err)
		require.Len(t, gl.Lines, 1)
		assert.True(t, gl.ClosingBalance.Equal(decimal.NewFromFloat(900)))
	})

	t.Run("date window trims the history but keeps balances absolute", func(t *testing.T) {
		from := day(2025, time.January, 10)
		gl, err := svc.GeneralLedger(context.Background(), "1000", &from, nil)
		require.NoError(t, err)
		require.Len(t, gl.Lines, 1)
		assert.True(t, gl.OpeningBalance.Equal(decimal.NewFromFloat(900)),
			"opening balance should carry the pre-window history, got %s", gl.OpeningBalance)
		assert.True(t, gl.Lines[0].RunningBalance.Equal(decimal.NewFromFloat(600)))
		assert.True(t, gl.ClosingBalance.Equal(decimal.NewFromFloat(600)))
	})

	t.Run("entry dated at the window start stays out of the opening", func(t *testing.T) {
		from := day(2025, time.January, 20)
		gl, err := svc.GeneralLedger(context.Background(), "1000", &from, nil)
		require.NoError(t, err)
		require.Len(t, gl.Lines, 1)
		assert.True(t, gl.OpeningBalance.Equal(decimal.NewFromFloat(900)))
		assert.True(t, gl.ClosingBalance.Equal(decimal.NewFromFloat(600)))
	})

	t.Run("unbounded window opens at zero", func(t *testing.T) {
		gl, err := svc.GeneralLedger(context.Background(), "1000", nil, nil)
		require.NoError(t, err)
		assert.True(t, gl.OpeningBalance.IsZero())
	})

	t.Run("unknown account is an error", func(t *testing.T) {
		_, err := svc.GeneralLedger(context.Background(), "8888", nil, nil)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
