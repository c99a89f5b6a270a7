package statement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/propertyhub/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// trialBalanceTolerance bounds the Σdebits == Σcredits cross-check
var trialBalanceTolerance = decimal.NewFromFloat(0.01)

// TrialBalanceRow is one account's position in the trial balance
type TrialBalanceRow struct {
	Code        string             `json:"code"`
	Name        string             `json:"name"`
	Type        ledger.AccountType `json:"type"`
	DebitTotal  decimal.Decimal    `json:"debit_total"`
	CreditTotal decimal.Decimal    `json:"credit_total"`
	Balance     decimal.Decimal    `json:"balance"`
}

// TrialBalance is the independent debit/credit cross-check over a period or
// as of a date
type TrialBalance struct {
	PeriodStart  *time.Time        `json:"period_start,omitempty"`
	PeriodEnd    *time.Time        `json:"period_end,omitempty"`
	AsOf         *time.Time        `json:"as_of,omitempty"`
	Rows         []TrialBalanceRow `json:"rows"`
	TotalDebits  decimal.Decimal   `json:"total_debits"`
	TotalCredits decimal.Decimal   `json:"total_credits"`
	Balanced     bool              `json:"balanced"`
	Warnings     []string          `json:"warnings"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

// GeneralLedgerLine is one entry's movement on an account, with the running
// balance after it
type GeneralLedgerLine struct {
	EntryID        uuid.UUID          `json:"entry_id"`
	Date           time.Time          `json:"date"`
	Description    string             `json:"description"`
	Source         ledger.EntrySource `json:"source"`
	Debit          decimal.Decimal    `json:"debit"`
	Credit         decimal.Decimal    `json:"credit"`
	RunningBalance decimal.Decimal    `json:"running_balance"`
}

// GeneralLedger is the per-account transaction history for drill-down
type GeneralLedger struct {
	AccountCode    string              `json:"account_code"`
	AccountName    string              `json:"account_name"`
	AccountType    ledger.AccountType  `json:"account_type"`
	Lines          []GeneralLedgerLine `json:"lines"`
	OpeningBalance decimal.Decimal     `json:"opening_balance"`
	ClosingBalance decimal.Decimal     `json:"closing_balance"`
	GeneratedAt    time.Time           `json:"generated_at"`
}

// TrialBalanceInput parameterizes a trial balance run. Either AsOf or a
// From/To pair is set; AsOf wins when both are present.
type TrialBalanceInput struct {
	AsOf *time.Time
	From *time.Time
	To   *time.Time
}

// TrialBalanceService provides the trial balance cross-check and the
// general ledger drill-down
type TrialBalanceService struct {
	entries  ledger.EntryRepository
	accounts ledger.AccountRepository
}

// NewTrialBalanceService creates a new TrialBalanceService
func NewTrialBalanceService(entries ledger.EntryRepository, accounts ledger.AccountRepository) *TrialBalanceService {
	return &TrialBalanceService{entries: entries, accounts: accounts}
}

// Generate rolls up debits and credits per account and cross-checks that
// they balance overall. Individually unbalanced entries are reported as
// warnings, never rejected.
func (s *TrialBalanceService) Generate(ctx context.Context, input TrialBalanceInput) (*TrialBalance, error) {
	filter := ledger.EntryFilter{From: input.From, To: input.To}
	if input.AsOf != nil {
		filter = ledger.EntryFilter{To: input.AsOf}
	}

	entries, err := s.entries.FindPosted(ctx, filter)
	if err != nil {
		return nil, err
	}

	tb := &TrialBalance{
		AsOf:         input.AsOf,
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
		GeneratedAt:  time.Now().UTC(),
	}
	if input.AsOf == nil {
		tb.PeriodStart = input.From
		tb.PeriodEnd = input.To
	}

	acc := ledger.NewBalanceAccumulator()
	for i := range entries {
		entry := &entries[i]
		if entry.IsEmpty() {
			continue
		}
		if !entry.IsBalanced(trialBalanceTolerance) {
			tb.Warnings = append(tb.Warnings, fmt.Sprintf(
				"entry %s (%s) is unbalanced: debits %s, credits %s",
				entry.ID, entry.EntryDate.Format("2006-01-02"),
				entry.TotalDebits(), entry.TotalCredits()))
		}
		acc.AddEntry(*entry)
	}

	for _, b := range acc.Balances() {
		tb.Rows = append(tb.Rows, TrialBalanceRow{
			Code:        b.Code,
			Name:        b.Name,
			Type:        b.Type,
			DebitTotal:  b.DebitTotal,
			CreditTotal: b.CreditTotal,
			Balance:     b.Balance,
		})
		tb.TotalDebits = tb.TotalDebits.Add(b.DebitTotal)
		tb.TotalCredits = tb.TotalCredits.Add(b.CreditTotal)
	}

	tb.Balanced = tb.TotalDebits.Sub(tb.TotalCredits).Abs().LessThanOrEqual(trialBalanceTolerance)
	return tb, nil
}

// GeneralLedger returns the transaction history of one account over the
// given period, with a running balance per the account's normal side. When
// the window has a lower bound, the pre-window history is folded into the
// opening balance so the running balances stay absolute.
func (s *TrialBalanceService) GeneralLedger(ctx context.Context, accountCode string, from, to *time.Time) (*GeneralLedger, error) {
	account, err := s.accounts.FindByCode(ctx, accountCode)
	if err != nil {
		return nil, err
	}

	movement := func(line *ledger.LineItem) decimal.Decimal {
		if account.Type.IsDebitNormal() {
			return line.Debit.Sub(line.Credit)
		}
		return line.Credit.Sub(line.Debit)
	}

	entries, err := s.entries.FindByAccount(ctx, accountCode, ledger.EntryFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}

	gl := &GeneralLedger{
		AccountCode:    account.Code,
		AccountName:    account.Name,
		AccountType:    account.Type,
		OpeningBalance: decimal.Zero,
		ClosingBalance: decimal.Zero,
		GeneratedAt:    time.Now().UTC(),
	}

	if from != nil {
		prior, err := s.entries.FindByAccount(ctx, accountCode, ledger.EntryFilter{To: from})
		if err != nil {
			return nil, err
		}
		for i := range prior {
			entry := &prior[i]
			// The To bound is inclusive; entries dated exactly at the
			// window start belong to the window, not the opening.
			if !entry.EntryDate.Before(*from) {
				continue
			}
			for j := range entry.Lines {
				line := &entry.Lines[j]
				if line.AccountCode != accountCode {
					continue
				}
				gl.OpeningBalance = gl.OpeningBalance.Add(movement(line))
			}
		}
	}

	running := gl.OpeningBalance
	for i := range entries {
		entry := &entries[i]
		for j := range entry.Lines {
			line := &entry.Lines[j]
			if line.AccountCode != accountCode {
				continue
			}
			running = running.Add(movement(line))
			gl.Lines = append(gl.Lines, GeneralLedgerLine{
				EntryID:        entry.ID,
				Date:           entry.EntryDate,
				Description:    entry.Description,
				Source:         entry.Source,
				Debit:          line.Debit,
				Credit:         line.Credit,
				RunningBalance: running,
			})
		}
	}
	gl.ClosingBalance = running
	return gl, nil
}
