package statement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/propertyhub/backend/internal/domain/ledger"
	"github.com/propertyhub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// cashFlowTolerance bounds the recomputation check of monthly nets
var cashFlowTolerance = decimal.NewFromFloat(0.01)

// outflowWarningFactor triggers a warning when a month's outflows exceed
// this multiple of its inflows
var outflowWarningFactor = decimal.NewFromInt(2)

// ActivityFlow is one activity class's movement for one month
type ActivityFlow struct {
	Inflow   decimal.Decimal            `json:"inflow"`
	Outflow  decimal.Decimal            `json:"outflow"`
	Net      decimal.Decimal            `json:"net"`
	Accounts map[string]decimal.Decimal `json:"accounts"`
}

func newActivityFlow() ActivityFlow {
	return ActivityFlow{
		Inflow:   decimal.Zero,
		Outflow:  decimal.Zero,
		Net:      decimal.Zero,
		Accounts: make(map[string]decimal.Decimal),
	}
}

func (f *ActivityFlow) add(accountLabel string, delta decimal.Decimal) {
	if delta.IsPositive() {
		f.Inflow = f.Inflow.Add(delta)
	} else {
		f.Outflow = f.Outflow.Add(delta.Neg())
	}
	f.Net = f.Net.Add(delta)
	f.Accounts[accountLabel] = f.Accounts[accountLabel].Add(delta)
}

func (f *ActivityFlow) merge(other ActivityFlow) {
	f.Inflow = f.Inflow.Add(other.Inflow)
	f.Outflow = f.Outflow.Add(other.Outflow)
	f.Net = f.Net.Add(other.Net)
	for label, amount := range other.Accounts {
		f.Accounts[label] = f.Accounts[label].Add(amount)
	}
}

// CashFlowTransaction is the transaction-level detail retained per month
type CashFlowTransaction struct {
	EntryID     uuid.UUID           `json:"entry_id"`
	Date        time.Time           `json:"date"`
	Description string              `json:"description"`
	Category    ledger.CashCategory `json:"category"`
	Activity    ledger.Activity     `json:"activity"`
	Amount      decimal.Decimal     `json:"amount"`
	Source      ledger.EntrySource  `json:"source"`
}

// MonthlyCashFlow is one month's bucket of the cash flow statement
type MonthlyCashFlow struct {
	Month          ledger.MonthKey       `json:"month"`
	Operating      ActivityFlow          `json:"operating"`
	Investing      ActivityFlow          `json:"investing"`
	Financing      ActivityFlow          `json:"financing"`
	NetCashFlow    decimal.Decimal       `json:"net_cash_flow"`
	OpeningBalance decimal.Decimal       `json:"opening_balance"`
	ClosingBalance decimal.Decimal       `json:"closing_balance"`
	Transactions   []CashFlowTransaction `json:"transactions"`
}

// CashFlowTotals is the yearly roll-up across all months
type CashFlowTotals struct {
	Operating   ActivityFlow    `json:"operating"`
	Investing   ActivityFlow    `json:"investing"`
	Financing   ActivityFlow    `json:"financing"`
	NetCashFlow decimal.Decimal `json:"net_cash_flow"`
}

// CashFlowSummary highlights the period for quick reading
type CashFlowSummary struct {
	BestMonth     ledger.MonthKey `json:"best_month"`
	WorstMonth    ledger.MonthKey `json:"worst_month"`
	EndingBalance decimal.Decimal `json:"ending_balance"`
}

// CashFlowStatement is the shaped output of the cash flow generator.
// Warnings carry data-quality findings alongside, never instead of, the
// computed report.
type CashFlowStatement struct {
	PeriodStart      time.Time         `json:"period_start"`
	PeriodEnd        time.Time         `json:"period_end"`
	Basis            ledger.Basis      `json:"basis"`
	MonthlyBreakdown []MonthlyCashFlow `json:"monthly_breakdown"`
	YearlyTotals     CashFlowTotals    `json:"yearly_totals"`
	Summary          CashFlowSummary   `json:"summary"`
	Warnings         []string          `json:"warnings"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

// CashFlowInput parameterizes a generation run
type CashFlowInput struct {
	Period      ledger.Period
	Basis       ledger.Basis
	ResidenceID *uuid.UUID
}

// CashFlowService generates cash flow statements from the ledger
type CashFlowService struct {
	entries    ledger.EntryRepository
	resolver   *ledger.MonthResolver
	classifier *ledger.ActivityClassifier
}

// NewCashFlowService creates a new CashFlowService
func NewCashFlowService(
	entries ledger.EntryRepository,
	resolver *ledger.MonthResolver,
	classifier *ledger.ActivityClassifier,
) *CashFlowService {
	return &CashFlowService{
		entries:    entries,
		resolver:   resolver,
		classifier: classifier,
	}
}

// Generate builds the cash flow statement for the given period. Monthly
// opening balances chain from zero at period start; months with no activity
// still appear so the chain is continuous.
func (s *CashFlowService) Generate(ctx context.Context, input CashFlowInput) (*CashFlowStatement, error) {
	if !input.Basis.IsValid() {
		return nil, shared.ErrInvalidBasis
	}
	if input.Period.End.Before(input.Period.Start) {
		return nil, shared.ErrInvalidPeriod
	}

	entries, err := s.entries.FindPosted(ctx, ledger.EntryFilter{
		From:        &input.Period.Start,
		To:          &input.Period.End,
		Sources:     ledger.CashSources(),
		ResidenceID: input.ResidenceID,
	})
	if err != nil {
		return nil, err
	}

	months := make(map[ledger.MonthKey]*MonthlyCashFlow)
	for _, key := range input.Period.Months() {
		months[key] = &MonthlyCashFlow{
			Month:          key,
			Operating:      newActivityFlow(),
			Investing:      newActivityFlow(),
			Financing:      newActivityFlow(),
			NetCashFlow:    decimal.Zero,
			OpeningBalance: decimal.Zero,
			ClosingBalance: decimal.Zero,
		}
	}

	for i := range entries {
		entry := &entries[i]
		if entry.IsEmpty() || entry.IsForfeiture() {
			// Forfeitures write off accrued amounts; no cash moves.
			continue
		}

		cashDate := s.resolver.ResolveCashDate(entry)
		month := months[ledger.MonthKeyFor(cashDate)]
		if month == nil {
			// The authoritative cash date resolved outside the period.
			continue
		}

		delta := s.cashDelta(entry)
		if delta.IsZero() {
			continue
		}

		activity := s.entryActivity(entry)
		label := s.counterpartyLabel(entry)
		switch activity {
		case ledger.ActivityInvesting:
			month.Investing.add(label, delta)
		case ledger.ActivityFinancing:
			month.Financing.add(label, delta)
		default:
			month.Operating.add(label, delta)
		}
		month.NetCashFlow = month.NetCashFlow.Add(delta)

		month.Transactions = append(month.Transactions, CashFlowTransaction{
			EntryID:     entry.ID,
			Date:        cashDate,
			Description: entry.Description,
			Category:    s.classifier.Categorize(entry.Description),
			Activity:    activity,
			Amount:      delta,
			Source:      entry.Source,
		})
	}

	stmt := &CashFlowStatement{
		PeriodStart: input.Period.Start,
		PeriodEnd:   input.Period.End,
		Basis:       input.Basis,
		YearlyTotals: CashFlowTotals{
			Operating:   newActivityFlow(),
			Investing:   newActivityFlow(),
			Financing:   newActivityFlow(),
			NetCashFlow: decimal.Zero,
		},
		GeneratedAt: time.Now().UTC(),
	}

	// Chain opening/closing balances, seeded at zero at period start.
	running := decimal.Zero
	best, worst := ledger.MonthKey(""), ledger.MonthKey("")
	var bestNet, worstNet decimal.Decimal
	for _, key := range input.Period.Months() {
		month := months[key]
		month.OpeningBalance = running
		running = running.Add(month.NetCashFlow)
		month.ClosingBalance = running

		stmt.YearlyTotals.Operating.merge(month.Operating)
		stmt.YearlyTotals.Investing.merge(month.Investing)
		stmt.YearlyTotals.Financing.merge(month.Financing)
		stmt.YearlyTotals.NetCashFlow = stmt.YearlyTotals.NetCashFlow.Add(month.NetCashFlow)

		if best == "" || month.NetCashFlow.GreaterThan(bestNet) {
			best, bestNet = key, month.NetCashFlow
		}
		if worst == "" || month.NetCashFlow.LessThan(worstNet) {
			worst, worstNet = key, month.NetCashFlow
		}

		stmt.MonthlyBreakdown = append(stmt.MonthlyBreakdown, *month)
	}

	stmt.Summary = CashFlowSummary{
		BestMonth:     best,
		WorstMonth:    worst,
		EndingBalance: running,
	}
	stmt.Warnings = s.Validate(stmt)
	return stmt, nil
}

// cashDelta sums debit − credit over the entry's cash-account lines. Only
// lines on actual cash accounts participate; Income/Expense lines describe
// the same movement and would double count it.
func (s *CashFlowService) cashDelta(entry *ledger.LedgerEntry) decimal.Decimal {
	delta := decimal.Zero
	for i := range entry.Lines {
		line := &entry.Lines[i]
		if s.classifier.IsCashAccount(line.AccountCode) {
			delta = delta.Add(line.Debit).Sub(line.Credit)
		}
	}
	return delta
}

// entryActivity classifies the movement by its counterparty account: the
// first non-cash, non-income/expense line decides. A pure cash-vs-income
// entry is operating by default.
func (s *CashFlowService) entryActivity(entry *ledger.LedgerEntry) ledger.Activity {
	for i := range entry.Lines {
		line := &entry.Lines[i]
		if s.classifier.IsCashAccount(line.AccountCode) {
			continue
		}
		if line.AccountType == ledger.AccountTypeIncome || line.AccountType == ledger.AccountTypeExpense {
			continue
		}
		return s.classifier.Classify(line.AccountCode)
	}
	return ledger.ActivityOperating
}

// counterpartyLabel names the account the breakdown attributes the movement
// to: the first non-cash line's account, else the cash account itself
func (s *CashFlowService) counterpartyLabel(entry *ledger.LedgerEntry) string {
	var cashLabel string
	for i := range entry.Lines {
		line := &entry.Lines[i]
		if s.classifier.IsCashAccount(line.AccountCode) {
			if cashLabel == "" {
				cashLabel = line.AccountCode + " " + line.AccountName
			}
			continue
		}
		return line.AccountCode + " " + line.AccountName
	}
	return cashLabel
}

// Validate recomputes each month's identity: net must equal
// operating + investing + financing within tolerance, and closing must chain
// into the next month's opening. Months whose outflows exceed twice their
// inflows are flagged as outliers.
func (s *CashFlowService) Validate(stmt *CashFlowStatement) []string {
	var warnings []string
	for i := range stmt.MonthlyBreakdown {
		month := &stmt.MonthlyBreakdown[i]
		recomputed := month.Operating.Net.Add(month.Investing.Net).Add(month.Financing.Net)
		if recomputed.Sub(month.NetCashFlow).Abs().GreaterThan(cashFlowTolerance) {
			warnings = append(warnings, fmt.Sprintf(
				"%s: net cash flow %s does not equal operating+investing+financing %s",
				month.Month, month.NetCashFlow, recomputed))
		}
		if month.ClosingBalance.Sub(month.OpeningBalance.Add(month.NetCashFlow)).Abs().GreaterThan(cashFlowTolerance) {
			warnings = append(warnings, fmt.Sprintf(
				"%s: closing balance %s does not equal opening %s plus net %s",
				month.Month, month.ClosingBalance, month.OpeningBalance, month.NetCashFlow))
		}
		totalIn := month.Operating.Inflow.Add(month.Investing.Inflow).Add(month.Financing.Inflow)
		totalOut := month.Operating.Outflow.Add(month.Investing.Outflow).Add(month.Financing.Outflow)
		if totalIn.IsPositive() && totalOut.GreaterThan(totalIn.Mul(outflowWarningFactor)) {
			warnings = append(warnings, fmt.Sprintf(
				"%s: outflows %s exceed twice the inflows %s", month.Month, totalOut, totalIn))
		}
	}
	return warnings
}
