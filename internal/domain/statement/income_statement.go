package statement

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/propertyhub/backend/internal/domain/ledger"
	"github.com/propertyhub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StatementSection is one side of an income statement: per-category amounts
// plus their total
type StatementSection struct {
	Categories map[ledger.CashCategory]decimal.Decimal `json:"categories"`
	Total      decimal.Decimal                         `json:"total"`
}

func newStatementSection() StatementSection {
	return StatementSection{
		Categories: make(map[ledger.CashCategory]decimal.Decimal),
		Total:      decimal.Zero,
	}
}

func (s *StatementSection) add(category ledger.CashCategory, amount decimal.Decimal) {
	s.Categories[category] = s.Categories[category].Add(amount)
	s.Total = s.Total.Add(amount)
}

// MonthlyIncomeSummary is one month's bucket of an income statement
type MonthlyIncomeSummary struct {
	Month            ledger.MonthKey `json:"month"`
	Revenue          decimal.Decimal `json:"revenue"`
	Expenses         decimal.Decimal `json:"expenses"`
	NetIncome        decimal.Decimal `json:"net_income"`
	TransactionCount int             `json:"transaction_count"`
}

// AuditLine is one entry's contribution retained for drill-down in the
// comprehensive statement variant
type AuditLine struct {
	EntryID     uuid.UUID          `json:"entry_id"`
	Date        time.Time          `json:"date"`
	AccountCode string             `json:"account_code"`
	AccountName string             `json:"account_name"`
	Amount      decimal.Decimal    `json:"amount"`
	Source      ledger.EntrySource `json:"source"`
}

// IncomeStatement is the shaped output of the income statement generator
type IncomeStatement struct {
	PeriodStart      time.Time              `json:"period_start"`
	PeriodEnd        time.Time              `json:"period_end"`
	Basis            ledger.Basis           `json:"basis"`
	Revenue          StatementSection       `json:"revenue"`
	Expenses         StatementSection       `json:"expenses"`
	NetIncome        decimal.Decimal        `json:"net_income"`
	MonthlyBreakdown []MonthlyIncomeSummary `json:"monthly_breakdown"`
	TransactionCount int                    `json:"transaction_count"`
	Notes            []string               `json:"notes"`
	GeneratedAt      time.Time              `json:"generated_at"`
}

// ComprehensiveIncomeStatement augments the statement with a per-month audit
// trail of every contributing line
type ComprehensiveIncomeStatement struct {
	IncomeStatement
	AuditTrail map[ledger.MonthKey][]AuditLine `json:"audit_trail"`
}

// IncomeStatementInput parameterizes a generation run
type IncomeStatementInput struct {
	Period      ledger.Period
	Basis       ledger.Basis
	ResidenceID *uuid.UUID
}

// IncomeStatementService generates income statements from the ledger.
// Stateless; each call owns its own fetched snapshot.
type IncomeStatementService struct {
	entries    ledger.EntryRepository
	resolver   *ledger.MonthResolver
	classifier *ledger.ActivityClassifier
}

// NewIncomeStatementService creates a new IncomeStatementService
func NewIncomeStatementService(
	entries ledger.EntryRepository,
	resolver *ledger.MonthResolver,
	classifier *ledger.ActivityClassifier,
) *IncomeStatementService {
	return &IncomeStatementService{
		entries:    entries,
		resolver:   resolver,
		classifier: classifier,
	}
}

// Generate builds the income statement for the given period and basis
func (s *IncomeStatementService) Generate(ctx context.Context, input IncomeStatementInput) (*IncomeStatement, error) {
	stmt, _, err := s.generate(ctx, input, false)
	return stmt, err
}

// GenerateComprehensive builds the statement and retains a per-line audit
// trail per month
func (s *IncomeStatementService) GenerateComprehensive(ctx context.Context, input IncomeStatementInput) (*ComprehensiveIncomeStatement, error) {
	stmt, trail, err := s.generate(ctx, input, true)
	if err != nil {
		return nil, err
	}
	return &ComprehensiveIncomeStatement{IncomeStatement: *stmt, AuditTrail: trail}, nil
}

func (s *IncomeStatementService) generate(ctx context.Context, input IncomeStatementInput, withTrail bool) (*IncomeStatement, map[ledger.MonthKey][]AuditLine, error) {
	if !input.Basis.IsValid() {
		return nil, nil, shared.ErrInvalidBasis
	}
	if input.Period.End.Before(input.Period.Start) {
		return nil, nil, shared.ErrInvalidPeriod
	}

	sources := ledger.AccrualSources()
	if input.Basis == ledger.BasisCash {
		sources = ledger.CashSources()
	}

	entries, err := s.entries.FindPosted(ctx, ledger.EntryFilter{
		From:        &input.Period.Start,
		To:          &input.Period.End,
		Sources:     sources,
		ResidenceID: input.ResidenceID,
	})
	if err != nil {
		return nil, nil, err
	}

	stmt := &IncomeStatement{
		PeriodStart: input.Period.Start,
		PeriodEnd:   input.Period.End,
		Basis:       input.Basis,
		Revenue:     newStatementSection(),
		Expenses:    newStatementSection(),
		NetIncome:   decimal.Zero,
		GeneratedAt: time.Now().UTC(),
	}

	months := make(map[ledger.MonthKey]*MonthlyIncomeSummary)
	var trail map[ledger.MonthKey][]AuditLine
	if withTrail {
		trail = make(map[ledger.MonthKey][]AuditLine)
	}

	for i := range entries {
		entry := &entries[i]
		if entry.IsEmpty() {
			continue
		}

		var revenue, expense decimal.Decimal
		if input.Basis == ledger.BasisAccrual {
			revenue, expense = s.accrueEntry(entry)
		} else {
			revenue, expense = s.cashEntry(entry)
		}

		// Entries that move neither revenue nor expense under the requested
		// basis (say, a cash-source entry with no cash-band lines) are not
		// part of this statement and do not count as transactions.
		if revenue.IsZero() && expense.IsZero() {
			continue
		}

		month := s.resolver.Resolve(entry, input.Basis)
		summary := months[month]
		if summary == nil {
			summary = &MonthlyIncomeSummary{Month: month, Revenue: decimal.Zero, Expenses: decimal.Zero, NetIncome: decimal.Zero}
			months[month] = summary
		}
		category := s.classifier.Categorize(entry.Description)

		if !revenue.IsZero() {
			stmt.Revenue.add(category, revenue)
			summary.Revenue = summary.Revenue.Add(revenue)
		}
		if !expense.IsZero() {
			stmt.Expenses.add(category, expense)
			summary.Expenses = summary.Expenses.Add(expense)
		}
		summary.TransactionCount++
		stmt.TransactionCount++

		if withTrail {
			trail[month] = append(trail[month], s.auditLines(entry, input.Basis)...)
		}
	}

	for _, summary := range months {
		summary.NetIncome = summary.Revenue.Sub(summary.Expenses)
		stmt.MonthlyBreakdown = append(stmt.MonthlyBreakdown, *summary)
	}
	sort.Slice(stmt.MonthlyBreakdown, func(i, j int) bool {
		return stmt.MonthlyBreakdown[i].Month < stmt.MonthlyBreakdown[j].Month
	})

	stmt.NetIncome = stmt.Revenue.Total.Sub(stmt.Expenses.Total)
	stmt.Notes = basisNotes(input.Basis)
	return stmt, trail, nil
}

// accrueEntry recognizes revenue from Income-typed lines (credit − debit)
// and expenses from Expense-typed lines (debit − credit)
func (s *IncomeStatementService) accrueEntry(entry *ledger.LedgerEntry) (revenue, expense decimal.Decimal) {
	revenue, expense = decimal.Zero, decimal.Zero
	for i := range entry.Lines {
		line := &entry.Lines[i]
		switch line.AccountType {
		case ledger.AccountTypeIncome:
			revenue = revenue.Add(line.Credit).Sub(line.Debit)
		case ledger.AccountTypeExpense:
			expense = expense.Add(line.Debit).Sub(line.Credit)
		}
	}
	return revenue, expense
}

// cashEntry recognizes revenue/expense from the debit/credit delta on
// cash-account lines only; Income/Expense-typed lines on the same entry are
// ignored so the same movement is never counted twice
func (s *IncomeStatementService) cashEntry(entry *ledger.LedgerEntry) (revenue, expense decimal.Decimal) {
	delta := decimal.Zero
	for i := range entry.Lines {
		line := &entry.Lines[i]
		if s.classifier.IsCashAccount(line.AccountCode) {
			delta = delta.Add(line.Debit).Sub(line.Credit)
		}
	}
	if delta.IsPositive() {
		return delta, decimal.Zero
	}
	return decimal.Zero, delta.Neg()
}

func (s *IncomeStatementService) auditLines(entry *ledger.LedgerEntry, basis ledger.Basis) []AuditLine {
	var lines []AuditLine
	for i := range entry.Lines {
		line := &entry.Lines[i]
		include := line.AccountType == ledger.AccountTypeIncome || line.AccountType == ledger.AccountTypeExpense
		if basis == ledger.BasisCash {
			include = s.classifier.IsCashAccount(line.AccountCode)
		}
		if !include {
			continue
		}
		lines = append(lines, AuditLine{
			EntryID:     entry.ID,
			Date:        entry.EntryDate,
			AccountCode: line.AccountCode,
			AccountName: line.AccountName,
			Amount:      line.Amount(),
			Source:      entry.Source,
		})
	}
	return lines
}

func basisNotes(basis ledger.Basis) []string {
	if basis == ledger.BasisCash {
		return []string{
			"Cash basis: revenue and expenses recognized when cash changed hands.",
			"Amounts derive from cash-account movements; accrual entries are excluded.",
		}
	}
	return []string{
		"Accrual basis: revenue recognized when earned, expenses when incurred.",
		fmt.Sprintf("Sources included: %v.", ledger.AccrualSources()),
	}
}
