package statement

import (
	"context"
	"sort"
	"time"

	"github.com/propertyhub/backend/internal/domain/ledger"
	"github.com/propertyhub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// balanceTolerance is the epsilon within which the accounting equation must
// hold for a sheet to report balanced
var balanceTolerance = decimal.NewFromFloat(0.01)

// BalanceSheetLine is one reported account line. Parent families aggregate
// into a single line; Children preserves the per-account detail for
// drill-down.
type BalanceSheetLine struct {
	Code     string             `json:"code"`
	Name     string             `json:"name"`
	Balance  decimal.Decimal    `json:"balance"`
	Children []BalanceSheetLine `json:"children,omitempty"`
}

// BalanceSheetSection groups lines into current and non-current positions
type BalanceSheetSection struct {
	Current         []BalanceSheetLine `json:"current"`
	NonCurrent      []BalanceSheetLine `json:"non_current"`
	CurrentTotal    decimal.Decimal    `json:"current_total"`
	NonCurrentTotal decimal.Decimal    `json:"non_current_total"`
	Total           decimal.Decimal    `json:"total"`
}

// EquitySection reports equity accounts plus computed retained earnings
type EquitySection struct {
	Lines            []BalanceSheetLine `json:"lines"`
	RetainedEarnings decimal.Decimal    `json:"retained_earnings"`
	Total            decimal.Decimal    `json:"total"`
}

// AccountingEquation is the self-check every balance sheet carries
type AccountingEquation struct {
	Assets      decimal.Decimal `json:"assets"`
	Liabilities decimal.Decimal `json:"liabilities"`
	Equity      decimal.Decimal `json:"equity"`
	Balanced    bool            `json:"balanced"`
}

// BalanceSheet is the shaped output of the balance sheet generator
type BalanceSheet struct {
	AsOf        time.Time           `json:"as_of"`
	Basis       ledger.Basis        `json:"basis"`
	Assets      BalanceSheetSection `json:"assets"`
	Liabilities BalanceSheetSection `json:"liabilities"`
	Equity      EquitySection       `json:"equity"`
	Equation    AccountingEquation  `json:"accounting_equation"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// BalanceSheetInput parameterizes a generation run
type BalanceSheetInput struct {
	AsOf  time.Time
	Basis ledger.Basis
}

// BalanceSheetService generates balance sheets from the ledger and the chart
// of accounts. The output is structurally complete: every active account
// appears even when dormant.
type BalanceSheetService struct {
	entries  ledger.EntryRepository
	accounts ledger.AccountRepository
	resolver *ledger.MonthResolver
	hierOpts []ledger.HierarchyOption
}

// NewBalanceSheetService creates a new BalanceSheetService
func NewBalanceSheetService(
	entries ledger.EntryRepository,
	accounts ledger.AccountRepository,
	resolver *ledger.MonthResolver,
	hierOpts ...ledger.HierarchyOption,
) *BalanceSheetService {
	return &BalanceSheetService{
		entries:  entries,
		accounts: accounts,
		resolver: resolver,
		hierOpts: hierOpts,
	}
}

// Generate builds the balance sheet as of the given date
func (s *BalanceSheetService) Generate(ctx context.Context, input BalanceSheetInput) (*BalanceSheet, error) {
	if !input.Basis.IsValid() {
		return nil, shared.ErrInvalidBasis
	}

	chart, err := s.accounts.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	filter := ledger.EntryFilter{To: &input.AsOf}
	if input.Basis == ledger.BasisCash {
		filter.Sources = ledger.CashSources()
	}
	entries, err := s.entries.FindPosted(ctx, filter)
	if err != nil {
		return nil, err
	}

	acc := ledger.NewBalanceAccumulator()
	for _, a := range chart {
		acc.EnsureAccount(a)
	}

	asOfMonth := ledger.MonthKeyFor(input.AsOf)
	for i := range entries {
		entry := &entries[i]
		if entry.IsEmpty() {
			continue
		}
		// Advance payments appear exactly once, in the month they were
		// paid; a cumulative sheet for any other month excludes them.
		if entry.Source == ledger.SourceAdvancePayment &&
			s.resolver.Resolve(entry, input.Basis) != asOfMonth {
			continue
		}
		acc.AddEntry(*entry)
	}

	hierarchy := ledger.NewAccountHierarchy(chart, s.hierOpts...)

	sheet := &BalanceSheet{
		AsOf:        input.AsOf,
		Basis:       input.Basis,
		Assets:      s.buildSection(acc, hierarchy, ledger.AccountTypeAsset),
		Liabilities: s.buildSection(acc, hierarchy, ledger.AccountTypeLiability),
		GeneratedAt: time.Now().UTC(),
	}
	sheet.Equity = s.buildEquity(acc, hierarchy)

	sheet.Equation = AccountingEquation{
		Assets:      sheet.Assets.Total,
		Liabilities: sheet.Liabilities.Total,
		Equity:      sheet.Equity.Total,
	}
	diff := sheet.Equation.Assets.Sub(sheet.Equation.Liabilities.Add(sheet.Equation.Equity))
	sheet.Equation.Balanced = diff.Abs().LessThanOrEqual(balanceTolerance)

	return sheet, nil
}

// buildSection shapes the top-level lines of one account type, rolling up
// parent families and splitting current from non-current by category
func (s *BalanceSheetService) buildSection(acc *ledger.BalanceAccumulator, hierarchy *ledger.AccountHierarchy, accountType ledger.AccountType) BalanceSheetSection {
	section := BalanceSheetSection{
		CurrentTotal:    decimal.Zero,
		NonCurrentTotal: decimal.Zero,
		Total:           decimal.Zero,
	}

	top := hierarchy.TopLevel(accountType)
	sort.Slice(top, func(i, j int) bool { return top[i].Code < top[j].Code })

	for _, account := range top {
		line := BalanceSheetLine{
			Code:    account.Code,
			Name:    account.Name,
			Balance: acc.RolledUp(account.Code, hierarchy),
		}
		for _, child := range hierarchy.Children(account.Code) {
			line.Children = append(line.Children, BalanceSheetLine{
				Code:    child.Code,
				Name:    child.Name,
				Balance: acc.Balance(child.Code),
			})
		}
		if account.IsCurrent() {
			section.Current = append(section.Current, line)
			section.CurrentTotal = section.CurrentTotal.Add(line.Balance)
		} else {
			section.NonCurrent = append(section.NonCurrent, line)
			section.NonCurrentTotal = section.NonCurrentTotal.Add(line.Balance)
		}
		section.Total = section.Total.Add(line.Balance)
	}
	return section
}

// buildEquity shapes equity lines and folds in retained earnings, computed
// as cumulative income minus cumulative expense over the same entry set
func (s *BalanceSheetService) buildEquity(acc *ledger.BalanceAccumulator, hierarchy *ledger.AccountHierarchy) EquitySection {
	section := EquitySection{Total: decimal.Zero}

	top := hierarchy.TopLevel(ledger.AccountTypeEquity)
	sort.Slice(top, func(i, j int) bool { return top[i].Code < top[j].Code })
	for _, account := range top {
		line := BalanceSheetLine{
			Code:    account.Code,
			Name:    account.Name,
			Balance: acc.RolledUp(account.Code, hierarchy),
		}
		section.Lines = append(section.Lines, line)
		section.Total = section.Total.Add(line.Balance)
	}

	section.RetainedEarnings = acc.TotalsByType(ledger.AccountTypeIncome).
		Sub(acc.TotalsByType(ledger.AccountTypeExpense))
	section.Total = section.Total.Add(section.RetainedEarnings)
	return section
}
