package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// AccountBalance holds the accumulated position of one account
type AccountBalance struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Type        AccountType     `json:"type"`
	DebitTotal  decimal.Decimal `json:"debit_total"`
	CreditTotal decimal.Decimal `json:"credit_total"`
	Balance     decimal.Decimal `json:"balance"`
	LineCount   int             `json:"line_count"`
}

// BalanceAccumulator folds ledger lines into per-account debit/credit/balance
// totals honoring the normal-balance convention: asset and expense accounts
// increase on debit, the rest on credit.
type BalanceAccumulator struct {
	balances map[string]*AccountBalance
}

// NewBalanceAccumulator creates an empty accumulator
func NewBalanceAccumulator() *BalanceAccumulator {
	return &BalanceAccumulator{
		balances: make(map[string]*AccountBalance),
	}
}

// EnsureAccount registers an account at zero so the output is structurally
// complete even when no line ever touched it
func (a *BalanceAccumulator) EnsureAccount(account Account) {
	if _, ok := a.balances[account.Code]; ok {
		return
	}
	a.balances[account.Code] = &AccountBalance{
		Code:        account.Code,
		Name:        account.Name,
		Type:        account.Type,
		DebitTotal:  decimal.Zero,
		CreditTotal: decimal.Zero,
		Balance:     decimal.Zero,
	}
}

// AddLine folds one line item into its account's totals
func (a *BalanceAccumulator) AddLine(line LineItem) {
	b, ok := a.balances[line.AccountCode]
	if !ok {
		b = &AccountBalance{
			Code:        line.AccountCode,
			Name:        line.AccountName,
			Type:        line.AccountType,
			DebitTotal:  decimal.Zero,
			CreditTotal: decimal.Zero,
			Balance:     decimal.Zero,
		}
		a.balances[line.AccountCode] = b
	}
	if b.Name == "" {
		b.Name = line.AccountName
	}
	b.DebitTotal = b.DebitTotal.Add(line.Debit)
	b.CreditTotal = b.CreditTotal.Add(line.Credit)
	if line.AccountType.IsDebitNormal() {
		b.Balance = b.Balance.Add(line.Debit).Sub(line.Credit)
	} else {
		b.Balance = b.Balance.Add(line.Credit).Sub(line.Debit)
	}
	b.LineCount++
}

// AddEntry folds every line of an entry. Entries without line items are
// skipped rather than treated as errors.
func (a *BalanceAccumulator) AddEntry(entry LedgerEntry) {
	if entry.IsEmpty() {
		return
	}
	for i := range entry.Lines {
		a.AddLine(entry.Lines[i])
	}
}

// Balance returns the accumulated balance for one account code, zero when
// the account was never touched
func (a *BalanceAccumulator) Balance(code string) decimal.Decimal {
	if b, ok := a.balances[code]; ok {
		return b.Balance
	}
	return decimal.Zero
}

// Get returns the full accumulated position for a code, or nil
func (a *BalanceAccumulator) Get(code string) *AccountBalance {
	return a.balances[code]
}

// Balances returns all accumulated positions sorted by account code
func (a *BalanceAccumulator) Balances() []AccountBalance {
	out := make([]AccountBalance, 0, len(a.balances))
	for _, b := range a.balances {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// TotalsByType sums balances across all accounts of the given type
func (a *BalanceAccumulator) TotalsByType(accountType AccountType) decimal.Decimal {
	total := decimal.Zero
	for _, b := range a.balances {
		if b.Type == accountType {
			total = total.Add(b.Balance)
		}
	}
	return total
}

// RolledUp returns the reported balance of the given account: its own
// balance plus the balances of its hierarchy children, each child counted
// once even when reachable through both an explicit parent link and a
// numeric-series code match.
func (a *BalanceAccumulator) RolledUp(code string, hierarchy *AccountHierarchy) decimal.Decimal {
	total := a.Balance(code)
	for _, child := range hierarchy.Children(code) {
		total = total.Add(a.Balance(child.Code))
	}
	return total
}
