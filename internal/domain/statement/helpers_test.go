package statement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/propertyhub/backend/internal/domain/ledger"
	"github.com/propertyhub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// stubEntryRepo serves canned entries, emulating the store's filter contract
type stubEntryRepo struct {
	entries []ledger.LedgerEntry
}

func (r *stubEntryRepo) FindPosted(_ context.Context, filter ledger.EntryFilter) ([]ledger.LedgerEntry, error) {
	var out []ledger.LedgerEntry
	for _, e := range r.entries {
		if !e.Status.IsReportable() {
			continue
		}
		if !matchesFilter(e, filter) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *stubEntryRepo) FindByAccount(_ context.Context, accountCode string, filter ledger.EntryFilter) ([]ledger.LedgerEntry, error) {
	var out []ledger.LedgerEntry
	for _, e := range r.entries {
		if !e.Status.IsReportable() || !matchesFilter(e, filter) {
			continue
		}
		for _, l := range e.Lines {
			if l.AccountCode == accountCode {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

func matchesFilter(e ledger.LedgerEntry, filter ledger.EntryFilter) bool {
	if filter.From != nil && e.EntryDate.Before(*filter.From) {
		return false
	}
	if filter.To != nil && e.EntryDate.After(*filter.To) {
		return false
	}
	if filter.ResidenceID != nil {
		if e.ResidenceID == nil || *e.ResidenceID != *filter.ResidenceID {
			return false
		}
	}
	if len(filter.Sources) > 0 {
		found := false
		for _, s := range filter.Sources {
			if e.Source == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// stubAccountRepo serves a canned chart of accounts
type stubAccountRepo struct {
	accounts []ledger.Account
}

func (r *stubAccountRepo) ListActive(_ context.Context) ([]ledger.Account, error) {
	var out []ledger.Account
	for _, a := range r.accounts {
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *stubAccountRepo) FindByCode(_ context.Context, code string) (*ledger.Account, error) {
	for i := range r.accounts {
		if r.accounts[i].Code == code {
			return &r.accounts[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func postedEntry(day time.Time, source ledger.EntrySource, description string, lines ...ledger.LineItem) ledger.LedgerEntry {
	return ledger.LedgerEntry{
		ID:          uuid.New(),
		EntryDate:   day,
		Status:      ledger.EntryStatusPosted,
		Source:      source,
		Description: description,
		Lines:       lines,
	}
}

func debitLine(code, name string, accountType ledger.AccountType, amount float64) ledger.LineItem {
	return ledger.LineItem{
		AccountCode: code,
		AccountName: name,
		AccountType: accountType,
		Debit:       decimal.NewFromFloat(amount),
		Credit:      decimal.Zero,
	}
}

func creditLine(code, name string, accountType ledger.AccountType, amount float64) ledger.LineItem {
	return ledger.LineItem{
		AccountCode: code,
		AccountName: name,
		AccountType: accountType,
		Debit:       decimal.Zero,
		Credit:      decimal.NewFromFloat(amount),
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testChart() []ledger.Account {
	parent := "1200"
	return []ledger.Account{
		{Code: "1000", Name: "Cash on Hand", Type: ledger.AccountTypeAsset, IsActive: true},
		{Code: "1010", Name: "Bank - Operating", Type: ledger.AccountTypeAsset, IsActive: true},
		{Code: "1200", Name: "Accounts Receivable", Type: ledger.AccountTypeAsset, IsActive: true},
		{Code: "1201", Name: "Receivable - Rent", Type: ledger.AccountTypeAsset, IsActive: true},
		{Code: "1202", Name: "Receivable - Fees", Type: ledger.AccountTypeAsset, ParentCode: &parent, IsActive: true},
		{Code: "1500", Name: "Building", Type: ledger.AccountTypeAsset, IsActive: true},
		{Code: "2000", Name: "Accounts Payable", Type: ledger.AccountTypeLiability, IsActive: true},
		{Code: "2300", Name: "Tenant Deposits Held", Type: ledger.AccountTypeLiability, IsActive: true},
		{Code: "2500", Name: "Mortgage Loan", Type: ledger.AccountTypeLiability, IsActive: true},
		{Code: "3000", Name: "Owner Equity", Type: ledger.AccountTypeEquity, IsActive: true},
		{Code: "4000", Name: "Rental Income", Type: ledger.AccountTypeIncome, IsActive: true},
		{Code: "4100", Name: "Admin Fee Income", Type: ledger.AccountTypeIncome, IsActive: true},
		{Code: "5000", Name: "Maintenance Expense", Type: ledger.AccountTypeExpense, IsActive: true},
		{Code: "9999", Name: "Suspense", Type: ledger.AccountTypeAsset, IsActive: false},
	}
}
