package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/propertyhub/backend/internal/application/reporting"
	"github.com/propertyhub/backend/internal/domain/ledger"
	"github.com/propertyhub/backend/internal/domain/shared"
	"github.com/propertyhub/backend/internal/domain/statement"
	"github.com/propertyhub/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEntryRepo serves canned entries, emulating the store's filter contract
type stubEntryRepo struct {
	entries []ledger.LedgerEntry
}

func (r *stubEntryRepo) FindPosted(_ context.Context, filter ledger.EntryFilter) ([]ledger.LedgerEntry, error) {
	var out []ledger.LedgerEntry
	for _, e := range r.entries {
		if e.Status.IsReportable() && matchesFilter(e, filter) {
			out = append(out, e)
		}
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
	return r.accounts, nil
}

func (r *stubAccountRepo) FindByCode(_ context.Context, code string) (*ledger.Account, error) {
	for i := range r.accounts {
		if r.accounts[i].Code == code {
			return &r.accounts[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func rentPayment(date time.Time, amount float64) ledger.LedgerEntry {
	amt := decimal.NewFromFloat(amount)
	return ledger.LedgerEntry{
		ID:        uuid.New(),
		EntryDate: date,
		Status:    ledger.EntryStatusPosted,
		Source:    ledger.SourcePayment,
		Lines: []ledger.LineItem{
			{AccountCode: "1000", AccountName: "Cash", AccountType: ledger.AccountTypeAsset, Debit: amt, Credit: decimal.Zero},
			{AccountCode: "4000", AccountName: "Rental Income", AccountType: ledger.AccountTypeIncome, Debit: decimal.Zero, Credit: amt},
		},
	}
}

func newReportRouter(entries *stubEntryRepo, accounts *stubAccountRepo) *gin.Engine {
	resolver := ledger.NewMonthResolver()
	classifier := ledger.NewDefaultActivityClassifier()

	reports := reporting.NewReportingService(
		statement.NewIncomeStatementService(entries, resolver, classifier),
		statement.NewBalanceSheetService(entries, accounts, resolver),
		statement.NewCashFlowService(entries, resolver, classifier),
		statement.NewTrialBalanceService(entries, accounts),
	)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	api := engine.Group("/api/v1")
	NewReportHandler(reports).RegisterRoutes(api)
	return engine
}

func testAccounts() []ledger.Account {
	return []ledger.Account{
		{Code: "1000", Name: "Cash", Type: ledger.AccountTypeAsset, IsActive: true},
		{Code: "4000", Name: "Rental Income", Type: ledger.AccountTypeIncome, IsActive: true},
	}
}

func get(t *testing.T, engine *gin.Engine, url string) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestGetIncomeStatementEndpoint(t *testing.T) {
	entries := &stubEntryRepo{entries: []ledger.LedgerEntry{
		rentPayment(time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), 900),
	}}
	engine := newReportRouter(entries, &stubAccountRepo{accounts: testAccounts()})

	t.Run("generates for a valid period", func(t *testing.T) {
		w, resp := get(t, engine, "/api/v1/reports/income-statement?year=2025&basis=cash")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Success)

		var stmt statement.IncomeStatement
		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &stmt))

		assert.Equal(t, ledger.BasisCash, stmt.Basis)
		assert.True(t, stmt.NetIncome.Equal(decimal.NewFromInt(900)))
		assert.Equal(t, 1, stmt.TransactionCount)
		require.Len(t, stmt.MonthlyBreakdown, 1)
		assert.Equal(t, ledger.MonthKey("2025-03"), stmt.MonthlyBreakdown[0].Month)
	})

	t.Run("missing year fails validation", func(t *testing.T) {
		w, resp := get(t, engine, "/api/v1/reports/income-statement")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.NotEmpty(t, resp.Error.Details)
		assert.Equal(t, "Year", resp.Error.Details[0].Field)
	})

	t.Run("unknown basis fails validation", func(t *testing.T) {
		w, resp := get(t, engine, "/api/v1/reports/income-statement?year=2025&basis=modified-cash")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})

	t.Run("inverted month range is rejected", func(t *testing.T) {
		w, resp := get(t, engine, "/api/v1/reports/income-statement?year=2025&start_month=6&end_month=2")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeInvalidPeriod, resp.Error.Code)
	})

	t.Run("error responses carry the request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/income-statement", nil)
		req.Header.Set("X-Request-ID", "req-abc-123")
		engine.ServeHTTP(w, req)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, "req-abc-123", resp.Error.RequestID)
	})
}

func TestGetComprehensiveIncomeStatementEndpoint(t *testing.T) {
	entries := &stubEntryRepo{entries: []ledger.LedgerEntry{
		rentPayment(time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), 900),
	}}
	engine := newReportRouter(entries, &stubAccountRepo{accounts: testAccounts()})

	w, resp := get(t, engine, "/api/v1/reports/income-statement/comprehensive?year=2025&basis=cash")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	var stmt statement.ComprehensiveIncomeStatement
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &stmt))
	assert.NotEmpty(t, stmt.AuditTrail)
}

func TestGetBalanceSheetEndpoint(t *testing.T) {
	entries := &stubEntryRepo{entries: []ledger.LedgerEntry{
		rentPayment(time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), 900),
	}}
	engine := newReportRouter(entries, &stubAccountRepo{accounts: testAccounts()})

	t.Run("generates as of a date", func(t *testing.T) {
		w, resp := get(t, engine, "/api/v1/reports/balance-sheet?as_of=2025-12-31")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Success)

		var sheet statement.BalanceSheet
		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &sheet))
		assert.True(t, sheet.Equation.Balanced)
	})

	t.Run("missing as_of fails validation", func(t *testing.T) {
		w, resp := get(t, engine, "/api/v1/reports/balance-sheet")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, resp.Success)
	})
}

func TestGetCashFlowStatementEndpoint(t *testing.T) {
	entries := &stubEntryRepo{entries: []ledger.LedgerEntry{
		rentPayment(time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), 900),
	}}
	engine := newReportRouter(entries, &stubAccountRepo{accounts: testAccounts()})

	w, resp := get(t, engine, "/api/v1/reports/cash-flow?year=2025")

	assert.Equal(t, http.StatusOK, w.Code)

	var stmt statement.CashFlowStatement
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &stmt))
	assert.Len(t, stmt.MonthlyBreakdown, 12)
	assert.True(t, stmt.YearlyTotals.NetCashFlow.Equal(decimal.NewFromInt(900)))
}

func TestGetTrialBalanceEndpoint(t *testing.T) {
	entries := &stubEntryRepo{entries: []ledger.LedgerEntry{
		rentPayment(time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), 900),
	}}
	engine := newReportRouter(entries, &stubAccountRepo{accounts: testAccounts()})

	w, resp := get(t, engine, "/api/v1/reports/trial-balance?as_of=2025-12-31")

	assert.Equal(t, http.StatusOK, w.Code)

	var tb statement.TrialBalance
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &tb))
	assert.True(t, tb.Balanced)
	assert.Len(t, tb.Rows, 2)
}

func TestGetGeneralLedgerEndpoint(t *testing.T) {
	entries := &stubEntryRepo{entries: []ledger.LedgerEntry{
		rentPayment(time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), 900),
	}}
	engine := newReportRouter(entries, &stubAccountRepo{accounts: testAccounts()})

	t.Run("returns account history", func(t *testing.T) {
		w, resp := get(t, engine, "/api/v1/reports/general-ledger/1000")

		assert.Equal(t, http.StatusOK, w.Code)

		var gl statement.GeneralLedger
		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &gl))
		assert.Equal(t, "1000", gl.AccountCode)
		assert.Len(t, gl.Lines, 1)
		assert.True(t, gl.ClosingBalance.Equal(decimal.NewFromInt(900)))
	})

	t.Run("unknown account returns 404", func(t *testing.T) {
		w, resp := get(t, engine, "/api/v1/reports/general-ledger/9999")

		assert.Equal(t, http.StatusNotFound, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})
}

func TestInvalidateCacheEndpoint(t *testing.T) {
	engine := newReportRouter(&stubEntryRepo{}, &stubAccountRepo{accounts: testAccounts()})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/reports/cache/invalidate", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}
