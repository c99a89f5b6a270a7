package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/propertyhub/backend/internal/domain/ledger"
	"github.com/propertyhub/backend/internal/domain/shared"
	"github.com/propertyhub/backend/internal/domain/statement"
	"go.uber.org/zap"
)

// defaultCacheTTL bounds how long a generated report is served from cache
const defaultCacheTTL = 15 * time.Minute

// ReportCache stores rendered reports keyed by their generation parameters.
// A nil payload with a nil error means a miss.
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// ReportingService provides application-level financial reporting operations
type ReportingService struct {
	income   *statement.IncomeStatementService
	balance  *statement.BalanceSheetService
	cashFlow *statement.CashFlowService
	trial    *statement.TrialBalanceService

	cache        ReportCache
	cacheTTL     time.Duration
	logger       *zap.Logger
	defaultBasis ledger.Basis
}

// ReportingServiceOption is a functional option for configuring the service
type ReportingServiceOption func(*ReportingService)

// WithCache sets the report cache. Without one, every request regenerates.
func WithCache(cache ReportCache, ttl time.Duration) ReportingServiceOption {
	return func(s *ReportingService) {
		s.cache = cache
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *zap.Logger) ReportingServiceOption {
	return func(s *ReportingService) {
		s.logger = logger
	}
}

// WithDefaultBasis sets the basis used when a request names none
func WithDefaultBasis(basis ledger.Basis) ReportingServiceOption {
	return func(s *ReportingService) {
		if basis.IsValid() {
			s.defaultBasis = basis
		}
	}
}

// NewReportingService creates a new ReportingService
func NewReportingService(
	income *statement.IncomeStatementService,
	balance *statement.BalanceSheetService,
	cashFlow *statement.CashFlowService,
	trial *statement.TrialBalanceService,
	opts ...ReportingServiceOption,
) *ReportingService {
	s := &ReportingService{
		income:       income,
		balance:      balance,
		cashFlow:     cashFlow,
		trial:        trial,
		cacheTTL:     defaultCacheTTL,
		logger:       zap.NewNop(),
		defaultBasis: ledger.BasisAccrual,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===================== Request Filters =====================

// PeriodReportFilter defines the request filter for period-scoped reports
type PeriodReportFilter struct {
	Year        int        `form:"year" binding:"required,min=2000,max=2100"`
	StartMonth  int        `form:"start_month" binding:"omitempty,min=1,max=12"`
	EndMonth    int        `form:"end_month" binding:"omitempty,min=1,max=12"`
	Basis       string     `form:"basis" binding:"omitempty,oneof=cash accrual"`
	ResidenceID *uuid.UUID `form:"residence_id"`
}

// BalanceSheetFilter defines the request filter for balance sheets
type BalanceSheetFilter struct {
	AsOf  time.Time `form:"as_of" time_format:"2006-01-02" binding:"required"`
	Basis string    `form:"basis" binding:"omitempty,oneof=cash accrual"`
}

// TrialBalanceFilter defines the request filter for trial balances.
// AsOf wins over the From/To pair when both are present.
type TrialBalanceFilter struct {
	AsOf *time.Time `form:"as_of" time_format:"2006-01-02"`
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to" time_format:"2006-01-02"`
}

// GeneralLedgerFilter defines the request filter for general ledger drill-down
type GeneralLedgerFilter struct {
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to" time_format:"2006-01-02"`
}

func (f PeriodReportFilter) period() (ledger.Period, error) {
	start, end := f.StartMonth, f.EndMonth
	if start == 0 {
		start = 1
	}
	if end == 0 {
		end = 12
	}
	if end < start {
		return ledger.Period{}, shared.ErrInvalidPeriod
	}
	from := time.Date(f.Year, time.Month(start), 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(f.Year, time.Month(end)+1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
	return ledger.NewPeriod(from, to)
}

func (s *ReportingService) parseBasis(raw string) (ledger.Basis, error) {
	if raw == "" {
		return s.defaultBasis, nil
	}
	basis := ledger.Basis(raw)
	if !basis.IsValid() {
		return "", shared.ErrInvalidBasis
	}
	return basis, nil
}

// ===================== Operations =====================

// GetIncomeStatement generates or serves the cached income statement
func (s *ReportingService) GetIncomeStatement(ctx context.Context, filter PeriodReportFilter) (*statement.IncomeStatement, error) {
	period, err := filter.period()
	if err != nil {
		return nil, err
	}
	basis, err := s.parseBasis(filter.Basis)
	if err != nil {
		return nil, err
	}

	key := s.cacheKey("income", period, basis, filter.ResidenceID)
	var cached statement.IncomeStatement
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	stmt, err := s.income.Generate(ctx, statement.IncomeStatementInput{
		Period:      period,
		Basis:       basis,
		ResidenceID: filter.ResidenceID,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("income statement generated",
		zap.String("basis", basis.String()),
		zap.Int("year", filter.Year),
		zap.Int("transactions", stmt.TransactionCount))
	s.cacheSet(ctx, key, stmt)
	return stmt, nil
}

// GetComprehensiveIncomeStatement generates the income statement with its
// per-month audit trail. Never cached; the trail can be large and is an
// investigation surface, not a dashboard one.
func (s *ReportingService) GetComprehensiveIncomeStatement(ctx context.Context, filter PeriodReportFilter) (*statement.ComprehensiveIncomeStatement, error) {
	period, err := filter.period()
	if err != nil {
		return nil, err
	}
	basis, err := s.parseBasis(filter.Basis)
	if err != nil {
		return nil, err
	}

	return s.income.GenerateComprehensive(ctx, statement.IncomeStatementInput{
		Period:      period,
		Basis:       basis,
		ResidenceID: filter.ResidenceID,
	})
}

// GetBalanceSheet generates or serves the cached balance sheet
func (s *ReportingService) GetBalanceSheet(ctx context.Context, filter BalanceSheetFilter) (*statement.BalanceSheet, error) {
	basis, err := s.parseBasis(filter.Basis)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("report:balance:%s:%s", filter.AsOf.Format("2006-01-02"), basis)
	var cached statement.BalanceSheet
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	sheet, err := s.balance.Generate(ctx, statement.BalanceSheetInput{
		AsOf:  filter.AsOf,
		Basis: basis,
	})
	if err != nil {
		return nil, err
	}

	if !sheet.Equation.Balanced {
		s.logger.Warn("balance sheet equation out of balance",
			zap.Time("as_of", filter.AsOf),
			zap.String("basis", basis.String()),
			zap.String("assets", sheet.Equation.Assets.String()),
			zap.String("liabilities", sheet.Equation.Liabilities.String()),
			zap.String("equity", sheet.Equation.Equity.String()))
	}
	s.cacheSet(ctx, key, sheet)
	return sheet, nil
}

// GetCashFlowStatement generates or serves the cached cash flow statement
func (s *ReportingService) GetCashFlowStatement(ctx context.Context, filter PeriodReportFilter) (*statement.CashFlowStatement, error) {
	period, err := filter.period()
	if err != nil {
		return nil, err
	}
	basis, err := s.parseBasis(filter.Basis)
	if err != nil {
		return nil, err
	}

	key := s.cacheKey("cashflow", period, basis, filter.ResidenceID)
	var cached statement.CashFlowStatement
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	stmt, err := s.cashFlow.Generate(ctx, statement.CashFlowInput{
		Period:      period,
		Basis:       basis,
		ResidenceID: filter.ResidenceID,
	})
	if err != nil {
		return nil, err
	}

	for _, warning := range stmt.Warnings {
		s.logger.Warn("cash flow validation finding", zap.String("detail", warning))
	}
	s.cacheSet(ctx, key, stmt)
	return stmt, nil
}

// GetTrialBalance generates the trial balance cross-check. Never cached;
// the trial balance exists to catch data problems, stale answers defeat it.
func (s *ReportingService) GetTrialBalance(ctx context.Context, filter TrialBalanceFilter) (*statement.TrialBalance, error) {
	tb, err := s.trial.Generate(ctx, statement.TrialBalanceInput{
		AsOf: filter.AsOf,
		From: filter.From,
		To:   filter.To,
	})
	if err != nil {
		return nil, err
	}
	if !tb.Balanced {
		s.logger.Warn("trial balance does not balance",
			zap.String("total_debits", tb.TotalDebits.String()),
			zap.String("total_credits", tb.TotalCredits.String()),
			zap.Int("warnings", len(tb.Warnings)))
	}
	return tb, nil
}

// GetGeneralLedger returns one account's transaction history
func (s *ReportingService) GetGeneralLedger(ctx context.Context, accountCode string, filter GeneralLedgerFilter) (*statement.GeneralLedger, error) {
	if accountCode == "" {
		return nil, shared.ErrInvalidInput
	}
	return s.trial.GeneralLedger(ctx, accountCode, filter.From, filter.To)
}

// InvalidateReports drops all cached reports. Called after a ledger import
// or correction so dashboards pick up the new figures immediately.
func (s *ReportingService) InvalidateReports(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, "report:*")
}

// ===================== Cache plumbing =====================

func (s *ReportingService) cacheKey(report string, period ledger.Period, basis ledger.Basis, residenceID *uuid.UUID) string {
	scope := "all"
	if residenceID != nil {
		scope = residenceID.String()
	}
	return fmt.Sprintf("report:%s:%s:%s:%s:%s",
		report, period.Start.Format("2006-01-02"), period.End.Format("2006-01-02"), basis, scope)
}

// cacheGet reports whether dest was populated from cache. Cache failures are
// logged and treated as misses.
func (s *ReportingService) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	payload, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if payload == nil {
		return false
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		s.logger.Warn("report cache payload corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *ReportingService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("report cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}
