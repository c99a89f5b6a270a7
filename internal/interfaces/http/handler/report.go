package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/propertyhub/backend/internal/application/reporting"
	"github.com/propertyhub/backend/internal/interfaces/http/dto"
)

// ReportHandler handles financial report API endpoints
type ReportHandler struct {
	BaseHandler
	reports *reporting.ReportingService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports *reporting.ReportingService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// RegisterRoutes registers report routes on the API group
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	{
		reports.GET("/income-statement", h.GetIncomeStatement)
		reports.GET("/income-statement/comprehensive", h.GetComprehensiveIncomeStatement)
		reports.GET("/balance-sheet", h.GetBalanceSheet)
		reports.GET("/cash-flow", h.GetCashFlowStatement)
		reports.GET("/trial-balance", h.GetTrialBalance)
		reports.GET("/general-ledger/:code", h.GetGeneralLedger)
		reports.POST("/cache/invalidate", h.InvalidateCache)
	}
}

// GetIncomeStatement godoc
//
//	@Summary		Get income statement
//	@Description	Generates a monthly income statement for the requested period and basis
//	@Tags			reports
//	@Produce		json
//	@Param			year		query		int		true	"Reporting year"
//	@Param			start_month	query		int		false	"First month of the period"	default(1)
//	@Param			end_month	query		int		false	"Last month of the period"	default(12)
//	@Param			basis		query		string	false	"Accounting basis"	Enums(cash, accrual)
//	@Param			residence_id	query	string	false	"Limit to a single residence"
//	@Success		200	{object}	dto.Response
//	@Failure		400	{object}	dto.Response
//	@Router			/reports/income-statement [get]
func (h *ReportHandler) GetIncomeStatement(c *gin.Context) {
	var filter reporting.PeriodReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.bindingError(c, err)
		return
	}

	stmt, err := h.reports.GetIncomeStatement(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stmt)
}

// GetComprehensiveIncomeStatement godoc
//
//	@Summary		Get comprehensive income statement
//	@Description	Income statement with the full per-transaction audit trail attached
//	@Tags			reports
//	@Produce		json
//	@Param			year	query		int	true	"Reporting year"
//	@Success		200	{object}	dto.Response
//	@Failure		400	{object}	dto.Response
//	@Router			/reports/income-statement/comprehensive [get]
func (h *ReportHandler) GetComprehensiveIncomeStatement(c *gin.Context) {
	var filter reporting.PeriodReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.bindingError(c, err)
		return
	}

	stmt, err := h.reports.GetComprehensiveIncomeStatement(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stmt)
}

// GetBalanceSheet godoc
//
//	@Summary		Get balance sheet
//	@Description	Generates a point-in-time balance sheet as of the requested date
//	@Tags			reports
//	@Produce		json
//	@Param			as_of	query		string	true	"Snapshot date (YYYY-MM-DD)"
//	@Param			basis	query		string	false	"Accounting basis"	Enums(cash, accrual)
//	@Success		200	{object}	dto.Response
//	@Failure		400	{object}	dto.Response
//	@Router			/reports/balance-sheet [get]
func (h *ReportHandler) GetBalanceSheet(c *gin.Context) {
	var filter reporting.BalanceSheetFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.bindingError(c, err)
		return
	}

	stmt, err := h.reports.GetBalanceSheet(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stmt)
}

// GetCashFlowStatement godoc
//
//	@Summary		Get cash flow statement
//	@Description	Generates a monthly cash flow statement with activity classification
//	@Tags			reports
//	@Produce		json
//	@Param			year	query		int	true	"Reporting year"
//	@Success		200	{object}	dto.Response
//	@Failure		400	{object}	dto.Response
//	@Router			/reports/cash-flow [get]
func (h *ReportHandler) GetCashFlowStatement(c *gin.Context) {
	var filter reporting.PeriodReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.bindingError(c, err)
		return
	}

	stmt, err := h.reports.GetCashFlowStatement(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stmt)
}

// GetTrialBalance godoc
//
//	@Summary		Get trial balance
//	@Description	Per-account debit and credit totals, either as of a date or over a window
//	@Tags			reports
//	@Produce		json
//	@Param			as_of	query		string	false	"Snapshot date (YYYY-MM-DD)"
//	@Param			from	query		string	false	"Window start (YYYY-MM-DD)"
//	@Param			to		query		string	false	"Window end (YYYY-MM-DD)"
//	@Success		200	{object}	dto.Response
//	@Router			/reports/trial-balance [get]
func (h *ReportHandler) GetTrialBalance(c *gin.Context) {
	var filter reporting.TrialBalanceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.bindingError(c, err)
		return
	}

	stmt, err := h.reports.GetTrialBalance(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stmt)
}

// GetGeneralLedger godoc
//
//	@Summary		Get general ledger for an account
//	@Description	Chronological line history with running balance for one account
//	@Tags			reports
//	@Produce		json
//	@Param			code	path		string	true	"Account code"
//	@Param			from	query		string	false	"Window start (YYYY-MM-DD)"
//	@Param			to		query		string	false	"Window end (YYYY-MM-DD)"
//	@Success		200	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Router			/reports/general-ledger/{code} [get]
func (h *ReportHandler) GetGeneralLedger(c *gin.Context) {
	accountCode := c.Param("code")

	var filter reporting.GeneralLedgerFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.bindingError(c, err)
		return
	}

	ledger, err := h.reports.GetGeneralLedger(c.Request.Context(), accountCode, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ledger)
}

// InvalidateCache godoc
//
//	@Summary		Invalidate cached reports
//	@Description	Drops every cached report so the next request regenerates from the ledger
//	@Tags			reports
//	@Success		204
//	@Router			/reports/cache/invalidate [post]
func (h *ReportHandler) InvalidateCache(c *gin.Context) {
	if err := h.reports.InvalidateReports(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// bindingError converts gin binding failures into a validation error response
func (h *ReportHandler) bindingError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]dto.ValidationDetail, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, dto.ValidationDetail{
				Field:   fe.Field(),
				Message: "failed on '" + fe.Tag() + "' validation",
			})
		}
		h.ValidationError(c, details)
		return
	}

	h.BadRequest(c, err.Error())
}
