package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/ledger"
	"moneybook/internal/money"
	"moneybook/internal/report"
	"moneybook/internal/services"
)

// ReportHandler serves the monthly expense report.
type ReportHandler struct {
	gateway   services.Gateway
	formatter *money.Formatter
	now       func() time.Time
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(gateway services.Gateway, formatter *money.Formatter) *ReportHandler {
	if formatter == nil {
		formatter = money.NewFormatter("")
	}
	return &ReportHandler{gateway: gateway, formatter: formatter, now: time.Now}
}

// GetExpenseReport returns expenses of a month by category
// @Summary     Expense report
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       month query string false "Month (YYYY-MM), defaults to the current month"
// @Success     200 {object} ledger.Report "Report"
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Router      /reports/expenses [get]
func (h *ReportHandler) GetExpenseReport(c *gin.Context) {
	rep, ok := h.buildReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": rep})
}

// GetExpenseChart renders the report as a PNG bar chart
// @Summary     Expense chart
// @Tags        reports
// @Produce     png
// @Security    BearerAuth
// @Param       month    query string false "Month (YYYY-MM), defaults to the current month"
// @Param       currency query string false "Axis currency code, defaults to RUB"
// @Success     200 {file}   binary "PNG image"
// @Failure     404 {object} ErrorResponse "No expenses in the month"
// @Router      /reports/expenses.png [get]
func (h *ReportHandler) GetExpenseChart(c *gin.Context) {
	rep, ok := h.buildReport(c)
	if !ok {
		return
	}

	code := strings.ToUpper(c.DefaultQuery("currency", money.DefaultCurrency))
	png, err := report.RenderExpenseChart(rep, h.formatter, code)
	if errors.Is(err, report.ErrNoExpenses) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrNotFound, "No expenses in this period"))
		return
	}
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func (h *ReportHandler) buildReport(c *gin.Context) (ledger.Report, bool) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return ledger.Report{}, false
	}

	month, err := monthQuery(c, h.now())
	if err != nil {
		respondWithError(c, err)
		return ledger.Report{}, false
	}

	_, categories, txs, err := loadLedger(c, h.gateway, userID)
	if err != nil {
		respondWithError(c, err)
		return ledger.Report{}, false
	}

	return ledger.MonthlyReport(txs, categories, month), true
}
