package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"moneybook/internal/daterange"
	apperrors "moneybook/internal/errors"
	"moneybook/internal/ledger"
	"moneybook/internal/models"
	"moneybook/internal/money"
	"moneybook/internal/services"
)

// DashboardHandler serves the balance overview.
type DashboardHandler struct {
	gateway   services.Gateway
	formatter *money.Formatter
	now       func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(gateway services.Gateway, formatter *money.Formatter) *DashboardHandler {
	if formatter == nil {
		formatter = money.NewFormatter("")
	}
	return &DashboardHandler{gateway: gateway, formatter: formatter, now: time.Now}
}

// FormattedTotal is a currency total with its display text.
type FormattedTotal struct {
	ledger.CurrencyTotal
	Text string `json:"text"`
}

// DashboardResponse is the dashboard payload.
type DashboardResponse struct {
	ledger.DashboardSummary
	Totals []FormattedTotal `json:"totals"`
}

// GetDashboard returns balances, totals per currency and the month's top
// expense categories
// @Summary     Dashboard
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Param       month query string false "Month (YYYY-MM), defaults to the current month"
// @Success     200 {object} DashboardResponse "Dashboard"
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Router      /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, err := monthQuery(c, h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	accounts, categories, txs, err := loadLedger(c, h.gateway, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary := ledger.Dashboard(accounts, categories, txs, month)
	totals := make([]FormattedTotal, 0, len(summary.Totals))
	for _, t := range summary.Totals {
		totals = append(totals, FormattedTotal{CurrencyTotal: t, Text: h.formatter.Format(t.Amount, t.Currency)})
	}

	c.JSON(http.StatusOK, DashboardResponse{DashboardSummary: summary, Totals: totals})
}

// monthQuery resolves ?month=YYYY-MM, defaulting to the month containing now.
func monthQuery(c *gin.Context, now time.Time) (daterange.Range, error) {
	month := c.Query("month")
	if month == "" {
		return daterange.MonthRangeAt(now, 0), nil
	}
	rng, err := daterange.ForMonth(month)
	if err != nil {
		return daterange.Range{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return rng, nil
}

func loadLedger(c *gin.Context, gw services.Gateway, userID string) ([]models.Account, []models.Category, []models.Transaction, error) {
	ctx := c.Request.Context()
	accounts, err := gw.GetAccounts(ctx, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	categories, err := gw.GetCategories(ctx, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	txs, err := gw.GetTransactions(ctx, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	return accounts, categories, txs, nil
}
