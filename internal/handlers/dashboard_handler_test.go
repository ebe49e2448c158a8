package handlers

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"moneybook/internal/models"
	"moneybook/internal/money"
	"moneybook/internal/services"
)

type mockGateway struct {
	*mockAuthService
	*mockAccountService
	*mockCategoryService
	*mockTransactionService
	*mockDataService
}

var _ services.Gateway = (*mockGateway)(nil)

// newLedgerGateway returns a gateway holding one RUB account, two categories
// and three March 2024 rows.
func newLedgerGateway() *mockGateway {
	food := models.StringPtr("c1")
	salary := models.StringPtr("c2")
	return &mockGateway{
		mockAuthService: &mockAuthService{},
		mockAccountService: &mockAccountService{
			getAccountsFn: func(_ string) ([]models.Account, error) {
				return []models.Account{{ID: "a1", Name: "Card", Currency: "RUB", OpeningBalance: 1000}}, nil
			},
		},
		mockCategoryService: &mockCategoryService{
			getCategoriesFn: func(_ string) ([]models.Category, error) {
				return []models.Category{
					{ID: "c1", Name: "Food", Type: models.CategoryTypeExpense, Color: "#ff7ad9"},
					{ID: "c2", Name: "Salary", Type: models.CategoryTypeIncome},
				}, nil
			},
		},
		mockTransactionService: &mockTransactionService{
			getTransactionsFn: func(_ string) ([]models.Transaction, error) {
				return []models.Transaction{
					{ID: "t1", Date: "2024-03-02", Type: models.TransactionTypeExpense, AccountID: "a1", Amount: 200, Currency: "RUB", CategoryID: food},
					{ID: "t2", Date: "2024-03-05", Type: models.TransactionTypeIncome, AccountID: "a1", Amount: 500, Currency: "RUB", CategoryID: salary},
					{ID: "t3", Date: "2024-02-20", Type: models.TransactionTypeExpense, AccountID: "a1", Amount: 300, Currency: "RUB", CategoryID: food},
				}, nil
			},
		},
		mockDataService: &mockDataService{},
	}
}

func fixedNow() time.Time {
	return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
}

func setupDashboardRouter(handler *DashboardHandler) *gin.Engine {
	handler.now = fixedNow
	r := gin.New()
	r.GET("/dashboard", injectUserID("user-1"), handler.GetDashboard)
	return r
}

func TestDashboardHandler_GetDashboard(t *testing.T) {
	f := money.NewFormatter("en-US")

	t.Run("current month by default", func(t *testing.T) {
		r := setupDashboardRouter(NewDashboardHandler(newLedgerGateway(), f))

		rec := doRequest(r, "GET", "/dashboard", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)

		month := result["month"].(map[string]interface{})
		if month["from"] != "2024-03-01" || month["to"] != "2024-03-31" {
			t.Errorf("unexpected month %v", month)
		}

		totals := result["totals"].([]interface{})
		if len(totals) != 1 {
			t.Fatalf("expected 1 currency total, got %v", totals)
		}
		total := totals[0].(map[string]interface{})
		if total["amount"] != float64(1000) || total["currency"] != "RUB" {
			t.Errorf("unexpected total %v", total)
		}
		if total["text"] != f.Format(1000, "RUB") {
			t.Errorf("expected formatted text, got %v", total["text"])
		}

		top := result["top_categories"].([]interface{})
		if len(top) != 1 {
			t.Fatalf("expected one expense category, got %v", top)
		}
		if top[0].(map[string]interface{})["amount"] != float64(200) {
			t.Errorf("expected March food total 200, got %v", top[0])
		}
	})

	t.Run("explicit month", func(t *testing.T) {
		r := setupDashboardRouter(NewDashboardHandler(newLedgerGateway(), f))

		rec := doRequest(r, "GET", "/dashboard?month=2024-02", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		top := parseJSON(t, rec)["top_categories"].([]interface{})
		if len(top) != 1 || top[0].(map[string]interface{})["amount"] != float64(300) {
			t.Errorf("expected February food total 300, got %v", top)
		}
	})

	t.Run("returns 400 on bad month", func(t *testing.T) {
		r := setupDashboardRouter(NewDashboardHandler(newLedgerGateway(), f))

		rec := doRequest(r, "GET", "/dashboard?month=March", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func setupReportRouter(handler *ReportHandler) *gin.Engine {
	handler.now = fixedNow
	r := gin.New()
	auth := r.Group("", injectUserID("user-1"))
	auth.GET("/reports/expenses", handler.GetExpenseReport)
	auth.GET("/reports/expenses.png", handler.GetExpenseChart)
	return r
}

func TestReportHandler(t *testing.T) {
	t.Run("json report", func(t *testing.T) {
		r := setupReportRouter(NewReportHandler(newLedgerGateway(), nil))

		rec := doRequest(r, "GET", "/reports/expenses?month=2024-03", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		rep := parseJSON(t, rec)["report"].(map[string]interface{})
		if rep["total"] != float64(200) {
			t.Errorf("expected total 200, got %v", rep["total"])
		}
		rows := rep["rows"].([]interface{})
		if len(rows) != 1 || rows[0].(map[string]interface{})["percent"] != float64(100) {
			t.Errorf("expected one full-width row, got %v", rows)
		}
	})

	t.Run("png chart", func(t *testing.T) {
		r := setupReportRouter(NewReportHandler(newLedgerGateway(), nil))

		rec := doRequest(r, "GET", "/reports/expenses.png", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("expected image/png, got %s", ct)
		}
		if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
			t.Error("expected PNG signature")
		}
	})

	t.Run("png chart of an empty month", func(t *testing.T) {
		r := setupReportRouter(NewReportHandler(newLedgerGateway(), nil))

		rec := doRequest(r, "GET", "/reports/expenses.png?month=2023-01", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "NOT_FOUND")
	})
}
