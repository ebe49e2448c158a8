package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/models"
	"moneybook/internal/pagination"
	"moneybook/internal/services"
)

// --- mock data service ---

type mockDataService struct {
	exportDataFn func(userID string) (*models.Snapshot, error)
	importDataFn func(userID string, snapshot models.Snapshot) error
	resetAllFn   func(userID string) error
	seedFn       func(userID string) error
}

func (m *mockDataService) ExportData(_ context.Context, userID string) (*models.Snapshot, error) {
	if m.exportDataFn != nil {
		return m.exportDataFn(userID)
	}
	accounts, categories, txs := []models.Account{}, []models.Category{}, []models.Transaction{}
	return &models.Snapshot{Accounts: &accounts, Categories: &categories, Transactions: &txs}, nil
}

func (m *mockDataService) ImportData(_ context.Context, userID string, snapshot models.Snapshot) error {
	if m.importDataFn != nil {
		return m.importDataFn(userID, snapshot)
	}
	return nil
}

func (m *mockDataService) ResetAll(_ context.Context, userID string) error {
	if m.resetAllFn != nil {
		return m.resetAllFn(userID)
	}
	return nil
}

func (m *mockDataService) SeedDemoData(_ context.Context, userID string) error {
	if m.seedFn != nil {
		return m.seedFn(userID)
	}
	return nil
}

// verify interface compliance
var _ services.DataServicer = (*mockDataService)(nil)

func setupDataRouter(handler *DataHandler, audit *AuditHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID("user-1"))
	auth.GET("/data/export", handler.Export)
	auth.POST("/data/import", handler.Import)
	auth.POST("/data/reset", handler.Reset)
	auth.POST("/data/seed", handler.Seed)
	auth.GET("/audit", audit.ListAuditLogs)
	return r
}

func TestDataHandler_Export(t *testing.T) {
	dataSvc := &mockDataService{
		exportDataFn: func(_ string) (*models.Snapshot, error) {
			accounts := []models.Account{{ID: "a1", Name: "Card"}}
			categories, txs := []models.Category{}, []models.Transaction{}
			return &models.Snapshot{
				Meta:         models.SnapshotMeta{Version: models.SnapshotVersion, ExportedAt: time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC), Provider: "local"},
				Accounts:     &accounts,
				Categories:   &categories,
				Transactions: &txs,
			}, nil
		},
	}
	r := setupDataRouter(NewDataHandler(dataSvc, &mockAuditService{}), NewAuditHandler(&mockAuditService{}))

	rec := doRequest(r, "GET", "/data/export", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "moneybook-2024-03-15.json") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	result := parseJSON(t, rec)
	meta := result["meta"].(map[string]interface{})
	if meta["version"] != float64(models.SnapshotVersion) || meta["provider"] != "local" {
		t.Errorf("unexpected meta %v", meta)
	}
	if len(result["accounts"].([]interface{})) != 1 {
		t.Errorf("expected one account, got %v", result["accounts"])
	}
}

func TestDataHandler_Import(t *testing.T) {
	t.Run("replaces the ledger", func(t *testing.T) {
		var got models.Snapshot
		dataSvc := &mockDataService{
			importDataFn: func(_ string, snapshot models.Snapshot) error {
				got = snapshot
				return nil
			},
		}
		audit := &mockAuditService{}
		r := setupDataRouter(NewDataHandler(dataSvc, audit), NewAuditHandler(audit))

		rec := doRequest(r, "POST", "/data/import",
			`{"accounts":[{"id":"a1","name":"Card"}],"categories":[],"transactions":[]}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.Complete() || len(*got.Accounts) != 1 {
			t.Errorf("expected decoded snapshot, got %+v", got)
		}
		imported := parseJSON(t, rec)["imported"].(map[string]interface{})
		if imported["accounts"] != float64(1) || imported["transactions"] != float64(0) {
			t.Errorf("unexpected counts %v", imported)
		}
		if audit.actions()[0] != "IMPORT_DATA" {
			t.Errorf("expected IMPORT_DATA, got %v", audit.actions())
		}
	})

	t.Run("returns 400 on incomplete snapshot", func(t *testing.T) {
		dataSvc := &mockDataService{
			importDataFn: func(_ string, snapshot models.Snapshot) error {
				if !snapshot.Complete() {
					return apperrors.ErrInvalidSnapshot
				}
				return nil
			},
		}
		audit := &mockAuditService{}
		r := setupDataRouter(NewDataHandler(dataSvc, audit), NewAuditHandler(audit))

		rec := doRequest(r, "POST", "/data/import", `{"accounts":[]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_SNAPSHOT")
		if len(audit.entries) != 0 {
			t.Error("failed import must not be audited")
		}
	})
}

func TestDataHandler_ResetAndSeed(t *testing.T) {
	var calls []string
	dataSvc := &mockDataService{
		resetAllFn: func(_ string) error {
			calls = append(calls, "reset")
			return nil
		},
		seedFn: func(_ string) error {
			calls = append(calls, "seed")
			return nil
		},
	}
	audit := &mockAuditService{}
	r := setupDataRouter(NewDataHandler(dataSvc, audit), NewAuditHandler(audit))

	if rec := doRequest(r, "POST", "/data/reset", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on reset, got %d", rec.Code)
	}
	if rec := doRequest(r, "POST", "/data/seed", ""); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 on seed, got %d", rec.Code)
	}

	if strings.Join(calls, ",") != "reset,seed" {
		t.Errorf("unexpected calls %v", calls)
	}
	if strings.Join(audit.actions(), ",") != "RESET_DATA,SEED_DATA" {
		t.Errorf("unexpected audit actions %v", audit.actions())
	}
}

func TestAuditHandler_ListAuditLogs(t *testing.T) {
	t.Run("passes paging through", func(t *testing.T) {
		var got pagination.PageRequest
		audit := &mockAuditService{
			listFn: func(_ string, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
				got = page
				resp := pagination.NewPageResponse([]models.AuditLog{{Action: "RESET_DATA"}}, 2, 10, 11)
				return &resp, nil
			},
		}
		r := setupDataRouter(NewDataHandler(&mockDataService{}, audit), NewAuditHandler(audit))

		rec := doRequest(r, "GET", "/audit?page=2&page_size=10", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got.Page != 2 || got.PageSize != 10 {
			t.Errorf("unexpected page request %+v", got)
		}
		if parseJSON(t, rec)["total_pages"] != float64(2) {
			t.Error("expected 2 pages")
		}
	})

	t.Run("returns 400 on oversized page", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupDataRouter(NewDataHandler(&mockDataService{}, audit), NewAuditHandler(audit))

		rec := doRequest(r, "GET", "/audit?page_size=1000", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
