package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/models"
	"moneybook/internal/services"
)

// --- mock account service ---

type mockAccountService struct {
	getAccountsFn    func(userID string) ([]models.Account, error)
	getAccountByIDFn func(userID, accountID string) (*models.Account, error)
	upsertAccountFn  func(userID string, account models.Account) (*models.Account, error)
	deleteAccountFn  func(userID, accountID string) (services.DeleteResult, error)
}

func (m *mockAccountService) GetAccounts(_ context.Context, userID string) ([]models.Account, error) {
	if m.getAccountsFn != nil {
		return m.getAccountsFn(userID)
	}
	return []models.Account{}, nil
}

func (m *mockAccountService) GetAccountByID(_ context.Context, userID, accountID string) (*models.Account, error) {
	if m.getAccountByIDFn != nil {
		return m.getAccountByIDFn(userID, accountID)
	}
	return &models.Account{ID: accountID}, nil
}

func (m *mockAccountService) UpsertAccount(_ context.Context, userID string, account models.Account) (*models.Account, error) {
	if m.upsertAccountFn != nil {
		return m.upsertAccountFn(userID, account)
	}
	return &account, nil
}

func (m *mockAccountService) DeleteAccount(_ context.Context, userID, accountID string) (services.DeleteResult, error) {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(userID, accountID)
	}
	return services.DeleteResultDeleted, nil
}

// verify interface compliance
var _ services.AccountServicer = (*mockAccountService)(nil)

func setupAccountRouter(handler *AccountHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID("user-1"))
	auth.GET("/accounts", handler.ListAccounts)
	auth.GET("/accounts/:id", handler.GetAccount)
	auth.POST("/accounts", handler.CreateAccount)
	auth.PUT("/accounts/:id", handler.UpdateAccount)
	auth.DELETE("/accounts/:id", handler.DeleteAccount)
	r.GET("/anon/accounts", handler.ListAccounts)
	return r
}

func TestAccountHandler_ListAccounts(t *testing.T) {
	t.Run("returns accounts with balances", func(t *testing.T) {
		accSvc := &mockAccountService{
			getAccountsFn: func(_ string) ([]models.Account, error) {
				return []models.Account{{ID: "a1", Name: "Card", Currency: "RUB", OpeningBalance: 1000}}, nil
			},
		}
		txSvc := &mockTransactionService{
			getTransactionsFn: func(_ string) ([]models.Transaction, error) {
				return []models.Transaction{
					{ID: "t1", Type: models.TransactionTypeExpense, AccountID: "a1", Amount: 250},
					{ID: "t2", Type: models.TransactionTypeIncome, AccountID: "a1", Amount: 100},
				}, nil
			},
		}
		r := setupAccountRouter(NewAccountHandler(accSvc, txSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/accounts", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		accounts := parseJSON(t, rec)["accounts"].([]interface{})
		if len(accounts) != 1 {
			t.Fatalf("expected 1 account, got %d", len(accounts))
		}
		acc := accounts[0].(map[string]interface{})
		if acc["balance"] != float64(850) {
			t.Errorf("expected balance 850, got %v", acc["balance"])
		}
	})

	t.Run("returns 401 without user", func(t *testing.T) {
		r := setupAccountRouter(NewAccountHandler(&mockAccountService{}, &mockTransactionService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/anon/accounts", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestAccountHandler_GetAccount(t *testing.T) {
	t.Run("returns 404 when missing", func(t *testing.T) {
		accSvc := &mockAccountService{
			getAccountByIDFn: func(_, _ string) (*models.Account, error) {
				return nil, apperrors.ErrAccountNotFound
			},
		}
		r := setupAccountRouter(NewAccountHandler(accSvc, &mockTransactionService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/accounts/missing", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_NOT_FOUND")
	})
}

func TestAccountHandler_CreateAccount(t *testing.T) {
	t.Run("returns 201 and converts the amount", func(t *testing.T) {
		var got models.Account
		accSvc := &mockAccountService{
			upsertAccountFn: func(userID string, account models.Account) (*models.Account, error) {
				if userID != "user-1" {
					t.Errorf("expected user-1, got %s", userID)
				}
				got = account
				return &account, nil
			},
		}
		audit := &mockAuditService{}
		r := setupAccountRouter(NewAccountHandler(accSvc, &mockTransactionService{}, audit))

		rec := doRequest(r, "POST", "/accounts",
			`{"name":"  Savings  ","type":"savings","currency":"usd","opening_balance":"1 234,50"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Name != "Savings" || got.Currency != "USD" || got.OpeningBalance != 123450 {
			t.Errorf("unexpected account passed to service: %+v", got)
		}
		if got.ID == "" {
			t.Error("expected generated ID")
		}
		if len(audit.entries) != 1 || audit.entries[0].action != "CREATE_ACCOUNT" {
			t.Errorf("expected CREATE_ACCOUNT audit entry, got %v", audit.actions())
		}
	})

	t.Run("returns 422 with field messages", func(t *testing.T) {
		called := false
		accSvc := &mockAccountService{
			upsertAccountFn: func(_ string, account models.Account) (*models.Account, error) {
				called = true
				return &account, nil
			},
		}
		r := setupAccountRouter(NewAccountHandler(accSvc, &mockTransactionService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/accounts", `{"name":"A","currency":"RUBX","opening_balance":"abc"}`)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "VALIDATION_FAILED")
		fields := result["error"].(map[string]interface{})["fields"].(map[string]interface{})
		for _, name := range []string{"name", "currency", "opening_balance"} {
			if fields[name] == nil {
				t.Errorf("expected message for %s, got %v", name, fields)
			}
		}
		if called {
			t.Error("service must not be called on invalid input")
		}
	})

	t.Run("returns 400 on malformed JSON", func(t *testing.T) {
		r := setupAccountRouter(NewAccountHandler(&mockAccountService{}, &mockTransactionService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/accounts", `{"name":`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestAccountHandler_UpdateAccount(t *testing.T) {
	t.Run("uses the path ID", func(t *testing.T) {
		var gotID string
		accSvc := &mockAccountService{
			upsertAccountFn: func(_ string, account models.Account) (*models.Account, error) {
				gotID = account.ID
				return &account, nil
			},
		}
		audit := &mockAuditService{}
		r := setupAccountRouter(NewAccountHandler(accSvc, &mockTransactionService{}, audit))

		rec := doRequest(r, "PUT", "/accounts/acc-9",
			`{"id":"other","name":"Cash","currency":"RUB","opening_balance":"0"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotID != "acc-9" {
			t.Errorf("expected acc-9, got %s", gotID)
		}
		if audit.actions()[0] != "UPDATE_ACCOUNT" {
			t.Errorf("expected UPDATE_ACCOUNT, got %v", audit.actions())
		}
	})
}

func TestAccountHandler_DeleteAccount(t *testing.T) {
	tests := []struct {
		name   string
		result services.DeleteResult
	}{
		{"deleted", services.DeleteResultDeleted},
		{"archived", services.DeleteResultArchived},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accSvc := &mockAccountService{
				deleteAccountFn: func(_, _ string) (services.DeleteResult, error) {
					return tt.result, nil
				},
			}
			audit := &mockAuditService{}
			r := setupAccountRouter(NewAccountHandler(accSvc, &mockTransactionService{}, audit))

			rec := doRequest(r, "DELETE", "/accounts/acc-1", "")

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if got := parseJSON(t, rec)["result"]; got != string(tt.result) {
				t.Errorf("expected result %s, got %v", tt.result, got)
			}
			if len(audit.entries) != 1 || audit.entries[0].resourceID != "acc-1" {
				t.Errorf("expected audit entry for acc-1, got %+v", audit.entries)
			}
		})
	}

	t.Run("returns 404 when missing", func(t *testing.T) {
		accSvc := &mockAccountService{
			deleteAccountFn: func(_, _ string) (services.DeleteResult, error) {
				return "", apperrors.ErrAccountNotFound
			},
		}
		r := setupAccountRouter(NewAccountHandler(accSvc, &mockTransactionService{}, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/accounts/missing", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
