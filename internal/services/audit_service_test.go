package services

import (
	"context"
	"strings"
	"testing"

	"moneybook/internal/pagination"
	"moneybook/internal/testutil"
)

func TestAuditService(t *testing.T) {
	t.Run("log_and_list", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)

		svc.Log(user.ID, "DELETE_ACCOUNT", "account", "acc-1", "127.0.0.1", map[string]any{"result": "archived"})
		svc.Log(user.ID, "RESET_DATA", "ledger", "", "127.0.0.1", nil)
		svc.Log(other.ID, "RESET_DATA", "ledger", "", "10.0.0.1", nil)

		page, err := svc.List(context.Background(), user.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)

		if page.TotalItems != 2 || len(page.Data) != 2 {
			t.Fatalf("expected 2 entries, got %d (%d on page)", page.TotalItems, len(page.Data))
		}
		var found bool
		for _, entry := range page.Data {
			if entry.Action == "DELETE_ACCOUNT" {
				found = true
				if !strings.Contains(entry.Changes, `"result":"archived"`) {
					t.Errorf("expected changes JSON, got %q", entry.Changes)
				}
			}
		}
		if !found {
			t.Error("expected DELETE_ACCOUNT entry")
		}
	})

	t.Run("paged", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)
		user := testutil.CreateTestUser(t, db)

		for i := 0; i < 5; i++ {
			svc.Log(user.ID, "DELETE_TRANSACTION", "transaction", "", "", nil)
		}

		page, err := svc.List(context.Background(), user.ID, pagination.PageRequest{Page: 2, PageSize: 2})
		testutil.AssertNoError(t, err)
		if len(page.Data) != 2 || page.TotalPages != 3 || page.Page != 2 {
			t.Errorf("unexpected page: %d items, %d pages, page %d", len(page.Data), page.TotalPages, page.Page)
		}
	})
}
