package services

import (
	"context"
	"testing"

	"moneybook/internal/ledger"
	"moneybook/internal/models"
	"moneybook/internal/testutil"
)

func TestExportData(t *testing.T) {
	ctx := context.Background()

	t.Run("collections_and_meta", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDataService(db, nil, "sqlite")
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		acc := testutil.CreateTestAccount(t, db, user.ID)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		testutil.CreateTestTransaction(t, db, user.ID, acc.ID, cat.ID, models.TransactionTypeExpense, 100)
		testutil.CreateTestAccount(t, db, other.ID)

		snapshot, err := svc.ExportData(ctx, user.ID)
		testutil.AssertNoError(t, err)

		if snapshot.Meta.Version != models.SnapshotVersion {
			t.Errorf("expected version %d, got %d", models.SnapshotVersion, snapshot.Meta.Version)
		}
		if snapshot.Meta.Provider != "sqlite" {
			t.Errorf("expected provider sqlite, got %s", snapshot.Meta.Provider)
		}
		if snapshot.Meta.ExportedAt.IsZero() {
			t.Error("expected exported_at to be set")
		}
		if !snapshot.Complete() {
			t.Fatal("expected every collection to be present")
		}
		if len(*snapshot.Accounts) != 1 || len(*snapshot.Categories) != 1 || len(*snapshot.Transactions) != 1 {
			t.Errorf("unexpected sizes: %d accounts, %d categories, %d transactions",
				len(*snapshot.Accounts), len(*snapshot.Categories), len(*snapshot.Transactions))
		}
	})

	t.Run("empty_ledger", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDataService(db, nil, "sqlite")
		user := testutil.CreateTestUser(t, db)

		snapshot, err := svc.ExportData(ctx, user.ID)
		testutil.AssertNoError(t, err)
		if !snapshot.Complete() || len(*snapshot.Accounts) != 0 {
			t.Errorf("expected empty but complete snapshot, got %+v", snapshot)
		}
	})
}

func TestImportData(t *testing.T) {
	ctx := context.Background()

	t.Run("round_trip", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDataService(db, nil, "sqlite")
		transfers := NewTransactionService(db, nil)
		user := testutil.CreateTestUser(t, db)
		from := testutil.CreateTestAccountWithBalance(t, db, user.ID, 5000)
		to := testutil.CreateTestAccount(t, db, user.ID)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		testutil.CreateTestTransaction(t, db, user.ID, from.ID, cat.ID, models.TransactionTypeExpense, 700)
		_, err := transfers.UpsertTransfer(ctx, user.ID, TransferParams{FromAccountID: from.ID, ToAccountID: to.ID, Amount: 1000})
		testutil.AssertNoError(t, err)

		exported, err := svc.ExportData(ctx, user.ID)
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, svc.ImportData(ctx, user.ID, *exported))

		again, err := svc.ExportData(ctx, user.ID)
		testutil.AssertNoError(t, err)
		if len(*again.Transactions) != 3 || len(*again.Accounts) != 2 || len(*again.Categories) != 1 {
			t.Fatalf("unexpected sizes after re-import: %d accounts, %d categories, %d transactions",
				len(*again.Accounts), len(*again.Categories), len(*again.Transactions))
		}

		balances := ledger.AccountBalances(*again.Accounts, *again.Transactions)
		if balances[from.ID] != 3300 || balances[to.ID] != 1000 {
			t.Errorf("expected balances 3300/1000, got %d/%d", balances[from.ID], balances[to.ID])
		}
	})

	t.Run("replaces_existing_rows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDataService(db, nil, "sqlite")
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestAccount(t, db, user.ID)
		testutil.CreateTestAccount(t, db, user.ID)

		accounts := []models.Account{{ID: "acc-1", Name: "Imported"}}
		categories := []models.Category{}
		transactions := []models.Transaction{{ID: "tx-1", AccountID: "acc-1", Amount: 10}}
		err := svc.ImportData(ctx, user.ID, models.Snapshot{Accounts: &accounts, Categories: &categories, Transactions: &transactions})
		testutil.AssertNoError(t, err)

		testutil.AssertCount(t, db, &models.Account{}, 1, "user_id = ?", user.ID)
		testutil.AssertCount(t, db, &models.Account{}, 1, "id = ? AND currency = ?", "acc-1", "RUB")
		testutil.AssertCount(t, db, &models.Transaction{}, 1, "id = ? AND user_id = ?", "tx-1", user.ID)
	})

	t.Run("missing_collection", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDataService(db, nil, "sqlite")
		user := testutil.CreateTestUser(t, db)
		acc := testutil.CreateTestAccount(t, db, user.ID)

		accounts := []models.Account{}
		err := svc.ImportData(ctx, user.ID, models.Snapshot{Accounts: &accounts})
		testutil.AssertAppError(t, err, "INVALID_SNAPSHOT")
		testutil.AssertCount(t, db, &models.Account{}, 1, "id = ?", acc.ID)
	})

	t.Run("transfer_typed_row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDataService(db, nil, "sqlite")
		user := testutil.CreateTestUser(t, db)

		accounts := []models.Account{}
		categories := []models.Category{}
		transactions := []models.Transaction{{ID: "tx-1", Type: models.TransactionTypeTransfer, AccountID: "a", Amount: 10}}
		err := svc.ImportData(ctx, user.ID, models.Snapshot{Accounts: &accounts, Categories: &categories, Transactions: &transactions})
		testutil.AssertAppError(t, err, "INVALID_SNAPSHOT")
	})

	t.Run("id_owned_by_other_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDataService(db, nil, "sqlite")
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		foreign := testutil.CreateTestAccount(t, db, other.ID)
		mine := testutil.CreateTestAccount(t, db, user.ID)

		accounts := []models.Account{{ID: foreign.ID, Name: "Taken"}}
		categories := []models.Category{}
		transactions := []models.Transaction{}
		err := svc.ImportData(ctx, user.ID, models.Snapshot{Accounts: &accounts, Categories: &categories, Transactions: &transactions})
		testutil.AssertAppError(t, err, "INVALID_SNAPSHOT")

		testutil.AssertCount(t, db, &models.Account{}, 1, "id = ? AND user_id = ?", mine.ID, user.ID)
		testutil.AssertCount(t, db, &models.Account{}, 1, "id = ? AND user_id = ?", foreign.ID, other.ID)
	})
}

func TestResetAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewDataService(db, nil, "sqlite")
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	acc := testutil.CreateTestAccount(t, db, user.ID)
	cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	testutil.CreateTestTransaction(t, db, user.ID, acc.ID, cat.ID, models.TransactionTypeExpense, 100)
	testutil.CreateTestAccount(t, db, other.ID)

	testutil.AssertNoError(t, svc.ResetAll(context.Background(), user.ID))

	testutil.AssertCount(t, db, &models.Account{}, 0, "user_id = ?", user.ID)
	testutil.AssertCount(t, db, &models.Category{}, 0, "user_id = ?", user.ID)
	testutil.AssertCount(t, db, &models.Transaction{}, 0, "user_id = ?", user.ID)
	testutil.AssertCount(t, db, &models.Account{}, 1, "user_id = ?", other.ID)
}

func TestSeedDemoData(t *testing.T) {
	ctx := context.Background()

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewDataService(db, nil, "sqlite")
	user := testutil.CreateTestUser(t, db)
	testutil.CreateTestAccount(t, db, user.ID)

	testutil.AssertNoError(t, svc.SeedDemoData(ctx, user.ID))
	// Seeding twice replaces rather than duplicates.
	testutil.AssertNoError(t, svc.SeedDemoData(ctx, user.ID))

	snapshot, err := svc.ExportData(ctx, user.ID)
	testutil.AssertNoError(t, err)
	if len(*snapshot.Accounts) != 2 || len(*snapshot.Categories) != 4 || len(*snapshot.Transactions) != 4 {
		t.Fatalf("unexpected sizes: %d accounts, %d categories, %d transactions",
			len(*snapshot.Accounts), len(*snapshot.Categories), len(*snapshot.Transactions))
	}

	balances := ledger.AccountBalances(*snapshot.Accounts, *snapshot.Transactions)
	totals := ledger.TotalsByCurrency(*snapshot.Accounts, balances)
	if totals["RUB"] != 248310 {
		t.Errorf("expected RUB total 248310, got %d", totals["RUB"])
	}
}
