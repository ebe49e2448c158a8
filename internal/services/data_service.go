package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"moneybook/internal/daterange"
	apperrors "moneybook/internal/errors"
	"moneybook/internal/events"
	"moneybook/internal/models"
	"moneybook/internal/uuid"
)

const importBatchSize = 200

// dataService handles whole-ledger export, import, reset and seeding.
type dataService struct {
	db       *gorm.DB
	bus      *events.Bus
	provider string
}

// NewDataService creates a new DataServicer. provider is recorded in the
// metadata of every export.
func NewDataService(db *gorm.DB, bus *events.Bus, provider string) DataServicer {
	return &dataService{db: db, bus: bus, provider: provider}
}

// ExportData reads all three collections of the user concurrently.
func (s *dataService) ExportData(ctx context.Context, userID string) (*models.Snapshot, error) {
	accounts := []models.Account{}
	categories := []models.Category{}
	transactions := []models.Transaction{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&accounts).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&categories).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Where("user_id = ?", userID).Order("date DESC, created_at DESC").Find(&transactions).Error
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &models.Snapshot{
		Meta: models.SnapshotMeta{
			Version:    models.SnapshotVersion,
			ExportedAt: time.Now().UTC(),
			Provider:   s.provider,
		},
		Accounts:     &accounts,
		Categories:   &categories,
		Transactions: &transactions,
	}, nil
}

// ImportData replaces the user's ledger with the snapshot. Ids are kept so a
// re-import of an export reproduces the same rows. The replacement is atomic.
func (s *dataService) ImportData(ctx context.Context, userID string, snapshot models.Snapshot) error {
	if !snapshot.Complete() {
		return apperrors.ErrInvalidSnapshot
	}

	accounts := make([]models.Account, 0, len(*snapshot.Accounts))
	for _, a := range *snapshot.Accounts {
		a.UserID = userID
		accounts = append(accounts, models.NewAccount(a))
	}
	categories := make([]models.Category, 0, len(*snapshot.Categories))
	for _, c := range *snapshot.Categories {
		c.UserID = userID
		categories = append(categories, models.NewCategory(c))
	}
	transactions := make([]models.Transaction, 0, len(*snapshot.Transactions))
	for _, t := range *snapshot.Transactions {
		if t.Type != "" && !t.Type.IsStored() {
			return apperrors.WithMessage(apperrors.ErrInvalidSnapshot,
				fmt.Sprintf("transaction %s has unsupported type %q", t.ID, t.Type))
		}
		t.UserID = userID
		transactions = append(transactions, models.NewTransaction(t))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureIDsFree(tx, &models.Account{}, userID, accountIDs(accounts)); err != nil {
			return err
		}
		if err := ensureIDsFree(tx, &models.Category{}, userID, categoryIDs(categories)); err != nil {
			return err
		}
		if err := ensureIDsFree(tx, &models.Transaction{}, userID, transactionIDs(transactions)); err != nil {
			return err
		}

		if err := deleteLedger(tx, userID); err != nil {
			return err
		}

		if len(accounts) > 0 {
			if err := tx.CreateInBatches(&accounts, importBatchSize).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if len(categories) > 0 {
			if err := tx.CreateInBatches(&categories, importBatchSize).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if len(transactions) > 0 {
			if err := tx.CreateInBatches(&transactions, importBatchSize).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return asAppError(err)
	}

	publish(ctx, s.bus, events.DataImported, userID, "")
	return nil
}

// ResetAll deletes every account, category and transaction of the user.
func (s *dataService) ResetAll(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteLedger(tx, userID)
	})
	if err != nil {
		return asAppError(err)
	}

	publish(ctx, s.bus, events.DataReset, userID, "")
	return nil
}

// SeedDemoData replaces the user's ledger with a small demo set dated today.
func (s *dataService) SeedDemoData(ctx context.Context, userID string) error {
	today := daterange.Today()

	card := models.NewAccount(models.Account{UserID: userID, Name: "Neon Card", Type: models.AccountTypeCard, OpeningBalance: 125000})
	cash := models.NewAccount(models.Account{UserID: userID, Name: "Cash", Type: models.AccountTypeCash, OpeningBalance: 15000})

	food := models.NewCategory(models.Category{UserID: userID, Name: "Food", Type: models.CategoryTypeExpense, Color: "#ff7ad9"})
	transport := models.NewCategory(models.Category{UserID: userID, Name: "Transport", Type: models.CategoryTypeExpense, Color: "#00e5ff"})
	subscriptions := models.NewCategory(models.Category{UserID: userID, Name: "Subscriptions", Type: models.CategoryTypeExpense, Color: "#9bff47"})
	salary := models.NewCategory(models.Category{UserID: userID, Name: "Salary", Type: models.CategoryTypeIncome, Color: "#39ffb6"})

	seedTx := func(account models.Account, category models.Category, txType models.TransactionType, amount int64, payee, note string) models.Transaction {
		return models.NewTransaction(models.Transaction{
			ID:         uuid.New(),
			UserID:     userID,
			Date:       today,
			Type:       txType,
			AccountID:  account.ID,
			CategoryID: models.StringPtr(category.ID),
			Amount:     amount,
			Currency:   account.Currency,
			Payee:      payee,
			Note:       note,
		})
	}

	accounts := []models.Account{card, cash}
	categories := []models.Category{food, transport, subscriptions, salary}
	transactions := []models.Transaction{
		seedTx(card, salary, models.TransactionTypeIncome, 120000, "Company", "Salary"),
		seedTx(card, food, models.TransactionTypeExpense, 8500, "Cafe", "Lunch"),
		seedTx(card, transport, models.TransactionTypeExpense, 2200, "Metro", "Fare"),
		seedTx(cash, subscriptions, models.TransactionTypeExpense, 990, "Service", "Subscription"),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteLedger(tx, userID); err != nil {
			return err
		}
		if err := tx.Create(&accounts).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Create(&categories).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Create(&transactions).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return asAppError(err)
	}

	publish(ctx, s.bus, events.DataSeeded, userID, "")
	return nil
}

// deleteLedger removes the user's rows, transactions first.
func deleteLedger(tx *gorm.DB, userID string) error {
	for _, model := range []any{&models.Transaction{}, &models.Category{}, &models.Account{}} {
		if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return nil
}

// ensureIDsFree fails when any of ids already belongs to another user.
func ensureIDsFree(tx *gorm.DB, model any, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	var taken int64
	if err := tx.Model(model).Where("id IN ? AND user_id <> ?", ids, userID).Count(&taken).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if taken > 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidSnapshot, "Import file contains ids that are already in use")
	}
	return nil
}

func accountIDs(rows []models.Account) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func categoryIDs(rows []models.Category) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func transactionIDs(rows []models.Transaction) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}
