package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"moneybook/internal/daterange"
	apperrors "moneybook/internal/errors"
	"moneybook/internal/events"
	"moneybook/internal/ledger"
	"moneybook/internal/models"
	"moneybook/internal/uuid"
)

var transactionUpdateColumns = []string{
	"date", "type", "account_id", "to_account_id", "transfer_id", "amount",
	"currency", "category_id", "payee", "note", "tags", "updated_at",
}

// transactionService handles transaction-related business logic.
type transactionService struct {
	db  *gorm.DB
	bus *events.Bus
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, bus *events.Bus) TransactionServicer {
	return &transactionService{db: db, bus: bus}
}

// GetTransactions returns every transaction of the user, newest first.
func (s *transactionService) GetTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	txs := []models.Transaction{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, created_at DESC").
		Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txs, nil
}

// GetTransactionByID returns a single transaction owned by the user.
func (s *transactionService) GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := findScoped(s.db.WithContext(ctx), &tx, transactionID, userID, apperrors.ErrTransactionNotFound); err != nil {
		return nil, err
	}
	return &tx, nil
}

// QueryTransactionsFiltered returns the user's transactions matching filter,
// newest first. Indexed criteria run in SQL; the result is then matched in
// memory so both backends apply identical search semantics.
func (s *transactionService) QueryTransactionsFiltered(ctx context.Context, userID string, filter ledger.Filter) ([]models.Transaction, error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return []models.Transaction{}, nil
	}

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.From != "" {
		query = query.Where("date >= ?", filter.From)
	}
	if filter.To != "" {
		query = query.Where("date <= ?", filter.To)
	}
	if filter.AccountID != "" {
		query = query.Where("account_id = ?", filter.AccountID)
	}
	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	switch filter.Type {
	case models.TransactionTypeTransfer:
		query = query.Where("transfer_id IS NOT NULL AND transfer_id <> ''")
	case models.TransactionTypeExpense, models.TransactionTypeIncome:
		query = query.Where("(transfer_id IS NULL OR transfer_id = '') AND type = ?", filter.Type)
	}
	// SQLite's LOWER only folds ASCII, so the search is left to the in-memory pass there.
	if term := filter.SearchTerm(); term != "" && s.db.Dialector.Name() == "postgres" {
		query = query.Where(`LOWER(payee || ' ' || note) LIKE ? ESCAPE '\'`, "%"+escapeLike(term)+"%")
	}

	txs := []models.Transaction{}
	if err := query.Order("date DESC, created_at DESC").Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return ledger.FilterTransactions(txs, filter), nil
}

// UpsertTransaction inserts or overwrites a single expense or income row.
// Transfer legs are rejected; they are written through UpsertTransfer.
func (s *transactionService) UpsertTransaction(ctx context.Context, userID string, input models.Transaction) (*models.Transaction, error) {
	if !input.Type.IsStored() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if input.IsTransferLeg() {
		return nil, apperrors.ErrTransferLegNotEditable
	}
	if input.Amount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be negative")
	}
	if input.Date != "" && !daterange.ValidDate(input.Date) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be YYYY-MM-DD")
	}
	input.UserID = userID
	input.ToAccountID = nil
	input.Payee = strings.TrimSpace(input.Payee)
	input.Note = strings.TrimSpace(input.Note)

	var saved models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.ID != "" {
			var existing models.Transaction
			err := findScoped(tx, &existing, input.ID, userID, apperrors.ErrTransactionNotFound)
			switch {
			case err == nil:
				if existing.IsTransferLeg() {
					return apperrors.ErrTransferLegNotEditable
				}
				input.CreatedAt = existing.CreatedAt
			case errors.Is(err, apperrors.ErrTransactionNotFound):
				owner, ownerErr := ownerOf(tx, &models.Transaction{}, input.ID, userID)
				if ownerErr != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, ownerErr)
				}
				if owner == rowForeign {
					return apperrors.ErrTransactionNotFound
				}
			default:
				return err
			}
		}

		var account models.Account
		if err := findScoped(tx, &account, input.AccountID, userID, apperrors.ErrAccountNotFound); err != nil {
			return err
		}
		if input.Currency == "" {
			input.Currency = account.Currency
		}
		input.Currency = strings.ToUpper(input.Currency)

		if categoryID := models.Deref(input.CategoryID); categoryID != "" {
			var category models.Category
			if err := findScoped(tx, &category, categoryID, userID, apperrors.ErrCategoryNotFound); err != nil {
				return err
			}
		}

		row := models.NewTransaction(input)
		row.Tags = cleanTags(row.Tags)
		row.UpdatedAt = time.Now().UTC()
		if err := upsertByID(tx, &row, transactionUpdateColumns); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return findScoped(tx, &saved, row.ID, userID, apperrors.ErrTransactionNotFound)
	})
	if err != nil {
		return nil, asAppError(err)
	}

	publish(ctx, s.bus, events.TransactionSaved, userID, saved.ID)
	return &saved, nil
}

// DeleteTransaction removes a single row. Deleting one transfer leg leaves
// the other as an orphan, which the display layer still renders.
func (s *transactionService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", transactionID, userID).
		Delete(&models.Transaction{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}

	publish(ctx, s.bus, events.TransactionDeleted, userID, transactionID)
	return nil
}

// UpsertTransfer writes both legs of a transfer in one database transaction:
// an expense on the source account and an income on the destination. Either
// both legs are persisted or neither is.
func (s *transactionService) UpsertTransfer(ctx context.Context, userID string, params TransferParams) (*TransferResult, error) {
	if params.FromAccountID == "" || params.ToAccountID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "source and destination accounts are required")
	}
	if params.FromAccountID == params.ToAccountID {
		return nil, apperrors.ErrSameAccountTransfer
	}
	if params.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if params.Date == "" {
		params.Date = daterange.Today()
	} else if !daterange.ValidDate(params.Date) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be YYYY-MM-DD")
	}
	if params.TransferID == "" {
		params.TransferID = uuid.New()
	}

	result := &TransferResult{TransferID: params.TransferID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var from, to models.Account
		if err := findScoped(tx, &from, params.FromAccountID, userID, apperrors.ErrAccountNotFound); err != nil {
			return err
		}
		if err := findScoped(tx, &to, params.ToAccountID, userID, apperrors.ErrAccountNotFound); err != nil {
			return err
		}

		var existing []models.Transaction
		if err := tx.Where("user_id = ? AND transfer_id = ?", userID, params.TransferID).
			Order("created_at ASC").
			Find(&existing).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		created := map[string]models.Transaction{}
		for _, leg := range existing {
			created[leg.ID] = leg
			if params.OutID == "" && leg.Type == models.TransactionTypeExpense {
				params.OutID = leg.ID
			}
			if params.InID == "" && leg.Type == models.TransactionTypeIncome && leg.ID != params.OutID {
				params.InID = leg.ID
			}
		}
		if params.OutID == "" {
			params.OutID = uuid.New()
		}
		if params.InID == "" || params.InID == params.OutID {
			params.InID = uuid.New()
		}

		for _, id := range []string{params.OutID, params.InID} {
			owner, err := ownerOf(tx, &models.Transaction{}, id, userID)
			if err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if owner == rowForeign {
				return apperrors.ErrTransactionNotFound
			}
			// An existing row may only be rewritten when it is already a leg
			// of this transfer.
			if _, isLeg := created[id]; owner == rowOwned && !isLeg {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction is not a leg of this transfer")
			}
		}

		if err := tx.Where("user_id = ? AND transfer_id = ? AND id NOT IN ?", userID, params.TransferID,
			[]string{params.OutID, params.InID}).
			Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		currency := strings.ToUpper(strings.TrimSpace(params.Currency))
		if currency == "" {
			currency = from.Currency
		}
		note := strings.TrimSpace(params.Note)

		out := models.NewTransaction(models.Transaction{
			ID:          params.OutID,
			UserID:      userID,
			Date:        params.Date,
			Type:        models.TransactionTypeExpense,
			AccountID:   from.ID,
			ToAccountID: models.StringPtr(to.ID),
			TransferID:  models.StringPtr(params.TransferID),
			Amount:      params.Amount,
			Currency:    currency,
			Note:        note,
			CreatedAt:   created[params.OutID].CreatedAt,
		})
		in := models.NewTransaction(models.Transaction{
			ID:          params.InID,
			UserID:      userID,
			Date:        params.Date,
			Type:        models.TransactionTypeIncome,
			AccountID:   to.ID,
			ToAccountID: models.StringPtr(from.ID),
			TransferID:  models.StringPtr(params.TransferID),
			Amount:      params.Amount,
			Currency:    currency,
			Note:        note,
			CreatedAt:   created[params.InID].CreatedAt,
		})

		if err := upsertByID(tx, &out, transactionUpdateColumns); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := upsertByID(tx, &in, transactionUpdateColumns); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := findScoped(tx, &result.Out, out.ID, userID, apperrors.ErrTransactionNotFound); err != nil {
			return err
		}
		return findScoped(tx, &result.In, in.ID, userID, apperrors.ErrTransactionNotFound)
	})
	if err != nil {
		return nil, asAppError(err)
	}

	publish(ctx, s.bus, events.TransferSaved, userID, params.TransferID)
	return result, nil
}

// DeleteTransactionsByTransferID removes every leg of a transfer.
func (s *transactionService) DeleteTransactionsByTransferID(ctx context.Context, userID, transferID string) error {
	if transferID == "" {
		return apperrors.ErrTransferNotFound
	}
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND transfer_id = ?", userID, transferID).
		Delete(&models.Transaction{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTransferNotFound
	}

	publish(ctx, s.bus, events.TransferDeleted, userID, transferID)
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// cleanTags trims tags and drops empty and repeated ones.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
