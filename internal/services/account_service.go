package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/events"
	"moneybook/internal/models"
)

var accountUpdateColumns = []string{"name", "type", "currency", "opening_balance", "archived"}

// accountService handles account-related business logic.
type accountService struct {
	db  *gorm.DB
	bus *events.Bus
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB, bus *events.Bus) AccountServicer {
	return &accountService{db: db, bus: bus}
}

// GetAccounts returns the user's accounts in creation order.
func (s *accountService) GetAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	accounts := []models.Account{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return accounts, nil
}

// GetAccountByID returns a single account owned by the user.
func (s *accountService) GetAccountByID(ctx context.Context, userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := findScoped(s.db.WithContext(ctx), &account, accountID, userID, apperrors.ErrAccountNotFound); err != nil {
		return nil, err
	}
	return &account, nil
}

// UpsertAccount inserts the account or overwrites the existing row with the
// same id.
func (s *accountService) UpsertAccount(ctx context.Context, userID string, account models.Account) (*models.Account, error) {
	account.UserID = userID
	account.Name = strings.TrimSpace(account.Name)
	account.Currency = strings.ToUpper(strings.TrimSpace(account.Currency))
	if account.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if account.Type != "" && !account.Type.IsValid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported account type")
	}
	account = models.NewAccount(account)

	db := s.db.WithContext(ctx)
	owner, err := ownerOf(db, &models.Account{}, account.ID, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if owner == rowForeign {
		return nil, apperrors.ErrAccountNotFound
	}

	if err := upsertByID(db, &account, accountUpdateColumns); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	saved, err := s.GetAccountByID(ctx, userID, account.ID)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.bus, events.AccountSaved, userID, saved.ID)
	return saved, nil
}

// DeleteAccount removes the account, or archives it when transactions still
// reference it from either side.
func (s *accountService) DeleteAccount(ctx context.Context, userID, accountID string) (DeleteResult, error) {
	var result DeleteResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := findScoped(tx, &account, accountID, userID, apperrors.ErrAccountNotFound); err != nil {
			return err
		}

		var refs int64
		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND (account_id = ? OR to_account_id = ?)", userID, accountID, accountID).
			Count(&refs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if refs > 0 {
			if err := tx.Model(&models.Account{}).
				Where("id = ? AND user_id = ?", accountID, userID).
				Update("archived", true).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			result = DeleteResultArchived
			return nil
		}

		if err := tx.Where("id = ? AND user_id = ?", accountID, userID).Delete(&models.Account{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		result = DeleteResultDeleted
		return nil
	})
	if err != nil {
		return "", asAppError(err)
	}

	if result == DeleteResultArchived {
		publish(ctx, s.bus, events.AccountArchived, userID, accountID)
	} else {
		publish(ctx, s.bus, events.AccountDeleted, userID, accountID)
	}
	return result, nil
}
