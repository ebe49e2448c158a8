package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"moneybook/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates a RUB cash account with a zero opening balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()
	return CreateTestAccountWithBalance(t, db, userID, 0)
}

// CreateTestAccountWithBalance creates a RUB cash account with the given
// opening balance (in minor units).
func CreateTestAccountWithBalance(t *testing.T, db *gorm.DB, userID string, opening int64) *models.Account {
	t.Helper()

	account := models.NewAccount(models.Account{
		UserID:         userID,
		Name:           fmt.Sprintf("Test Account %d", nextID()),
		OpeningBalance: opening,
	})
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return &account
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := models.NewCategory(models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
	})
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return &category
}

// CreateTestTransaction creates a non-transfer transaction dated today.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID, categoryID string, txType models.TransactionType, amount int64) *models.Transaction {
	t.Helper()

	tx := models.NewTransaction(models.Transaction{
		UserID:     userID,
		AccountID:  accountID,
		CategoryID: models.StringPtr(categoryID),
		Type:       txType,
		Amount:     amount,
	})
	if err := db.Create(&tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return &tx
}

// CreateTestTransferLeg creates one leg of a transfer directly, bypassing the
// gateway. Tests use it to build orphaned or malformed transfers.
func CreateTestTransferLeg(t *testing.T, db *gorm.DB, userID, transferID, accountID, counterpartID string, txType models.TransactionType, amount int64) *models.Transaction {
	t.Helper()

	tx := models.NewTransaction(models.Transaction{
		UserID:      userID,
		TransferID:  models.StringPtr(transferID),
		AccountID:   accountID,
		ToAccountID: models.StringPtr(counterpartID),
		Type:        txType,
		Amount:      amount,
	})
	if err := db.Create(&tx).Error; err != nil {
		t.Fatalf("failed to create test transfer leg: %v", err)
	}
	return &tx
}
