package services

import (
	"context"
	"time"

	"moneybook/internal/events"
	"moneybook/internal/ledger"
	"moneybook/internal/models"
	"moneybook/internal/pagination"
)

// DeleteResult reports what a delete request actually did.
type DeleteResult string

const (
	// DeleteResultDeleted means the row was removed.
	DeleteResultDeleted DeleteResult = "deleted"
	// DeleteResultArchived means the account is still referenced and was
	// archived instead of removed.
	DeleteResultArchived DeleteResult = "archived"
	// DeleteResultBlocked means the category is still referenced and was
	// left in place.
	DeleteResultBlocked DeleteResult = "blocked"
)

// Session is a signed-in user with their access token.
type Session struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	TokenID     string       `json:"-"`
	User        *models.User `json:"user"`
}

// AuthServicer defines the contract for sign-up, sign-in and session checks.
type AuthServicer interface {
	Init(ctx context.Context) error
	SignUp(ctx context.Context, email, password, displayName string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	Session(ctx context.Context, accessToken string) (*Session, error)
	OnAuthStateChange(fn func(events.Event)) (unsubscribe func())
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	GetAccounts(ctx context.Context, userID string) ([]models.Account, error)
	GetAccountByID(ctx context.Context, userID, accountID string) (*models.Account, error)
	UpsertAccount(ctx context.Context, userID string, account models.Account) (*models.Account, error)
	DeleteAccount(ctx context.Context, userID, accountID string) (DeleteResult, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	GetCategories(ctx context.Context, userID string) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error)
	UpsertCategory(ctx context.Context, userID string, category models.Category) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) (DeleteResult, error)
}

// TransferParams describes both legs of a transfer. Empty ids are generated;
// passing the ids of an existing transfer rewrites it in place.
type TransferParams struct {
	TransferID    string
	OutID         string
	InID          string
	Date          string
	FromAccountID string
	ToAccountID   string
	Amount        int64
	Currency      string
	Note          string
}

// TransferResult holds the two persisted legs.
type TransferResult struct {
	TransferID string             `json:"transfer_id"`
	Out        models.Transaction `json:"out"`
	In         models.Transaction `json:"in"`
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	GetTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
	GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	UpsertTransaction(ctx context.Context, userID string, tx models.Transaction) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
	QueryTransactionsFiltered(ctx context.Context, userID string, filter ledger.Filter) ([]models.Transaction, error)
	UpsertTransfer(ctx context.Context, userID string, params TransferParams) (*TransferResult, error)
	DeleteTransactionsByTransferID(ctx context.Context, userID, transferID string) error
}

// DataServicer defines the contract for whole-ledger operations.
type DataServicer interface {
	ExportData(ctx context.Context, userID string) (*models.Snapshot, error)
	ImportData(ctx context.Context, userID string, snapshot models.Snapshot) error
	ResetAll(ctx context.Context, userID string) error
	SeedDemoData(ctx context.Context, userID string) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
	List(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
}

// Gateway is the storage contract the presentation layer depends on. Both
// backends implement it through the same gorm services.
type Gateway interface {
	AuthServicer
	AccountServicer
	CategoryServicer
	TransactionServicer
	DataServicer
}
