package services

import (
	"time"

	"gorm.io/gorm"

	"moneybook/internal/events"
	"moneybook/internal/tokenstore"
)

// GatewayOptions configures NewGateway.
type GatewayOptions struct {
	Provider   string
	JWTSecret  string
	SessionTTL time.Duration
	Tokens     tokenstore.Store
	Bus        *events.Bus
}

type gateway struct {
	AuthServicer
	AccountServicer
	CategoryServicer
	TransactionServicer
	DataServicer
}

// NewGateway assembles the services over db. The same gateway serves the
// embedded and the remote backend; only the gorm dialector differs.
func NewGateway(db *gorm.DB, opts GatewayOptions) Gateway {
	return &gateway{
		AuthServicer:        NewAuthService(db, opts.Bus, opts.Tokens, opts.JWTSecret, opts.SessionTTL),
		AccountServicer:     NewAccountService(db, opts.Bus),
		CategoryServicer:    NewCategoryService(db, opts.Bus),
		TransactionServicer: NewTransactionService(db, opts.Bus),
		DataServicer:        NewDataService(db, opts.Bus, opts.Provider),
	}
}
