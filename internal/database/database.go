package database

import (
	"errors"
	"fmt"
	"time"

	"moneybook/internal/config"
	"moneybook/internal/logger"
	"moneybook/internal/models"
	"moneybook/migrations"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Models lists every table of the embedded backend, in creation order.
var Models = []any{
	&models.User{},
	&models.Account{},
	&models.Category{},
	&models.Transaction{},
	&models.AuditLog{},
}

// Manager owns the single database handle of the process. The backend is
// chosen once, when the manager is created.
type Manager struct {
	db     *gorm.DB
	config *Config
}

// NewManager opens the embedded SQLite file or the remote Postgres database
// depending on config.Backend.
func NewManager(cfg *Config) (*Manager, error) {
	gormCfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	}

	var dialector gorm.Dialector
	switch cfg.Backend {
	case config.BackendRemote:
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN(),
			PreferSimpleProtocol: true, // Required for Supabase Supavisor; harmless for direct connections
		})
	case config.BackendLocal:
		dialector = sqlite.Open(cfg.SQLitePath + "?_foreign_keys=on&_busy_timeout=5000")
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	if cfg.Backend == config.BackendRemote {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// SQLite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}

	logger.Get().Infow("database opened", "backend", cfg.Backend, "provider", cfg.Provider())
	return &Manager{db: db, config: cfg}, nil
}

// Migrate brings the schema up to date: SQL migrations on the remote backend,
// auto-migration of the models on the embedded one.
func (m *Manager) Migrate() error {
	if m.config.Backend == config.BackendRemote {
		return m.RunMigrations()
	}
	logger.Get().Info("Auto-migrating embedded database...")
	if err := m.db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	return nil
}

// RunMigrations applies pending SQL migrations embedded in the migrations package.
func (m *Manager) RunMigrations() error {
	logger.Get().Info("Running database migrations...")

	mig, err := NewMigrator(m.config)
	if err != nil {
		return err
	}
	defer func() {
		srcErr, dbErr := mig.Close()
		if srcErr != nil {
			logger.Get().Warnf("migrate source close error: %v", srcErr)
		}
		if dbErr != nil {
			logger.Get().Warnf("migrate database close error: %v", dbErr)
		}
	}()

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Get().Info("Database migrations completed successfully")
	return nil
}

// NewMigrator returns a golang-migrate instance for the remote database.
func NewMigrator(cfg *Config) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	mig, err := migrate.NewWithSourceInstance("iofs", src, cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return mig, nil
}

// DB returns the underlying GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Provider names the active backend.
func (m *Manager) Provider() string {
	return m.config.Provider()
}

// Close releases the connection pool.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
