// Command ledgerctl runs whole-ledger operations for one user from the shell:
// export, import, reset and demo seeding.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gorm.io/gorm"

	"moneybook/internal/config"
	"moneybook/internal/database"
	"moneybook/internal/logger"
	"moneybook/internal/models"
	"moneybook/internal/services"
)

const usage = `usage: ledgerctl -email <user email> <command> [args]

commands:
  export [file]   write the ledger as JSON to file (default stdout)
  import <file>   replace the ledger with a JSON export ("-" reads stdin)
  reset           delete every account, category and transaction
  seed            add the demo accounts, categories and transactions`

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	email := flag.String("email", "", "email of the ledger owner (required)")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if err := run(context.Background(), *email, flag.Args()); err != nil {
		logger.Get().Fatalf("ledgerctl: %v", err)
	}
}

func run(ctx context.Context, email string, args []string) error {
	if email == "" || len(args) == 0 {
		flag.Usage()
		return errors.New("missing -email or command")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return err
	}
	defer dbManager.Close()
	if err := dbManager.Migrate(); err != nil {
		return err
	}

	db := dbManager.DB()
	userID, err := lookupUser(ctx, db, email)
	if err != nil {
		return err
	}

	data := services.NewDataService(db, nil, dbManager.Provider())
	audit := services.NewAuditService(db)

	switch args[0] {
	case "export":
		return export(ctx, data, userID, args[1:])
	case "import":
		if len(args) < 2 {
			return errors.New("import needs a file")
		}
		if err := importFile(ctx, data, userID, args[1]); err != nil {
			return err
		}
		audit.Log(userID, "IMPORT_DATA", "ledger", "", "cli", map[string]any{"file": args[1]})
	case "reset":
		if err := data.ResetAll(ctx, userID); err != nil {
			return err
		}
		audit.Log(userID, "RESET_DATA", "ledger", "", "cli", nil)
	case "seed":
		if err := data.SeedDemoData(ctx, userID); err != nil {
			return err
		}
		audit.Log(userID, "SEED_DATA", "ledger", "", "cli", nil)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	logger.Get().Infow("done", "command", args[0], "email", email)
	return nil
}

func lookupUser(ctx context.Context, db *gorm.DB, email string) (string, error) {
	var user models.User
	err := db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("no user with email %s", email)
	}
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func export(ctx context.Context, data services.DataServicer, userID string, args []string) (err error) {
	snapshot, err := data.ExportData(ctx, userID)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if len(args) > 0 && args[0] != "-" {
		f, createErr := os.Create(args[0])
		if createErr != nil {
			return createErr
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close %s: %w", args[0], closeErr)
			}
		}()
		w = f
	}

	return writeSnapshot(w, snapshot)
}

func writeSnapshot(w io.Writer, snapshot *models.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshot)
}

func importFile(ctx context.Context, data services.DataServicer, userID, path string) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	var snapshot models.Snapshot
	if err := json.NewDecoder(r).Decode(&snapshot); err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	return data.ImportData(ctx, userID, snapshot)
}
