package main

import (
	"log"
	"os"

	"refund-lifecycle-be/internal/model"
	"refund-lifecycle-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	models := []interface{}{
		&model.Customer{},
		&model.Order{},
		&model.Refund{},
		&model.RefundLedgerEntry{},
		&model.ProductionItem{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 3. Post-Migration: append-only ledger guard
	log.Println("Creating ledger guard...")

	postMigrationSQL := []string{
		`CREATE OR REPLACE FUNCTION refund_ledger_append_only() RETURNS trigger LANGUAGE plpgsql AS $$
		BEGIN
		  RAISE EXCEPTION 'refund_ledger_entries is append-only';
		END; $$;`,
		`DROP TRIGGER IF EXISTS refund_ledger_no_update ON refund_ledger_entries;`,
		`CREATE TRIGGER refund_ledger_no_update BEFORE UPDATE OR DELETE ON refund_ledger_entries
		 FOR EACH ROW EXECUTE FUNCTION refund_ledger_append_only();`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
