package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS customer_traffic (
		id UUID PRIMARY KEY,
		store_id INTEGER NOT NULL,
		customers_in INTEGER NOT NULL CHECK (customers_in >= 0),
		customers_out INTEGER NOT NULL CHECK (customers_out >= 0),
		time_stamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_customer_traffic_time_stamp ON customer_traffic (time_stamp DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_customer_traffic_store_id ON customer_traffic (store_id);`,
}

// Migrate creates the schema. Every statement is idempotent so it can run on
// each reconnect.
func Migrate(ctx context.Context, database *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := database.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
