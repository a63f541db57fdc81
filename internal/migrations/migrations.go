package migrations

import (
	"log"

	"github.com/jmoiron/sqlx"
)

// Run creates the database schema and the default settings row.
func Run(db *sqlx.DB) {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS medicines (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            brand TEXT,
            generic_name TEXT,
            category TEXT NOT NULL DEFAULT 'otc' CHECK(category IN ('prescription', 'otc', 'supplement')),
            expiry_date TEXT NOT NULL,
            purchase_date TEXT,
            quantity INTEGER NOT NULL DEFAULT 0 CHECK(quantity >= 0),
            min_threshold INTEGER NOT NULL DEFAULT 5 CHECK(min_threshold >= 0),
            batch_number TEXT,
            manufacturer TEXT,
            price REAL,
            storage_location TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS alerts (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            medicine_id INTEGER NOT NULL,
            alert_type TEXT NOT NULL CHECK(alert_type IN ('expiry', 'low_stock', 'reminder')),
            alert_date TEXT NOT NULL,
            message TEXT NOT NULL,
            is_sent BOOLEAN NOT NULL DEFAULT FALSE,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY(medicine_id) REFERENCES medicines(id)
        );`,
		// At most one expiry alert per (medicine, date) and one unsent
		// low-stock alert per medicine, even under concurrent writers.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_expiry_once
            ON alerts(medicine_id, alert_date) WHERE alert_type = 'expiry';`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_low_stock_unsent
            ON alerts(medicine_id) WHERE alert_type = 'low_stock' AND is_sent = FALSE;`,
		`CREATE TABLE IF NOT EXISTS user_settings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER UNIQUE,
            alert_days_before TEXT NOT NULL DEFAULT '[7, 15, 30]',
            notification_preferences TEXT NOT NULL DEFAULT '{"email": true, "push": true, "sound": true}',
            email_alerts BOOLEAN NOT NULL DEFAULT TRUE,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`INSERT OR IGNORE INTO user_settings (user_id) VALUES (1);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}
}
