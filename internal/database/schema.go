package database

import (
	"context"
	"database/sql"
	"time"
)

// Table definitions, created on startup when missing. utf8mb4 everywhere so
// Arabic donor names and messages round-trip intact.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(64) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'operator',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_refresh_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS activity_logs (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		action VARCHAR(64) NOT NULL,
		details TEXT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_activity_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS platform_settings (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		site_title VARCHAR(128) NOT NULL DEFAULT 'Donation Alerts',
		currency VARCHAR(8) NOT NULL DEFAULT 'USD',
		tts_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		tts_voice VARCHAR(64) NOT NULL DEFAULT '',
		mute_overlay BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS tier_settings (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		tier_key VARCHAR(32) NOT NULL UNIQUE,
		label VARCHAR(64) NOT NULL,
		min_amount DECIMAL(10,2) NOT NULL,
		duration_ms INT NOT NULL,
		color VARCHAR(16) NOT NULL,
		sound_url VARCHAR(512) NULL,
		background_url VARCHAR(512) NULL,
		volume INT NOT NULL DEFAULT 80,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS donations (
		id CHAR(36) PRIMARY KEY,
		donor_name VARCHAR(64) NOT NULL,
		amount DECIMAL(10,2) NOT NULL,
		message TEXT NOT NULL,
		tier VARCHAR(32) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		created_at DATETIME NOT NULL,
		displayed_at DATETIME NULL,
		INDEX idx_donations_status (status),
		INDEX idx_donations_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// defaultTiers seeds tier_settings on first start. The values match the
// built-in fallback bands so a fresh install and a configured install
// resolve identically.
var defaultTiers = []struct {
	key        string
	label      string
	minAmount  float64
	durationMS int
	color      string
}{
	{"basic", "بسيط", 0, 10_000, "#10b981"},
	{"medium", "متوسط", 10, 30_000, "#3b82f6"},
	{"professional", "احترافي", 50, 60_000, "#8b5cf6"},
	{"cinematic", "سينمائي", 100, 180_000, "#f59e0b"},
	{"legendary", "خارق", 500, 300_000, "#ef4444"},
}

// EnsureSchema creates missing tables and seeds the settings and tier rows
// an empty database needs before the first request.
func EnsureSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM platform_settings").Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		if _, err := db.ExecContext(ctx, "INSERT INTO platform_settings () VALUES ()"); err != nil {
			return err
		}
	}

	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tier_settings").Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		for _, t := range defaultTiers {
			if _, err := db.ExecContext(ctx,
				"INSERT INTO tier_settings (tier_key, label, min_amount, duration_ms, color) VALUES (?,?,?,?,?)",
				t.key, t.label, t.minAmount, t.durationMS, t.color); err != nil {
				return err
			}
		}
	}
	return nil
}
