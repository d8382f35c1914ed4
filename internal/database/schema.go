package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Usernames compare byte for byte, as in the document store, so "Alice"
// and "alice" are different accounts.
//
// schema holds one statement per entry because the MySQL driver rejects
// multi-statement Exec calls unless multiStatements=true is set on the DSN.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		username      VARCHAR(20)  COLLATE utf8mb4_bin NOT NULL PRIMARY KEY,
		password_hash VARCHAR(100) NOT NULL,
		email         VARCHAR(255) NULL,
		created_at    DATETIME     NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS restaurants (
		id         BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name       VARCHAR(255) NOT NULL,
		photo      VARCHAR(255) NOT NULL DEFAULT '',
		four_table INT          NOT NULL,
		two_table  INT          NOT NULL,
		slots      JSON         NOT NULL,
		created_at DATETIME     NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id              BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
		username        VARCHAR(20)  COLLATE utf8mb4_bin NOT NULL,
		restaurant_id   BIGINT       NOT NULL,
		restaurant_name VARCHAR(255) NOT NULL,
		four_table      INT          NOT NULL,
		two_table       INT          NOT NULL,
		booking_date    CHAR(10)     NOT NULL,
		slot            VARCHAR(32)  NOT NULL,
		special_request TEXT         NULL,
		status          ENUM('ongoing','completed','cancelled') NOT NULL DEFAULT 'ongoing',
		created_at      DATETIME     NOT NULL,
		updated_at      DATETIME     NOT NULL,
		INDEX idx_bookings_username (username),
		INDEX idx_bookings_restaurant (restaurant_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables used by the MySQL store when they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
