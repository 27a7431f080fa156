package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates any missing table. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		migrationUsers,
		migrationClients,
		migrationMailings,
		migrationMails,
		migrationMailingRecipients,
		migrationMailingLogs,
		migrationBlogPosts,
	}

	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

const migrationUsers = `
CREATE TABLE IF NOT EXISTS users (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    email VARCHAR(254) NOT NULL UNIQUE,
    password_hash VARCHAR(100) NOT NULL,
    is_manager TINYINT(1) NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`

const migrationClients = `
CREATE TABLE IF NOT EXISTS clients (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    owner_id BIGINT NULL,
    email VARCHAR(100) NOT NULL UNIQUE,
    fullname VARCHAR(50) NOT NULL,
    comment TEXT NULL,
    KEY idx_clients_owner (owner_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`

const migrationMailings = `
CREATE TABLE IF NOT EXISTS mailings (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    owner_id BIGINT NULL,
    mail_id BIGINT NULL,
    start_at DATETIME(6) NOT NULL,
    next_at DATETIME(6) NOT NULL,
    finish_at DATETIME(6) NOT NULL,
    status VARCHAR(15) NOT NULL DEFAULT 'created',
    frequency VARCHAR(15) NOT NULL,
    is_activated TINYINT(1) NOT NULL DEFAULT 1,
    claimed_at DATETIME(6) NULL,
    KEY idx_mailings_owner (owner_id),
    KEY idx_mailings_due (is_activated, status, next_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`

const migrationMails = `
CREATE TABLE IF NOT EXISTS mails (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    owner_id BIGINT NULL,
    subject VARCHAR(150) NOT NULL,
    content TEXT NOT NULL,
    mailing_id BIGINT NULL,
    KEY idx_mails_owner (owner_id),
    KEY idx_mails_mailing (mailing_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`

const migrationMailingRecipients = `
CREATE TABLE IF NOT EXISTS mailing_recipients (
    mailing_id BIGINT NOT NULL,
    client_id BIGINT NOT NULL,
    PRIMARY KEY (mailing_id, client_id),
    KEY idx_recipients_client (client_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`

const migrationMailingLogs = `
CREATE TABLE IF NOT EXISTS mailing_logs (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    mailing_id BIGINT NULL,
    client_id BIGINT NULL,
    occurrence_at DATETIME(6) NOT NULL,
    attempt_time DATETIME(6) NOT NULL,
    status VARCHAR(50) NOT NULL DEFAULT 'attempt not initiated',
    server_response TEXT NULL,
    UNIQUE KEY uniq_logs_attempt (mailing_id, occurrence_at, client_id),
    KEY idx_logs_attempt_time (attempt_time)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`

const migrationBlogPosts = `
CREATE TABLE IF NOT EXISTS blog_posts (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    title VARCHAR(200) NOT NULL,
    content TEXT NOT NULL,
    is_published TINYINT(1) NOT NULL DEFAULT 0,
    published_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`
