package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
)

type UserRepository struct {
	db *sql.DB
}

// NewUserRepository constructs a repository backed by MySQL.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user and returns its ID.
func (r *UserRepository) Create(ctx context.Context, u entity.User) (int64, error) {
	const query = `
		INSERT INTO users (email, password_hash, is_manager)
		VALUES (?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query, u.Email, u.PasswordHash, u.IsManager)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetByEmail loads a user by login email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (entity.User, error) {
	const query = `
		SELECT id, email, password_hash, is_manager
		FROM users
		WHERE email = ?
	`
	var u entity.User
	err := r.db.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsManager)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.User{}, ErrNotFound
	}
	return u, err
}

// Delete removes a user together with every client, mail and mailing it owns.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`DELETE FROM mailing_logs WHERE mailing_id IN (SELECT id FROM mailings WHERE owner_id = ?)`,
		`DELETE FROM mailing_recipients WHERE mailing_id IN (SELECT id FROM mailings WHERE owner_id = ?)`,
		`UPDATE mails SET mailing_id = NULL WHERE mailing_id IN (SELECT id FROM mailings WHERE owner_id = ?)`,
		`DELETE FROM mailings WHERE owner_id = ?`,
		`UPDATE mailings SET mail_id = NULL WHERE mail_id IN (SELECT id FROM mails WHERE owner_id = ?)`,
		`DELETE FROM mails WHERE owner_id = ?`,
		`DELETE FROM mailing_recipients WHERE client_id IN (SELECT id FROM clients WHERE owner_id = ?)`,
		`DELETE FROM clients WHERE owner_id = ?`,
		`DELETE FROM users WHERE id = ?`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("delete user %d: %w", id, err)
		}
	}
	return tx.Commit()
}
