package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
)

type ClientRepository struct {
	db *sql.DB
}

// NewClientRepository constructs a repository backed by MySQL.
func NewClientRepository(db *sql.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// Create inserts a client and returns its ID.
func (r *ClientRepository) Create(ctx context.Context, c entity.Client) (int64, error) {
	const query = `
		INSERT INTO clients (owner_id, email, fullname, comment)
		VALUES (?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query, nullInt64(c.OwnerID), c.Email, c.Fullname, nullString(c.Comment))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Get loads a client by ID.
func (r *ClientRepository) Get(ctx context.Context, id int64) (entity.Client, error) {
	const query = `
		SELECT id, owner_id, email, fullname, comment
		FROM clients
		WHERE id = ?
	`
	c, err := scanClient(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Client{}, ErrNotFound
	}
	return c, err
}

// ListByOwner returns the clients owned by ownerID.
func (r *ClientRepository) ListByOwner(ctx context.Context, ownerID int64) ([]entity.Client, error) {
	const query = `
		SELECT id, owner_id, email, fullname, comment
		FROM clients
		WHERE owner_id = ?
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update overwrites the editable client fields.
func (r *ClientRepository) Update(ctx context.Context, c entity.Client) error {
	const query = `
		UPDATE clients
		SET email = ?, fullname = ?, comment = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, c.Email, c.Fullname, nullString(c.Comment), c.ID)
	return err
}

// Delete removes a client and its recipient links.
func (r *ClientRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM mailing_recipients WHERE client_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (entity.Client, error) {
	var c entity.Client
	var owner sql.NullInt64
	var comment sql.NullString
	if err := row.Scan(&c.ID, &owner, &c.Email, &c.Fullname, &comment); err != nil {
		return entity.Client{}, err
	}
	c.OwnerID = int64Ptr(owner)
	c.Comment = stringPtr(comment)
	return c, nil
}
