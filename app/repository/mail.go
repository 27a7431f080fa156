package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
)

type MailRepository struct {
	db *sql.DB
}

// NewMailRepository constructs a repository backed by MySQL.
func NewMailRepository(db *sql.DB) *MailRepository {
	return &MailRepository{db: db}
}

// Create inserts a mail and returns its ID.
func (r *MailRepository) Create(ctx context.Context, m entity.Mail) (int64, error) {
	const query = `
		INSERT INTO mails (owner_id, subject, content, mailing_id)
		VALUES (?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query, nullInt64(m.OwnerID), m.Subject, m.Content, nullInt64(m.MailingID))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Get loads a mail by ID.
func (r *MailRepository) Get(ctx context.Context, id int64) (entity.Mail, error) {
	const query = `
		SELECT id, owner_id, subject, content, mailing_id
		FROM mails
		WHERE id = ?
	`
	m, err := scanMail(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Mail{}, ErrNotFound
	}
	return m, err
}

// ListByOwner returns the mails owned by ownerID.
func (r *MailRepository) ListByOwner(ctx context.Context, ownerID int64) ([]entity.Mail, error) {
	const query = `
		SELECT id, owner_id, subject, content, mailing_id
		FROM mails
		WHERE owner_id = ?
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Mail
	for rows.Next() {
		m, err := scanMail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update overwrites the editable mail fields.
func (r *MailRepository) Update(ctx context.Context, m entity.Mail) error {
	const query = `
		UPDATE mails
		SET subject = ?, content = ?, mailing_id = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, m.Subject, m.Content, nullInt64(m.MailingID), m.ID)
	return err
}

// Delete removes a mail and detaches it from any mailing that sends it.
func (r *MailRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE mailings SET mail_id = NULL WHERE mail_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM mails WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func scanMail(row rowScanner) (entity.Mail, error) {
	var m entity.Mail
	var owner, mailing sql.NullInt64
	if err := row.Scan(&m.ID, &owner, &m.Subject, &m.Content, &mailing); err != nil {
		return entity.Mail{}, err
	}
	m.OwnerID = int64Ptr(owner)
	m.MailingID = int64Ptr(mailing)
	return m, nil
}
