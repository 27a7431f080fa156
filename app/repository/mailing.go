package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
)

const mailingColumns = `id, owner_id, mail_id, start_at, next_at, finish_at, status, frequency, is_activated, claimed_at`

type MailingRepository struct {
	db *sql.DB
}

// NewMailingRepository constructs a repository backed by MySQL.
func NewMailingRepository(db *sql.DB) *MailingRepository {
	return &MailingRepository{db: db}
}

// Create inserts a mailing with its recipients and returns its ID.
func (r *MailingRepository) Create(ctx context.Context, m entity.Mailing) (int64, error) {
	const query = `
		INSERT INTO mailings (owner_id, mail_id, start_at, next_at, finish_at, status, frequency, is_activated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, query,
		nullInt64(m.OwnerID), nullInt64(m.MailID), m.Start, m.Next, m.Finish,
		string(m.Status), string(m.Frequency), m.IsActivated)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := insertRecipients(ctx, tx, id, m.RecipientIDs); err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// Get loads a mailing and its recipient IDs.
func (r *MailingRepository) Get(ctx context.Context, id int64) (entity.Mailing, error) {
	query := `SELECT ` + mailingColumns + ` FROM mailings WHERE id = ?`
	m, err := scanMailing(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Mailing{}, ErrNotFound
	}
	if err != nil {
		return entity.Mailing{}, err
	}

	m.RecipientIDs, err = r.recipientIDs(ctx, id)
	if err != nil {
		return entity.Mailing{}, err
	}
	return m, nil
}

// List returns mailings owned by ownerID, or every mailing when ownerID is nil.
// Recipient IDs are not loaded.
func (r *MailingRepository) List(ctx context.Context, ownerID *int64) ([]entity.Mailing, error) {
	var rows *sql.Rows
	var err error
	if ownerID == nil {
		rows, err = r.db.QueryContext(ctx, `SELECT `+mailingColumns+` FROM mailings ORDER BY id`)
	} else {
		rows, err = r.db.QueryContext(ctx, `SELECT `+mailingColumns+` FROM mailings WHERE owner_id = ? ORDER BY id`, *ownerID)
	}
	if err != nil {
		return nil, err
	}
	return collectMailings(rows)
}

// ListDue returns unfinished, activated mailings whose next occurrence is at
// or before now, oldest first.
func (r *MailingRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]entity.Mailing, error) {
	query := `
		SELECT ` + mailingColumns + `
		FROM mailings
		WHERE is_activated = 1 AND status <> 'finished' AND next_at <= ?
		ORDER BY next_at ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	return collectMailings(rows)
}

// Update overwrites the editable mailing fields and replaces its recipients.
func (r *MailingRepository) Update(ctx context.Context, m entity.Mailing) error {
	const query = `
		UPDATE mailings
		SET mail_id = ?, start_at = ?, next_at = ?, finish_at = ?, status = ?, frequency = ?, is_activated = ?
		WHERE id = ?
	`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, query,
		nullInt64(m.MailID), m.Start, m.Next, m.Finish,
		string(m.Status), string(m.Frequency), m.IsActivated, m.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM mailing_recipients WHERE mailing_id = ?`, m.ID); err != nil {
		return err
	}
	if err := insertRecipients(ctx, tx, m.ID, m.RecipientIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// SetActivation toggles the activation flag.
func (r *MailingRepository) SetActivation(ctx context.Context, id int64, activated bool) error {
	const query = `
		UPDATE mailings
		SET is_activated = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, activated, id)
	return err
}

// Delete removes a mailing, its logs and recipient links, and detaches mails
// that point back at it.
func (r *MailingRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`DELETE FROM mailing_logs WHERE mailing_id = ?`,
		`DELETE FROM mailing_recipients WHERE mailing_id = ?`,
		`UPDATE mails SET mailing_id = NULL WHERE mailing_id = ?`,
		`DELETE FROM mailings WHERE id = ?`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Claim marks the occurrence as processing. It succeeds only when the mailing
// is still at that occurrence and either unclaimed or claimed before
// staleBefore, so concurrent dispatchers never both win.
func (r *MailingRepository) Claim(ctx context.Context, id int64, occurrence time.Time, now time.Time, staleBefore time.Time) (bool, error) {
	const query = `
		UPDATE mailings
		SET status = 'processing', claimed_at = ?
		WHERE id = ? AND next_at = ? AND is_activated = 1
		  AND (status = 'created' OR (status = 'processing' AND (claimed_at IS NULL OR claimed_at < ?)))
	`
	res, err := r.db.ExecContext(ctx, query, now, id, occurrence, staleBefore)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Complete releases a claimed occurrence, storing the following occurrence
// and resulting status. It returns ErrClaimLost when the mailing is no longer
// processing that occurrence.
func (r *MailingRepository) Complete(ctx context.Context, id int64, occurrence time.Time, next time.Time, status entity.MailingStatus) error {
	const query = `
		UPDATE mailings
		SET next_at = ?, status = ?, claimed_at = NULL
		WHERE id = ? AND next_at = ? AND status = 'processing'
	`
	res, err := r.db.ExecContext(ctx, query, next, string(status), id, occurrence)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrClaimLost
	}
	return nil
}

// Finish marks an unfinished mailing as finished.
func (r *MailingRepository) Finish(ctx context.Context, id int64) error {
	const query = `
		UPDATE mailings
		SET status = 'finished', claimed_at = NULL
		WHERE id = ? AND status <> 'finished'
	`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// Recipients returns the clients a mailing is sent to.
func (r *MailingRepository) Recipients(ctx context.Context, mailingID int64) ([]entity.Client, error) {
	const query = `
		SELECT c.id, c.owner_id, c.email, c.fullname, c.comment
		FROM clients c
		JOIN mailing_recipients mr ON mr.client_id = c.id
		WHERE mr.mailing_id = ?
		ORDER BY c.id
	`
	rows, err := r.db.QueryContext(ctx, query, mailingID)
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

func (r *MailingRepository) recipientIDs(ctx context.Context, mailingID int64) ([]int64, error) {
	const query = `
		SELECT client_id
		FROM mailing_recipients
		WHERE mailing_id = ?
		ORDER BY client_id
	`
	rows, err := r.db.QueryContext(ctx, query, mailingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func insertRecipients(ctx context.Context, tx *sql.Tx, mailingID int64, clientIDs []int64) error {
	const query = `
		INSERT INTO mailing_recipients (mailing_id, client_id)
		VALUES (?, ?)
	`
	for _, clientID := range clientIDs {
		if _, err := tx.ExecContext(ctx, query, mailingID, clientID); err != nil {
			return err
		}
	}
	return nil
}

func collectMailings(rows *sql.Rows) ([]entity.Mailing, error) {
	defer rows.Close()

	var out []entity.Mailing
	for rows.Next() {
		m, err := scanMailing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMailing(row rowScanner) (entity.Mailing, error) {
	var m entity.Mailing
	var owner, mail sql.NullInt64
	var status, frequency string
	var claimed sql.NullTime
	if err := row.Scan(&m.ID, &owner, &mail, &m.Start, &m.Next, &m.Finish, &status, &frequency, &m.IsActivated, &claimed); err != nil {
		return entity.Mailing{}, err
	}
	m.OwnerID = int64Ptr(owner)
	m.MailID = int64Ptr(mail)
	m.Status = entity.MailingStatus(status)
	m.Frequency = entity.Frequency(frequency)
	m.ClaimedAt = timePtr(claimed)
	return m, nil
}
