package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
)

type LogRepository struct {
	db *sql.DB
}

// NewLogRepository constructs a repository backed by MySQL.
func NewLogRepository(db *sql.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Record appends the attempt for one recipient of one occurrence. Rows are
// never updated: a replayed write for a recipient and occurrence that already
// has a row is ignored and the first row stands.
func (r *LogRepository) Record(ctx context.Context, l entity.Log) error {
	const query = `
		INSERT IGNORE INTO mailing_logs (mailing_id, client_id, occurrence_at, attempt_time, status, server_response)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		nullInt64(l.MailingID), nullInt64(l.ClientID), l.Occurrence, l.AttemptTime, l.Status, nullString(l.ServerResponse))
	return err
}

// AttemptedClientIDs returns the clients that already have an attempt, sent
// or failed, for an occurrence.
func (r *LogRepository) AttemptedClientIDs(ctx context.Context, mailingID int64, occurrence time.Time) (map[int64]bool, error) {
	const query = `
		SELECT client_id
		FROM mailing_logs
		WHERE mailing_id = ? AND occurrence_at = ? AND client_id IS NOT NULL
	`
	rows, err := r.db.QueryContext(ctx, query, mailingID, occurrence)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempted := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		attempted[id] = true
	}
	return attempted, rows.Err()
}

// ListByMailing returns the attempts of a mailing, newest first.
func (r *LogRepository) ListByMailing(ctx context.Context, mailingID int64) ([]entity.Log, error) {
	const query = `
		SELECT id, mailing_id, client_id, occurrence_at, attempt_time, status, server_response
		FROM mailing_logs
		WHERE mailing_id = ?
		ORDER BY attempt_time DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, mailingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Log
	for rows.Next() {
		var l entity.Log
		var mailing, client sql.NullInt64
		var response sql.NullString
		if err := rows.Scan(&l.ID, &mailing, &client, &l.Occurrence, &l.AttemptTime, &l.Status, &response); err != nil {
			return nil, err
		}
		l.MailingID = int64Ptr(mailing)
		l.ClientID = int64Ptr(client)
		l.ServerResponse = stringPtr(response)
		out = append(out, l)
	}
	return out, rows.Err()
}
