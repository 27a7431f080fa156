package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
)

type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository constructs a read-only repository for landing page data.
func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// MailingCounts returns the total and activated mailing counts.
func (r *StatsRepository) MailingCounts(ctx context.Context) (total int64, active int64, err error) {
	const query = `
		SELECT COUNT(*), COALESCE(SUM(is_activated), 0)
		FROM mailings
	`
	err = r.db.QueryRowContext(ctx, query).Scan(&total, &active)
	return total, active, err
}

// UniqueClientEmails counts distinct client addresses.
func (r *StatsRepository) UniqueClientEmails(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT email) FROM clients`).Scan(&n)
	return n, err
}

// RecentArticles returns up to limit published blog articles, newest first.
func (r *StatsRepository) RecentArticles(ctx context.Context, limit int) ([]entity.Article, error) {
	const query = `
		SELECT id, title, LEFT(content, 200), published_at
		FROM blog_posts
		WHERE is_published = 1
		ORDER BY published_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Article
	for rows.Next() {
		var a entity.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Preview, &a.PublishedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
