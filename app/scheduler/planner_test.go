package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"

	"github.com/vibast-solutions/ms-go-mailings/app/metrics"
	"github.com/vibast-solutions/ms-go-mailings/app/queue"
	"github.com/vibast-solutions/ms-go-mailings/app/repository"
)

var mailingRowColumns = []string{"id", "owner_id", "mail_id", "start_at", "next_at", "finish_at", "status", "frequency", "is_activated", "claimed_at"}

func TestPlannerPlanDue(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, 1, 1, 9, 5, 0, 0, time.UTC)
	next := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	finish := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	recentClaim := now.Add(-time.Minute)

	mock.ExpectQuery("WHERE is_activated = 1 AND status <> 'finished' AND next_at <=").
		WithArgs(now, int64(10)).
		WillReturnRows(sqlmock.NewRows(mailingRowColumns).
			AddRow(int64(1), int64(1), int64(4), next, next, finish, "created", "daily", true, nil).
			AddRow(int64(2), int64(1), int64(4), next, next, next.Add(-time.Hour), "created", "daily", true, nil).
			AddRow(int64(3), int64(1), int64(4), next, next, finish, "processing", "daily", true, recentClaim))
	mock.ExpectExec("UPDATE mailings SET status = 'finished'").
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	m := metrics.New()
	planner := NewPlanner(
		repository.NewMailingRepository(db),
		queue.NewDispatchProducer(client, 15*time.Minute),
		m,
		quietLogger(),
		10,
		15*time.Minute,
	)
	planner.now = func() time.Time { return now }

	published, err := planner.PlanDue(context.Background())
	if err != nil {
		t.Fatalf("PlanDue: %v", err)
	}
	if published != 1 {
		t.Fatalf("expected 1 published occurrence, got %d", published)
	}
	if got := client.XLen(context.Background(), queue.StreamName).Val(); got != 1 {
		t.Fatalf("expected 1 stream entry, got %d", got)
	}
	if got := testutil.ToFloat64(m.ScheduledTotal); got != 1 {
		t.Fatalf("expected scheduled metric 1, got %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
