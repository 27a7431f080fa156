package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/vibast-solutions/ms-go-mailings/app/entity"
)

var mailingRowColumns = []string{"id", "owner_id", "mail_id", "start_at", "next_at", "finish_at", "status", "frequency", "is_activated", "claimed_at"}

func TestMailingRepositoryCreateWithRecipients(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	finish := start.AddDate(0, 0, 2)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO mailings").
		WithArgs(int64(1), int64(4), start, start, finish, "created", "daily", true).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec("INSERT INTO mailing_recipients").
		WithArgs(int64(10), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO mailing_recipients").
		WithArgs(int64(10), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := NewMailingRepository(db).Create(context.Background(), entity.Mailing{
		OwnerID:      int64p(1),
		MailID:       int64p(4),
		RecipientIDs: []int64{2, 3},
		Start:        start,
		Next:         start,
		Finish:       finish,
		Status:       entity.MailingStatusCreated,
		Frequency:    entity.FrequencyDaily,
		IsActivated:  true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 10 {
		t.Fatalf("expected id 10, got %d", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMailingRepositoryCreateRollsBackOnRecipientFailure(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO mailings").WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec("INSERT INTO mailing_recipients").WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	_, err = NewMailingRepository(db).Create(context.Background(), entity.Mailing{
		RecipientIDs: []int64{99},
		Status:       entity.MailingStatusCreated,
		Frequency:    entity.FrequencyOnce,
	})
	if err == nil {
		t.Fatalf("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMailingRepositoryGet(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM mailings WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(mailingRowColumns).
			AddRow(int64(5), int64(1), nil, start, start, start.AddDate(0, 1, 0), "created", "weekly", true, nil))
	mock.ExpectQuery("SELECT client_id FROM mailing_recipients").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"client_id"}).AddRow(int64(2)).AddRow(int64(8)))

	m, err := NewMailingRepository(db).Get(context.Background(), 5)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if m.MailID != nil || m.Frequency != entity.FrequencyWeekly || len(m.RecipientIDs) != 2 || m.RecipientIDs[1] != 8 {
		t.Fatalf("unexpected mailing: %+v", m)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMailingRepositoryDeleteCascades(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM mailing_logs").WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM mailing_recipients").WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE mails SET mailing_id = NULL").WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM mailings").WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := NewMailingRepository(db).Delete(context.Background(), 5); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMailingRepositoryClaim(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	repo := NewMailingRepository(db)
	occurrence := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	now := occurrence.Add(5 * time.Minute)
	stale := now.Add(-15 * time.Minute)

	mock.ExpectExec("UPDATE mailings SET status = 'processing'").
		WithArgs(now, int64(5), occurrence, stale).
		WillReturnResult(sqlmock.NewResult(0, 1))
	claimed, err := repo.Claim(context.Background(), 5, occurrence, now, stale)
	if err != nil || !claimed {
		t.Fatalf("expected claim, got %v %v", claimed, err)
	}

	mock.ExpectExec("UPDATE mailings SET status = 'processing'").
		WithArgs(now, int64(5), occurrence, stale).
		WillReturnResult(sqlmock.NewResult(0, 0))
	claimed, err = repo.Claim(context.Background(), 5, occurrence, now, stale)
	if err != nil || claimed {
		t.Fatalf("expected no claim, got %v %v", claimed, err)
	}

	next := occurrence.AddDate(0, 0, 1)
	mock.ExpectExec("UPDATE mailings SET next_at").
		WithArgs(next, "created", int64(5), occurrence).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Complete(context.Background(), 5, occurrence, next, entity.MailingStatusCreated); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	mock.ExpectExec("UPDATE mailings SET next_at").
		WithArgs(next, "created", int64(5), occurrence).
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.Complete(context.Background(), 5, occurrence, next, entity.MailingStatusCreated); !errors.Is(err, ErrClaimLost) {
		t.Fatalf("expected ErrClaimLost, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMailingRepositoryListDue(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2024, 1, 1, 9, 5, 0, 0, time.UTC)
	next := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("WHERE is_activated = 1 AND status <> 'finished' AND next_at <=").
		WithArgs(now, 50).
		WillReturnRows(sqlmock.NewRows(mailingRowColumns).
			AddRow(int64(1), int64(1), int64(2), next, next, next.AddDate(0, 0, 2), "created", "daily", true, nil).
			AddRow(int64(2), nil, int64(3), next, next, next.AddDate(0, 0, 2), "processing", "once", true, now))

	due, err := NewMailingRepository(db).ListDue(context.Background(), now, 50)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected 2 mailings, got %d", len(due))
	}
	if due[1].OwnerID != nil || due[1].ClaimedAt == nil || due[1].Status != entity.MailingStatusProcessing {
		t.Fatalf("unexpected second mailing: %+v", due[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
