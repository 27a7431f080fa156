package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
	"github.com/vibast-solutions/ms-go-mailings/app/repository"
)

var (
	owner   = entity.Actor{UserID: 1}
	other   = entity.Actor{UserID: 2}
	manager = entity.Actor{UserID: 3, IsManager: true}
)

func newMailingService(db *sql.DB) *MailingService {
	return NewMailingService(
		repository.NewMailingRepository(db),
		repository.NewMailRepository(db),
		repository.NewClientRepository(db),
		repository.NewLogRepository(db),
	)
}

func TestClientServiceCreateDuplicateEmail(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO clients").
		WithArgs(int64(1), "ann@example.com", "Ann", nil).
		WillReturnError(&mysql.MySQLError{Number: 1062})

	svc := NewClientService(repository.NewClientRepository(db))
	_, err := svc.Create(context.Background(), owner, entity.Client{Email: "ann@example.com", Fullname: "Ann"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClientServiceUpdateRejectsNonOwner(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectQuery("FROM clients WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(clientRowColumns).AddRow(int64(5), int64(1), "ann@example.com", "Ann", nil))

	svc := NewClientService(repository.NewClientRepository(db))
	_, err := svc.Update(context.Background(), other, entity.Client{ID: 5, Email: "x@example.com", Fullname: "X"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClientServiceDeleteMissing(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectQuery("FROM clients WHERE id").WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

	svc := NewClientService(repository.NewClientRepository(db))
	if err := svc.Delete(context.Background(), owner, 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClientAndMailGetAreOwnerOnly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		actor entity.Actor
		want  error
	}{
		{name: "owner", actor: owner},
		{name: "other user", actor: other, want: ErrForbidden},
		{name: "manager", actor: manager, want: ErrForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			db, mock := newMockDB(t)
			mock.ExpectQuery("FROM clients WHERE id").
				WithArgs(int64(5)).
				WillReturnRows(sqlmock.NewRows(clientRowColumns).AddRow(int64(5), int64(1), "ann@example.com", "Ann", nil))
			mock.ExpectQuery("FROM mails WHERE id").
				WithArgs(int64(4)).
				WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "subject", "content", "mailing_id"}).
					AddRow(int64(4), int64(1), "Hello", "Body", nil))

			clients := NewClientService(repository.NewClientRepository(db))
			if _, err := clients.Get(context.Background(), tc.actor, 5); !errors.Is(err, tc.want) {
				t.Fatalf("client Get: expected %v, got %v", tc.want, err)
			}
			mails := NewMailService(repository.NewMailRepository(db), repository.NewMailingRepository(db))
			if _, err := mails.Get(context.Background(), tc.actor, 4); !errors.Is(err, tc.want) {
				t.Fatalf("mail Get: expected %v, got %v", tc.want, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("expectations: %v", err)
			}
		})
	}
}

func TestMailServiceCreateRejectsForeignMailing(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	foreign := dailyMailing()
	foreign.OwnerID = int64p(2)
	expectMailingGet(mock, foreign)

	svc := NewMailService(repository.NewMailRepository(db), repository.NewMailingRepository(db))
	_, err := svc.Create(context.Background(), owner, entity.Mail{Subject: "s", Content: "c", MailingID: &foreign.ID})
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMailingServiceCreateDefaults(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	finish := now.AddDate(0, 1, 0)

	mock.ExpectQuery("FROM mails WHERE id").
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "subject", "content", "mailing_id"}).
			AddRow(int64(4), int64(1), "s", "c", nil))
	mock.ExpectQuery("FROM clients WHERE id").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(clientRowColumns).AddRow(int64(2), int64(1), "ann@example.com", "Ann", nil))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO mailings").
		WithArgs(int64(1), int64(4), now, now, finish, "created", "weekly", true).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec("INSERT INTO mailing_recipients").
		WithArgs(int64(11), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := newMailingService(db)
	svc.now = func() time.Time { return now }

	got, err := svc.Create(context.Background(), owner, entity.Mailing{
		MailID:       int64p(4),
		RecipientIDs: []int64{2},
		Finish:       finish,
		Status:       entity.MailingStatusFinished,
		Frequency:    entity.FrequencyWeekly,
		IsActivated:  true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID != 11 || got.Status != entity.MailingStatusCreated || !got.Next.Equal(now) {
		t.Fatalf("unexpected mailing: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMailingServiceCreateRejectsForeignRecipient(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectQuery("FROM clients WHERE id").
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows(clientRowColumns).AddRow(int64(8), int64(2), "bob@example.com", "Bob", nil))

	_, err := newMailingService(db).Create(context.Background(), owner, entity.Mailing{
		RecipientIDs: []int64{8},
		Finish:       time.Now().Add(time.Hour),
		Frequency:    entity.FrequencyOnce,
	})
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMailingServiceSetActivation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		actor   entity.Actor
		allowed bool
	}{
		{name: "owner", actor: owner, allowed: true},
		{name: "manager", actor: manager, allowed: true},
		{name: "other user", actor: other, allowed: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			db, mock := newMockDB(t)
			m := dailyMailing()
			expectMailingGet(mock, m)
			if tc.allowed {
				mock.ExpectExec("UPDATE mailings SET is_activated").
					WithArgs(false, m.ID).
					WillReturnResult(sqlmock.NewResult(0, 1))
			}

			got, err := newMailingService(db).SetActivation(context.Background(), tc.actor, m.ID, false)
			if tc.allowed {
				if err != nil {
					t.Fatalf("SetActivation: %v", err)
				}
				if got.IsActivated {
					t.Fatalf("expected deactivated mailing")
				}
			} else if !errors.Is(err, ErrForbidden) {
				t.Fatalf("expected ErrForbidden, got %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("expectations: %v", err)
			}
		})
	}
}

func TestMailingServiceUpdateKeepsStatus(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	current := dailyMailing()
	current.Status = entity.MailingStatusFinished
	current.RecipientIDs = nil
	current.MailID = nil
	expectMailingGet(mock, current)

	newFinish := current.Finish.AddDate(0, 0, 5)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE mailings").
		WithArgs(nil, current.Start, current.Next, newFinish, "finished", "weekly", true, current.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM mailing_recipients").WithArgs(current.ID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	got, err := newMailingService(db).Update(context.Background(), owner, entity.Mailing{
		ID:          current.ID,
		Finish:      newFinish,
		Status:      entity.MailingStatusCreated,
		Frequency:   entity.FrequencyWeekly,
		IsActivated: true,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != entity.MailingStatusFinished {
		t.Fatalf("expected status carried over, got %s", got.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMailingServiceDeleteRejectsManagerOfForeignMailing(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	expectMailingGet(mock, dailyMailing())

	if err := newMailingService(db).Delete(context.Background(), manager, 7); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMailingServiceListScopesByActor(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectQuery("FROM mailings WHERE owner_id").
		WithArgs(int64(1)).
		WillReturnRows(mailingRow(dailyMailing()))
	mock.ExpectQuery("FROM mailings ORDER BY id").
		WillReturnRows(mailingRow(dailyMailing()))

	svc := newMailingService(db)
	if _, err := svc.List(context.Background(), owner); err != nil {
		t.Fatalf("List owner: %v", err)
	}
	if _, err := svc.List(context.Background(), manager); err != nil {
		t.Fatalf("List manager: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
