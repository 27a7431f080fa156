package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
	"github.com/vibast-solutions/ms-go-mailings/app/preparer"
)

var mailingRowColumns = []string{"id", "owner_id", "mail_id", "start_at", "next_at", "finish_at", "status", "frequency", "is_activated", "claimed_at"}

func int64p(v int64) *int64 { return &v }

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func mailingRow(m entity.Mailing) *sqlmock.Rows {
	var owner, mail driver.Value
	if m.OwnerID != nil {
		owner = *m.OwnerID
	}
	if m.MailID != nil {
		mail = *m.MailID
	}
	return sqlmock.NewRows(mailingRowColumns).
		AddRow(m.ID, owner, mail, m.Start, m.Next, m.Finish, string(m.Status), string(m.Frequency), m.IsActivated, nil)
}

// expectMailingGet queues the two queries issued by MailingRepository.Get.
func expectMailingGet(mock sqlmock.Sqlmock, m entity.Mailing) {
	mock.ExpectQuery("FROM mailings WHERE id").
		WithArgs(m.ID).
		WillReturnRows(mailingRow(m))
	rows := sqlmock.NewRows([]string{"client_id"})
	for _, id := range m.RecipientIDs {
		rows.AddRow(id)
	}
	mock.ExpectQuery("SELECT client_id FROM mailing_recipients").
		WithArgs(m.ID).
		WillReturnRows(rows)
}

type fakeLocker struct {
	mu         sync.Mutex
	acquireErr error
	refreshErr error
	acquired   []string
	refreshed  []string
	released   []string
}

func (l *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.acquireErr != nil {
		return l.acquireErr
	}
	l.acquired = append(l.acquired, key)
	return nil
}

func (l *fakeLocker) Refresh(_ context.Context, key string, _ time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refreshed = append(l.refreshed, key)
	return l.refreshErr
}

func (l *fakeLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released = append(l.released, key)
	return nil
}

type fakePreparer struct {
	err error
}

func (p fakePreparer) Prepare(_ context.Context, msg preparer.Message) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	return []byte("To: " + msg.Recipient + "\r\n\r\n" + msg.Content), nil
}

type fakeProvider struct {
	mu       sync.Mutex
	failures map[string]error
	onSend   func()
	sent     []string
}

func (p *fakeProvider) SendRaw(_ context.Context, recipient string, _ []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.onSend != nil {
		p.onSend()
	}
	if err := p.failures[recipient]; err != nil {
		return "", err
	}
	p.sent = append(p.sent, recipient)
	return "accepted " + recipient, nil
}

