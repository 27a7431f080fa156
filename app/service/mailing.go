package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
	"github.com/vibast-solutions/ms-go-mailings/app/repository"
)

type MailingService struct {
	mailings *repository.MailingRepository
	mails    *repository.MailRepository
	clients  *repository.ClientRepository
	logs     *repository.LogRepository
	now      func() time.Time
}

// NewMailingService builds the mailing service.
func NewMailingService(
	mailings *repository.MailingRepository,
	mails *repository.MailRepository,
	clients *repository.ClientRepository,
	logs *repository.LogRepository,
) *MailingService {
	return &MailingService{
		mailings: mailings,
		mails:    mails,
		clients:  clients,
		logs:     logs,
		now:      time.Now,
	}
}

// List returns the actor's mailings. Managers see every mailing.
func (s *MailingService) List(ctx context.Context, actor entity.Actor) ([]entity.Mailing, error) {
	if actor.IsManager {
		return s.mailings.List(ctx, nil)
	}
	owner := actor.UserID
	return s.mailings.List(ctx, &owner)
}

// Get returns a mailing visible to the actor.
func (s *MailingService) Get(ctx context.Context, actor entity.Actor, id int64) (entity.Mailing, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return entity.Mailing{}, err
	}
	if !actor.Owns(m.OwnerID) && !actor.IsManager {
		return entity.Mailing{}, ErrForbidden
	}
	return m, nil
}

// Create stores a new mailing owned by the actor. Start defaults to now and
// next defaults to start.
func (s *MailingService) Create(ctx context.Context, actor entity.Actor, m entity.Mailing) (entity.Mailing, error) {
	if err := s.checkReferences(ctx, actor, m); err != nil {
		return entity.Mailing{}, err
	}

	owner := actor.UserID
	m.OwnerID = &owner
	m.Status = entity.MailingStatusCreated
	m.ClaimedAt = nil
	if m.Start.IsZero() {
		m.Start = s.now().UTC().Truncate(time.Second)
	}
	if m.Next.IsZero() {
		m.Next = m.Start
	}

	id, err := s.mailings.Create(ctx, m)
	if err != nil {
		return entity.Mailing{}, fmt.Errorf("create mailing: %w", err)
	}
	m.ID = id
	return m, nil
}

// Update overwrites a mailing owned by the actor. The status belongs to the
// dispatcher and is carried over unchanged.
func (s *MailingService) Update(ctx context.Context, actor entity.Actor, m entity.Mailing) (entity.Mailing, error) {
	current, err := s.load(ctx, m.ID)
	if err != nil {
		return entity.Mailing{}, err
	}
	if !actor.Owns(current.OwnerID) {
		return entity.Mailing{}, ErrForbidden
	}
	if err := s.checkReferences(ctx, actor, m); err != nil {
		return entity.Mailing{}, err
	}

	m.OwnerID = current.OwnerID
	m.Status = current.Status
	m.ClaimedAt = current.ClaimedAt
	if m.Start.IsZero() {
		m.Start = current.Start
	}
	if m.Next.IsZero() {
		m.Next = current.Next
	}

	if err := s.mailings.Update(ctx, m); err != nil {
		return entity.Mailing{}, fmt.Errorf("update mailing %d: %w", m.ID, err)
	}
	return m, nil
}

// SetActivation toggles a mailing on or off. Owners and managers may do this.
func (s *MailingService) SetActivation(ctx context.Context, actor entity.Actor, id int64, activated bool) (entity.Mailing, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return entity.Mailing{}, err
	}
	if !actor.Owns(m.OwnerID) && !actor.IsManager {
		return entity.Mailing{}, ErrForbidden
	}

	if err := s.mailings.SetActivation(ctx, id, activated); err != nil {
		return entity.Mailing{}, fmt.Errorf("set activation of mailing %d: %w", id, err)
	}
	m.IsActivated = activated
	return m, nil
}

// Delete removes a mailing owned by the actor together with its logs.
func (s *MailingService) Delete(ctx context.Context, actor entity.Actor, id int64) error {
	m, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Owns(m.OwnerID) {
		return ErrForbidden
	}
	if err := s.mailings.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete mailing %d: %w", id, err)
	}
	return nil
}

// ListLogs returns the delivery attempts of a mailing.
func (s *MailingService) ListLogs(ctx context.Context, actor entity.Actor, id int64) ([]entity.Log, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(m.OwnerID) && !actor.IsManager {
		return nil, ErrForbidden
	}
	return s.logs.ListByMailing(ctx, id)
}

func (s *MailingService) checkReferences(ctx context.Context, actor entity.Actor, m entity.Mailing) error {
	if m.MailID != nil {
		mail, err := s.mails.Get(ctx, *m.MailID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidReference
		}
		if err != nil {
			return fmt.Errorf("load mail %d: %w", *m.MailID, err)
		}
		if !actor.Owns(mail.OwnerID) {
			return ErrInvalidReference
		}
	}

	for _, clientID := range m.RecipientIDs {
		c, err := s.clients.Get(ctx, clientID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidReference
		}
		if err != nil {
			return fmt.Errorf("load client %d: %w", clientID, err)
		}
		if !actor.Owns(c.OwnerID) {
			return ErrInvalidReference
		}
	}
	return nil
}

func (s *MailingService) load(ctx context.Context, id int64) (entity.Mailing, error) {
	m, err := s.mailings.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return entity.Mailing{}, ErrNotFound
	}
	if err != nil {
		return entity.Mailing{}, fmt.Errorf("load mailing %d: %w", id, err)
	}
	return m, nil
}
