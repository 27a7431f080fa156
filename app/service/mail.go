package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
	"github.com/vibast-solutions/ms-go-mailings/app/repository"
)

type MailService struct {
	mails    *repository.MailRepository
	mailings *repository.MailingRepository
}

// NewMailService builds the mail service.
func NewMailService(mails *repository.MailRepository, mailings *repository.MailingRepository) *MailService {
	return &MailService{mails: mails, mailings: mailings}
}

// List returns the actor's mails.
func (s *MailService) List(ctx context.Context, actor entity.Actor) ([]entity.Mail, error) {
	return s.mails.ListByOwner(ctx, actor.UserID)
}

// Get returns a mail owned by the actor.
func (s *MailService) Get(ctx context.Context, actor entity.Actor, id int64) (entity.Mail, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return entity.Mail{}, err
	}
	if !actor.Owns(m.OwnerID) {
		return entity.Mail{}, ErrForbidden
	}
	return m, nil
}

// Create stores a new mail owned by the actor.
func (s *MailService) Create(ctx context.Context, actor entity.Actor, m entity.Mail) (entity.Mail, error) {
	if err := s.checkMailing(ctx, actor, m.MailingID); err != nil {
		return entity.Mail{}, err
	}

	owner := actor.UserID
	m.OwnerID = &owner
	id, err := s.mails.Create(ctx, m)
	if err != nil {
		return entity.Mail{}, fmt.Errorf("create mail: %w", err)
	}
	m.ID = id
	return m, nil
}

// Update overwrites a mail owned by the actor.
func (s *MailService) Update(ctx context.Context, actor entity.Actor, m entity.Mail) (entity.Mail, error) {
	current, err := s.load(ctx, m.ID)
	if err != nil {
		return entity.Mail{}, err
	}
	if !actor.Owns(current.OwnerID) {
		return entity.Mail{}, ErrForbidden
	}
	if err := s.checkMailing(ctx, actor, m.MailingID); err != nil {
		return entity.Mail{}, err
	}

	m.OwnerID = current.OwnerID
	if err := s.mails.Update(ctx, m); err != nil {
		return entity.Mail{}, fmt.Errorf("update mail %d: %w", m.ID, err)
	}
	return m, nil
}

// Delete removes a mail owned by the actor.
func (s *MailService) Delete(ctx context.Context, actor entity.Actor, id int64) error {
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Owns(current.OwnerID) {
		return ErrForbidden
	}
	if err := s.mails.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete mail %d: %w", id, err)
	}
	return nil
}

// checkMailing ensures the optional mailing back-reference is the actor's.
func (s *MailService) checkMailing(ctx context.Context, actor entity.Actor, mailingID *int64) error {
	if mailingID == nil {
		return nil
	}
	mailing, err := s.mailings.Get(ctx, *mailingID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidReference
	}
	if err != nil {
		return fmt.Errorf("load mailing %d: %w", *mailingID, err)
	}
	if !actor.Owns(mailing.OwnerID) {
		return ErrInvalidReference
	}
	return nil
}

func (s *MailService) load(ctx context.Context, id int64) (entity.Mail, error) {
	m, err := s.mails.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return entity.Mail{}, ErrNotFound
	}
	if err != nil {
		return entity.Mail{}, fmt.Errorf("load mail %d: %w", id, err)
	}
	return m, nil
}
