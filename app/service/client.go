package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
	"github.com/vibast-solutions/ms-go-mailings/app/repository"
)

type ClientService struct {
	clients *repository.ClientRepository
}

// NewClientService builds the client service.
func NewClientService(clients *repository.ClientRepository) *ClientService {
	return &ClientService{clients: clients}
}

// List returns the actor's clients.
func (s *ClientService) List(ctx context.Context, actor entity.Actor) ([]entity.Client, error) {
	return s.clients.ListByOwner(ctx, actor.UserID)
}

// Get returns a client owned by the actor.
func (s *ClientService) Get(ctx context.Context, actor entity.Actor, id int64) (entity.Client, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return entity.Client{}, err
	}
	if !actor.Owns(c.OwnerID) {
		return entity.Client{}, ErrForbidden
	}
	return c, nil
}

// Create stores a new client owned by the actor.
func (s *ClientService) Create(ctx context.Context, actor entity.Actor, c entity.Client) (entity.Client, error) {
	owner := actor.UserID
	c.OwnerID = &owner

	id, err := s.clients.Create(ctx, c)
	if err != nil {
		if repository.IsDuplicate(err) {
			return entity.Client{}, ErrDuplicateEmail
		}
		return entity.Client{}, fmt.Errorf("create client: %w", err)
	}
	c.ID = id
	return c, nil
}

// Update overwrites a client owned by the actor.
func (s *ClientService) Update(ctx context.Context, actor entity.Actor, c entity.Client) (entity.Client, error) {
	current, err := s.load(ctx, c.ID)
	if err != nil {
		return entity.Client{}, err
	}
	if !actor.Owns(current.OwnerID) {
		return entity.Client{}, ErrForbidden
	}

	c.OwnerID = current.OwnerID
	if err := s.clients.Update(ctx, c); err != nil {
		if repository.IsDuplicate(err) {
			return entity.Client{}, ErrDuplicateEmail
		}
		return entity.Client{}, fmt.Errorf("update client %d: %w", c.ID, err)
	}
	return c, nil
}

// Delete removes a client owned by the actor.
func (s *ClientService) Delete(ctx context.Context, actor entity.Actor, id int64) error {
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Owns(current.OwnerID) {
		return ErrForbidden
	}
	if err := s.clients.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete client %d: %w", id, err)
	}
	return nil
}

func (s *ClientService) load(ctx context.Context, id int64) (entity.Client, error) {
	c, err := s.clients.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return entity.Client{}, ErrNotFound
	}
	if err != nil {
		return entity.Client{}, fmt.Errorf("load client %d: %w", id, err)
	}
	return c, nil
}
