package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
	"github.com/vibast-solutions/ms-go-mailings/app/repository"
)

type AuthService struct {
	users *repository.UserRepository
	cost  int
}

// NewAuthService builds the auth service with the default bcrypt cost.
func NewAuthService(users *repository.UserRepository) *AuthService {
	return &AuthService{users: users, cost: bcrypt.DefaultCost}
}

// Authenticate checks the credentials and returns the acting user.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (entity.Actor, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return entity.Actor{}, ErrInvalidCredentials
	}
	if err != nil {
		return entity.Actor{}, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return entity.Actor{}, ErrInvalidCredentials
	}
	return entity.ActorFor(u), nil
}

// CreateUser stores a user with a bcrypt password hash.
func (s *AuthService) CreateUser(ctx context.Context, email, password string, manager bool) (entity.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return entity.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := entity.User{
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		IsManager:    manager,
	}
	id, err := s.users.Create(ctx, u)
	if err != nil {
		if repository.IsDuplicate(err) {
			return entity.User{}, fmt.Errorf("user %s: %w", u.Email, ErrDuplicateEmail)
		}
		return entity.User{}, fmt.Errorf("create user: %w", err)
	}
	u.ID = id
	return u, nil
}

// DeleteUser removes a user and everything it owns.
func (s *AuthService) DeleteUser(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if err := s.users.Delete(ctx, u.ID); err != nil {
		return fmt.Errorf("delete user %d: %w", u.ID, err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
