package services

import (
	"context"
	"errors"

	"eventservices/internal/domain"
)

type identityStore struct {
	users domain.UserRepository
}

// NewIdentityStore exposes the user repository as the read-only identity view
// consumed by the booking engine.
func NewIdentityStore(users domain.UserRepository) domain.IdentityStore {
	return &identityStore{users: users}
}

func (s *identityStore) UserExists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	_, err := s.users.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RoleOf returns ErrUnknownUser when no such user exists.
func (s *identityStore) RoleOf(ctx context.Context, id string) (domain.Role, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.ErrUnknownUser
	}
	if err != nil {
		return "", err
	}
	return u.Role, nil
}
