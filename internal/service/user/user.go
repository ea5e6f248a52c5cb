// Package user exposes the clinic's identity directory reads.
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/caretap/caretap_backend/internal/store"
)

var ErrNotFound = errors.New("user not found")

type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*store.User, error)

	// ListDoctors returns the bookable doctor directory, sorted by name.
	ListDoctors(ctx context.Context) ([]*store.User, error)
}

type userService struct {
	db store.Store
}

func New(db store.Store) Service {
	return &userService{db: db}
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*store.User, error) {
	u, err := s.db.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *userService) ListDoctors(ctx context.Context) ([]*store.User, error) {
	doctors, err := s.db.ListDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}
