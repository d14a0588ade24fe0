package model

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email is already registered")
)

// AccountStore defines persistence operations for dev backend accounts.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)
	Create(ctx context.Context, account Account) (Account, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error
}

// Account is a dev backend user with its password hash.
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
