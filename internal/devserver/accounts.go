package devserver

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dtroode/gallery-client/internal/model"
)

var _ model.AccountStore = (*AccountStore)(nil)

// AccountStore keeps dev backend accounts in memory.
type AccountStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]model.Account
	byEmail map[string]uuid.UUID
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		byID:    make(map[uuid.UUID]model.Account),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *AccountStore) GetByEmail(_ context.Context, email string) (model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return model.Account{}, model.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *AccountStore) GetByID(_ context.Context, id uuid.UUID) (model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.byID[id]
	if !ok {
		return model.Account{}, model.ErrNotFound
	}
	return account, nil
}

func (s *AccountStore) Create(_ context.Context, account model.Account) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(account.Email)
	if _, ok := s.byEmail[email]; ok {
		return model.Account{}, model.ErrEmailTaken
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}

	s.byID[account.ID] = account
	s.byEmail[email] = account.ID
	return account, nil
}

func (s *AccountStore) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[id]
	if !ok {
		return model.ErrNotFound
	}
	account.PasswordHash = hash
	s.byID[id] = account
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
