package devserver

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/gallery-client/internal/model"
)

func TestAccountStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewAccountStore()

	created, err := s.Create(ctx, model.Account{Email: "Ann@Example.com", PasswordHash: []byte("h1")})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	byEmail, err := s.GetByEmail(ctx, " ann@example.com ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = s.Create(ctx, model.Account{Email: "ann@example.com"})
	assert.ErrorIs(t, err, model.ErrEmailTaken)

	require.NoError(t, s.UpdatePasswordHash(ctx, created.ID, []byte("h2")))
	byID, err := s.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("h2"), byID.PasswordHash)

	_, err = s.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.GetByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, s.UpdatePasswordHash(ctx, uuid.New(), nil), model.ErrNotFound)
}
