package devserver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/gallery-client/internal/model"
	"github.com/dtroode/gallery-client/internal/testutil"
)

func TestImageStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewImageStore()
	owner := uuid.New()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	older, err := s.Create(ctx, model.StoredImage{UserID: owner, Filename: "old.jpg", UploadedAt: base})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, older.ID)
	assert.Equal(t, "pending", older.AIProcessingStatus)
	assert.True(t, strings.HasPrefix(older.OriginalPath, owner.String()+"/old_"), older.OriginalPath)
	assert.True(t, strings.HasSuffix(older.OriginalPath, ".jpg"), older.OriginalPath)

	newer, err := s.Create(ctx, model.StoredImage{UserID: owner, Filename: "new.jpg", UploadedAt: base.Add(time.Hour), Tags: []string{"Sky"}})
	require.NoError(t, err)
	_, err = s.Create(ctx, model.StoredImage{UserID: uuid.New(), Filename: "other.jpg", UploadedAt: base})
	require.NoError(t, err)

	images, total, err := s.List(ctx, model.ImageFilter{UserID: owner})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, images, 2)
	assert.Equal(t, newer.ID, images[0].ID)
	assert.Equal(t, older.ID, images[1].ID)

	images, total, err = s.List(ctx, model.ImageFilter{UserID: owner, Skip: 1, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, images, 1)
	assert.Equal(t, older.ID, images[0].ID)

	images, _, err = s.List(ctx, model.ImageFilter{UserID: owner, Skip: 10, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, images)

	images, total, err = s.List(ctx, model.ImageFilter{UserID: owner, Tag: "sky"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, newer.ID, images[0].ID)

	require.NoError(t, s.Delete(ctx, newer.ID))
	_, err = s.Get(ctx, newer.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, newer.ID), model.ErrNotFound)

	got, err := s.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "old.jpg", got.Filename)
}

func TestGallery_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewImageStore()
	g := NewGallery(store, testutil.MakeNoopLogger())
	owner := uuid.New()

	image, err := store.Create(ctx, model.StoredImage{UserID: owner, Filename: "a.jpg"})
	require.NoError(t, err)

	assert.ErrorIs(t, g.Delete(ctx, uuid.New(), image.ID), model.ErrForbidden)
	_, err = g.Get(ctx, uuid.New(), image.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, g.Delete(ctx, owner, image.ID))
	assert.ErrorIs(t, g.Delete(ctx, owner, image.ID), model.ErrNotFound)
}
