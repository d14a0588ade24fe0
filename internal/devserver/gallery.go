package devserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/gallery-client/internal/logger"
	"github.com/dtroode/gallery-client/internal/model"
)

// Gallery implements the dev backend image operations.
type Gallery struct {
	images model.ImageStore
	logger *logger.Logger
}

func NewGallery(images model.ImageStore, logger *logger.Logger) *Gallery {
	return &Gallery{images: images, logger: logger}
}

// List returns one page of the user's images and the number of matches.
func (g *Gallery) List(ctx context.Context, filter model.ImageFilter) ([]model.StoredImage, int, error) {
	images, total, err := g.images.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list images: %w", err)
	}
	return images, total, nil
}

// Get returns an image owned by userID. Images of other users are reported
// as missing.
func (g *Gallery) Get(ctx context.Context, userID, id uuid.UUID) (model.StoredImage, error) {
	image, err := g.images.Get(ctx, id)
	if err != nil {
		return model.StoredImage{}, err
	}
	if image.UserID != userID {
		g.logger.Debug("Gallery service: foreign image requested", "image_id", id, "user_id", userID)
		return model.StoredImage{}, model.ErrNotFound
	}
	return image, nil
}

// Public returns any image regardless of owner.
func (g *Gallery) Public(ctx context.Context, id uuid.UUID) (model.StoredImage, error) {
	return g.images.Get(ctx, id)
}

// Delete removes an image owned by userID.
func (g *Gallery) Delete(ctx context.Context, userID, id uuid.UUID) error {
	image, err := g.images.Get(ctx, id)
	if err != nil {
		return err
	}
	if image.UserID != userID {
		g.logger.Info("Gallery service: delete of foreign image refused", "image_id", id, "user_id", userID)
		return model.ErrForbidden
	}

	if err := g.images.Delete(ctx, id); err != nil && !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	g.logger.Info("Gallery service: image deleted", "image_id", id, "user_id", userID)
	return nil
}
