package model

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrForbidden = errors.New("forbidden")

// ImageFilter selects a page of one user's images.
type ImageFilter struct {
	UserID uuid.UUID
	Skip   int
	Limit  int
	Tag    string
}

// ImageStore defines persistence operations for dev backend images.
type ImageStore interface {
	Create(ctx context.Context, image StoredImage) (StoredImage, error)
	Get(ctx context.Context, id uuid.UUID) (StoredImage, error)
	List(ctx context.Context, filter ImageFilter) (images []StoredImage, total int, err error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// StoredImage is a dev backend image record. The backend keeps metadata only.
type StoredImage struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	Filename           string
	OriginalPath       string
	ThumbnailPath      string
	UploadedAt         time.Time
	Description        string
	Tags               []string
	Colors             []string
	AIProcessingStatus string
}
