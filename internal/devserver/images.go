package devserver

import (
	"context"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/gallery-client/internal/model"
)

var _ model.ImageStore = (*ImageStore)(nil)

// ImageStore keeps dev backend image records in memory, newest first.
type ImageStore struct {
	mu     sync.RWMutex
	images []model.StoredImage
}

func NewImageStore() *ImageStore {
	return &ImageStore{}
}

func (s *ImageStore) Create(_ context.Context, image model.StoredImage) (model.StoredImage, error) {
	if image.ID == uuid.Nil {
		image.ID = uuid.New()
	}
	if image.UploadedAt.IsZero() {
		image.UploadedAt = time.Now().UTC()
	}
	if image.OriginalPath == "" {
		ext := path.Ext(image.Filename)
		stem := strings.TrimSuffix(image.Filename, ext)
		image.OriginalPath = image.UserID.String() + "/" + stem + "_" + uuid.NewString() + ext
	}
	if image.AIProcessingStatus == "" {
		image.AIProcessingStatus = "pending"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, _ := slices.BinarySearchFunc(s.images, image.UploadedAt, func(e model.StoredImage, t time.Time) int {
		return t.Compare(e.UploadedAt)
	})
	s.images = slices.Insert(s.images, i, image)
	return image, nil
}

func (s *ImageStore) Get(_ context.Context, id uuid.UUID) (model.StoredImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, image := range s.images {
		if image.ID == id {
			return image, nil
		}
	}
	return model.StoredImage{}, model.ErrNotFound
}

func (s *ImageStore) List(_ context.Context, filter model.ImageFilter) ([]model.StoredImage, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]model.StoredImage, 0)
	for _, image := range s.images {
		if image.UserID != filter.UserID {
			continue
		}
		if filter.Tag != "" && !hasTag(image.Tags, filter.Tag) {
			continue
		}
		matched = append(matched, image)
	}

	total := len(matched)
	start := min(filter.Skip, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	return matched[start:end], total, nil
}

func (s *ImageStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.images, func(e model.StoredImage) bool { return e.ID == id })
	if i < 0 {
		return model.ErrNotFound
	}
	s.images = slices.Delete(s.images, i, i+1)
	return nil
}

func hasTag(tags []string, tag string) bool {
	return slices.ContainsFunc(tags, func(t string) bool { return strings.EqualFold(t, tag) })
}
