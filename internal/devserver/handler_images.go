package devserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dtroode/gallery-client/internal/model"
)

// naiveTimeLayout matches the backend's timezone-less UTC timestamps.
const naiveTimeLayout = "2006-01-02T15:04:05.999999"

type listImagesQuery struct {
	Skip  int    `form:"skip,default=0" binding:"min=0"`
	Limit int    `form:"limit,default=20" binding:"min=1,max=100"`
	Tag   string `form:"tag"`
}

type imageData struct {
	ID                 string   `json:"id"`
	Filename           string   `json:"filename"`
	OriginalPath       string   `json:"original_path"`
	ThumbnailPath      *string  `json:"thumbnail_path"`
	UserID             string   `json:"user_id"`
	UploadedAt         string   `json:"uploaded_at"`
	Description        *string  `json:"description"`
	Tags               []string `json:"tags"`
	Colors             []string `json:"colors"`
	AIProcessingStatus string   `json:"ai_processing_status"`
}

type imagePage struct {
	Data     []imageData `json:"data"`
	Count    int         `json:"count"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Message  string      `json:"message"`
}

type publicImageData struct {
	ID          string   `json:"id"`
	Filename    string   `json:"filename"`
	UserID      string   `json:"user_id"`
	UploadedAt  string   `json:"uploaded_at"`
	URL         string   `json:"url"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
	Colors      []string `json:"colors"`
}

func (h *Handler) ListImages(c *gin.Context) {
	userID, ok := h.contextManager.GetUserIDFromContext(c.Request.Context())
	if !ok {
		abortDetail(c, http.StatusUnauthorized, "Access token not found")
		return
	}

	var q listImagesQuery
	if !bindQuery(c, &q) {
		return
	}

	images, total, err := h.gallery.List(c.Request.Context(), model.ImageFilter{
		UserID: userID,
		Skip:   q.Skip,
		Limit:  q.Limit,
		Tag:    q.Tag,
	})
	if err != nil {
		_ = c.Error(err)
		abortDetail(c, http.StatusBadRequest, "Failed to list images")
		return
	}

	data := make([]imageData, 0, len(images))
	for _, image := range images {
		data = append(data, newImageData(image))
	}

	c.JSON(http.StatusOK, imagePage{
		Data:     data,
		Count:    len(data),
		Total:    total,
		Page:     q.Skip/q.Limit + 1,
		PageSize: q.Limit,
		Message:  "Images retrieved successfully",
	})
}

func (h *Handler) GetImage(c *gin.Context) {
	userID, ok := h.contextManager.GetUserIDFromContext(c.Request.Context())
	if !ok {
		abortDetail(c, http.StatusUnauthorized, "Access token not found")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortDetail(c, http.StatusBadRequest, "Failed to get image")
		return
	}

	image, err := h.gallery.Get(c.Request.Context(), userID, id)
	if errors.Is(err, model.ErrNotFound) {
		abortDetail(c, http.StatusNotFound, "Image not found")
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope{
		Data:    newImageData(image),
		Message: "Image retrieved successfully",
	})
}

func (h *Handler) DeleteImage(c *gin.Context) {
	userID, ok := h.contextManager.GetUserIDFromContext(c.Request.Context())
	if !ok {
		abortDetail(c, http.StatusUnauthorized, "Access token not found")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortDetail(c, http.StatusBadRequest, "Delete failed")
		return
	}

	err = h.gallery.Delete(c.Request.Context(), userID, id)
	switch {
	case errors.Is(err, model.ErrNotFound):
		abortDetail(c, http.StatusNotFound, "Image not found")
	case errors.Is(err, model.ErrForbidden):
		abortDetail(c, http.StatusForbidden, "Not authorized to delete this image")
	case err != nil:
		h.internalError(c, err)
	default:
		c.Status(http.StatusNoContent)
	}
}

// PublicURL needs no credential and answers without the envelope.
func (h *Handler) PublicURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortDetail(c, http.StatusBadRequest, "Failed to get public URL")
		return
	}

	image, err := h.gallery.Public(c.Request.Context(), id)
	if errors.Is(err, model.ErrNotFound) {
		abortDetail(c, http.StatusNotFound, "Image not found")
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, publicImageData{
		ID:          image.ID.String(),
		Filename:    image.Filename,
		UserID:      image.UserID.String(),
		UploadedAt:  image.UploadedAt.UTC().Format(naiveTimeLayout),
		URL:         h.storageURL + "/" + image.OriginalPath,
		Description: optional(image.Description),
		Tags:        nonEmpty(image.Tags),
		Colors:      nonEmpty(image.Colors),
	})
}

func newImageData(image model.StoredImage) imageData {
	return imageData{
		ID:                 image.ID.String(),
		Filename:           image.Filename,
		OriginalPath:       image.OriginalPath,
		ThumbnailPath:      optional(image.ThumbnailPath),
		UserID:             image.UserID.String(),
		UploadedAt:         image.UploadedAt.UTC().Format(naiveTimeLayout),
		Description:        optional(image.Description),
		Tags:               nonEmpty(image.Tags),
		Colors:             nonEmpty(image.Colors),
		AIProcessingStatus: image.AIProcessingStatus,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
