package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dtroode/gallery-client/internal/httpclient"
)

const (
	pathImages    = "/images"
	pathPublicURL = "/images/public-url/"

	// DefaultPageSize is the backend's page size when none is requested.
	DefaultPageSize = 20
)

// Image is a gallery entry with its processed metadata.
type Image struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Filename           string    `json:"filename"`
	OriginalPath       string    `json:"original_path"`
	ThumbnailPath      string    `json:"thumbnail_path,omitempty"`
	UploadedAt         Timestamp `json:"uploaded_at"`
	Description        string    `json:"description,omitempty"`
	Tags               []string  `json:"tags,omitempty"`
	Colors             []string  `json:"colors,omitempty"`
	AIProcessingStatus string    `json:"ai_processing_status"`
}

// Page is one page of the image listing.
type Page struct {
	Images   []Image `json:"data"`
	Count    int     `json:"count"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

// PublicImage is an image with a URL that needs no credential.
type PublicImage struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Filename    string    `json:"filename"`
	UploadedAt  Timestamp `json:"uploaded_at"`
	URL         string    `json:"url"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Colors      []string  `json:"colors,omitempty"`
}

// ListOptions selects a page. Zero values mean the backend defaults.
type ListOptions struct {
	Skip  int
	Limit int
	Tag   string
}

// Timestamp accepts RFC 3339 times with or without a zone offset.
// Times without an offset are taken as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"}

func (t *Timestamp) UnmarshalJSON(raw []byte) error {
	if bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unsupported format %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// Images calls the gallery endpoints. All of them go through the
// credential-refresh interceptor.
type Images struct {
	client Doer
}

// NewImages creates an Images API bound to client.
func NewImages(client Doer) *Images {
	return &Images{client: client}
}

// List returns one page of the current user's images.
func (i *Images) List(ctx context.Context, opts ListOptions) (Page, error) {
	resp, err := i.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: listPath(opts)})
	if err != nil {
		return Page{}, err
	}

	var page Page
	if err := json.Unmarshal(resp.Body, &page); err != nil {
		return Page{}, fmt.Errorf("%s: failed to decode page: %w", pathImages, err)
	}
	if page.Images == nil {
		page.Images = []Image{}
	}
	return page, nil
}

// Get returns one image by ID.
func (i *Images) Get(ctx context.Context, id string) (Image, error) {
	path := pathImages + "/" + url.PathEscape(id)
	resp, err := i.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return Image{}, err
	}

	var image Image
	if err := resp.Decode(&image); err != nil {
		return Image{}, fmt.Errorf("%s: %w", path, err)
	}
	return image, nil
}

// Delete removes an image and its stored file.
func (i *Images) Delete(ctx context.Context, id string) error {
	_, err := i.client.Do(ctx, httpclient.Request{
		Method: http.MethodDelete,
		Path:   pathImages + "/" + url.PathEscape(id),
	})
	return err
}

// PublicURL returns the image with a shareable URL. The backend answers
// without the envelope.
func (i *Images) PublicURL(ctx context.Context, id string) (PublicImage, error) {
	path := pathPublicURL + url.PathEscape(id)
	resp, err := i.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return PublicImage{}, err
	}

	var image PublicImage
	if err := json.Unmarshal(resp.Body, &image); err != nil {
		return PublicImage{}, fmt.Errorf("%s: failed to decode image: %w", path, err)
	}
	return image, nil
}

func listPath(opts ListOptions) string {
	q := url.Values{}
	if opts.Skip > 0 {
		q.Set("skip", strconv.Itoa(opts.Skip))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Tag != "" {
		q.Set("tag", opts.Tag)
	}
	if len(q) == 0 {
		return pathImages
	}
	return pathImages + "?" + q.Encode()
}
