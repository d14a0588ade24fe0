package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/gallery-client/internal/httpclient"
	"github.com/dtroode/gallery-client/internal/mocks"
	"github.com/dtroode/gallery-client/internal/model"
)

const imageJSON = `{
	"id": "6f1c",
	"filename": "sunset.jpg",
	"original_path": "u1/sunset.jpg",
	"thumbnail_path": null,
	"user_id": "u1",
	"uploaded_at": "2025-03-01T10:20:30.123456",
	"description": null,
	"tags": ["sky", "orange"],
	"colors": ["#ff8800"],
	"tag_vec": [0.1, 0.2],
	"color_vec": null,
	"ai_processing_status": "completed"
}`

func TestImages_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		opts     ListOptions
		wantPath string
	}{
		{name: "defaults", opts: ListOptions{}, wantPath: "/images"},
		{name: "second page by tag", opts: ListOptions{Skip: 20, Limit: 20, Tag: "sky"}, wantPath: "/images?limit=20&skip=20&tag=sky"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"data":[` + imageJSON + `],"count":1,"total":21,"page":2,"page_size":20,"message":"Images retrieved successfully"}`
			doer := mocks.NewDoer(t)
			doer.On("Do", ctx, httpclient.Request{Method: http.MethodGet, Path: tt.wantPath}).
				Return(&httpclient.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil).Once()

			page, err := NewImages(doer).List(ctx, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, 1, page.Count)
			assert.Equal(t, 21, page.Total)
			assert.Equal(t, 2, page.Page)
			assert.Equal(t, 20, page.PageSize)
			require.Len(t, page.Images, 1)

			img := page.Images[0]
			assert.Equal(t, "6f1c", img.ID)
			assert.Equal(t, "sunset.jpg", img.Filename)
			assert.Equal(t, "u1/sunset.jpg", img.OriginalPath)
			assert.Empty(t, img.ThumbnailPath)
			assert.Equal(t, []string{"sky", "orange"}, img.Tags)
			assert.Equal(t, "completed", img.AIProcessingStatus)
			assert.True(t, img.UploadedAt.Equal(time.Date(2025, 3, 1, 10, 20, 30, 123456000, time.UTC)))
		})
	}
}

func TestImages_ListEmptyPage(t *testing.T) {
	ctx := context.Background()

	doer := mocks.NewDoer(t)
	doer.On("Do", ctx, httpclient.Request{Method: http.MethodGet, Path: "/images"}).
		Return(&httpclient.Response{StatusCode: http.StatusOK, Body: []byte(`{"data":[],"count":0,"total":0,"page":1,"page_size":20}`)}, nil).Once()

	page, err := NewImages(doer).List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, page.Images)
	assert.Empty(t, page.Images)
}

func TestImages_Get(t *testing.T) {
	ctx := context.Background()

	doer := mocks.NewDoer(t)
	doer.On("Do", ctx, httpclient.Request{Method: http.MethodGet, Path: "/images/6f1c"}).
		Return(envelope(imageJSON, "Image retrieved successfully"), nil).Once()
	doer.On("Do", ctx, httpclient.Request{Method: http.MethodGet, Path: "/images/missing"}).
		Return(nil, &model.APIError{StatusCode: http.StatusNotFound, Detail: "Image not found"}).Once()

	images := NewImages(doer)

	img, err := images.Get(ctx, "6f1c")
	require.NoError(t, err)
	assert.Equal(t, "sunset.jpg", img.Filename)

	_, err = images.Get(ctx, "missing")
	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestImages_Delete(t *testing.T) {
	ctx := context.Background()

	doer := mocks.NewDoer(t)
	doer.On("Do", ctx, httpclient.Request{Method: http.MethodDelete, Path: "/images/6f1c"}).
		Return(&httpclient.Response{StatusCode: http.StatusNoContent}, nil).Once()

	require.NoError(t, NewImages(doer).Delete(ctx, "6f1c"))
}

func TestImages_PublicURL(t *testing.T) {
	ctx := context.Background()

	body := `{"id":"6f1c","filename":"sunset.jpg","user_id":"u1","uploaded_at":"2025-03-01T10:20:30Z","url":"https://cdn.example.com/u1/sunset.jpg","tags":null}`
	doer := mocks.NewDoer(t)
	doer.On("Do", ctx, httpclient.Request{Method: http.MethodGet, Path: "/images/public-url/6f1c"}).
		Return(&httpclient.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil).Once()

	img, err := NewImages(doer).PublicURL(ctx, "6f1c")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/u1/sunset.jpg", img.URL)
	assert.Nil(t, img.Tags)
}

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{name: "with zone", raw: `"2025-03-01T10:20:30+02:00"`, want: time.Date(2025, 3, 1, 8, 20, 30, 0, time.UTC)},
		{name: "without zone", raw: `"2025-03-01T10:20:30"`, want: time.Date(2025, 3, 1, 10, 20, 30, 0, time.UTC)},
		{name: "null", raw: `null`},
		{name: "garbage", raw: `"yesterday"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			err := ts.UnmarshalJSON([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, ts.Equal(tt.want), "got %s", ts.Time)
		})
	}
}
