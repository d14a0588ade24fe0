package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/gallery-client/internal/config"
	"github.com/dtroode/gallery-client/internal/model"
	"github.com/dtroode/gallery-client/internal/testutil"
)

type testBackend struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
	images *ImageStore
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()

	cfg := config.DevServer{
		BasePath:   "/api/v1",
		JWTSecret:  "test-secret",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
		StorageURL: "https://storage.test/images/",
	}
	images := NewImageStore()
	srv := httptest.NewServer(New(cfg, testutil.MakeNoopLogger(), WithImageStore(images)))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testBackend{t: t, server: srv, client: &http.Client{Jar: jar}, images: images}
}

// signup creates an account, keeps its cookies and returns its user ID.
func (b *testBackend) signup(email string) uuid.UUID {
	b.t.Helper()

	status, body := b.do(http.MethodPost, "/auth/signup", creds(email, "secret1"))
	require.Equal(b.t, http.StatusCreated, status)
	id, err := uuid.Parse(body["data"].(map[string]any)["user_id"].(string))
	require.NoError(b.t, err)
	return id
}

func (b *testBackend) addImage(owner uuid.UUID, filename string, uploadedAt time.Time, tags ...string) model.StoredImage {
	b.t.Helper()

	image, err := b.images.Create(context.Background(), model.StoredImage{
		UserID:     owner,
		Filename:   filename,
		UploadedAt: uploadedAt,
		Tags:       tags,
	})
	require.NoError(b.t, err)
	return image
}

func (b *testBackend) do(method, path string, body any) (int, map[string]any) {
	b.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(b.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, b.server.URL+"/api/v1"+path, reader)
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (b *testBackend) cookie(name string) string {
	u, err := url.Parse(b.server.URL)
	require.NoError(b.t, err)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (b *testBackend) setCookie(name, value string) {
	u, err := url.Parse(b.server.URL)
	require.NoError(b.t, err)
	b.client.Jar.SetCookies(u, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
}

func creds(email, password string) map[string]string {
	return map[string]string{"email": email, "password": password}
}

func TestHandler_SignupLoginMe(t *testing.T) {
	t.Parallel()
	b := newTestBackend(t)

	status, body := b.do(http.MethodPost, "/auth/signup", creds("ann@example.com", "secret1"))
	require.Equal(t, http.StatusCreated, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "ann@example.com", data["email"])
	assert.NotEmpty(t, data["user_id"])
	assert.NotEmpty(t, b.cookie(CookieAccess))
	assert.NotEmpty(t, b.cookie(CookieRefresh))

	status, body = b.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ann@example.com", body["data"].(map[string]any)["email"])

	status, _ = b.do(http.MethodPost, "/auth/signup", creds("ann@example.com", "secret1"))
	assert.Equal(t, http.StatusConflict, status)

	status, body = b.do(http.MethodPost, "/auth/login", creds("ann@example.com", "wrong-password"))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid email or password", body["detail"])

	status, body = b.do(http.MethodPost, "/auth/login", creds("ann@example.com", "secret1"))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Login successful", body["message"])
}

func TestHandler_ValidationErrors(t *testing.T) {
	t.Parallel()
	b := newTestBackend(t)

	status, body := b.do(http.MethodPost, "/auth/signup", creds("not-an-email", "secret1"))
	require.Equal(t, http.StatusUnprocessableEntity, status)
	detail := body["detail"].([]any)
	require.Len(t, detail, 1)
	first := detail[0].(map[string]any)
	assert.Equal(t, []any{"body", "email"}, first["loc"])
	assert.Equal(t, "value is not a valid email address", first["msg"])

	status, body = b.do(http.MethodPost, "/auth/signup", creds("ann@example.com", "123"))
	require.Equal(t, http.StatusUnprocessableEntity, status)
	first = body["detail"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{"body", "password"}, first["loc"])
}

func TestHandler_ProtectedEndpointsRequireCookie(t *testing.T) {
	t.Parallel()
	b := newTestBackend(t)

	status, body := b.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Access token not found", body["detail"])

	status, _ = b.do(http.MethodGet, "/images", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	b.setCookie(CookieAccess, "garbage")
	status, _ = b.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHandler_RefreshRotatesCookies(t *testing.T) {
	t.Parallel()
	b := newTestBackend(t)

	status, _ := b.do(http.MethodPost, "/auth/signup", creds("ann@example.com", "secret1"))
	require.Equal(t, http.StatusCreated, status)
	oldRefresh := b.cookie(CookieRefresh)

	status, body := b.do(http.MethodPost, "/auth/refresh", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Token refreshed successfully", body["message"])
	assert.NotEqual(t, oldRefresh, b.cookie(CookieRefresh))

	b.setCookie(CookieRefresh, oldRefresh)
	status, body = b.do(http.MethodPost, "/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid refresh token", body["detail"])
	assert.Empty(t, b.cookie(CookieRefresh))
}

func TestHandler_RefreshWithoutCookie(t *testing.T) {
	t.Parallel()
	b := newTestBackend(t)

	status, body := b.do(http.MethodPost, "/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Refresh token not found in cookies", body["detail"])
}

func TestHandler_LogoutClearsCookies(t *testing.T) {
	t.Parallel()
	b := newTestBackend(t)

	status, _ := b.do(http.MethodPost, "/auth/signup", creds("ann@example.com", "secret1"))
	require.Equal(t, http.StatusCreated, status)
	refresh := b.cookie(CookieRefresh)

	status, _ = b.do(http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Empty(t, b.cookie(CookieAccess))
	assert.Empty(t, b.cookie(CookieRefresh))

	b.setCookie(CookieRefresh, refresh)
	status, _ = b.do(http.MethodPost, "/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, status, "logged out refresh token is revoked")

	status, _ = b.do(http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, status, "logout without a session still succeeds")
}

func TestHandler_PasswordResetNeverRevealsAccounts(t *testing.T) {
	t.Parallel()
	b := newTestBackend(t)

	status, _ := b.do(http.MethodPost, "/auth/signup", creds("ann@example.com", "secret1"))
	require.Equal(t, http.StatusCreated, status)

	status, known := b.do(http.MethodPost, "/auth/password-reset", map[string]string{"email": "ann@example.com"})
	assert.Equal(t, http.StatusAccepted, status)
	status, unknown := b.do(http.MethodPost, "/auth/password-reset", map[string]string{"email": "bob@example.com"})
	assert.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, known["message"], unknown["message"])
}

func TestHandler_UpdatePassword(t *testing.T) {
	t.Parallel()
	b := newTestBackend(t)

	status, _ := b.do(http.MethodPost, "/auth/signup", creds("ann@example.com", "secret1"))
	require.Equal(t, http.StatusCreated, status)
	oldRefresh := b.cookie(CookieRefresh)

	status, _ = b.do(http.MethodPost, "/auth/update-password", map[string]string{"new_password": "123"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, body := b.do(http.MethodPost, "/auth/update-password", map[string]string{"new_password": "secret2"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Password updated successfully", body["message"])

	status, _ = b.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusOK, status, "caller keeps a session")

	status, _ = b.do(http.MethodPost, "/auth/login", creds("ann@example.com", "secret1"))
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = b.do(http.MethodPost, "/auth/login", creds("ann@example.com", "secret2"))
	assert.Equal(t, http.StatusOK, status)

	b.setCookie(CookieRefresh, oldRefresh)
	status, _ = b.do(http.MethodPost, "/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, status, "refresh tokens issued before the change are revoked")
}

func TestHandler_ListImages(t *testing.T) {
	t.Parallel()
	b := newTestBackend(t)

	ann := b.signup("ann@example.com")
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := range 3 {
		b.addImage(ann, fmt.Sprintf("ann-%d.jpg", i), base.Add(time.Duration(i)*time.Minute), "sky")
	}
	b.addImage(ann, "cat.png", base.Add(time.Hour), "Cat")
	b.addImage(uuid.New(), "someone-else.jpg", base)

	status, body := b.do(http.MethodGet, "/images", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Images retrieved successfully", body["message"])
	assert.EqualValues(t, 4, body["count"])
	assert.EqualValues(t, 4, body["total"])
	assert.EqualValues(t, 1, body["page"])
	assert.EqualValues(t, 20, body["page_size"])
	first := body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "cat.png", first["filename"], "newest first")
	assert.Equal(t, "2025-03-01T11:00:00", first["uploaded_at"])
	assert.Equal(t, "pending", first["ai_processing_status"])
	assert.Nil(t, first["thumbnail_path"])
	assert.Equal(t, ann.String(), first["user_id"])

	status, body = b.do(http.MethodGet, "/images?skip=2&limit=2", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["count"])
	assert.EqualValues(t, 4, body["total"])
	assert.EqualValues(t, 2, body["page"])

	status, body = b.do(http.MethodGet, "/images?tag=cat", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])

	status, body = b.do(http.MethodGet, "/images?limit=0", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	detail := body["detail"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{"query", "limit"}, detail["loc"])
	assert.Equal(t, "Input should be greater than or equal to 1", detail["msg"])

	status, _ = b.do(http.MethodGet, "/images?skip=abc", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestHandler_ListImagesEmpty(t *testing.T) {
	t.Parallel()
	b := newTestBackend(t)
	b.signup("ann@example.com")

	status, body := b.do(http.MethodGet, "/images", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["data"])
	assert.EqualValues(t, 0, body["total"])
}

func TestHandler_GetImage(t *testing.T) {
	t.Parallel()
	b := newTestBackend(t)

	ann := b.signup("ann@example.com")
	own := b.addImage(ann, "sunset.jpg", time.Now(), "sky")
	foreign := b.addImage(uuid.New(), "private.jpg", time.Now())

	status, body := b.do(http.MethodGet, "/images/"+own.ID.String(), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Image retrieved successfully", body["message"])
	data := body["data"].(map[string]any)
	assert.Equal(t, own.ID.String(), data["id"])
	assert.Equal(t, []any{"sky"}, data["tags"])
	assert.Nil(t, data["colors"])

	status, body = b.do(http.MethodGet, "/images/"+foreign.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Image not found", body["detail"])

	status, body = b.do(http.MethodGet, "/images/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Failed to get image", body["detail"])
}

func TestHandler_DeleteImage(t *testing.T) {
	t.Parallel()
	b := newTestBackend(t)

	ann := b.signup("ann@example.com")
	own := b.addImage(ann, "sunset.jpg", time.Now())
	foreign := b.addImage(uuid.New(), "private.jpg", time.Now())

	status, body := b.do(http.MethodDelete, "/images/"+foreign.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Not authorized to delete this image", body["detail"])

	status, _ = b.do(http.MethodDelete, "/images/"+own.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = b.do(http.MethodDelete, "/images/"+own.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Image not found", body["detail"])

	_, err := b.images.Get(context.Background(), foreign.ID)
	assert.NoError(t, err, "foreign image survives")
}

func TestHandler_PublicURLNeedsNoCookie(t *testing.T) {
	t.Parallel()
	b := newTestBackend(t)

	image := b.addImage(uuid.New(), "sunset.jpg", time.Date(2025, 3, 1, 10, 0, 0, 500000000, time.UTC))

	status, body := b.do(http.MethodGet, "/images/public-url/"+image.ID.String(), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "https://storage.test/images/"+image.OriginalPath, body["url"])
	assert.Equal(t, "2025-03-01T10:00:00.5", body["uploaded_at"])
	assert.NotContains(t, body, "data", "public URL is not enveloped")

	status, body = b.do(http.MethodGet, "/images/public-url/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Image not found", body["detail"])
}

func TestHandler_UnknownRoute(t *testing.T) {
	t.Parallel()
	b := newTestBackend(t)

	status, body := b.do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not Found", body["detail"])
}
