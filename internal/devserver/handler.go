package devserver

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/dtroode/gallery-client/internal/config"
	"github.com/dtroode/gallery-client/internal/model"
)

const (
	CookieAccess  = "access_token"
	CookieRefresh = "refresh_token"
)

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type passwordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type updatePasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

type authData struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token,omitempty"`
}

type envelope struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// Handler serves the auth and image endpoints.
type Handler struct {
	auth           *Auth
	gallery        *Gallery
	contextManager model.ContextManager
	accessTTL      time.Duration
	refreshTTL     time.Duration
	secure         bool
	storageURL     string
}

func NewHandler(auth *Auth, gallery *Gallery, contextManager model.ContextManager, cfg config.DevServer) *Handler {
	return &Handler{
		auth:           auth,
		gallery:        gallery,
		contextManager: contextManager,
		accessTTL:      cfg.AccessTTL,
		refreshTTL:     cfg.RefreshTTL,
		secure:         cfg.SecureCookies,
		storageURL:     strings.TrimRight(cfg.StorageURL, "/"),
	}
}

func (h *Handler) Signup(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.auth.Signup(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, model.ErrEmailTaken) {
		abortDetail(c, http.StatusConflict, "Email is already registered")
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}

	h.setSessionCookies(c, session.AccessToken, session.RefreshToken)
	c.JSON(http.StatusCreated, envelope{
		Data:    newAuthData(session),
		Message: "User created successfully",
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		abortDetail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}

	h.setSessionCookies(c, session.AccessToken, session.RefreshToken)
	c.JSON(http.StatusOK, envelope{
		Data:    newAuthData(session),
		Message: "Login successful",
	})
}

func (h *Handler) Logout(c *gin.Context) {
	refresh, _ := c.Cookie(CookieRefresh)
	h.auth.Logout(c.Request.Context(), refresh)

	h.clearSessionCookies(c)
	c.Status(http.StatusNoContent)
}

func (h *Handler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(CookieRefresh)
	if err != nil || refresh == "" {
		abortDetail(c, http.StatusUnauthorized, "Refresh token not found in cookies")
		return
	}

	session, err := h.auth.Refresh(c.Request.Context(), refresh)
	if err != nil {
		h.clearSessionCookies(c)
		abortDetail(c, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	h.setSessionCookies(c, session.AccessToken, session.RefreshToken)
	c.JSON(http.StatusOK, envelope{
		Data:    gin.H{"token_type": "bearer"},
		Message: "Token refreshed successfully",
	})
}

func (h *Handler) PasswordReset(c *gin.Context) {
	var req passwordResetRequest
	if !bindJSON(c, &req) {
		return
	}

	h.auth.RequestPasswordReset(c.Request.Context(), req.Email)
	c.JSON(http.StatusAccepted, envelope{
		Message: "If an account exists for this email, a password reset link has been sent.",
	})
}

func (h *Handler) UpdatePassword(c *gin.Context) {
	var req updatePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, ok := h.contextManager.GetUserIDFromContext(c.Request.Context())
	if !ok {
		abortDetail(c, http.StatusUnauthorized, "Access token not found")
		return
	}

	session, err := h.auth.UpdatePassword(c.Request.Context(), userID, req.NewPassword)
	if errors.Is(err, model.ErrNotFound) {
		abortDetail(c, http.StatusUnauthorized, "User not found")
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}

	h.setSessionCookies(c, session.AccessToken, session.RefreshToken)
	c.JSON(http.StatusOK, envelope{Message: "Password updated successfully"})
}

func (h *Handler) Me(c *gin.Context) {
	userID, ok := h.contextManager.GetUserIDFromContext(c.Request.Context())
	if !ok {
		abortDetail(c, http.StatusUnauthorized, "Access token not found")
		return
	}

	account, err := h.auth.Account(c.Request.Context(), userID)
	if err != nil {
		abortDetail(c, http.StatusUnauthorized, "User not found")
		return
	}

	c.JSON(http.StatusOK, envelope{
		Data: authData{UserID: account.ID.String(), Email: account.Email},
	})
}


func (h *Handler) setSessionCookies(c *gin.Context, access, refresh string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieAccess, access, int(h.accessTTL.Seconds()), "/", "", h.secure, true)
	c.SetCookie(CookieRefresh, refresh, int(h.refreshTTL.Seconds()), "/", "", h.secure, true)
}

func (h *Handler) clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieAccess, "", -1, "/", "", h.secure, true)
	c.SetCookie(CookieRefresh, "", -1, "/", "", h.secure, true)
}

func (h *Handler) internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	abortDetail(c, http.StatusInternalServerError, "Internal server error")
}

func newAuthData(s Session) authData {
	return authData{
		UserID:      s.Account.ID.String(),
		Email:       s.Account.Email,
		AccessToken: s.AccessToken,
	}
}

func abortDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func bindJSON(c *gin.Context, target any) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": validationDetail(err, target, "body", "json")})
		return false
	}
	return true
}

func bindQuery(c *gin.Context, target any) bool {
	if err := c.ShouldBindQuery(target); err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": validationDetail(err, target, "query", "form")})
		return false
	}
	return true
}

func validationDetail(err error, target any, loc, tagKey string) []fieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if loc == "query" {
			return []fieldError{{Loc: []string{loc}, Msg: "Input should be a valid integer", Type: "int_parsing"}}
		}
		return []fieldError{{Loc: []string{loc}, Msg: "Invalid request body", Type: "json_invalid"}}
	}

	t := reflect.TypeOf(target)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if f, ok := t.FieldByName(fe.StructField()); ok {
			if tag := strings.Split(f.Tag.Get(tagKey), ",")[0]; tag != "" {
				name = tag
			}
		}
		out = append(out, fieldError{
			Loc:  []string{loc, name},
			Msg:  validationMessage(fe),
			Type: fe.Tag(),
		})
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Field required"
	case "email":
		return "value is not a valid email address"
	case "min":
		if fe.Kind() == reflect.Int {
			return "Input should be greater than or equal to " + fe.Param()
		}
		return "String should have at least " + fe.Param() + " characters"
	case "max":
		if fe.Kind() == reflect.Int {
			return "Input should be less than or equal to " + fe.Param()
		}
		return "String should have at most " + fe.Param() + " characters"
	default:
		return "Invalid value"
	}
}
