package devserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dtroode/gallery-client/internal/logger"
	"github.com/dtroode/gallery-client/internal/model"
)

// TokenResolver resolves the user ID carried by an access token.
type TokenResolver interface {
	GetUserID(ctx context.Context, token string) (uuid.UUID, error)
}

// Authenticate rejects requests without a valid access cookie and puts the
// user ID into the request context.
type Authenticate struct {
	tokens         TokenResolver
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewAuthenticate(tokens TokenResolver, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokens: tokens, contextManager: contextManager, logger: logger}
}

func (m *Authenticate) Handle(c *gin.Context) {
	token, err := c.Cookie(CookieAccess)
	if err != nil || token == "" {
		abortDetail(c, http.StatusUnauthorized, "Access token not found")
		return
	}

	userID, err := m.tokens.GetUserID(c.Request.Context(), token)
	if err != nil || userID == uuid.Nil {
		m.logger.Debug("Authenticate: access token rejected", "path", c.Request.URL.Path)
		abortDetail(c, http.StatusUnauthorized, "Invalid or expired access token")
		return
	}

	ctx := m.contextManager.SetUserIDToContext(c.Request.Context(), userID)
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

// Logging logs method, path, status and duration of every request.
type Logging struct {
	logger *logger.Logger
}

func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

func (l *Logging) Handle(c *gin.Context) {
	start := time.Now()

	c.Next()

	status := c.Writer.Status()
	l.logger.Info("HTTP request completed",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", status,
		"duration_ms", time.Since(start).Milliseconds())

	if len(c.Errors) > 0 {
		l.logger.Error("HTTP request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", c.Errors.String(),
			"status", status)
	}
}
