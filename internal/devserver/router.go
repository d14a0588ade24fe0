// Package devserver is a development backend speaking the gallery's auth
// and image REST surface with cookie credentials.
package devserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/gallery-client/internal/config"
	"github.com/dtroode/gallery-client/internal/logger"
	"github.com/dtroode/gallery-client/internal/model"
	"github.com/dtroode/gallery-client/internal/token"
)

// Router wires handlers and middleware into a gin engine.
type Router struct {
	handler  *Handler
	authn    *Authenticate
	logging  *Logging
	basePath string
}

func NewRouter(handler *Handler, authn *Authenticate, logging *Logging, basePath string) *Router {
	return &Router{
		handler:  handler,
		authn:    authn,
		logging:  logging,
		basePath: "/" + strings.Trim(basePath, "/"),
	}
}

// Register builds the engine.
func (r *Router) Register() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), r.logging.Handle)

	api := engine.Group(r.basePath)

	auth := api.Group("/auth")
	auth.POST("/signup", r.handler.Signup)
	auth.POST("/login", r.handler.Login)
	auth.POST("/logout", r.handler.Logout)
	auth.POST("/refresh", r.handler.Refresh)
	auth.POST("/password-reset", r.handler.PasswordReset)

	protected := api.Group("", r.authn.Handle)
	protected.GET("/auth/me", r.handler.Me)
	protected.POST("/auth/update-password", r.handler.UpdatePassword)
	protected.GET("/images", r.handler.ListImages)
	protected.GET("/images/:id", r.handler.GetImage)
	protected.DELETE("/images/:id", r.handler.DeleteImage)

	api.GET("/images/public-url/:id", r.handler.PublicURL)

	engine.NoRoute(func(c *gin.Context) {
		abortDetail(c, http.StatusNotFound, "Not Found")
	})

	return engine
}

// Option customizes the dev backend assembled by New.
type Option func(*stores)

type stores struct {
	images model.ImageStore
}

// WithImageStore makes the backend serve images from store, so callers can
// seed it.
func WithImageStore(store model.ImageStore) Option {
	return func(s *stores) {
		s.images = store
	}
}

// New assembles the dev backend with in-memory stores.
func New(cfg config.DevServer, logger *logger.Logger, opts ...Option) *gin.Engine {
	st := stores{images: NewImageStore()}
	for _, opt := range opts {
		opt(&st)
	}

	manager := token.NewJWT(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	tokens := NewTokenService(manager, NewRefreshTokenStore(), logger)
	auth := NewAuth(NewAccountStore(), tokens, logger)
	gallery := NewGallery(st.images, logger)
	ctxMgr := ContextManager{}

	handler := NewHandler(auth, gallery, ctxMgr, cfg)
	return NewRouter(handler, NewAuthenticate(tokens, ctxMgr, logger), NewLogging(logger), cfg.BasePath).Register()
}
