// Package app wires the session store, navigation guard and HTTP client
// together and exposes the actions the UI performs.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dtroode/gallery-client/internal/api"
	"github.com/dtroode/gallery-client/internal/config"
	"github.com/dtroode/gallery-client/internal/credentials"
	"github.com/dtroode/gallery-client/internal/form"
	"github.com/dtroode/gallery-client/internal/guard"
	"github.com/dtroode/gallery-client/internal/httpclient"
	"github.com/dtroode/gallery-client/internal/logger"
	"github.com/dtroode/gallery-client/internal/model"
	"github.com/dtroode/gallery-client/internal/route"
	"github.com/dtroode/gallery-client/internal/session"
)

const maxRedirects = 5

// ErrTooManyRedirects is returned when guard redirects do not settle.
var ErrTooManyRedirects = errors.New("too many navigation redirects")

var _ model.SessionListener = (*App)(nil)

// App is one running client: the equivalent of a page session.
type App struct {
	logger *logger.Logger
	jar    *credentials.Jar
	client *httpclient.Client
	store  *session.Store
	guard  *guard.Guard
	routes *route.Table
	images *api.Images

	mu      sync.Mutex
	current route.Location
	route   route.Route
	gallery *api.Page
}

// Bootstrap loads the persisted credential, builds the client and starts
// session restoration. It returns before restoration finishes; every
// navigation waits for it.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*App, error) {
	jar, err := credentials.Load(cfg.Credentials, cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	client := httpclient.New(cfg.API.BaseURL, jar, cfg.API.Timeout, logger)
	store := session.NewStore(api.NewAuth(client), logger)
	client.Subscribe(store)

	routes := route.Default()
	a := &App{
		logger: logger,
		jar:    jar,
		client: client,
		store:  store,
		guard:  guard.New(store, routes, store.Restoration(), logger),
		routes: routes,
		images: api.NewImages(client),
	}
	store.Subscribe(a)

	logger.Debug("App: starting session restoration",
		"api", cfg.API.BaseURL,
		"cookies", jar.Names())
	go store.Restore(ctx)

	return a, nil
}

// Session returns the session store.
func (a *App) Session() *session.Store {
	return a.store
}

// Current returns the location and route the app is showing.
func (a *App) Current() (route.Location, route.Route) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current, a.route
}

// Routes returns the route table the guard checks against.
func (a *App) Routes() *route.Table {
	return a.routes
}

// Navigate goes to raw, following guard redirects, and returns where the
// app ended up. Leaving a page drops the session's last error.
func (a *App) Navigate(ctx context.Context, raw string) (route.Location, route.Route, error) {
	to, err := route.Parse(raw)
	if err != nil {
		return route.Location{}, route.Route{}, err
	}

	before, _ := a.Current()
	loc, r, err := a.navigate(ctx, to)
	if err == nil && loc.Path != before.Path {
		a.store.ClearError()
	}
	return loc, r, err
}

func (a *App) navigate(ctx context.Context, to route.Location) (route.Location, route.Route, error) {
	for i := 0; i <= maxRedirects; i++ {
		d, err := a.guard.Check(ctx, to)
		if err != nil {
			return route.Location{}, route.Route{}, err
		}
		if d.Action == guard.Allow {
			a.mu.Lock()
			a.current, a.route = d.To, d.Route
			a.mu.Unlock()
			return d.To, d.Route, nil
		}
		to = d.To
	}
	return route.Location{}, route.Route{}, fmt.Errorf("navigate to %s: %w", to.FullPath(), ErrTooManyRedirects)
}

// Login validates f, signs in and navigates back to the page that sent the
// user to login, or home.
func (a *App) Login(ctx context.Context, f form.Login) (route.Location, error) {
	if err := form.Validate(f); err != nil {
		return route.Location{}, err
	}
	if _, err := a.store.Login(ctx, f.Email, f.Password); err != nil {
		return route.Location{}, err
	}
	a.persist()

	loc, _, err := a.navigate(ctx, a.redirectBack())
	return loc, err
}

// Signup validates f, creates the account and navigates like Login.
func (a *App) Signup(ctx context.Context, f form.Signup) (route.Location, error) {
	if err := form.Validate(f); err != nil {
		return route.Location{}, err
	}
	if _, err := a.store.Signup(ctx, f.Email, f.Password); err != nil {
		return route.Location{}, err
	}
	a.persist()

	loc, _, err := a.navigate(ctx, a.redirectBack())
	return loc, err
}

// Logout ends the session and returns to the login page. The backend
// error, if any, is returned after local state has been cleared.
func (a *App) Logout(ctx context.Context) error {
	logoutErr := a.store.Logout(ctx)

	if _, _, err := a.navigate(ctx, route.Location{Path: route.PathLogin}); err != nil {
		a.logger.Warn("App: failed to navigate after logout", "error", err.Error())
	}

	return logoutErr
}

// RequestPasswordReset validates f and asks for a reset email.
func (a *App) RequestPasswordReset(ctx context.Context, f form.PasswordReset) (string, error) {
	if err := form.Validate(f); err != nil {
		return "", err
	}
	return a.store.RequestPasswordReset(ctx, f.Email)
}

// UpdatePassword validates f and sets the new password.
func (a *App) UpdatePassword(ctx context.Context, f form.UpdatePassword) (string, error) {
	if err := form.Validate(f); err != nil {
		return "", err
	}
	msg, err := a.store.UpdatePassword(ctx, f.Password)
	if err != nil {
		return "", err
	}
	a.persist()
	return msg, nil
}

// Images returns a page of the user's gallery. The default first page is
// cached until the session ends or an image is deleted.
func (a *App) Images(ctx context.Context, opts api.ListOptions) (api.Page, error) {
	cacheable := opts == api.ListOptions{}
	if cacheable {
		a.mu.Lock()
		cached := a.gallery
		a.mu.Unlock()
		if cached != nil {
			return *cached, nil
		}
	}

	page, err := a.images.List(ctx, opts)
	if err != nil {
		return api.Page{}, err
	}

	if cacheable {
		a.mu.Lock()
		a.gallery = &page
		a.mu.Unlock()
	}
	return page, nil
}

// Image returns one image of the gallery.
func (a *App) Image(ctx context.Context, id string) (api.Image, error) {
	return a.images.Get(ctx, id)
}

// DeleteImage removes an image and drops the cached gallery.
func (a *App) DeleteImage(ctx context.Context, id string) error {
	if err := a.images.Delete(ctx, id); err != nil {
		return err
	}

	a.mu.Lock()
	a.gallery = nil
	a.mu.Unlock()

	a.logger.Info("App: image deleted", "image_id", id)
	return nil
}

// PublicURL returns a shareable URL of an image.
func (a *App) PublicURL(ctx context.Context, id string) (api.PublicImage, error) {
	return a.images.PublicURL(ctx, id)
}

// SessionEnded drops data derived from the ended session, including the
// persisted credential.
func (a *App) SessionEnded(reason model.SessionEndReason) {
	a.mu.Lock()
	a.gallery = nil
	a.mu.Unlock()

	if err := a.jar.Clear(); err != nil {
		a.logger.Warn("App: failed to clear credentials", "reason", string(reason), "error", err.Error())
	}
}

// Close persists the current credential.
func (a *App) Close() error {
	return a.jar.Save()
}

func (a *App) persist() {
	if err := a.jar.Save(); err != nil {
		a.logger.Warn("App: failed to save credentials", "error", err.Error())
	}
}

func (a *App) redirectBack() route.Location {
	a.mu.Lock()
	current := a.current
	a.mu.Unlock()

	home := route.Location{Path: route.PathHome}
	if r, _ := a.routes.Match(current.Path); r.Pattern != route.PathLogin && r.Pattern != route.PathSignup {
		return home
	}

	target := current.Query.Get(route.RedirectParam)
	if target == "" {
		return home
	}
	loc, err := route.Parse(target)
	if err != nil {
		return home
	}
	if r, _ := a.routes.Match(loc.Path); r.Pattern == route.PathLogin {
		return home
	}
	return loc
}
