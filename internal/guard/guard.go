// Package guard decides, before each navigation, whether to allow it or
// redirect the user elsewhere.
package guard

import (
	"context"
	"fmt"

	"github.com/dtroode/gallery-client/internal/logger"
	"github.com/dtroode/gallery-client/internal/model"
	"github.com/dtroode/gallery-client/internal/route"
)

// Session is the part of the session store the guard consults.
type Session interface {
	User() *model.User
	HasCredentials() bool
	FetchCurrentUser(ctx context.Context) *model.User
}

// Waiter is the pending restoration handle.
type Waiter interface {
	Wait(ctx context.Context) (bool, error)
}

// Action is the outcome of a navigation check.
type Action int

const (
	Allow Action = iota
	Redirect
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Decision tells the navigator where to go. To equals the requested
// location when Action is Allow; Route is the route of To.
type Decision struct {
	Action Action
	To     route.Location
	Route  route.Route
}

// Guard evaluates route requirements against the session.
type Guard struct {
	session  Session
	routes   *route.Table
	restored Waiter
	logger   *logger.Logger
}

// New creates a Guard. Every check waits on restored first.
func New(session Session, routes *route.Table, restored Waiter, logger *logger.Logger) *Guard {
	return &Guard{
		session:  session,
		routes:   routes,
		restored: restored,
		logger:   logger,
	}
}

// Check decides what happens when navigating to to. The first matching rule
// wins. It fails only if ctx ends while waiting for restoration.
func (g *Guard) Check(ctx context.Context, to route.Location) (Decision, error) {
	if _, err := g.restored.Wait(ctx); err != nil {
		return Decision{}, fmt.Errorf("failed to wait for session restoration: %w", err)
	}

	target, _ := g.routes.Match(to.Path)

	if target.Pattern == route.PathLogin && g.session.User() != nil {
		return g.redirect(to, route.Location{Path: route.PathHome}, "already signed in"), nil
	}

	if !target.RequiresAuth {
		return g.allow(to, target), nil
	}

	if !g.session.HasCredentials() {
		return g.redirect(to, route.LoginRedirect(to), "no credentials"), nil
	}

	if g.session.User() != nil {
		return g.allow(to, target), nil
	}

	// The credential is flagged present but unconfirmed, e.g. after a reload.
	if user := g.session.FetchCurrentUser(ctx); user != nil {
		return g.allow(to, target), nil
	}

	return g.redirect(to, route.LoginRedirect(to), "identity lookup failed"), nil
}

func (g *Guard) allow(to route.Location, target route.Route) Decision {
	g.logger.Debug("Navigation guard: allowed",
		"path", to.FullPath(),
		"route", target.Name)
	return Decision{Action: Allow, To: to, Route: target}
}

func (g *Guard) redirect(from, to route.Location, reason string) Decision {
	target, _ := g.routes.Match(to.Path)
	g.logger.Info("Navigation guard: redirected",
		"from", from.FullPath(),
		"to", to.FullPath(),
		"reason", reason)
	return Decision{Action: Redirect, To: to, Route: target}
}
