// Package route maps in-app destinations to their access requirements.
package route

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	PathHome   = "/"
	PathLogin  = "/login"
	PathSignup = "/signup"
	PathImage  = "/images/:id"

	// RedirectParam carries the originally requested path to the login page.
	RedirectParam = "redirect"
)

// Route describes one destination.
type Route struct {
	Name         string
	Pattern      string
	RequiresAuth bool
	Title        string
}

// Location is a navigation target.
type Location struct {
	Path  string
	Query url.Values
}

// Parse splits a raw in-app path such as "/login?redirect=/" into a Location.
func Parse(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("failed to parse location %q: %w", raw, err)
	}
	if u.IsAbs() || u.Host != "" {
		return Location{}, fmt.Errorf("location %q is not an in-app path", raw)
	}

	path := u.Path
	if path == "" {
		path = PathHome
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return Location{Path: path, Query: u.Query()}, nil
}

// FullPath returns the path with its encoded query.
func (l Location) FullPath() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Query.Encode()
}

func (l Location) String() string {
	return l.FullPath()
}

// LoginRedirect is the login location that returns to from after signing in.
func LoginRedirect(from Location) Location {
	return Location{
		Path:  PathLogin,
		Query: url.Values{RedirectParam: []string{from.FullPath()}},
	}
}

// Table is an ordered set of routes with a fallback for unknown paths.
type Table struct {
	routes   []Route
	notFound Route
}

// NewTable creates a Table. notFound is returned for unmatched paths.
func NewTable(notFound Route, routes ...Route) *Table {
	return &Table{routes: routes, notFound: notFound}
}

// Default returns the gallery's route table.
func Default() *Table {
	return NewTable(
		Route{Name: "not-found", Pattern: "*", Title: "Not Found"},
		Route{Name: "gallery", Pattern: PathHome, RequiresAuth: true, Title: "Gallery"},
		Route{Name: "image", Pattern: PathImage, RequiresAuth: true, Title: "Image"},
		Route{Name: "upload", Pattern: "/upload", RequiresAuth: true, Title: "Upload"},
		Route{Name: "account", Pattern: "/account", RequiresAuth: true, Title: "Account"},
		Route{Name: "login", Pattern: PathLogin, Title: "Login"},
		Route{Name: "signup", Pattern: PathSignup, Title: "Sign Up"},
		Route{Name: "forgot-password", Pattern: "/forgot-password", Title: "Forgot Password"},
		Route{Name: "reset-password", Pattern: "/reset-password", Title: "Reset Password"},
	)
}

// Match returns the route for path and its named parameters.
func (t *Table) Match(path string) (Route, map[string]string) {
	segments := split(path)
	for _, r := range t.routes {
		if params, ok := match(split(r.Pattern), segments); ok {
			return r, params
		}
	}
	return t.notFound, nil
}

// Routes returns the configured routes in match order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

func match(pattern, segments []string) (map[string]string, bool) {
	if len(pattern) != len(segments) {
		return nil, false
	}
	var params map[string]string
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			if segments[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[p[1:]] = segments[i]
			continue
		}
		if p != segments[i] {
			return nil, false
		}
	}
	return params, true
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
