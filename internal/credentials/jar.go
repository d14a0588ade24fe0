// Package credentials keeps the ambient transport credential (the backend's
// auth cookies) and persists it between runs of the client.
package credentials

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

var _ http.CookieJar = (*Jar)(nil)

// Jar is an http.CookieJar that remembers cookies set by the API host so
// they can be written to disk.
type Jar struct {
	jar  *cookiejar.Jar
	base *url.URL
	path string
	now  func() time.Time

	mu      sync.Mutex
	cookies map[string]storedCookie
}

type file struct {
	Host    string         `yaml:"host"`
	Cookies []storedCookie `yaml:"cookies"`
}

type storedCookie struct {
	Name     string    `yaml:"name"`
	Value    string    `yaml:"value"`
	Path     string    `yaml:"path,omitempty"`
	Expires  time.Time `yaml:"expires,omitempty"`
	Secure   bool      `yaml:"secure,omitempty"`
	HTTPOnly bool      `yaml:"http_only,omitempty"`
}

// New creates an empty Jar for baseURL. An empty path disables persistence.
func New(path, baseURL string) (*Jar, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Jar{
		jar:     jar,
		base:    base,
		path:    path,
		now:     time.Now,
		cookies: make(map[string]storedCookie),
	}, nil
}

// Load creates a Jar and fills it from path. A missing file, or one written
// for another host, yields an empty jar. Expired cookies are dropped.
func Load(path, baseURL string) (*Jar, error) {
	j, err := New(path, baseURL)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return j, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return j, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if f.Host != j.base.Host {
		return j, nil
	}

	now := j.now()
	restored := make([]*http.Cookie, 0, len(f.Cookies))
	for _, c := range f.Cookies {
		if !c.Expires.IsZero() && !c.Expires.After(now) {
			continue
		}
		j.cookies[c.Name] = c
		restored = append(restored, c.cookie())
	}
	j.jar.SetCookies(j.base, restored)

	return j, nil
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.current().SetCookies(u, cookies)
	if u.Host != j.base.Host {
		return
	}

	now := j.now()
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, c := range cookies {
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		if c.MaxAge < 0 || (!expires.IsZero() && !expires.After(now)) {
			delete(j.cookies, c.Name)
			continue
		}
		j.cookies[c.Name] = storedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Expires:  expires,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
	}
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.current().Cookies(u)
}

func (j *Jar) current() *cookiejar.Jar {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar
}

// Names returns the names of the tracked API cookies.
func (j *Jar) Names() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	names := make([]string, 0, len(j.cookies))
	for name := range j.cookies {
		names = append(names, name)
	}
	return names
}

// Save writes the tracked cookies to disk with owner-only permissions.
func (j *Jar) Save() error {
	if j.path == "" {
		return nil
	}

	j.mu.Lock()
	f := file{Host: j.base.Host, Cookies: make([]storedCookie, 0, len(j.cookies))}
	for _, c := range j.cookies {
		f.Cookies = append(f.Cookies, c)
	}
	j.mu.Unlock()

	if len(f.Cookies) == 0 {
		return j.remove()
	}

	raw, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}
	if err := os.WriteFile(j.path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

// Clear forgets every cookie and removes the file.
func (j *Jar) Clear() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("failed to create cookie jar: %w", err)
	}

	j.mu.Lock()
	j.jar = jar
	j.cookies = make(map[string]storedCookie)
	j.mu.Unlock()

	return j.remove()
}

func (j *Jar) remove() error {
	if j.path == "" {
		return nil
	}
	if err := os.Remove(j.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}
	return nil
}

func (c storedCookie) cookie() *http.Cookie {
	path := c.Path
	if path == "" {
		path = "/"
	}
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     path,
		Expires:  c.Expires,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
	}
}
