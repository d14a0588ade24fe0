// Package api exposes typed calls for the gallery backend REST surface.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dtroode/gallery-client/internal/httpclient"
	"github.com/dtroode/gallery-client/internal/model"
)

// Doer sends a request through the credential-refresh interceptor.
type Doer interface {
	Do(ctx context.Context, req httpclient.Request) (*httpclient.Response, error)
}

var _ model.AuthAPI = (*Auth)(nil)

// Auth implements model.AuthAPI over HTTP.
type Auth struct {
	client Doer
}

// NewAuth creates an Auth API bound to client.
func NewAuth(client Doer) *Auth {
	return &Auth{client: client}
}

func (a *Auth) Login(ctx context.Context, creds model.Credentials) (model.AuthResult, error) {
	return a.authenticate(ctx, httpclient.PathLogin, creds)
}

func (a *Auth) Signup(ctx context.Context, creds model.Credentials) (model.AuthResult, error) {
	return a.authenticate(ctx, httpclient.PathSignup, creds)
}

func (a *Auth) authenticate(ctx context.Context, path string, creds model.Credentials) (model.AuthResult, error) {
	resp, err := a.client.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: path, Body: creds})
	if err != nil {
		return model.AuthResult{}, err
	}

	var result model.AuthResult
	if err := resp.Decode(&result); err != nil {
		return model.AuthResult{}, fmt.Errorf("%s: %w", path, err)
	}
	return result, nil
}

func (a *Auth) Logout(ctx context.Context) error {
	_, err := a.client.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: httpclient.PathLogout})
	return err
}

func (a *Auth) Me(ctx context.Context) (model.User, error) {
	resp, err := a.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/auth/me"})
	if err != nil {
		return model.User{}, err
	}

	var user model.User
	if err := resp.Decode(&user); err != nil {
		return model.User{}, fmt.Errorf("/auth/me: %w", err)
	}
	return user, nil
}

func (a *Auth) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	resp, err := a.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/password-reset",
		Body:   passwordResetRequest{Email: email},
	})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (a *Auth) UpdatePassword(ctx context.Context, newPassword string) (string, error) {
	resp, err := a.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/update-password",
		Body:   updatePasswordRequest{NewPassword: newPassword},
	})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type updatePasswordRequest struct {
	NewPassword string `json:"new_password"`
}
