package model

import "context"

// User is the identity record returned by the backend.
type User struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// AuthResult is the payload of login and signup.
type AuthResult struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token,omitempty"`
}

// User returns the identity part of the result.
func (r AuthResult) User() User {
	return User{UserID: r.UserID, Email: r.Email}
}

// Credentials is the login and signup request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthAPI defines the authentication endpoints of the backend. Credential
// refresh is not part of it: the HTTP client performs it transparently.
type AuthAPI interface {
	Login(ctx context.Context, creds Credentials) (AuthResult, error)
	Signup(ctx context.Context, creds Credentials) (AuthResult, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (User, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	UpdatePassword(ctx context.Context, newPassword string) (string, error)
}
