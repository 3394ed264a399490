// Package domain contains the core entities and the ports the application
// depends on.
package domain

import (
	"context"
	"time"
)

// User is the account record returned by the recipe API.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthState is the resolution state of a browser session.
type AuthState int

const (
	// StateLoading means stored credentials have not been read yet.
	StateLoading AuthState = iota
	// StateUnauthenticated means no usable credentials are stored.
	StateUnauthenticated
	// StateAuthenticated means a token and user are stored and the token has not expired.
	StateAuthenticated
)

func (s AuthState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the register request body.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by both login and register.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// ProfileUpdate is the profile edit request body.
type ProfileUpdate struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// PasswordChange is the change-password request body.
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthAPI defines the port for the remote authentication endpoints.
type AuthAPI interface {
	Login(ctx context.Context, creds Credentials) (*AuthResponse, error)
	Register(ctx context.Context, reg Registration) (*AuthResponse, error)
}

// AccountAPI defines the port for the remote account endpoints. Every call
// carries the bearer token of the acting session.
type AccountAPI interface {
	Profile(ctx context.Context, token string) (*User, error)
	UpdateProfile(ctx context.Context, token string, upd ProfileUpdate) (*User, error)
	ChangePassword(ctx context.Context, token string, chg PasswordChange) error
	DeleteAccount(ctx context.Context, token, password string) error
	LikedRecipes(ctx context.Context, token string) ([]Recipe, error)
	AddLike(ctx context.Context, token string, recipeID int64) error
	RemoveLike(ctx context.Context, token string, recipeID int64) error
}
