package domain

import (
	"context"
	"errors"
)

// Keys of the per-browser storage bucket.
const (
	KeyToken              = "token"
	KeyUser               = "user"
	KeyRedirectAfterLogin = "redirectAfterLogin"
)

// ErrNotFound is returned by Storage.Get when the key is absent.
var ErrNotFound = errors.New("not found")

// Storage defines the port for per-browser key/value persistence. A browser
// is identified by an opaque id issued on its first request.
type Storage interface {
	Get(ctx context.Context, browserID, key string) (string, error)
	Set(ctx context.Context, browserID, key, value string) error
	Delete(ctx context.Context, browserID string, keys ...string) error
}
