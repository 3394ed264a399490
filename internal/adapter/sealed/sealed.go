// Package sealed encrypts stored values with NaCl secretbox before handing
// them to another domain.Storage.
package sealed

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"

	"recipebook/internal/domain"
)

const nonceSize = 24

// ErrUnsealable is returned by Get when a stored value fails to decrypt. It
// matches domain.ErrNotFound, so such values read as absent.
var ErrUnsealable = fmt.Errorf("%w: stored value cannot be unsealed", domain.ErrNotFound)

// Storage wraps next and seals every value with key.
type Storage struct {
	next domain.Storage
	key  [32]byte
}

var _ domain.Storage = (*Storage)(nil)

// New wraps next with the 32-byte key.
func New(next domain.Storage, key [32]byte) *Storage {
	return &Storage{next: next, key: key}
}

// ParseKey decodes a hex encoded 32-byte key.
func ParseKey(s string) ([32]byte, error) {
	var key [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return key, fmt.Errorf("decode storage key: %w", err)
	}
	if len(b) != len(key) {
		return key, fmt.Errorf("storage key must be %d bytes, got %d", len(key), len(b))
	}
	copy(key[:], b)
	return key, nil
}

func (s *Storage) Get(ctx context.Context, browserID, key string) (string, error) {
	raw, err := s.next.Get(ctx, browserID, key)
	if err != nil {
		return "", err
	}
	box, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil || len(box) < nonceSize+secretbox.Overhead {
		return "", ErrUnsealable
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrUnsealable
	}
	return string(plain), nil
}

func (s *Storage) Set(ctx context.Context, browserID, key, value string) error {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(value), &nonce, &s.key)
	return s.next.Set(ctx, browserID, key, base64.RawURLEncoding.EncodeToString(box))
}

func (s *Storage) Delete(ctx context.Context, browserID string, keys ...string) error {
	return s.next.Delete(ctx, browserID, keys...)
}
