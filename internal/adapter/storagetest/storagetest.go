// Package storagetest holds the behaviour every domain.Storage adapter must
// share.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"recipebook/internal/domain"
)

// Run exercises s against the storage contract. Each subtest uses its own
// browser ids, so s may be shared.
func Run(t *testing.T, s domain.Storage) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "browser-missing", domain.KeyToken)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("set get overwrite", func(t *testing.T) {
		if err := s.Set(ctx, "browser-a", domain.KeyToken, "first"); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := s.Set(ctx, "browser-a", domain.KeyToken, "second"); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, err := s.Get(ctx, "browser-a", domain.KeyToken)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got != "second" {
			t.Errorf("expected %q, got %q", "second", got)
		}
	})

	t.Run("browsers are isolated", func(t *testing.T) {
		if err := s.Set(ctx, "browser-b", domain.KeyUser, `{"id":"1"}`); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if _, err := s.Get(ctx, "browser-c", domain.KeyUser); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected other browser to see nothing, got %v", err)
		}
	})

	t.Run("delete several keys", func(t *testing.T) {
		for _, k := range []string{domain.KeyToken, domain.KeyUser, domain.KeyRedirectAfterLogin} {
			if err := s.Set(ctx, "browser-d", k, "v-"+k); err != nil {
				t.Fatalf("Set %s: %v", k, err)
			}
		}
		if err := s.Delete(ctx, "browser-d", domain.KeyToken, domain.KeyRedirectAfterLogin, "never-set"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Get(ctx, "browser-d", domain.KeyToken); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("token should be gone, got %v", err)
		}
		if v, err := s.Get(ctx, "browser-d", domain.KeyUser); err != nil || v != "v-user" {
			t.Errorf("user should survive, got %q %v", v, err)
		}
	})

	t.Run("delete unknown browser", func(t *testing.T) {
		if err := s.Delete(ctx, "browser-never-seen", domain.KeyToken); err != nil {
			t.Errorf("Delete: %v", err)
		}
	})

	t.Run("concurrent writers", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.Set(ctx, "browser-e", domain.KeyToken, "racing")
			}()
		}
		wg.Wait()
		if v, err := s.Get(ctx, "browser-e", domain.KeyToken); err != nil || v != "racing" {
			t.Errorf("expected last write to win, got %q %v", v, err)
		}
	})
}
