package app

import (
	"context"
	"fmt"

	"recipebook/internal/domain"
)

// DefaultLoginPath is where denied viewers are sent.
const DefaultLoginPath = "/login"

// Decision is what a protected view should do.
type Decision int

const (
	// Allow renders the wrapped content unchanged.
	Allow Decision = iota
	// Placeholder renders a loading placeholder.
	Placeholder
	// Blank renders nothing.
	Blank
	// Redirect sends the viewer to GateResult.Location.
	Redirect
)

// GateResult is the outcome of a gate check.
type GateResult struct {
	Decision Decision
	Location string
}

// Gate protects views that need an authenticated session.
type Gate struct {
	LoginPath   string
	ShowLoading bool
}

// NewGate returns a gate redirecting to DefaultLoginPath that shows a
// placeholder while loading.
func NewGate() Gate {
	return Gate{LoginPath: DefaultLoginPath, ShowLoading: true}
}

// Check decides for sess viewing currentPath. A denial writes currentPath as
// the return path exactly once.
func (g Gate) Check(ctx context.Context, sess *Session, currentPath string) (GateResult, error) {
	switch sess.State() {
	case domain.StateLoading:
		if g.ShowLoading {
			return GateResult{Decision: Placeholder}, nil
		}
		return GateResult{Decision: Blank}, nil
	case domain.StateAuthenticated:
		if sess.IsAuthenticated() {
			return GateResult{Decision: Allow}, nil
		}
	}

	login := g.LoginPath
	if login == "" {
		login = DefaultLoginPath
	}
	if err := sess.RememberRedirect(ctx, currentPath); err != nil {
		return GateResult{Decision: Redirect, Location: login}, fmt.Errorf("remember return path: %w", err)
	}
	return GateResult{Decision: Redirect, Location: login}, nil
}
