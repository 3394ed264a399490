// Package app holds the application services: the browser session, view
// gating and the catalog, like, shopping and account use cases.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"recipebook/internal/domain"
)

var (
	// ErrNotAuthenticated indicates that the operation needs a logged-in session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionLoading indicates that stored credentials could not be read yet.
	ErrSessionLoading = errors.New("session is still loading")
)

// ExpiredNotice is shown once when a session expires while the app is open.
const ExpiredNotice = "Your session has expired. Please log in again."

// DefaultPath is where logout and login without a remembered path land.
const DefaultPath = "/"

// Sessions loads and owns every browser's session. All writes to the stored
// token, user and return path go through it.
type Sessions struct {
	store domain.Storage
	auth  domain.AuthAPI
	log   *zap.Logger
	now   func() time.Time
}

// NewSessions creates the session service.
func NewSessions(store domain.Storage, auth domain.AuthAPI, log *zap.Logger) *Sessions {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sessions{store: store, auth: auth, log: log, now: time.Now}
}

// Session is one browser's view of the stored credentials for the duration of
// a request. It is not safe for concurrent use.
type Session struct {
	owner     *Sessions
	browserID string
	state     domain.AuthState
	token     string
	user      *domain.User
	err       string
}

// Load reads the stored session for browserID. An expired or undecodable token
// is discarded silently along with the user record. When storage cannot be
// read the session stays in StateLoading and the error is returned.
func (m *Sessions) Load(ctx context.Context, browserID string) (*Session, error) {
	s := &Session{owner: m, browserID: browserID, state: domain.StateLoading}

	token, rawUser, err := m.read(ctx, browserID)
	if err != nil {
		return s, err
	}
	if token == "" || rawUser == "" {
		s.state = domain.StateUnauthenticated
		return s, nil
	}

	var u domain.User
	if err := json.Unmarshal([]byte(rawUser), &u); err != nil || !tokenValid(token, m.now()) {
		m.discard(ctx, browserID)
		s.state = domain.StateUnauthenticated
		return s, nil
	}

	s.token, s.user, s.state = token, &u, domain.StateAuthenticated
	return s, nil
}

func (m *Sessions) read(ctx context.Context, browserID string) (token, user string, err error) {
	token, err = m.store.Get(ctx, browserID, domain.KeyToken)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", "", fmt.Errorf("load session: %w", err)
	}
	user, err = m.store.Get(ctx, browserID, domain.KeyUser)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", "", fmt.Errorf("load session: %w", err)
	}
	return token, user, nil
}

func (m *Sessions) discard(ctx context.Context, browserID string) {
	if err := m.store.Delete(ctx, browserID, domain.KeyToken, domain.KeyUser); err != nil {
		m.log.Warn("discard stale session", zap.String("browser", browserID), zap.Error(err))
	}
}

// CheckResult is the outcome of a periodic expiry check.
type CheckResult struct {
	Authenticated bool      `json:"authenticated"`
	Expired       bool      `json:"expired"`
	Notice        string    `json:"notice,omitempty"`
	Redirect      string    `json:"redirect,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitzero"`
}

// Check is the active expiry check run while a page is open. When a stored
// session has expired since it was last seen valid, Check logs it out and
// reports the notice. The logout removes the session, so the notice is only
// reported once.
func (m *Sessions) Check(ctx context.Context, browserID string) (CheckResult, error) {
	token, rawUser, err := m.read(ctx, browserID)
	if err != nil {
		return CheckResult{}, err
	}
	if token == "" || rawUser == "" {
		return CheckResult{}, nil
	}

	exp, err := TokenExpiry(token)
	if err == nil && exp.After(m.now()) {
		return CheckResult{Authenticated: true, ExpiresAt: exp}, nil
	}

	s := &Session{owner: m, browserID: browserID, state: domain.StateAuthenticated, token: token}
	redirect := s.Logout(ctx)
	m.log.Info("session expired", zap.String("browser", browserID))
	return CheckResult{Expired: true, Notice: ExpiredNotice, Redirect: redirect}, nil
}

// BrowserID returns the id of the browser owning the session.
func (s *Session) BrowserID() string { return s.browserID }

// State returns the resolution state.
func (s *Session) State() domain.AuthState { return s.state }

// IsAuthenticated is true iff a token and user are held and the token was
// unexpired when loaded.
func (s *Session) IsAuthenticated() bool {
	return s.state == domain.StateAuthenticated && s.token != "" && s.user != nil
}

// Token returns the bearer token, or "" when unauthenticated.
func (s *Session) Token() string {
	if !s.IsAuthenticated() {
		return ""
	}
	return s.token
}

// User returns a copy of the user record, or nil.
func (s *Session) User() *domain.User {
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Error returns the message of the last failed login or register.
func (s *Session) Error() string { return s.err }

// ClearError forgets the last error.
func (s *Session) ClearError() { s.err = "" }

// Login authenticates against the API. On success the token and user are
// stored and the remembered return path (or DefaultPath) is returned and
// forgotten. On failure the error text is kept and nothing else changes.
func (s *Session) Login(ctx context.Context, email, password string) (string, error) {
	s.err = ""
	resp, err := s.owner.auth.Login(ctx, domain.Credentials{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		s.err = errorText(err, "Login failed")
		return "", err
	}
	return s.establish(ctx, resp)
}

// Register creates an account and logs in with the same contract as Login.
func (s *Session) Register(ctx context.Context, reg domain.Registration) (string, error) {
	s.err = ""
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	resp, err := s.owner.auth.Register(ctx, reg)
	if err != nil {
		s.err = errorText(err, "Registration failed")
		return "", err
	}
	return s.establish(ctx, resp)
}

func (s *Session) establish(ctx context.Context, resp *domain.AuthResponse) (string, error) {
	m := s.owner
	rawUser, err := json.Marshal(resp.User)
	if err != nil {
		s.err = "Login failed"
		return "", fmt.Errorf("encode user: %w", err)
	}
	if err := s.persist(ctx, resp.Token, string(rawUser)); err != nil {
		s.err = "Login failed"
		return "", err
	}

	u := resp.User
	s.token, s.user, s.state, s.err = resp.Token, &u, domain.StateAuthenticated, ""

	redirect := DefaultPath
	if p, err := m.store.Get(ctx, s.browserID, domain.KeyRedirectAfterLogin); err == nil {
		redirect = LocalPath(p)
	}
	if err := m.store.Delete(ctx, s.browserID, domain.KeyRedirectAfterLogin); err != nil {
		m.log.Warn("clear return path", zap.String("browser", s.browserID), zap.Error(err))
	}
	return redirect, nil
}

// persist writes token and user. If the second write fails the previous token
// is put back so a failed login leaves the stored session unchanged.
func (s *Session) persist(ctx context.Context, token, rawUser string) error {
	st := s.owner.store
	prev, prevErr := st.Get(ctx, s.browserID, domain.KeyToken)
	if err := st.Set(ctx, s.browserID, domain.KeyToken, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := st.Set(ctx, s.browserID, domain.KeyUser, rawUser); err != nil {
		if prevErr == nil {
			_ = st.Set(ctx, s.browserID, domain.KeyToken, prev)
		} else {
			_ = st.Delete(ctx, s.browserID, domain.KeyToken)
		}
		return fmt.Errorf("store user: %w", err)
	}
	return nil
}

// Logout removes the token, user and return path and returns DefaultPath.
// Storage failures are logged, never returned.
func (s *Session) Logout(ctx context.Context) string {
	m := s.owner
	if err := m.store.Delete(ctx, s.browserID, domain.KeyToken, domain.KeyUser, domain.KeyRedirectAfterLogin); err != nil {
		m.log.Error("logout", zap.String("browser", s.browserID), zap.Error(err))
	}
	s.token, s.user, s.err = "", nil, ""
	s.state = domain.StateUnauthenticated
	return DefaultPath
}

// RememberRedirect stores the path to return to after the next login.
func (s *Session) RememberRedirect(ctx context.Context, path string) error {
	return s.owner.store.Set(ctx, s.browserID, domain.KeyRedirectAfterLogin, LocalPath(path))
}

// UpdateUser replaces the stored user record of an authenticated session.
func (s *Session) UpdateUser(ctx context.Context, u domain.User) error {
	if !s.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.owner.store.Set(ctx, s.browserID, domain.KeyUser, string(raw)); err != nil {
		return fmt.Errorf("store user: %w", err)
	}
	s.user = &u
	return nil
}

// LocalPath returns p when it is a path on this site and DefaultPath
// otherwise. Paths holding control characters are refused: browsers strip
// them, so "/\t/host" would be followed as "//host".
func LocalPath(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return DefaultPath
	}
	if strings.IndexFunc(p, unicode.IsControl) >= 0 {
		return DefaultPath
	}
	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return DefaultPath
	}
	return p
}

func errorText(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
