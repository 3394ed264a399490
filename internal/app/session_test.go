package app

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"recipebook/internal/domain"
)

func authResponse(t *testing.T, username string) *domain.AuthResponse {
	t.Helper()
	return &domain.AuthResponse{
		User:  domain.User{ID: "u-" + username, Username: username, Email: username + "@example.com"},
		Token: signToken(t, time.Now().Add(24*time.Hour)),
	}
}

func TestSessions_Load(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		user      string
		wantState domain.AuthState
		wantGone  bool
	}{
		{"nothing stored", "", "", domain.StateUnauthenticated, false},
		{"valid", signToken(t, time.Now().Add(time.Hour)), `{"id":"u1","username":"ann"}`, domain.StateAuthenticated, false},
		{"expired ten seconds ago", signToken(t, time.Now().Add(-10*time.Second)), `{"id":"u1"}`, domain.StateUnauthenticated, true},
		{"not a jwt", "garbage", `{"id":"u1"}`, domain.StateUnauthenticated, true},
		{"undecodable user", signToken(t, time.Now().Add(time.Hour)), `{not json`, domain.StateUnauthenticated, true},
		{"token without user", signToken(t, time.Now().Add(time.Hour)), "", domain.StateUnauthenticated, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			st := newMockStorage()
			if tc.token != "" {
				_ = st.Set(ctx, "b1", domain.KeyToken, tc.token)
			}
			if tc.user != "" {
				_ = st.Set(ctx, "b1", domain.KeyUser, tc.user)
			}

			sess, err := NewSessions(st, &mockAuthAPI{}, nil).Load(ctx, "b1")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if sess.State() != tc.wantState {
				t.Errorf("state = %v; want %v", sess.State(), tc.wantState)
			}
			if _, ok := st.value("b1", domain.KeyToken); tc.wantGone && ok {
				t.Error("expected stale token to be discarded")
			}
			if sess.Error() != "" {
				t.Errorf("silent discard must not set an error, got %q", sess.Error())
			}
		})
	}
}

func TestSessions_Load_TokenWithoutExpiryIsUnauthenticated(t *testing.T) {
	ctx := context.Background()
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"user_id":"u1"}`))
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	st := newMockStorage()
	_ = st.Set(ctx, "b1", domain.KeyToken, header+"."+payload+".sig")
	_ = st.Set(ctx, "b1", domain.KeyUser, `{"id":"u1"}`)

	sess, err := NewSessions(st, &mockAuthAPI{}, nil).Load(ctx, "b1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sess.IsAuthenticated() {
		t.Error("token without exp must not authenticate")
	}
}

func TestSessions_Load_StorageFailureStaysLoading(t *testing.T) {
	st := newMockStorage()
	st.getFn = func(key string) (string, error) { return "", errors.New("connection refused") }

	sess, err := NewSessions(st, &mockAuthAPI{}, nil).Load(context.Background(), "b1")
	if err == nil {
		t.Fatal("expected storage error")
	}
	if sess.State() != domain.StateLoading {
		t.Errorf("state = %v; want loading", sess.State())
	}
}

func TestSession_Login_Success(t *testing.T) {
	ctx := context.Background()
	st := newMockStorage()
	_ = st.Set(ctx, "b1", domain.KeyRedirectAfterLogin, "/recipes/42")

	var gotCreds domain.Credentials
	auth := &mockAuthAPI{
		loginFn: func(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
			gotCreds = creds
			return authResponse(t, "ann"), nil
		},
	}
	sessions := NewSessions(st, auth, nil)
	sess := guestSession(t, st)
	sess.owner = sessions

	redirect, err := sess.Login(ctx, " ann@example.com ", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if gotCreds.Email != "ann@example.com" || gotCreds.Password != "secret1" {
		t.Errorf("unexpected credentials %+v", gotCreds)
	}
	if redirect != "/recipes/42" {
		t.Errorf("redirect = %q; want /recipes/42", redirect)
	}
	if !sess.IsAuthenticated() || sess.User().Username != "ann" {
		t.Errorf("expected authenticated as ann, got %v %+v", sess.State(), sess.User())
	}
	if _, ok := st.value("b1", domain.KeyRedirectAfterLogin); ok {
		t.Error("return path should be cleared")
	}

	// The return path is consumed: a second login lands on the default path.
	redirect, err = sess.Login(ctx, "ann@example.com", "secret1")
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if redirect != DefaultPath {
		t.Errorf("second redirect = %q; want %q", redirect, DefaultPath)
	}

	reloaded, err := sessions.Load(ctx, "b1")
	if err != nil || !reloaded.IsAuthenticated() {
		t.Errorf("stored session should load as authenticated, got %v %v", reloaded.State(), err)
	}
}

func TestSession_Login_FailureLeavesSessionUntouched(t *testing.T) {
	ctx := context.Background()
	st := newMockStorage()
	prior := authedSession(t, st)
	priorToken := prior.Token()

	auth := &mockAuthAPI{
		loginFn: func(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
			return nil, errors.New("Invalid email or password")
		},
	}
	prior.owner = NewSessions(st, auth, nil)

	if _, err := prior.Login(ctx, "ann@example.com", "wrong"); err == nil {
		t.Fatal("expected login error")
	}
	if prior.Error() != "Invalid email or password" {
		t.Errorf("error = %q", prior.Error())
	}
	if !prior.IsAuthenticated() || prior.Token() != priorToken {
		t.Error("failed login must not change the existing session")
	}
	if v, _ := st.value("b1", domain.KeyToken); v != priorToken {
		t.Error("stored token changed after failed login")
	}

	prior.ClearError()
	if prior.Error() != "" {
		t.Error("ClearError did not clear")
	}
}

func TestSession_Login_PartialWriteIsRolledBack(t *testing.T) {
	ctx := context.Background()
	st := newMockStorage()
	prior := authedSession(t, st)
	priorToken := prior.Token()

	st.setFn = func(key, value string) error {
		if key == domain.KeyUser {
			return errors.New("disk full")
		}
		return nil
	}
	prior.owner = NewSessions(st, &mockAuthAPI{
		loginFn: func(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
			return authResponse(t, "bob"), nil
		},
	}, nil)

	if _, err := prior.Login(ctx, "bob@example.com", "secret1"); err == nil {
		t.Fatal("expected storage error")
	}
	if v, _ := st.value("b1", domain.KeyToken); v != priorToken {
		t.Errorf("token not restored after failed user write")
	}
	if prior.User().Username != "ann" {
		t.Errorf("in-memory user changed to %q", prior.User().Username)
	}
}

func TestSession_Register(t *testing.T) {
	ctx := context.Background()
	st := newMockStorage()
	var got domain.Registration
	sess := guestSession(t, st)
	sess.owner = NewSessions(st, &mockAuthAPI{
		registerFn: func(ctx context.Context, reg domain.Registration) (*domain.AuthResponse, error) {
			got = reg
			return authResponse(t, reg.Username), nil
		},
	}, nil)

	redirect, err := sess.Register(ctx, domain.Registration{Username: " cook ", Email: "cook@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got.Username != "cook" {
		t.Errorf("username not trimmed: %q", got.Username)
	}
	if redirect != DefaultPath || !sess.IsAuthenticated() {
		t.Errorf("redirect = %q authenticated = %v", redirect, sess.IsAuthenticated())
	}
}

func TestSession_Register_Failure(t *testing.T) {
	st := newMockStorage()
	sess := guestSession(t, st)
	sess.owner = NewSessions(st, &mockAuthAPI{
		registerFn: func(ctx context.Context, reg domain.Registration) (*domain.AuthResponse, error) {
			return nil, errors.New("User already exists")
		},
	}, nil)

	if _, err := sess.Register(context.Background(), domain.Registration{Username: "ann"}); err == nil {
		t.Fatal("expected error")
	}
	if sess.Error() != "User already exists" || sess.IsAuthenticated() {
		t.Errorf("unexpected state error=%q auth=%v", sess.Error(), sess.IsAuthenticated())
	}
	if st.setCount(domain.KeyToken) != 0 {
		t.Error("failed register must not store a token")
	}
}

func TestSession_Logout(t *testing.T) {
	ctx := context.Background()
	st := newMockStorage()
	sess := authedSession(t, st)
	_ = sess.RememberRedirect(ctx, "/liked-recipes")

	if got := sess.Logout(ctx); got != DefaultPath {
		t.Errorf("Logout() = %q", got)
	}
	for _, k := range []string{domain.KeyToken, domain.KeyUser, domain.KeyRedirectAfterLogin} {
		if _, ok := st.value("b1", k); ok {
			t.Errorf("%s still stored after logout", k)
		}
	}
	if sess.IsAuthenticated() || sess.Token() != "" || sess.User() != nil {
		t.Error("session still holds credentials")
	}
}

func TestSession_Logout_NeverFails(t *testing.T) {
	st := newMockStorage()
	sess := authedSession(t, st)
	st.deleteFn = func(keys ...string) error { return errors.New("unavailable") }

	if got := sess.Logout(context.Background()); got != DefaultPath {
		t.Errorf("Logout() = %q", got)
	}
	if sess.State() != domain.StateUnauthenticated {
		t.Errorf("state = %v", sess.State())
	}
}

func TestSessions_Check(t *testing.T) {
	ctx := context.Background()
	st := newMockStorage()
	sessions := NewSessions(st, &mockAuthAPI{}, nil)

	res, err := sessions.Check(ctx, "b1")
	if err != nil || res.Authenticated || res.Expired {
		t.Fatalf("empty storage: %+v %v", res, err)
	}

	storeSession(t, st, "b1", signToken(t, time.Now().Add(90*time.Second)))
	res, err = sessions.Check(ctx, "b1")
	if err != nil || !res.Authenticated || res.Expired || res.ExpiresAt.IsZero() {
		t.Fatalf("valid session: %+v %v", res, err)
	}

	sessions.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	res, err = sessions.Check(ctx, "b1")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Expired || res.Notice != ExpiredNotice || res.Redirect != DefaultPath {
		t.Errorf("expected expiry notice, got %+v", res)
	}
	if _, ok := st.value("b1", domain.KeyToken); ok {
		t.Error("expired session should be logged out")
	}

	res, _ = sessions.Check(ctx, "b1")
	if res.Expired || res.Notice != "" {
		t.Errorf("notice must fire once, got %+v", res)
	}
}

func TestSession_UpdateUser(t *testing.T) {
	ctx := context.Background()
	st := newMockStorage()

	guest := guestSession(t, st)
	if err := guest.UpdateUser(ctx, domain.User{ID: "u1"}); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}

	sess := authedSession(t, st)
	if err := sess.UpdateUser(ctx, domain.User{ID: "u1", Username: "annie", Email: "annie@example.com"}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	raw, _ := st.value("b1", domain.KeyUser)
	if !strings.Contains(raw, `"username":"annie"`) {
		t.Errorf("stored user not updated: %s", raw)
	}
	if sess.User().Username != "annie" {
		t.Errorf("in-memory user not updated")
	}
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/recipes/42", "/recipes/42"},
		{"/profile?tab=1", "/profile?tab=1"},
		{"", "/"},
		{"https://evil.example", "/"},
		{"//evil.example", "/"},
		{"/\\evil.example", "/"},
		{"recipes", "/"},
		{"/\t/evil.example", "/"},
		{"/\n/evil.example", "/"},
		{"/recipes\x00", "/"},
		{"/\x7f/evil.example", "/"},
		{"/recipes?q=%2F%2Fevil", "/recipes?q=%2F%2Fevil"},
	}
	for _, tc := range tests {
		if got := LocalPath(tc.in); got != tc.want {
			t.Errorf("LocalPath(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got, err := TokenExpiry(signToken(t, exp))
	if err != nil {
		t.Fatalf("TokenExpiry: %v", err)
	}
	if !got.Equal(exp) {
		t.Errorf("expiry = %v; want %v", got, exp)
	}

	for _, bad := range []string{"", "a.b", "a.b.c", "header.payload.signature.extra"} {
		if _, err := TokenExpiry(bad); !errors.Is(err, ErrTokenUndecodable) {
			t.Errorf("TokenExpiry(%q) err = %v; want ErrTokenUndecodable", bad, err)
		}
	}
}
