package adapthttp

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"recipebook/internal/app"
)

type contextKey string

const (
	browserContextKey contextKey = "browser"
	sessionContextKey contextKey = "session"
)

// BrowserCookie identifies a browser across requests.
const BrowserCookie = "rb_browser"

const browserCookieMaxAge = 365 * 24 * 60 * 60

func browserFrom(ctx context.Context) string {
	id, _ := ctx.Value(browserContextKey).(string)
	return id
}

// lazySession loads the session on first use. The expiry check never loads
// it, so Load cannot discard an expired token before Check reports it.
type lazySession struct {
	once sync.Once
	load func() *app.Session
	sess *app.Session
}

func sessionFrom(ctx context.Context) *app.Session {
	ls, _ := ctx.Value(sessionContextKey).(*lazySession)
	if ls == nil {
		return nil
	}
	ls.once.Do(func() { ls.sess = ls.load() })
	return ls.sess
}

// withBrowser makes sure every request carries a browser id, issuing a new
// one when the cookie is missing or malformed.
func (s *Server) withBrowser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(BrowserCookie); err == nil {
			if u, err := uuid.Parse(c.Value); err == nil {
				id = u.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     BrowserCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.opts.CookieSecure,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   browserCookieMaxAge,
			})
		}
		ctx := context.WithValue(r.Context(), browserContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withSession binds the browser's session to the request. A storage failure
// leaves it in the loading state; views decide what to render for that.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		browser := browserFrom(ctx)
		ls := &lazySession{load: func() *app.Session {
			sess, err := s.svc.Sessions.Load(ctx, browser)
			if err != nil {
				s.log.Error("load session", zap.String("browser", browser), zap.Error(err))
			}
			return sess
		}}
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionContextKey, ls)))
	})
}

// protected renders h only for authenticated sessions.
func (s *Server) protected(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r.Context())
		current := r.URL.RequestURI()
		if r.Method != http.MethodGet {
			current = r.Referer()
			if ref, err := urlPath(current); err == nil {
				current = ref
			}
		}
		res, err := s.gate.Check(r.Context(), sess, current)
		if err != nil {
			s.log.Warn("gate", zap.String("browser", sess.BrowserID()), zap.Error(err))
		}
		switch res.Decision {
		case app.Allow:
			h(w, r)
		case app.Placeholder:
			w.Header().Set("Retry-After", "2")
			s.render(w, r, http.StatusServiceUnavailable, "loading.html", "Loading", nil)
		case app.Blank:
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			http.Redirect(w, r, res.Location, http.StatusSeeOther)
		}
	})
}

// limiters hands out one token bucket per key.
type limiters struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[string]*bucket
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

const limiterIdle = 30 * time.Minute

func newLimiters(limit rate.Limit, burst int) *limiters {
	return &limiters{limit: limit, burst: burst, buckets: make(map[string]*bucket)}
}

func (l *limiters) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= 1024 {
			l.sweep(now)
		}
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

func (l *limiters) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.seen) > limiterIdle {
			delete(l.buckets, k)
		}
	}
}

// throttled limits login and register posts per client address. The browser
// cookie is not used as the key: a client that drops it gets a fresh id on
// every request.
func (s *Server) throttled(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := clientAddr(r)
		if !s.login.allow(addr, time.Now()) {
			s.log.Warn("auth throttled", zap.String("addr", addr), zap.String("path", r.URL.Path))
			w.Header().Set("Retry-After", "60")
			http.Error(w, "too many attempts, please wait a minute", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientAddr is the host part of the peer address.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "same-origin")
		h.Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; style-src 'self'")
		next.ServeHTTP(w, r)
	})
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
