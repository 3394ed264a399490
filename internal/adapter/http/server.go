// Package adapthttp implements the HTTP adapter for the application: the
// server-rendered pages, the like and session-check JSON endpoints and the
// middleware that binds each request to a browser session.
package adapthttp

import (
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/csrf"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"recipebook/internal/app"
)

// Services are the application services the server routes to.
type Services struct {
	Sessions *app.Sessions
	Catalog  *app.CatalogService
	Likes    *app.LikeService
	Shopping *app.ShoppingService
	Account  *app.AccountService
}

// Options configure the server.
type Options struct {
	// CSRFKey authenticates CSRF tokens. It must be 32 bytes.
	CSRFKey        []byte
	CookieSecure   bool
	AllowedOrigins []string
	LoginPath      string
	// ExpiryCheckInterval is how often open pages ask /session/check.
	ExpiryCheckInterval time.Duration
	// LoginRate is the number of login and register posts allowed per client address
	// per minute, with LoginBurst on top.
	LoginRate  float64
	LoginBurst int
	Logger     *zap.Logger
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	svc   Services
	opts  Options
	gate  app.Gate
	log   *zap.Logger
	pages map[string]*template.Template
	login *limiters

	disableCSRF bool
}

// New creates a Server wired to the given application services.
func New(svc Services, opts Options) *Server {
	if opts.LoginPath == "" {
		opts.LoginPath = app.DefaultLoginPath
	}
	if opts.ExpiryCheckInterval <= 0 {
		opts.ExpiryCheckInterval = time.Minute
	}
	if opts.LoginRate <= 0 {
		opts.LoginRate = 10
	}
	if opts.LoginBurst <= 0 {
		opts.LoginBurst = 5
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	gate := app.NewGate()
	gate.LoginPath = opts.LoginPath

	return &Server{
		svc:   svc,
		opts:  opts,
		gate:  gate,
		log:   opts.Logger,
		pages: mustParsePages(),
		login: newLimiters(rate.Limit(opts.LoginRate/60), opts.LoginBurst),
	}
}

// WithoutCSRF disables CSRF checks (for tests).
func (s *Server) WithoutCSRF() *Server {
	s.disableCSRF = true
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := httprouter.New()
	r.RedirectTrailingSlash = true
	r.NotFound = http.HandlerFunc(s.handleNotFound)
	r.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	// CORS is only enabled for configured origins: rs/cors reads an empty
	// list as "*" and echoes any origin when credentials are allowed.
	jsonRoute := func(method, path string, h http.HandlerFunc) {
		r.Handler(method, path, h)
	}
	if len(s.opts.AllowedOrigins) > 0 {
		jsonCORS := cors.New(cors.Options{
			AllowedOrigins:   s.opts.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "Accept", "X-CSRF-Token"},
			AllowCredentials: true,
		})
		jsonRoute = func(method, path string, h http.HandlerFunc) {
			r.Handler(method, path, jsonCORS.Handler(h))
			r.Handler(http.MethodOptions, path, jsonCORS.Handler(h))
		}
	}

	jsonRoute(http.MethodGet, "/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	// The check is a GET that may log out, but only a session whose token has
	// already expired; a valid session is never changed by it.
	jsonRoute(http.MethodGet, "/session/check", s.handleSessionCheck)

	r.HandlerFunc(http.MethodGet, "/", s.handleHome)
	r.HandlerFunc(http.MethodGet, "/recipes", s.handleRecipes)
	r.HandlerFunc(http.MethodGet, "/recipes/:id", s.handleRecipe)
	r.HandlerFunc(http.MethodPost, "/recipes/:id/like", s.handleLike)
	r.HandlerFunc(http.MethodGet, "/recipes/:id/shopping-list", s.handleShoppingList)
	r.HandlerFunc(http.MethodGet, "/recipes/:id/shopping-list/export", s.handleShoppingListExport)
	r.HandlerFunc(http.MethodGet, "/find-recipes", s.handleFindRecipes)
	r.HandlerFunc(http.MethodGet, "/ingredients", s.handleIngredients)
	r.HandlerFunc(http.MethodGet, "/ingredients/:id", s.handleIngredient)
	r.HandlerFunc(http.MethodGet, "/stats", s.handleStats)

	r.HandlerFunc(http.MethodGet, "/login", s.handleLoginForm)
	r.Handler(http.MethodPost, "/login", s.throttled(http.HandlerFunc(s.handleLogin)))
	r.HandlerFunc(http.MethodGet, "/register", s.handleRegisterForm)
	r.Handler(http.MethodPost, "/register", s.throttled(http.HandlerFunc(s.handleRegister)))
	r.HandlerFunc(http.MethodPost, "/logout", s.handleLogout)

	r.Handler(http.MethodGet, "/profile", s.protected(s.handleProfile))
	r.Handler(http.MethodGet, "/profile/edit", s.protected(s.handleProfileEditForm))
	r.Handler(http.MethodPost, "/profile/edit", s.protected(s.handleProfileEdit))
	r.Handler(http.MethodGet, "/profile/change-password", s.protected(s.handleChangePasswordForm))
	r.Handler(http.MethodPost, "/profile/change-password", s.protected(s.handleChangePassword))
	r.Handler(http.MethodPost, "/profile/delete", s.protected(s.handleDeleteAccount))
	r.Handler(http.MethodGet, "/liked-recipes", s.protected(s.handleLikedRecipes))

	static, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	r.ServeFiles("/static/*filepath", http.FS(static))

	var h http.Handler = r
	h = s.withSession(h)
	h = s.withBrowser(h)
	h = s.withCSRF(h)
	h = withNoCache(h)
	h = securityHeaders(h)
	return s.loggingMiddleware(h)
}

func (s *Server) withCSRF(next http.Handler) http.Handler {
	if s.disableCSRF {
		return next
	}
	protect := csrf.Protect(s.opts.CSRFKey,
		csrf.Secure(s.opts.CookieSecure),
		csrf.Path("/"),
		csrf.FieldName(csrfField),
		csrf.CookieName("rb_csrf"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(s.handleCSRFFailure)),
	)(next)
	if s.opts.CookieSecure {
		return protect
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		protect.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}
