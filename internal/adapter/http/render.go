package adapthttp

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strconv"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"recipebook/internal/domain"
)

//go:embed templates/*.html static
var assets embed.FS

const csrfField = "csrf_token"

// Raw HTML in recipe text is escaped; WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

var funcs = template.FuncMap{
	"markdown": renderMarkdown,
	"qty": func(q float64) string {
		return strconv.FormatFloat(q, 'f', -1, 64)
	},
	"minutes": func(n int) string {
		if n >= 60 {
			if n%60 == 0 {
				return fmt.Sprintf("%d h", n/60)
			}
			return fmt.Sprintf("%d h %d min", n/60, n%60)
		}
		return fmt.Sprintf("%d min", n)
	},
	"kcal": func(v float64) string {
		return strconv.FormatFloat(v, 'f', 0, 64) + " kcal"
	},
}

// partials are parsed into every page.
var partials = []string{"templates/layout.html", "templates/partials.html"}

func mustParsePages() map[string]*template.Template {
	files, err := fs.Glob(assets, "templates/*.html")
	if err != nil {
		panic(err)
	}
	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		name := path.Base(f)
		if name == "layout.html" || name == "partials.html" {
			continue
		}
		patterns := append(append([]string{}, partials...), f)
		pages[name] = template.Must(template.New("layout.html").Funcs(funcs).ParseFS(assets, patterns...))
	}
	return pages
}

// view is what every page template receives.
type view struct {
	Title         string
	Path          string
	User          *domain.User
	Authenticated bool
	CSRF          template.HTML
	Flash         string
	// CheckInterval is the session check period in milliseconds.
	CheckInterval int64
	Data          any
}

// likeControl is the data of one like button.
type likeControl struct {
	Recipe        domain.Recipe
	CSRF          template.HTML
	ReturnTo      string
	Authenticated bool
}

// Like builds the like button for r on this page.
func (v view) Like(r domain.Recipe) likeControl {
	return likeControl{Recipe: r, CSRF: v.CSRF, ReturnTo: v.Path, Authenticated: v.Authenticated}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	tpl, ok := s.pages[page]
	if !ok {
		s.log.Error("unknown template", zap.String("page", page))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	v := view{
		Title:         title,
		Path:          r.URL.RequestURI(),
		CSRF:          csrf.TemplateField(r),
		Flash:         takeFlash(w, r),
		CheckInterval: s.opts.ExpiryCheckInterval.Milliseconds(),
		Data:          data,
	}
	if sess := sessionFrom(r.Context()); sess != nil && sess.IsAuthenticated() {
		v.User, v.Authenticated = sess.User(), true
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, v); err != nil {
		s.log.Error("render", zap.String("page", page), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "error.html", "Not found", errorPage{
		Heading: "Page not found",
		Message: "The page you are looking for does not exist.",
	})
}

type errorPage struct {
	Heading string
	Message string
}

func (s *Server) handleCSRFFailure(w http.ResponseWriter, r *http.Request) {
	s.log.Warn("csrf rejected", zap.String("path", r.URL.Path), zap.Error(csrf.FailureReason(r)))
	if wantsJSON(r) {
		writeError(w, http.StatusForbidden, fmt.Errorf("invalid or missing CSRF token"))
		return
	}
	s.render(w, r, http.StatusForbidden, "error.html", "Forbidden", errorPage{
		Heading: "Form expired",
		Message: "The form was stale or incomplete. Go back, reload the page and try again.",
	})
}
