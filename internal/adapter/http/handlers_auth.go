package adapthttp

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"recipebook/internal/app"
	"recipebook/internal/domain"
)

// likePromptText is shown on the login page after a guest tried to like.
const likePromptText = "Please log in to like recipes."

type authForm struct {
	Username string
	Email    string
	Prompt   string
	Errors   app.ValidationErrors
	Error    string
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if sess.IsAuthenticated() {
		redirect(w, r, app.DefaultPath)
		return
	}
	form := authForm{}
	if r.URL.Query().Get("prompt") == "like-recipe" {
		form.Prompt = likePromptText
	}
	s.render(w, r, http.StatusOK, "login.html", "Log in", form)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	form := authForm{Email: email}

	if err := app.ValidateLogin(email, password); err != nil {
		form.Errors = validationFields(err)
		s.render(w, r, http.StatusUnprocessableEntity, "login.html", "Log in", form)
		return
	}

	sess := sessionFrom(r.Context())
	to, err := sess.Login(r.Context(), email, password)
	if err != nil {
		s.log.Info("login failed", zap.String("browser", sess.BrowserID()), zap.Error(err))
		form.Error = sess.Error()
		s.render(w, r, http.StatusUnauthorized, "login.html", "Log in", form)
		return
	}
	redirect(w, r, to)
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	if sessionFrom(r.Context()).IsAuthenticated() {
		redirect(w, r, app.DefaultPath)
		return
	}
	s.render(w, r, http.StatusOK, "register.html", "Register", authForm{})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	reg := domain.Registration{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	form := authForm{Username: reg.Username, Email: reg.Email}

	if err := app.ValidateRegistration(reg, r.PostFormValue("confirm_password")); err != nil {
		form.Errors = validationFields(err)
		s.render(w, r, http.StatusUnprocessableEntity, "register.html", "Register", form)
		return
	}

	sess := sessionFrom(r.Context())
	to, err := sess.Register(r.Context(), reg)
	if err != nil {
		s.log.Info("register failed", zap.String("browser", sess.BrowserID()), zap.Error(err))
		form.Error = sess.Error()
		s.render(w, r, http.StatusBadRequest, "register.html", "Register", form)
		return
	}
	redirect(w, r, to)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	redirect(w, r, sessionFrom(r.Context()).Logout(r.Context()))
}

// handleSessionCheck is polled by open pages. An expired session is logged
// out and the notice is returned once. Nothing else is written, so a
// cross-site request can at most clear a session that is already unusable.
func (s *Server) handleSessionCheck(w http.ResponseWriter, r *http.Request) {
	browser := browserFrom(r.Context())
	res, err := s.svc.Sessions.Check(r.Context(), browser)
	if err != nil {
		s.log.Error("session check", zap.String("browser", browser), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, errors.New("session storage unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func validationFields(err error) app.ValidationErrors {
	var v app.ValidationErrors
	if errors.As(err, &v) {
		return v
	}
	return app.ValidationErrors{"form": err.Error()}
}
