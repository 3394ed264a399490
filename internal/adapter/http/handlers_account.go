package adapthttp

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"recipebook/internal/app"
	"recipebook/internal/domain"
)

type profilePage struct {
	User  *domain.User
	Error string
}

type profileForm struct {
	Username string
	Email    string
	Errors   app.ValidationErrors
	Error    string
}

type likedPage struct {
	Recipes []domain.Recipe
	Error   string
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	data := profilePage{}
	u, err := s.svc.Account.Refresh(r.Context(), sess)
	if err != nil {
		s.log.Warn("refresh profile", zap.String("browser", sess.BrowserID()), zap.Error(err))
		u = sess.User()
	}
	data.User = u
	s.render(w, r, http.StatusOK, "profile.html", "Profile", data)
}

func (s *Server) handleProfileEditForm(w http.ResponseWriter, r *http.Request) {
	u := sessionFrom(r.Context()).User()
	s.render(w, r, http.StatusOK, "profile_edit.html", "Edit profile", profileForm{Username: u.Username, Email: u.Email})
}

func (s *Server) handleProfileEdit(w http.ResponseWriter, r *http.Request) {
	upd := domain.ProfileUpdate{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
	}
	form := profileForm{Username: upd.Username, Email: upd.Email}

	_, err := s.svc.Account.UpdateProfile(r.Context(), sessionFrom(r.Context()), upd)
	var verr app.ValidationErrors
	switch {
	case errors.As(err, &verr):
		form.Errors = verr
		s.render(w, r, http.StatusUnprocessableEntity, "profile_edit.html", "Edit profile", form)
	case err != nil:
		form.Error = err.Error()
		s.render(w, r, http.StatusBadRequest, "profile_edit.html", "Edit profile", form)
	default:
		setFlash(w, "Profile updated successfully")
		redirect(w, r, "/profile")
	}
}

func (s *Server) handleChangePasswordForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "change_password.html", "Change password", profileForm{})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	chg := domain.PasswordChange{
		CurrentPassword: r.PostFormValue("current_password"),
		NewPassword:     r.PostFormValue("new_password"),
	}
	err := s.svc.Account.ChangePassword(r.Context(), sessionFrom(r.Context()), chg, r.PostFormValue("confirm_password"))
	var verr app.ValidationErrors
	switch {
	case errors.As(err, &verr):
		s.render(w, r, http.StatusUnprocessableEntity, "change_password.html", "Change password", profileForm{Errors: verr})
	case err != nil:
		s.render(w, r, http.StatusBadRequest, "change_password.html", "Change password", profileForm{Error: err.Error()})
	default:
		setFlash(w, "Password changed successfully")
		redirect(w, r, "/profile")
	}
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	to, err := s.svc.Account.DeleteAccount(r.Context(), sessionFrom(r.Context()), r.PostFormValue("password"))
	var verr app.ValidationErrors
	switch {
	case errors.As(err, &verr):
		setFlash(w, verr["password"])
		redirect(w, r, "/profile")
	case err != nil:
		setFlash(w, "Failed to delete account: "+err.Error())
		redirect(w, r, "/profile")
	default:
		setFlash(w, "Your account has been deleted")
		redirect(w, r, to)
	}
}

func (s *Server) handleLikedRecipes(w http.ResponseWriter, r *http.Request) {
	data := likedPage{}
	recipes, err := s.svc.Account.LikedRecipes(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		data.Error = "Failed to fetch liked recipes"
	} else {
		data.Recipes = recipes
	}
	s.render(w, r, http.StatusOK, "liked.html", "Liked recipes", data)
}
