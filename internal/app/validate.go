package app

import (
	"sort"
	"strings"

	"recipebook/internal/domain"
)

// Form limits checked before anything is sent to the API.
const (
	MinPasswordLength = 6
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// ValidationErrors maps form fields to messages.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + v[f]
	}
	return strings.Join(parts, "; ")
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func checkEmail(v ValidationErrors, email string) {
	switch email = strings.TrimSpace(email); {
	case email == "":
		v["email"] = "Email is required"
	case !strings.Contains(email, "@"):
		v["email"] = "Email must be a valid email address"
	}
}

func checkUsername(v ValidationErrors, username string) {
	n := len([]rune(strings.TrimSpace(username)))
	switch {
	case n == 0:
		v["username"] = "Username is required"
	case n < MinUsernameLength || n > MaxUsernameLength:
		v["username"] = "Username must be between 3 and 30 characters"
	}
}

// ValidateLogin checks the login form.
func ValidateLogin(email, password string) error {
	v := ValidationErrors{}
	checkEmail(v, email)
	if password == "" {
		v["password"] = "Password is required"
	}
	return v.orNil()
}

// ValidateRegistration checks the register form.
func ValidateRegistration(reg domain.Registration, confirm string) error {
	v := ValidationErrors{}
	checkUsername(v, reg.Username)
	checkEmail(v, reg.Email)
	if len(reg.Password) < MinPasswordLength {
		v["password"] = "Password must be at least 6 characters"
	}
	if confirm != reg.Password {
		v["confirm_password"] = "Passwords do not match"
	}
	return v.orNil()
}

// ValidateProfile checks the edit-profile form.
func ValidateProfile(upd domain.ProfileUpdate) error {
	v := ValidationErrors{}
	checkUsername(v, upd.Username)
	checkEmail(v, upd.Email)
	return v.orNil()
}

// ValidatePasswordChange checks the change-password form.
func ValidatePasswordChange(chg domain.PasswordChange, confirm string) error {
	v := ValidationErrors{}
	if chg.CurrentPassword == "" {
		v["current_password"] = "Current password is required"
	}
	switch {
	case len(chg.NewPassword) < MinPasswordLength:
		v["new_password"] = "New password must be at least 6 characters"
	case chg.NewPassword == chg.CurrentPassword:
		v["new_password"] = "New password must differ from the current one"
	}
	if confirm != chg.NewPassword {
		v["confirm_password"] = "Passwords do not match"
	}
	return v.orNil()
}
