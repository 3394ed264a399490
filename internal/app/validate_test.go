package app

import (
	"errors"
	"testing"

	"recipebook/internal/domain"
)

func fieldsOf(t *testing.T, err error) ValidationErrors {
	t.Helper()
	if err == nil {
		return nil
	}
	var v ValidationErrors
	if !errors.As(err, &v) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	return v
}

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name    string
		reg     domain.Registration
		confirm string
		fields  []string
	}{
		{"valid", domain.Registration{Username: "ann", Email: "ann@example.com", Password: "secret1"}, "secret1", nil},
		{"short username", domain.Registration{Username: "an", Email: "ann@example.com", Password: "secret1"}, "secret1", []string{"username"}},
		{"long username", domain.Registration{Username: "abcdefghijabcdefghijabcdefghijx", Email: "a@b", Password: "secret1"}, "secret1", []string{"username"}},
		{"bad email", domain.Registration{Username: "ann", Email: "ann", Password: "secret1"}, "secret1", []string{"email"}},
		{"short password", domain.Registration{Username: "ann", Email: "a@b", Password: "12345"}, "12345", []string{"password"}},
		{"mismatch", domain.Registration{Username: "ann", Email: "a@b", Password: "secret1"}, "secret2", []string{"confirm_password"}},
		{"empty", domain.Registration{}, "x", []string{"username", "email", "password", "confirm_password"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := fieldsOf(t, ValidateRegistration(tc.reg, tc.confirm))
			if len(v) != len(tc.fields) {
				t.Fatalf("errors = %v; want fields %v", v, tc.fields)
			}
			for _, f := range tc.fields {
				if v[f] == "" {
					t.Errorf("missing error for %s", f)
				}
			}
		})
	}
}

func TestValidateLogin(t *testing.T) {
	if err := ValidateLogin("ann@example.com", "x"); err != nil {
		t.Errorf("valid login: %v", err)
	}
	v := fieldsOf(t, ValidateLogin(" ", ""))
	if v["email"] == "" || v["password"] == "" {
		t.Errorf("errors = %v", v)
	}
}

func TestValidatePasswordChange(t *testing.T) {
	tests := []struct {
		name    string
		chg     domain.PasswordChange
		confirm string
		field   string
	}{
		{"valid", domain.PasswordChange{CurrentPassword: "old123", NewPassword: "new123"}, "new123", ""},
		{"same as current", domain.PasswordChange{CurrentPassword: "same12", NewPassword: "same12"}, "same12", "new_password"},
		{"too short", domain.PasswordChange{CurrentPassword: "old123", NewPassword: "new"}, "new", "new_password"},
		{"missing current", domain.PasswordChange{NewPassword: "new123"}, "new123", "current_password"},
		{"mismatch", domain.PasswordChange{CurrentPassword: "old123", NewPassword: "new123"}, "new124", "confirm_password"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := fieldsOf(t, ValidatePasswordChange(tc.chg, tc.confirm))
			if tc.field == "" {
				if v != nil {
					t.Errorf("unexpected errors %v", v)
				}
				return
			}
			if v[tc.field] == "" {
				t.Errorf("errors = %v; want %s", v, tc.field)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	err := ValidationErrors{"username": "too short", "email": "required"}
	if got := err.Error(); got != "email: required; username: too short" {
		t.Errorf("Error() = %q", got)
	}
}
