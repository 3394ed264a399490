package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"recipebook/internal/domain"
)

// AccountService handles the profile, password, account deletion and liked
// recipes of the logged-in user.
type AccountService struct {
	api domain.AccountAPI
	log *zap.Logger
}

// NewAccountService creates the account service.
func NewAccountService(api domain.AccountAPI, log *zap.Logger) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{api: api, log: log}
}

// Refresh reloads the user record from the API into the session.
func (s *AccountService) Refresh(ctx context.Context, sess *Session) (*domain.User, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	u, err := s.api.Profile(ctx, sess.Token())
	if err != nil {
		return nil, err
	}
	if err := sess.UpdateUser(ctx, *u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateProfile validates and saves a new username and email.
func (s *AccountService) UpdateProfile(ctx context.Context, sess *Session, upd domain.ProfileUpdate) (*domain.User, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	if err := ValidateProfile(upd); err != nil {
		return nil, err
	}
	u, err := s.api.UpdateProfile(ctx, sess.Token(), upd)
	if err != nil {
		s.log.Warn("update profile", zap.String("browser", sess.BrowserID()), zap.Error(err))
		return nil, err
	}
	if err := sess.UpdateUser(ctx, *u); err != nil {
		return nil, fmt.Errorf("update session user: %w", err)
	}
	return u, nil
}

// ChangePassword validates and submits a password change.
func (s *AccountService) ChangePassword(ctx context.Context, sess *Session, chg domain.PasswordChange, confirm string) error {
	if !sess.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if err := ValidatePasswordChange(chg, confirm); err != nil {
		return err
	}
	if err := s.api.ChangePassword(ctx, sess.Token(), chg); err != nil {
		s.log.Warn("change password", zap.String("browser", sess.BrowserID()), zap.Error(err))
		return err
	}
	return nil
}

// DeleteAccount deletes the account and logs the session out. It returns the
// path to go to afterwards.
func (s *AccountService) DeleteAccount(ctx context.Context, sess *Session, password string) (string, error) {
	if !sess.IsAuthenticated() {
		return "", ErrNotAuthenticated
	}
	if password == "" {
		return "", ValidationErrors{"password": "Password is required"}
	}
	if err := s.api.DeleteAccount(ctx, sess.Token(), password); err != nil {
		s.log.Warn("delete account", zap.String("browser", sess.BrowserID()), zap.Error(err))
		return "", err
	}
	return sess.Logout(ctx), nil
}

// LikedRecipes lists the user's liked recipes, all flagged as liked.
func (s *AccountService) LikedRecipes(ctx context.Context, sess *Session) ([]domain.Recipe, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	recipes, err := s.api.LikedRecipes(ctx, sess.Token())
	if err != nil {
		s.log.Error("liked recipes", zap.String("browser", sess.BrowserID()), zap.Error(err))
		return nil, err
	}
	for i := range recipes {
		recipes[i].IsLiked = true
	}
	return recipes, nil
}
