package api

import (
	"context"
	"net/http"

	"recipebook/internal/domain"
)

// Profile fetches the account of the token holder.
func (c *Client) Profile(ctx context.Context, token string) (*domain.User, error) {
	var out domain.User
	if err := c.do(ctx, token, http.MethodGet, c.endpoints.Profile(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile changes username and email and returns the stored user.
func (c *Client) UpdateProfile(ctx context.Context, token string, upd domain.ProfileUpdate) (*domain.User, error) {
	var out domain.User
	if err := c.do(ctx, token, http.MethodPut, c.endpoints.UpdateProfile(), upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChangePassword(ctx context.Context, token string, chg domain.PasswordChange) error {
	return c.do(ctx, token, http.MethodPut, c.endpoints.Password(), chg, nil)
}

func (c *Client) DeleteAccount(ctx context.Context, token, password string) error {
	body := map[string]string{"password": password}
	return c.do(ctx, token, http.MethodDelete, c.endpoints.Account(), body, nil)
}

// LikedRecipes lists the recipes liked by the token holder.
func (c *Client) LikedRecipes(ctx context.Context, token string) ([]domain.Recipe, error) {
	var out []domain.Recipe
	if err := c.do(ctx, token, http.MethodGet, c.endpoints.LikedRecipes(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddLike(ctx context.Context, token string, recipeID int64) error {
	body := map[string]int64{"recipe_id": recipeID}
	return c.do(ctx, token, http.MethodPost, c.endpoints.AddLike(), body, nil)
}

func (c *Client) RemoveLike(ctx context.Context, token string, recipeID int64) error {
	return c.do(ctx, token, http.MethodDelete, c.endpoints.RemoveLike(recipeID), nil, nil)
}
