package api

import (
	"context"
	"net/http"
	"strconv"

	"recipebook/internal/domain"
)

type pageMeta struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

func toPage[T any](items []T, m pageMeta) *domain.Page[T] {
	return &domain.Page[T]{
		Items:      items,
		Total:      m.Total,
		Page:       m.Page,
		PageSize:   m.PageSize,
		TotalPages: m.TotalPages,
		HasNext:    m.HasNext,
	}
}

// Recipes fetches one page of recipes matching f.
func (c *Client) Recipes(ctx context.Context, token string, f domain.RecipeFilter) (*domain.Page[domain.Recipe], error) {
	var out struct {
		Recipes []domain.Recipe `json:"recipes"`
		pageMeta
	}
	if err := c.do(ctx, token, http.MethodGet, withQuery(c.endpoints.Recipes(), f.Query()), nil, &out); err != nil {
		return nil, err
	}
	return toPage(out.Recipes, out.pageMeta), nil
}

// Recipe fetches a recipe and its ingredient links.
func (c *Client) Recipe(ctx context.Context, token string, id int64) (*domain.RecipeDetail, error) {
	var out domain.RecipeDetail
	if err := c.do(ctx, token, http.MethodGet, c.endpoints.Recipe(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByIngredients fetches recipes scored against the given ingredient ids.
// The id list is sent comma separated and unescaped.
func (c *Client) FindByIngredients(ctx context.Context, token string, ingredientIDs []int64, limit int) ([]domain.MatchedRecipe, error) {
	q := "ingredients=" + domain.JoinIDs(ingredientIDs) + "&match_type=" + MatchTypePartial
	if limit > 0 {
		q += "&limit=" + strconv.Itoa(limit)
	}
	var out []domain.MatchedRecipe
	if err := c.do(ctx, token, http.MethodGet, withQuery(c.endpoints.FindByIngredients(), q), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ShoppingList fetches the ingredients of recipeID not in owned.
func (c *Client) ShoppingList(ctx context.Context, token string, recipeID int64, owned domain.OwnedSet) (*domain.ShoppingList, error) {
	q := ""
	if len(owned) > 0 {
		q = "have_ingredients=" + owned.CSV()
	}
	var out domain.ShoppingList
	if err := c.do(ctx, token, http.MethodGet, withQuery(c.endpoints.ShoppingList(recipeID), q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ingredients fetches one page of ingredients matching f.
func (c *Client) Ingredients(ctx context.Context, f domain.IngredientFilter) (*domain.Page[domain.Ingredient], error) {
	var out struct {
		Ingredients []domain.Ingredient `json:"ingredients"`
		pageMeta
	}
	if err := c.do(ctx, "", http.MethodGet, withQuery(c.endpoints.Ingredients(), f.Query()), nil, &out); err != nil {
		return nil, err
	}
	return toPage(out.Ingredients, out.pageMeta), nil
}

// Ingredient fetches an ingredient and the recipes using it.
func (c *Client) Ingredient(ctx context.Context, id int64) (*domain.IngredientDetail, error) {
	var out domain.IngredientDetail
	if err := c.do(ctx, "", http.MethodGet, c.endpoints.Ingredient(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Categories fetches per-category counts.
func (c *Client) Categories(ctx context.Context) (*domain.CategoryCounts, error) {
	var out domain.CategoryCounts
	if err := c.do(ctx, "", http.MethodGet, c.endpoints.Categories(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats fetches catalog aggregates.
func (c *Client) Stats(ctx context.Context) (*domain.Stats, error) {
	var out domain.Stats
	if err := c.do(ctx, "", http.MethodGet, c.endpoints.Stats(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
