package domain

import (
	"context"
	"fmt"
)

// Difficulty grades a recipe.
type Difficulty string

// Valid difficulties.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the known difficulties in ascending order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty validates s. The empty string is accepted and means "any".
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(s); d {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	}
	return "", fmt.Errorf("invalid difficulty %q", s)
}

// Recipe is a read-only catalog entry. IsLiked is only meaningful when the
// request carried a bearer token.
type Recipe struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Category        string     `json:"category"`
	PrepTimeMinutes int        `json:"prep_time_minutes"`
	CookTimeMinutes int        `json:"cook_time_minutes"`
	Servings        int        `json:"servings"`
	Difficulty      Difficulty `json:"difficulty"`
	Instructions    string     `json:"instructions"`
	Description     string     `json:"description"`
	IsLiked         bool       `json:"is_liked"`
}

// TotalMinutes is preparation plus cooking time.
func (r Recipe) TotalMinutes() int {
	return r.PrepTimeMinutes + r.CookTimeMinutes
}

// Ingredient is a read-only catalog entry.
type Ingredient struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	CaloriesPer100g float64 `json:"calories_per_100g"`
	Description     string  `json:"description"`
}

// RecipeIngredient links an ingredient to one recipe with a quantity.
type RecipeIngredient struct {
	IngredientID int64   `json:"ingredient_id"`
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	Notes        string  `json:"notes,omitempty"`
}

// ShoppingListItem is an ingredient the viewer still has to buy.
type ShoppingListItem RecipeIngredient

// RecipeDetail is a recipe with its ingredient links.
type RecipeDetail struct {
	Recipe      Recipe             `json:"recipe"`
	Ingredients []RecipeIngredient `json:"ingredients"`
}

// IngredientDetail is an ingredient with the recipes that use it.
type IngredientDetail struct {
	Ingredient Ingredient `json:"ingredient"`
	Recipes    []Recipe   `json:"recipes"`
}

// ShoppingList is the server-computed list of missing ingredients.
type ShoppingList struct {
	RecipeID int64              `json:"recipe_id"`
	Items    []ShoppingListItem `json:"shopping_list"`
}

// MatchedRecipe is a find-by-ingredients result.
type MatchedRecipe struct {
	Recipe
	MatchedIngredientsCount int     `json:"matched_ingredients_count"`
	TotalIngredientsCount   int     `json:"total_ingredients_count"`
	MatchScore              float64 `json:"match_score"`
}

// MatchPercent is the match score as a whole percentage.
func (m MatchedRecipe) MatchPercent() int {
	return int(m.MatchScore*100 + 0.5)
}

// Page is one page of a server-side paginated collection.
type Page[T any] struct {
	Items      []T
	Total      int
	Page       int
	PageSize   int
	TotalPages int
	HasNext    bool
}

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool {
	return p.Page > 1
}

// CategoryCounts is the per-category breakdown of the catalog.
type CategoryCounts struct {
	IngredientCategories map[string]int `json:"ingredient_categories"`
	RecipeCategories     map[string]int `json:"recipe_categories"`
}

// Stats are catalog-wide aggregates.
type Stats struct {
	TotalIngredients       int            `json:"total_ingredients"`
	TotalRecipes           int            `json:"total_recipes"`
	AvgPrepTime            float64        `json:"avg_prep_time"`
	AvgCookTime            float64        `json:"avg_cook_time"`
	DifficultyDistribution map[string]int `json:"difficulty_distribution"`
}

// CatalogAPI defines the port for the remote catalog endpoints. token may be
// empty; when set it is sent so the API can fill per-viewer flags.
type CatalogAPI interface {
	Recipes(ctx context.Context, token string, f RecipeFilter) (*Page[Recipe], error)
	Recipe(ctx context.Context, token string, id int64) (*RecipeDetail, error)
	FindByIngredients(ctx context.Context, token string, ingredientIDs []int64, limit int) ([]MatchedRecipe, error)
	ShoppingList(ctx context.Context, token string, recipeID int64, owned OwnedSet) (*ShoppingList, error)
	Ingredients(ctx context.Context, f IngredientFilter) (*Page[Ingredient], error)
	Ingredient(ctx context.Context, id int64) (*IngredientDetail, error)
	Categories(ctx context.Context) (*CategoryCounts, error)
	Stats(ctx context.Context) (*Stats, error)
}
