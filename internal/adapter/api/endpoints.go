// Package api implements the domain API ports against the recipe REST API.
package api

import (
	"strconv"
	"strings"
)

// Endpoints builds every URL the frontend calls from one base URL.
type Endpoints struct {
	base string
}

// NewEndpoints returns the endpoint table rooted at baseURL.
func NewEndpoints(baseURL string) Endpoints {
	return Endpoints{base: strings.TrimRight(baseURL, "/")}
}

// Base returns the API base URL without a trailing slash.
func (e Endpoints) Base() string { return e.base }

func (e Endpoints) Register() string { return e.base + "/api/auth/register" }
func (e Endpoints) Login() string    { return e.base + "/api/auth/login" }

func (e Endpoints) Recipes() string           { return e.base + "/api/recipes" }
func (e Endpoints) Recipe(id int64) string    { return e.Recipes() + "/" + itoa(id) }
func (e Endpoints) FindByIngredients() string { return e.base + "/api/recipes/find-by-ingredients" }
func (e Endpoints) ShoppingList(recipeID int64) string {
	return e.base + "/api/recipes/shopping-list/" + itoa(recipeID)
}

func (e Endpoints) Ingredients() string        { return e.base + "/api/ingredients" }
func (e Endpoints) Ingredient(id int64) string { return e.Ingredients() + "/" + itoa(id) }

func (e Endpoints) Profile() string       { return e.base + "/api/user/profile" }
func (e Endpoints) UpdateProfile() string { return e.base + "/api/user/profile/update" }
func (e Endpoints) Password() string      { return e.base + "/api/user/password" }
func (e Endpoints) Account() string       { return e.base + "/api/user/account" }
func (e Endpoints) LikedRecipes() string  { return e.base + "/api/user/liked-recipes" }
func (e Endpoints) AddLike() string       { return e.LikedRecipes() + "/add" }
func (e Endpoints) RemoveLike(recipeID int64) string {
	return e.LikedRecipes() + "/" + itoa(recipeID)
}

func (e Endpoints) Categories() string { return e.base + "/api/categories" }
func (e Endpoints) Stats() string      { return e.base + "/api/stats" }

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
