package adapthttp

import (
	"errors"
	"net/http"
	"net/url"

	"recipebook/internal/app"
	"recipebook/internal/domain"
)

// featuredCount is the number of recipes on the home page.
const featuredCount = 6

// pager is the navigation under a list.
type pager struct {
	Page       int
	TotalPages int
	Total      int
	PrevURL    string
	NextURL    string
}

func newPager[T any](base string, st app.ListState, p *domain.Page[T]) pager {
	if p == nil {
		return pager{}
	}
	pg := pager{Page: p.Page, TotalPages: p.TotalPages, Total: p.Total}
	if p.HasPrev() {
		pg.PrevURL = base + "?" + st.PageQuery(p.Page-1)
	}
	if p.HasNext {
		pg.NextURL = base + "?" + st.PageQuery(p.Page+1)
	}
	return pg
}

// listForm carries everything the filter form of a list view shows.
type listForm struct {
	State        app.ListState
	Categories   []string
	Sorts        []string
	Difficulties []domain.Difficulty
	PageSizes    []int
}

type recipesPage struct {
	Form    listForm
	Recipes []domain.Recipe
	Pager   pager
	Error   string
}

type ingredientsPage struct {
	Form        listForm
	Ingredients []domain.Ingredient
	Pager       pager
	Error       string
}

type homePage struct {
	Featured []domain.Recipe
}

type recipePage struct {
	Detail *domain.RecipeDetail
}

type ingredientPage struct {
	Detail *domain.IngredientDetail
}

type findPage struct {
	Ingredients []domain.Ingredient
	Selected    domain.OwnedSet
	Searched    bool
	Matches     []domain.MatchedRecipe
	Error       string
}

type statsPage struct {
	Dashboard *app.Dashboard
	Error     string
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	st := app.ListState{Sort: "name", Order: "asc", Page: 1, PageSize: featuredCount}
	data := homePage{}
	if listing, err := s.svc.Catalog.Recipes(r.Context(), sessionFrom(r.Context()), st); err == nil {
		data.Featured = listing.Page.Items
	}
	s.render(w, r, http.StatusOK, "home.html", "Home", data)
}

func (s *Server) handleRecipes(w http.ResponseWriter, r *http.Request) {
	st := app.ParseListState(r.URL.Query(), app.RecipeListDefaults)
	data := recipesPage{Form: listForm{
		State:        st,
		Sorts:        domain.RecipeSorts,
		Difficulties: domain.Difficulties,
		PageSizes:    domain.PageSizes,
	}}

	listing, err := s.svc.Catalog.Recipes(r.Context(), sessionFrom(r.Context()), st)
	if err != nil {
		data.Error = "Failed to fetch recipes"
	} else {
		data.Recipes = listing.Page.Items
		data.Form.Categories = listing.Categories
		data.Pager = newPager("/recipes", st, listing.Page)
	}
	s.render(w, r, http.StatusOK, "recipes.html", "Recipes", data)
}

func (s *Server) handleRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.handleNotFound(w, r)
		return
	}
	d, err := s.svc.Catalog.Recipe(r.Context(), sessionFrom(r.Context()), id)
	if err != nil {
		s.renderFetchError(w, r, err, "Recipe not found", "Failed to fetch recipe")
		return
	}
	s.render(w, r, http.StatusOK, "recipe.html", d.Recipe.Name, recipePage{Detail: d})
}

func (s *Server) handleIngredients(w http.ResponseWriter, r *http.Request) {
	st := app.ParseListState(r.URL.Query(), app.IngredientListDefaults)
	data := ingredientsPage{Form: listForm{
		State:     st,
		Sorts:     domain.IngredientSorts,
		PageSizes: domain.PageSizes,
	}}

	listing, err := s.svc.Catalog.Ingredients(r.Context(), st)
	if err != nil {
		data.Error = "Failed to fetch ingredients"
	} else {
		data.Ingredients = listing.Page.Items
		data.Form.Categories = listing.Categories
		data.Pager = newPager("/ingredients", st, listing.Page)
	}
	s.render(w, r, http.StatusOK, "ingredients.html", "Ingredients", data)
}

func (s *Server) handleIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.handleNotFound(w, r)
		return
	}
	d, err := s.svc.Catalog.Ingredient(r.Context(), id)
	if err != nil {
		s.renderFetchError(w, r, err, "Ingredient not found", "Failed to fetch ingredient")
		return
	}
	s.render(w, r, http.StatusOK, "ingredient.html", d.Ingredient.Name, ingredientPage{Detail: d})
}

// findChoices is the size of the ingredient checklist on the find page.
const findChoices = 100

func (s *Server) handleFindRecipes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := findPage{
		Selected: domain.ParseOwnedSet(q["ingredients"]...),
		Searched: q.Has("ingredients"),
	}

	choices := app.ListState{Sort: "name", Order: "asc", Page: 1, PageSize: findChoices}
	if listing, err := s.svc.Catalog.Ingredients(r.Context(), choices); err != nil {
		data.Error = "Failed to fetch ingredients"
	} else {
		data.Ingredients = listing.Page.Items
	}

	if data.Searched {
		matches, err := s.svc.Catalog.FindByIngredients(r.Context(), sessionFrom(r.Context()), data.Selected.IDs())
		switch {
		case errors.Is(err, app.ErrNoIngredientsSelected):
			data.Error = "Please select at least one ingredient"
		case err != nil:
			data.Error = "Failed to find recipes"
		default:
			data.Matches = matches
		}
	}
	s.render(w, r, http.StatusOK, "find.html", "Find recipes", data)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	data := statsPage{}
	d, err := s.svc.Catalog.Dashboard(r.Context())
	if err != nil {
		data.Error = "Failed to fetch statistics"
	} else {
		data.Dashboard = d
	}
	s.render(w, r, http.StatusOK, "stats.html", "Statistics", data)
}

// renderFetchError renders the not-found page for missing items and a
// generic error otherwise.
func (s *Server) renderFetchError(w http.ResponseWriter, r *http.Request, err error, notFound, failed string) {
	if errors.Is(err, domain.ErrNotFound) {
		s.render(w, r, http.StatusNotFound, "error.html", "Not found", errorPage{Heading: notFound})
		return
	}
	s.render(w, r, http.StatusBadGateway, "error.html", "Error", errorPage{Heading: failed, Message: err.Error()})
}

// returnTo picks the page to go back to after a form post.
func returnTo(r *http.Request, fallback string) string {
	if p := r.PostFormValue("return_to"); p != "" {
		return app.LocalPath(p)
	}
	if ref := r.Referer(); ref != "" {
		if u, err := url.Parse(ref); err == nil && (u.Host == "" || u.Host == r.Host) {
			if p, err := urlPath(ref); err == nil {
				return app.LocalPath(p)
			}
		}
	}
	return fallback
}
