package app

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"recipebook/internal/domain"
)

// ListDefaults are the initial sort and page size of a list view.
type ListDefaults struct {
	Sort     string
	Order    string
	PageSize int
	Sorts    []string
}

// Defaults of the two list views.
var (
	RecipeListDefaults     = ListDefaults{Sort: "name", Order: "asc", PageSize: 20, Sorts: domain.RecipeSorts}
	IngredientListDefaults = ListDefaults{Sort: "name", Order: "asc", PageSize: 20, Sorts: domain.IngredientSorts}
)

// ListState is the filter, sort and pagination state of a list view. Every
// change produces a new value; the view re-fetches with all of it.
type ListState struct {
	Search     string
	Category   string
	Difficulty domain.Difficulty
	MaxTime    int
	Sort       string
	Order      string
	Page       int
	PageSize   int
}

// WithPageSize changes the page size. A new size resets the page to 1.
func (s ListState) WithPageSize(n int) ListState {
	if n > 0 && n != s.PageSize {
		s.PageSize = n
		s.Page = 1
	}
	return s
}

// WithPage moves to page p.
func (s ListState) WithPage(p int) ListState {
	if p < 1 {
		p = 1
	}
	s.Page = p
	return s
}

// RecipeFilter is the recipe request for this state.
func (s ListState) RecipeFilter() domain.RecipeFilter {
	return domain.RecipeFilter{
		Search:     s.Search,
		Category:   s.Category,
		Difficulty: s.Difficulty,
		MaxTime:    s.MaxTime,
		Sort:       s.Sort,
		Order:      s.Order,
		Page:       s.Page,
		Limit:      s.PageSize,
	}
}

// IngredientFilter is the ingredient request for this state.
func (s ListState) IngredientFilter() domain.IngredientFilter {
	return domain.IngredientFilter{
		Search:   s.Search,
		Category: s.Category,
		Sort:     s.Sort,
		Order:    s.Order,
		Page:     s.Page,
		Limit:    s.PageSize,
	}
}

// Values serializes the state for links back to the same view.
func (s ListState) Values() url.Values {
	return s.RecipeFilter().Values()
}

// PageQuery is the query string of the same view on page p.
func (s ListState) PageQuery(p int) string {
	return s.WithPage(p).Values().Encode()
}

// ParseListState reads a list view's query. The form carries the page and
// page size in effect when it was rendered as page and prev_limit, so that
// choosing a new limit goes through WithPageSize.
func ParseListState(q url.Values, d ListDefaults) ListState {
	s := ListState{
		Search:   strings.TrimSpace(q.Get("search")),
		Category: strings.TrimSpace(q.Get("category")),
		Sort:     d.Sort,
		Order:    d.Order,
		Page:     positive(q.Get("page"), 1),
		PageSize: d.PageSize,
	}
	if diff, err := domain.ParseDifficulty(q.Get("difficulty")); err == nil {
		s.Difficulty = diff
	}
	s.MaxTime = positive(q.Get("max_time"), 0)
	if sort := q.Get("sort"); slices.Contains(d.Sorts, sort) {
		s.Sort = sort
	}
	if order := q.Get("order"); order == "asc" || order == "desc" {
		s.Order = order
	}

	if q.Has("prev_limit") {
		s.PageSize = positive(q.Get("prev_limit"), d.PageSize)
		return s.WithPageSize(positive(q.Get("limit"), s.PageSize))
	}
	s.PageSize = positive(q.Get("limit"), d.PageSize)
	return s
}

func positive(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
