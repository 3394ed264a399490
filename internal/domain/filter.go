package domain

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Sort keys accepted by the list endpoints.
var (
	RecipeSorts     = []string{"name", "prep_time", "cook_time", "total_time", "servings", "difficulty"}
	IngredientSorts = []string{"name", "calories"}
)

// PageSizes are the page sizes offered by the list views.
var PageSizes = []int{20, 40, 60, 100}

// RecipeFilter is the full parameter set of a recipe list request.
type RecipeFilter struct {
	Search     string
	Category   string
	Difficulty Difficulty
	MaxTime    int
	Sort       string
	Order      string
	Page       int
	Limit      int
}

// Values serializes the filter. Empty fields are omitted; page and limit are
// always present once positive.
func (f RecipeFilter) Values() url.Values {
	v := url.Values{}
	setNonEmpty(v, "search", f.Search)
	setNonEmpty(v, "category", f.Category)
	setNonEmpty(v, "difficulty", string(f.Difficulty))
	setPositive(v, "max_time", f.MaxTime)
	setNonEmpty(v, "sort", f.Sort)
	setNonEmpty(v, "order", f.Order)
	setPositive(v, "page", f.Page)
	setPositive(v, "limit", f.Limit)
	return v
}

// Query returns the encoded query string. Keys are sorted, so equal filters
// always produce equal strings.
func (f RecipeFilter) Query() string {
	return f.Values().Encode()
}

// IngredientFilter is the full parameter set of an ingredient list request.
type IngredientFilter struct {
	Search   string
	Category string
	Sort     string
	Order    string
	Page     int
	Limit    int
}

// Values serializes the filter the same way RecipeFilter does.
func (f IngredientFilter) Values() url.Values {
	v := url.Values{}
	setNonEmpty(v, "search", f.Search)
	setNonEmpty(v, "category", f.Category)
	setNonEmpty(v, "sort", f.Sort)
	setNonEmpty(v, "order", f.Order)
	setPositive(v, "page", f.Page)
	setPositive(v, "limit", f.Limit)
	return v
}

// Query returns the encoded query string.
func (f IngredientFilter) Query() string {
	return f.Values().Encode()
}

func setNonEmpty(v url.Values, key, val string) {
	if val = strings.TrimSpace(val); val != "" {
		v.Set(key, val)
	}
}

func setPositive(v url.Values, key string, n int) {
	if n > 0 {
		v.Set(key, strconv.Itoa(n))
	}
}

// OwnedSet is the set of ingredient ids the viewer already has. It lives only
// in the current view and is never stored.
type OwnedSet map[int64]struct{}

// NewOwnedSet builds a set from ids.
func NewOwnedSet(ids ...int64) OwnedSet {
	s := make(OwnedSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// ParseOwnedSet reads comma separated ids, ignoring anything that is not a
// positive integer.
func ParseOwnedSet(values ...string) OwnedSet {
	s := OwnedSet{}
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err == nil && id > 0 {
				s[id] = struct{}{}
			}
		}
	}
	return s
}

// Has reports whether id is owned.
func (s OwnedSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Toggle flips the owned state of id.
func (s OwnedSet) Toggle(id int64) {
	if s.Has(id) {
		delete(s, id)
		return
	}
	s[id] = struct{}{}
}

// IDs returns the ids in ascending order.
func (s OwnedSet) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CSV joins the ids in ascending order with commas.
func (s OwnedSet) CSV() string {
	return JoinIDs(s.IDs())
}

// JoinIDs joins ids with commas.
func JoinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
