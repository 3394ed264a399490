package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"recipebook/internal/domain"
)

// FindLimit is the number of matches requested from find-by-ingredients.
const FindLimit = 20

// ErrNoIngredientsSelected indicates an empty find-by-ingredients request.
var ErrNoIngredientsSelected = errors.New("select at least one ingredient")

// Listing is one page of a list view plus the category choices for its
// filter form.
type Listing[T any] struct {
	Page       *domain.Page[T]
	Categories []string
}

// Dashboard is the statistics view.
type Dashboard struct {
	Categories *domain.CategoryCounts
	Stats      *domain.Stats
}

// CatalogService reads recipes and ingredients. Nothing is cached; every call
// goes to the API.
type CatalogService struct {
	api domain.CatalogAPI
	log *zap.Logger
}

// NewCatalogService creates the catalog service.
func NewCatalogService(api domain.CatalogAPI, log *zap.Logger) *CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogService{api: api, log: log}
}

func tokenOf(sess *Session) string {
	if sess == nil {
		return ""
	}
	return sess.Token()
}

// Recipes fetches the recipe page for st together with the recipe categories.
// A failed category lookup only empties the category choices.
func (c *CatalogService) Recipes(ctx context.Context, sess *Session, st ListState) (*Listing[domain.Recipe], error) {
	out := &Listing[domain.Recipe]{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := c.api.Recipes(gctx, tokenOf(sess), st.RecipeFilter())
		if err != nil {
			return fmt.Errorf("list recipes: %w", err)
		}
		out.Page = page
		return nil
	})
	g.Go(func() error {
		out.Categories = c.categories(gctx, func(cc *domain.CategoryCounts) map[string]int { return cc.RecipeCategories })
		return nil
	})
	if err := g.Wait(); err != nil {
		c.log.Error("recipes", zap.String("query", st.RecipeFilter().Query()), zap.Error(err))
		return nil, err
	}
	return out, nil
}

// Ingredients fetches the ingredient page for st together with the
// ingredient categories.
func (c *CatalogService) Ingredients(ctx context.Context, st ListState) (*Listing[domain.Ingredient], error) {
	out := &Listing[domain.Ingredient]{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := c.api.Ingredients(gctx, st.IngredientFilter())
		if err != nil {
			return fmt.Errorf("list ingredients: %w", err)
		}
		out.Page = page
		return nil
	})
	g.Go(func() error {
		out.Categories = c.categories(gctx, func(cc *domain.CategoryCounts) map[string]int { return cc.IngredientCategories })
		return nil
	})
	if err := g.Wait(); err != nil {
		c.log.Error("ingredients", zap.String("query", st.IngredientFilter().Query()), zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (c *CatalogService) categories(ctx context.Context, pick func(*domain.CategoryCounts) map[string]int) []string {
	cc, err := c.api.Categories(ctx)
	if err != nil {
		c.log.Warn("categories", zap.Error(err))
		return nil
	}
	m := pick(cc)
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Recipe fetches one recipe with its ingredients.
func (c *CatalogService) Recipe(ctx context.Context, sess *Session, id int64) (*domain.RecipeDetail, error) {
	d, err := c.api.Recipe(ctx, tokenOf(sess), id)
	if err != nil {
		c.log.Error("recipe", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return d, nil
}

// Ingredient fetches one ingredient with the recipes using it.
func (c *CatalogService) Ingredient(ctx context.Context, id int64) (*domain.IngredientDetail, error) {
	d, err := c.api.Ingredient(ctx, id)
	if err != nil {
		c.log.Error("ingredient", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return d, nil
}

// FindByIngredients returns recipes ranked by how many of ids they use.
func (c *CatalogService) FindByIngredients(ctx context.Context, sess *Session, ids []int64) ([]domain.MatchedRecipe, error) {
	if len(ids) == 0 {
		return nil, ErrNoIngredientsSelected
	}
	matches, err := c.api.FindByIngredients(ctx, tokenOf(sess), ids, FindLimit)
	if err != nil {
		c.log.Error("find by ingredients", zap.Int64s("ingredients", ids), zap.Error(err))
		return nil, err
	}
	return matches, nil
}

// Dashboard fetches categories and stats in parallel.
func (c *CatalogService) Dashboard(ctx context.Context) (*Dashboard, error) {
	out := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cc, err := c.api.Categories(gctx)
		if err != nil {
			return fmt.Errorf("categories: %w", err)
		}
		out.Categories = cc
		return nil
	})
	g.Go(func() error {
		st, err := c.api.Stats(gctx)
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		out.Stats = st
		return nil
	})
	if err := g.Wait(); err != nil {
		c.log.Error("dashboard", zap.Error(err))
		return nil, err
	}
	return out, nil
}
