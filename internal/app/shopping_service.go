package app

import (
	"context"

	"go.uber.org/zap"

	"recipebook/internal/domain"
)

// ShoppingListView is what the shopping list page renders.
type ShoppingListView struct {
	RecipeID   int64
	RecipeName string
	// Items are the ingredients still to buy.
	Items []domain.ShoppingListItem
	// Have are the recipe ingredients in the owned set.
	Have  []domain.RecipeIngredient
	Owned domain.OwnedSet
}

// FullyStocked reports whether nothing is left to buy.
func (v *ShoppingListView) FullyStocked() bool {
	return len(v.Items) == 0
}

// ShoppingService builds shopping lists from a recipe and an owned set.
type ShoppingService struct {
	api domain.CatalogAPI
	log *zap.Logger
}

// NewShoppingService creates the shopping list service.
func NewShoppingService(api domain.CatalogAPI, log *zap.Logger) *ShoppingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ShoppingService{api: api, log: log}
}

// Load fetches the recipe for its name and, separately, the list of
// ingredients not in owned. A failed recipe lookup only loses the name; a
// failed list lookup is returned.
func (s *ShoppingService) Load(ctx context.Context, sess *Session, recipeID int64, owned domain.OwnedSet) (*ShoppingListView, error) {
	if owned == nil {
		owned = domain.NewOwnedSet()
	}
	view := &ShoppingListView{RecipeID: recipeID, Owned: owned}

	if d, err := s.api.Recipe(ctx, tokenOf(sess), recipeID); err != nil {
		s.log.Warn("shopping list recipe", zap.Int64("recipe", recipeID), zap.Error(err))
	} else {
		view.RecipeName = d.Recipe.Name
		for _, ing := range d.Ingredients {
			if owned.Has(ing.IngredientID) {
				view.Have = append(view.Have, ing)
			}
		}
	}

	list, err := s.api.ShoppingList(ctx, tokenOf(sess), recipeID, owned)
	if err != nil {
		s.log.Error("shopping list", zap.Int64("recipe", recipeID), zap.String("owned", owned.CSV()), zap.Error(err))
		return nil, err
	}
	view.Items = list.Items
	return view, nil
}
