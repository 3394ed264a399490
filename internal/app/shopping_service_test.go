package app

import (
	"context"
	"errors"
	"testing"

	"recipebook/internal/domain"
)

func TestShoppingService_Load(t *testing.T) {
	var gotOwned domain.OwnedSet
	api := &mockCatalogAPI{
		recipeFn: func(ctx context.Context, token string, id int64) (*domain.RecipeDetail, error) {
			return &domain.RecipeDetail{
				Recipe: domain.Recipe{ID: id, Name: "Pancakes"},
				Ingredients: []domain.RecipeIngredient{
					{IngredientID: 5, Name: "Flour", Quantity: 200, Unit: "g"},
					{IngredientID: 6, Name: "Milk", Quantity: 300, Unit: "ml"},
				},
			}, nil
		},
		shoppingFn: func(ctx context.Context, token string, recipeID int64, owned domain.OwnedSet) (*domain.ShoppingList, error) {
			gotOwned = owned
			return &domain.ShoppingList{RecipeID: recipeID, Items: []domain.ShoppingListItem{
				{IngredientID: 6, Name: "Milk", Quantity: 300, Unit: "ml"},
			}}, nil
		},
	}

	view, err := NewShoppingService(api, nil).Load(context.Background(), nil, 7, domain.NewOwnedSet(5))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotOwned.CSV() != "5" {
		t.Errorf("owned sent = %q; want 5", gotOwned.CSV())
	}
	if view.RecipeName != "Pancakes" {
		t.Errorf("name = %q", view.RecipeName)
	}
	if len(view.Items) != 1 || view.Items[0].IngredientID != 6 {
		t.Errorf("items = %+v", view.Items)
	}
	if len(view.Have) != 1 || view.Have[0].IngredientID != 5 {
		t.Errorf("have = %+v", view.Have)
	}
	if view.FullyStocked() {
		t.Error("one item left to buy")
	}
}

func TestShoppingService_Load_FullyStocked(t *testing.T) {
	api := &mockCatalogAPI{}
	view, err := NewShoppingService(api, nil).Load(context.Background(), nil, 7, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !view.FullyStocked() {
		t.Error("empty list should be fully stocked")
	}
	if view.Owned == nil {
		t.Error("owned set should default to empty, not nil")
	}
}

func TestShoppingService_Load_Failures(t *testing.T) {
	t.Run("recipe lookup fails", func(t *testing.T) {
		api := &mockCatalogAPI{
			recipeFn: func(ctx context.Context, token string, id int64) (*domain.RecipeDetail, error) {
				return nil, errors.New("not found")
			},
		}
		view, err := NewShoppingService(api, nil).Load(context.Background(), nil, 7, nil)
		if err != nil {
			t.Fatalf("recipe failure should not fail the list: %v", err)
		}
		if view.RecipeName != "" {
			t.Errorf("name = %q", view.RecipeName)
		}
	})

	t.Run("list lookup fails", func(t *testing.T) {
		api := &mockCatalogAPI{
			shoppingFn: func(ctx context.Context, token string, recipeID int64, owned domain.OwnedSet) (*domain.ShoppingList, error) {
				return nil, errors.New("upstream down")
			},
		}
		if _, err := NewShoppingService(api, nil).Load(context.Background(), nil, 7, nil); err == nil {
			t.Error("expected error")
		}
	})
}
