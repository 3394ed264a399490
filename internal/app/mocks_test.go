package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"recipebook/internal/domain"
)

// ---------------------------------------------------------------------------
// Storage (map backed, with function-field overrides)
// ---------------------------------------------------------------------------

type mockStorage struct {
	mu       sync.Mutex
	data     map[string]string
	getFn    func(key string) (string, error)
	setFn    func(key, value string) error
	deleteFn func(keys ...string) error
	sets     []string
	deletes  [][]string
}

func newMockStorage() *mockStorage {
	return &mockStorage{data: make(map[string]string)}
}

func (m *mockStorage) Get(ctx context.Context, browserID, key string) (string, error) {
	if m.getFn != nil {
		return m.getFn(key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[browserID+"|"+key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (m *mockStorage) Set(ctx context.Context, browserID, key, value string) error {
	if m.setFn != nil {
		if err := m.setFn(key, value); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = append(m.sets, key)
	m.data[browserID+"|"+key] = value
	return nil
}

func (m *mockStorage) Delete(ctx context.Context, browserID string, keys ...string) error {
	if m.deleteFn != nil {
		if err := m.deleteFn(keys...); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, keys)
	for _, k := range keys {
		delete(m.data, browserID+"|"+k)
	}
	return nil
}

func (m *mockStorage) value(browserID, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[browserID+"|"+key]
	return v, ok
}

func (m *mockStorage) setCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, k := range m.sets {
		if k == key {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// API ports (function-fields pattern)
// ---------------------------------------------------------------------------

type mockAuthAPI struct {
	loginFn    func(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error)
	registerFn func(ctx context.Context, reg domain.Registration) (*domain.AuthResponse, error)
}

func (m *mockAuthAPI) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, creds)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthAPI) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResponse, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, reg)
	}
	return nil, errors.New("not implemented")
}

type mockAccountAPI struct {
	profileFn        func(ctx context.Context, token string) (*domain.User, error)
	updateProfileFn  func(ctx context.Context, token string, upd domain.ProfileUpdate) (*domain.User, error)
	changePasswordFn func(ctx context.Context, token string, chg domain.PasswordChange) error
	deleteAccountFn  func(ctx context.Context, token, password string) error
	likedRecipesFn   func(ctx context.Context, token string) ([]domain.Recipe, error)
	addLikeFn        func(ctx context.Context, token string, recipeID int64) error
	removeLikeFn     func(ctx context.Context, token string, recipeID int64) error
}

func (m *mockAccountAPI) Profile(ctx context.Context, token string) (*domain.User, error) {
	if m.profileFn != nil {
		return m.profileFn(ctx, token)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAccountAPI) UpdateProfile(ctx context.Context, token string, upd domain.ProfileUpdate) (*domain.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, token, upd)
	}
	return &domain.User{ID: "u1", Username: upd.Username, Email: upd.Email}, nil
}

func (m *mockAccountAPI) ChangePassword(ctx context.Context, token string, chg domain.PasswordChange) error {
	if m.changePasswordFn != nil {
		return m.changePasswordFn(ctx, token, chg)
	}
	return nil
}

func (m *mockAccountAPI) DeleteAccount(ctx context.Context, token, password string) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(ctx, token, password)
	}
	return nil
}

func (m *mockAccountAPI) LikedRecipes(ctx context.Context, token string) ([]domain.Recipe, error) {
	if m.likedRecipesFn != nil {
		return m.likedRecipesFn(ctx, token)
	}
	return nil, nil
}

func (m *mockAccountAPI) AddLike(ctx context.Context, token string, recipeID int64) error {
	if m.addLikeFn != nil {
		return m.addLikeFn(ctx, token, recipeID)
	}
	return nil
}

func (m *mockAccountAPI) RemoveLike(ctx context.Context, token string, recipeID int64) error {
	if m.removeLikeFn != nil {
		return m.removeLikeFn(ctx, token, recipeID)
	}
	return nil
}

type mockCatalogAPI struct {
	recipesFn     func(ctx context.Context, token string, f domain.RecipeFilter) (*domain.Page[domain.Recipe], error)
	recipeFn      func(ctx context.Context, token string, id int64) (*domain.RecipeDetail, error)
	findFn        func(ctx context.Context, token string, ids []int64, limit int) ([]domain.MatchedRecipe, error)
	shoppingFn    func(ctx context.Context, token string, recipeID int64, owned domain.OwnedSet) (*domain.ShoppingList, error)
	ingredientsFn func(ctx context.Context, f domain.IngredientFilter) (*domain.Page[domain.Ingredient], error)
	ingredientFn  func(ctx context.Context, id int64) (*domain.IngredientDetail, error)
	categoriesFn  func(ctx context.Context) (*domain.CategoryCounts, error)
	statsFn       func(ctx context.Context) (*domain.Stats, error)
}

func (m *mockCatalogAPI) Recipes(ctx context.Context, token string, f domain.RecipeFilter) (*domain.Page[domain.Recipe], error) {
	if m.recipesFn != nil {
		return m.recipesFn(ctx, token, f)
	}
	return &domain.Page[domain.Recipe]{Page: f.Page, PageSize: f.Limit}, nil
}

func (m *mockCatalogAPI) Recipe(ctx context.Context, token string, id int64) (*domain.RecipeDetail, error) {
	if m.recipeFn != nil {
		return m.recipeFn(ctx, token, id)
	}
	return &domain.RecipeDetail{Recipe: domain.Recipe{ID: id, Name: "Recipe"}}, nil
}

func (m *mockCatalogAPI) FindByIngredients(ctx context.Context, token string, ids []int64, limit int) ([]domain.MatchedRecipe, error) {
	if m.findFn != nil {
		return m.findFn(ctx, token, ids, limit)
	}
	return nil, nil
}

func (m *mockCatalogAPI) ShoppingList(ctx context.Context, token string, recipeID int64, owned domain.OwnedSet) (*domain.ShoppingList, error) {
	if m.shoppingFn != nil {
		return m.shoppingFn(ctx, token, recipeID, owned)
	}
	return &domain.ShoppingList{RecipeID: recipeID}, nil
}

func (m *mockCatalogAPI) Ingredients(ctx context.Context, f domain.IngredientFilter) (*domain.Page[domain.Ingredient], error) {
	if m.ingredientsFn != nil {
		return m.ingredientsFn(ctx, f)
	}
	return &domain.Page[domain.Ingredient]{Page: f.Page, PageSize: f.Limit}, nil
}

func (m *mockCatalogAPI) Ingredient(ctx context.Context, id int64) (*domain.IngredientDetail, error) {
	if m.ingredientFn != nil {
		return m.ingredientFn(ctx, id)
	}
	return &domain.IngredientDetail{Ingredient: domain.Ingredient{ID: id}}, nil
}

func (m *mockCatalogAPI) Categories(ctx context.Context) (*domain.CategoryCounts, error) {
	if m.categoriesFn != nil {
		return m.categoriesFn(ctx)
	}
	return &domain.CategoryCounts{}, nil
}

func (m *mockCatalogAPI) Stats(ctx context.Context) (*domain.Stats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return &domain.Stats{}, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var testSecret = []byte("test-secret")

func signToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1",
		"exp":     exp.Unix(),
	}).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func storeSession(t *testing.T, st *mockStorage, browserID, token string) {
	t.Helper()
	ctx := context.Background()
	if err := st.Set(ctx, browserID, domain.KeyToken, token); err != nil {
		t.Fatal(err)
	}
	if err := st.Set(ctx, browserID, domain.KeyUser, `{"id":"u1","username":"ann","email":"ann@example.com"}`); err != nil {
		t.Fatal(err)
	}
}

// authedSession returns an authenticated session for browser "b1".
func authedSession(t *testing.T, st *mockStorage) *Session {
	t.Helper()
	storeSession(t, st, "b1", signToken(t, time.Now().Add(time.Hour)))
	sess, err := NewSessions(st, &mockAuthAPI{}, nil).Load(context.Background(), "b1")
	if err != nil || !sess.IsAuthenticated() {
		t.Fatalf("expected authenticated session, got %v %v", sess.State(), err)
	}
	return sess
}

// guestSession returns an unauthenticated session for browser "b1".
func guestSession(t *testing.T, st *mockStorage) *Session {
	t.Helper()
	sess, err := NewSessions(st, &mockAuthAPI{}, nil).Load(context.Background(), "b1")
	if err != nil || sess.State() != domain.StateUnauthenticated {
		t.Fatalf("expected guest session, got %v %v", sess.State(), err)
	}
	return sess
}
