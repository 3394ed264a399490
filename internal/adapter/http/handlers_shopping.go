package adapthttp

import (
	"bytes"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"recipebook/internal/adapter/export"
	"recipebook/internal/app"
	"recipebook/internal/domain"
)

type shoppingPage struct {
	View      *app.ShoppingListView
	ExportURL string
}

func (s *Server) loadShoppingList(w http.ResponseWriter, r *http.Request) (*app.ShoppingListView, bool) {
	id, err := idParam(r, "id")
	if err != nil {
		s.handleNotFound(w, r)
		return nil, false
	}
	owned := domain.ParseOwnedSet(r.URL.Query()["have"]...)
	view, err := s.svc.Shopping.Load(r.Context(), sessionFrom(r.Context()), id, owned)
	if err != nil {
		s.renderFetchError(w, r, err, "Recipe not found", "Failed to fetch shopping list")
		return nil, false
	}
	return view, true
}

// handleShoppingList shows what is left to buy. The owned set comes from the
// have parameter and only changes when the form is submitted again.
func (s *Server) handleShoppingList(w http.ResponseWriter, r *http.Request) {
	view, ok := s.loadShoppingList(w, r)
	if !ok {
		return
	}
	exportURL := "/recipes/" + strconv.FormatInt(view.RecipeID, 10) + "/shopping-list/export"
	if csv := view.Owned.CSV(); csv != "" {
		exportURL += "?have=" + csv
	}
	title := "Shopping list"
	if view.RecipeName != "" {
		title += ": " + view.RecipeName
	}
	s.render(w, r, http.StatusOK, "shopping.html", title, shoppingPage{View: view, ExportURL: exportURL})
}

func (s *Server) handleShoppingListExport(w http.ResponseWriter, r *http.Request) {
	view, ok := s.loadShoppingList(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.ShoppingListXLSX(&buf, view.RecipeName, view.Items); err != nil {
		s.log.Error("export shopping list", zap.Int64("recipe", view.RecipeID), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(view.RecipeID)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}
