package adapthttp

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"recipebook/internal/app"
)

// handleLike toggles a like. Script callers send Accept: application/json
// and get the outcome as JSON; plain form posts are redirected back.
func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		if wantsJSON(r) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		s.handleNotFound(w, r)
		return
	}

	fallback := "/recipes/" + strconv.FormatInt(id, 10)
	req := app.LikeRequest{RecipeID: id}
	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct == "application/json" {
		var body struct {
			Liked    bool   `json:"liked"`
			ReturnTo string `json:"return_to"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		req.Liked, req.ReturnTo = body.Liked, app.LocalPath(body.ReturnTo)
		if body.ReturnTo == "" {
			req.ReturnTo = fallback
		}
	} else {
		req.Liked, _ = strconv.ParseBool(r.PostFormValue("liked"))
		req.ReturnTo = returnTo(r, fallback)
	}

	notice := ""
	out, err := s.svc.Likes.Toggle(r.Context(), sessionFrom(r.Context()), req, func(_ int64, liked bool) {
		if liked {
			notice = "Added to your liked recipes"
		} else {
			notice = "Removed from your liked recipes"
		}
	})

	if wantsJSON(r) {
		switch {
		case errors.Is(err, app.ErrToggleInFlight):
			writeJSON(w, http.StatusConflict, out)
		case err != nil:
			writeJSON(w, http.StatusBadGateway, out)
		default:
			writeJSON(w, http.StatusOK, out)
		}
		return
	}

	if out.Redirect != "" {
		redirect(w, r, out.Redirect)
		return
	}
	if out.Error != "" {
		notice = out.Error
	}
	if notice != "" {
		setFlash(w, notice)
	}
	redirect(w, r, req.ReturnTo)
}
