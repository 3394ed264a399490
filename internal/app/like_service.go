package app

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"recipebook/internal/domain"
)

// ErrToggleInFlight indicates that a like toggle for the same recipe is still
// running for this browser.
var ErrToggleInFlight = errors.New("like toggle already in progress")

// LikePrompt is appended to the login path when a guest tries to like.
const LikePrompt = "prompt=like-recipe"

// LikeRequest is one click on a like control.
type LikeRequest struct {
	RecipeID int64
	// Liked is the state shown before the click.
	Liked bool
	// ReturnTo is the path of the view holding the control.
	ReturnTo string
}

// LikeOutcome is the state the control should show afterwards.
type LikeOutcome struct {
	Liked    bool   `json:"liked"`
	Redirect string `json:"redirect,omitempty"`
	Error    string `json:"error,omitempty"`
}

// LikeService toggles likes optimistically and reverts on failure.
type LikeService struct {
	accounts  domain.AccountAPI
	loginPath string
	log       *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewLikeService creates the like service. Guests are sent to loginPath.
func NewLikeService(accounts domain.AccountAPI, loginPath string, log *zap.Logger) *LikeService {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LikeService{
		accounts:  accounts,
		loginPath: loginPath,
		log:       log,
		inFlight:  make(map[string]struct{}),
	}
}

// Toggle flips the like state of a recipe. Guests get a redirect to login with
// ReturnTo remembered and no API call is made. onChange, when set, is called
// with the new state only after the API accepted it.
func (l *LikeService) Toggle(ctx context.Context, sess *Session, req LikeRequest, onChange func(recipeID int64, liked bool)) (LikeOutcome, error) {
	if !sess.IsAuthenticated() {
		if err := sess.RememberRedirect(ctx, req.ReturnTo); err != nil {
			l.log.Warn("remember return path", zap.Error(err))
		}
		return LikeOutcome{Liked: req.Liked, Redirect: l.loginPath + "?" + LikePrompt}, nil
	}

	key := sess.BrowserID() + "/" + strconv.FormatInt(req.RecipeID, 10)
	if !l.acquire(key) {
		return LikeOutcome{Liked: req.Liked}, ErrToggleInFlight
	}
	defer l.release(key)

	out := LikeOutcome{Liked: !req.Liked}
	var err error
	if out.Liked {
		err = l.accounts.AddLike(ctx, sess.Token(), req.RecipeID)
	} else {
		err = l.accounts.RemoveLike(ctx, sess.Token(), req.RecipeID)
	}
	if err != nil {
		l.log.Warn("toggle like", zap.Int64("recipe", req.RecipeID), zap.Bool("liked", out.Liked), zap.Error(err))
		if out.Liked {
			out.Error = "Failed to like recipe"
		} else {
			out.Error = "Failed to unlike recipe"
		}
		out.Liked = req.Liked
		return out, err
	}

	if onChange != nil {
		onChange(req.RecipeID, out.Liked)
	}
	return out, nil
}

func (l *LikeService) acquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.inFlight[key]; busy {
		return false
	}
	l.inFlight[key] = struct{}{}
	return true
}

func (l *LikeService) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inFlight, key)
}
