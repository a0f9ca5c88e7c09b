package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/averybrooks/fonezone/internal/auth"
	"github.com/averybrooks/fonezone/internal/models"
	"github.com/averybrooks/fonezone/internal/session"
)

// Guard applies the authorization algorithm to http routes. The actor is
// resolved from the signed session cookie against the directory on every
// request, never cached, so promotions, deletions and logouts take effect on
// the next navigation.
type Guard struct {
	Sessions *session.Store
	Cookies  *sessions.CookieStore
}

type contextKey string

const actorKey contextKey = "actor"

// ActorFrom retrieves the authenticated actor a passed guard stored on the
// request context.
func ActorFrom(r *http.Request) *models.Actor {
	actor, _ := r.Context().Value(actorKey).(*models.Actor)
	return actor
}

// cookieEmail extracts the principal email from the signed session cookie,
// or "" when the request carries none.
func cookieEmail(cookies *sessions.CookieStore, r *http.Request) string {
	cookie, err := cookies.Get(r, sessionCookie)
	if err != nil {
		return ""
	}
	email, _ := cookie.Values["email"].(string)
	return email
}

func (g *Guard) resolveActor(r *http.Request) *models.Actor {
	email := cookieEmail(g.Cookies, r)
	if email == "" {
		return nil
	}
	actor, err := g.Sessions.FindActor(r.Context(), email)
	if err != nil {
		return nil
	}
	return actor
}

// Require wraps a handler with an authorization requirement. A missing
// session answers 401 with a login redirect hint; a wrong role or category
// answers 403 with an unauthorized redirect hint, never a silent
// pass-through.
func (g *Guard) Require(req auth.Requirement) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			actor := g.resolveActor(r)
			switch auth.Authorize(actor, req) {
			case auth.Allow:
				ctx := context.WithValue(r.Context(), actorKey, actor)
				next(w, r.WithContext(ctx))
			case auth.RedirectToLogin:
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error":    "login required",
					"redirect": auth.RouteLogin,
				})
			default:
				writeJSON(w, http.StatusForbidden, map[string]string{
					"error":    "you do not have access to this page",
					"redirect": auth.RouteUnauthorized,
				})
			}
		}
	}
}
