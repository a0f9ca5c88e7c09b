package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/averybrooks/fonezone/internal/auth"
	"github.com/averybrooks/fonezone/internal/models"
	"github.com/averybrooks/fonezone/internal/session"
)

const sessionCookie = "fz-session"

type AuthHandler struct {
	Sessions *session.Store
	Cookies  *sessions.CookieStore
}

type credentialsRequest struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
	RedirectTo  string `json:"redirect_to"`
}

type sessionResponse struct {
	Actor   *models.Actor `json:"actor"`
	Landing string        `json:"landing"`
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, r *http.Request, actor *models.Actor) error {
	cookie, _ := h.Cookies.Get(r, sessionCookie)
	cookie.Values["email"] = actor.Email
	cookie.Options.Path = "/"
	return cookie.Save(r, w)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	actor, err := h.Sessions.Register(r.Context(), req.Email, req.Username, req.DisplayName, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Sessions.Login(r.Context(), actor); err != nil {
		writeError(w, err)
		return
	}
	if err := h.setCookie(w, r, actor); err != nil {
		slog.Error("Failed to save session cookie", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save session"})
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{
		Actor:   actor,
		Landing: auth.LandingRoute(actor, req.RedirectTo),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	actor, err := h.Sessions.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		// Invalid credentials are 401, not the guard's 403.
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
		return
	}
	if err := h.Sessions.Login(r.Context(), actor); err != nil {
		writeError(w, err)
		return
	}
	if err := h.setCookie(w, r, actor); err != nil {
		slog.Error("Failed to save session cookie", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save session"})
		return
	}
	slog.Info("Login successful", "email", actor.Email, "role", actor.Role)
	writeJSON(w, http.StatusOK, sessionResponse{
		Actor:   actor,
		Landing: auth.LandingRoute(actor, req.RedirectTo),
	})
}

// Logout ends the requesting client's own session. Another client's session
// document is never touched.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	email := cookieEmail(h.Cookies, r)
	cookie, _ := h.Cookies.Get(r, sessionCookie)
	cookie.Options.MaxAge = -1 // Expire immediately
	if err := cookie.Save(r, w); err != nil {
		slog.Error("Failed to expire session cookie", "error", err)
	}
	if err := h.Sessions.Logout(r.Context(), email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"landing": auth.RouteLogin})
}

// CurrentSession reports the session document the nav bar renders from. The
// principal comes from the request's own cookie, the same way the guard
// resolves it, so one client never sees another's session.
func (h *AuthHandler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	actor, err := h.Sessions.Current(r.Context(), cookieEmail(h.Cookies, r))
	if err != nil {
		writeError(w, err)
		return
	}
	if actor == nil {
		writeJSON(w, http.StatusOK, sessionResponse{Landing: auth.RouteLogin})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Actor:   actor,
		Landing: auth.LandingRoute(actor, ""),
	})
}

// Dashboard is the "go to my dashboard" shortcut: it only computes where the
// requesting actor should land.
func (h *AuthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, err := h.Sessions.Current(r.Context(), cookieEmail(h.Cookies, r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"landing": auth.LandingRoute(actor, "")})
}

func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Sessions.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	// Same message whether or not the email exists.
	writeJSON(w, http.StatusOK, map[string]string{"message": "if that email is registered, a reset link has been sent"})
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	actor, err := h.Sessions.ResetPassword(r.Context(), req.Token, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Sessions.Login(r.Context(), actor); err != nil {
		writeError(w, err)
		return
	}
	if err := h.setCookie(w, r, actor); err != nil {
		slog.Error("Failed to save session cookie", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save session"})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Actor:   actor,
		Landing: auth.LandingRoute(actor, ""),
	})
}
