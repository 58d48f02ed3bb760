package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayush/nebula-feed/internal/apperr"
	"github.com/ayush/nebula-feed/internal/audit"
	"github.com/ayush/nebula-feed/internal/httpx"
	"github.com/ayush/nebula-feed/internal/models"
)

// Sessions is the session persistence the handlers need.
type Sessions interface {
	Create(ctx context.Context, accountID int64) (string, error)
	Delete(ctx context.Context, token string) error
	TTL() time.Duration
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	svc          *Service
	sessions     Sessions
	trail        *audit.Trail
	log          *slog.Logger
	secureCookie bool
}

func NewHandler(svc *Service, sessions Sessions, trail *audit.Trail, log *slog.Logger, secureCookie bool) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, sessions: sessions, trail: trail, log: log, secureCookie: secureCookie}
}

// Register creates a new account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	view, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, view)
}

// Login authenticates an account and creates a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	view, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	token, err := h.sessions.Create(r.Context(), view.ID)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessions.TTL() / time.Second),
	})
	w.Header().Set(SessionHeader, token)
	httpx.WriteJSON(w, http.StatusOK, view)
}

// Logout destroys the current session. It always succeeds from the
// client's point of view.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := TokenFromRequest(r); token != "" {
		if err := h.sessions.Delete(r.Context(), token); err != nil {
			h.log.WarnContext(r.Context(), "auth.logout.delete_failed", "err", err)
		}
	}
	if c := ClaimFrom(r.Context()); c.Present() {
		h.trail.Emit(r.Context(), audit.Entry{Action: audit.ActionLogout, AccountID: c.AccountID})
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	httpx.WriteJSON(w, http.StatusOK, models.MessageResponse{Message: "Logged out successfully"})
}

// Me returns the currently authenticated account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	c := ClaimFrom(r.Context())
	if !c.Present() {
		httpx.WriteError(w, r, h.log, apperr.ErrUnauthorized)
		return
	}

	view, err := h.svc.Account(r.Context(), c.AccountID)
	if err != nil {
		if apperr.Kind(err) == apperr.ErrNotFound {
			err = apperr.ErrUnauthorized
		}
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}
