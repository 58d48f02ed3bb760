package feed

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/nebula-feed/internal/apperr"
	"github.com/ayush/nebula-feed/internal/auth"
	"github.com/ayush/nebula-feed/internal/httpx"
	"github.com/ayush/nebula-feed/internal/models"
)

// Handler holds feed-related HTTP handlers.
type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

// GetProfile returns the public profile named by {id}.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := parseProfileID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := h.svc.ViewProfile(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

// UpdateProfile replaces email and bio of {id}.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := parseProfileID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req models.UpdateProfileRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.UpdateProfile(r.Context(), auth.ClaimFrom(r.Context()), id, req); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, models.MessageResponse{Message: "Profile updated successfully"})
}

// PutAvatar stores the raw request body as the profile picture of {id}.
func (h *Handler) PutAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := parseProfileID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxAvatarBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, apperr.Validation("feed.PutAvatar", "image is too large"))
			return
		}
		h.fail(w, r, apperr.Validation("feed.PutAvatar", "invalid request body"))
		return
	}

	if err := h.svc.SetAvatar(r.Context(), auth.ClaimFrom(r.Context()), id, data); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, models.MessageResponse{Message: "Profile picture updated successfully"})
}

// GetAvatar serves the stored profile picture of {id}.
func (h *Handler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := parseProfileID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data, contentType, err := h.svc.Avatar(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_, _ = w.Write(data)
}

// ListPosts returns the whole feed.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListFeed(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, posts)
}

// ListUserPosts returns the posts of {userId}.
func (h *Handler) ListUserPosts(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "userId")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	posts, err := h.svc.ListUserPosts(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, posts)
}

// CreatePost publishes a post as the session's account. Any author field in
// the body is ignored.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePostRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	post, err := h.svc.CreatePost(r.Context(), auth.ClaimFrom(r.Context()), req.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, post)
}

// ListAccounts returns every account to an administrator.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.ListAdministeredAccounts(r.Context(), auth.ClaimFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, accounts)
}

// ListAudit returns recent audit events to an administrator.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.fail(w, r, apperr.Validation("feed.ListAudit", "limit must be a positive integer"))
			return
		}
		limit = n
	}
	events, err := h.svc.RecentAudit(r.Context(), auth.ClaimFrom(r.Context()), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httpx.WriteError(w, r, h.log, err)
}

func parseID(r *http.Request, param string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("feed.parseID", "invalid "+param)
	}
	return id, nil
}

// parseProfileID treats a malformed id like an id with no account.
func parseProfileID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NotFound("feed.parseProfileID", "account")
	}
	return id, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
