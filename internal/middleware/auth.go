package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ayush/nebula-feed/internal/apperr"
	"github.com/ayush/nebula-feed/internal/auth"
	"github.com/ayush/nebula-feed/internal/httpx"
)

var errNotAuthenticated = apperr.OpError{Op: "middleware.RequireSession", Kind: apperr.ErrUnauthorized, Msg: "authentication required"}

// SessionResolver maps a session token to an account id.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (int64, bool, error)
}

// Session resolves the request's session token, if any, and attaches the
// resulting claim to the context. It never rejects a request on its own:
// a missing or unknown token yields the zero claim and each handler decides
// whether identity is required. A resolver failure is logged and the
// request continues anonymously, so guarded operations fail closed while
// public routes and logout keep working.
func Session(sessions SessionResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, ok, err := sessions.Resolve(r.Context(), token)
			if err != nil {
				log.WarnContext(r.Context(), "session.resolve_failed", "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.WithClaim(r.Context(), auth.Claim{AccountID: id})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests without a resolved claim.
func RequireSession(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.ClaimFrom(r.Context()).Present() {
				httpx.WriteError(w, r, log, errNotAuthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
