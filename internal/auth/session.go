package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultSessionTTL = 24 * time.Hour
	SessionCookie     = "session_id"
	SessionHeader     = "X-Session-Token"

	sessionKeyPrefix = "session:"
)

// SessionStore wraps Redis for session management. Tokens are random
// UUIDs, opaque to the client, mapped server-side to an account id.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{rdb: rdb, ttl: ttl}
}

func (s *SessionStore) TTL() time.Duration { return s.ttl }

// Create stores a new session token -> accountID mapping.
func (s *SessionStore) Create(ctx context.Context, accountID int64) (string, error) {
	token := uuid.NewString()
	err := s.rdb.Set(ctx, sessionKeyPrefix+token, strconv.FormatInt(accountID, 10), s.ttl).Err()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}
	return token, nil
}

// Resolve returns the account id bound to token. ok is false when the token
// is malformed, unknown or expired.
func (s *SessionStore) Resolve(ctx context.Context, token string) (accountID int64, ok bool, err error) {
	if _, perr := uuid.Parse(token); perr != nil {
		return 0, false, nil
	}

	val, err := s.rdb.Get(ctx, sessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("session resolve: %w", err)
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, nil
	}
	return id, true, nil
}

// Delete removes a session. Deleting an unknown token is not an error.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.rdb.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

// TokenFromRequest reads the session token from an explicit
// "Authorization: Bearer <token>" header, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		if tok := strings.TrimSpace(h[7:]); tok != "" {
			return tok
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}
