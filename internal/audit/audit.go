// Package audit records security-relevant events (registrations, logins,
// denials, profile and post writes) to one or more sinks.
//
// Events never carry password material. Recording is best effort: a failing
// sink is logged and never fails the request that produced the event.
package audit

import (
	"context"
	"crypto/rand"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ayush/nebula-feed/internal/models"
)

const (
	ActionRegistered     = "account.registered"
	ActionLoginSucceeded = "auth.login.succeeded"
	ActionLoginFailed    = "auth.login.failed"
	ActionLogout         = "auth.logout"
	ActionDenied         = "authz.denied"
	ActionProfileUpdated = "profile.updated"
	ActionAvatarUpdated  = "profile.avatar_updated"
	ActionPostCreated    = "post.created"
)

// Recorder is a destination for audit events.
type Recorder interface {
	Record(ctx context.Context, ev models.AuditEvent) error
}

// Trail fans events out to its sinks. A nil *Trail discards everything.
type Trail struct {
	log   *slog.Logger
	sinks []Recorder
	now   func() time.Time
}

func NewTrail(log *slog.Logger, sinks ...Recorder) *Trail {
	if log == nil {
		log = slog.Default()
	}
	kept := make([]Recorder, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Trail{log: log, sinks: kept, now: func() time.Time { return time.Now().UTC() }}
}

// Entry describes who did what; request metadata is taken from ctx.
type Entry struct {
	Action    string
	AccountID int64
	Username  string
	Meta      map[string]string
}

func (t *Trail) Emit(ctx context.Context, e Entry) {
	if t == nil || len(t.sinks) == 0 {
		return
	}

	now := t.now()
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		t.log.Error("audit.id.fail", "err", err, "action", e.Action)
		return
	}

	info := requestInfoFrom(ctx)
	ev := models.AuditEvent{
		ID:         id.String(),
		Action:     e.Action,
		AccountID:  e.AccountID,
		Username:   e.Username,
		RemoteAddr: info.RemoteAddr,
		UserAgent:  info.UserAgent,
		Meta:       e.Meta,
		CreatedAt:  now,
	}

	for _, s := range t.sinks {
		if err := s.Record(ctx, ev); err != nil {
			t.log.Error("audit.record.fail", "err", err, "action", e.Action)
		}
	}
}

type requestInfo struct {
	RemoteAddr string
	UserAgent  string
}

type requestInfoKey struct{}

// WithRequestInfo attaches the caller's address and user agent to ctx.
func WithRequestInfo(ctx context.Context, remoteAddr, userAgent string) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, requestInfo{RemoteAddr: remoteAddr, UserAgent: userAgent})
}

func requestInfoFrom(ctx context.Context) requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(requestInfo)
	return info
}
