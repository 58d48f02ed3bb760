// Package feed implements the profile, post, and admin operations of the
// social feed, plus the live post stream.
package feed

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/ayush/nebula-feed/internal/apperr"
	"github.com/ayush/nebula-feed/internal/audit"
	"github.com/ayush/nebula-feed/internal/auth"
	"github.com/ayush/nebula-feed/internal/models"
)

const (
	maxContentLen = 2000

	// MaxAvatarBytes bounds uploaded profile pictures.
	MaxAvatarBytes = 2 << 20

	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

var avatarTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// AccountStore is the account persistence the feed needs.
type AccountStore interface {
	FindByID(ctx context.Context, id int64) (models.Account, error)
	UpdateProfile(ctx context.Context, id int64, email, bio string) error
	SetAvatar(ctx context.Context, id int64, key string) error
	ListAccounts(ctx context.Context) ([]models.AccountSummary, error)
}

// PostStore is the post persistence the feed needs.
type PostStore interface {
	CreatePost(ctx context.Context, authorID int64, content string) (models.PostView, error)
	ListAll(ctx context.Context) ([]models.PostView, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]models.PostView, error)
}

// ObjectStore holds avatar bytes.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, string, error)
}

// AuditLog returns recorded audit events, newest first.
type AuditLog interface {
	Recent(ctx context.Context, limit int64) ([]models.AuditEvent, error)
}

// Authorizer checks a claim against a capability.
type Authorizer interface {
	RequireCapability(ctx context.Context, claim auth.Claim, capability auth.Capability) (models.Account, error)
}

// Publisher receives every created post.
type Publisher interface {
	Publish(p models.PostView)
}

// Deps collects the Service collaborators. Objects, Audit and Publisher are
// optional.
type Deps struct {
	Accounts  AccountStore
	Posts     PostStore
	Guard     Authorizer
	Objects   ObjectStore
	Audit     AuditLog
	Publisher Publisher
	Trail     *audit.Trail
	Log       *slog.Logger
}

type Service struct {
	accounts  AccountStore
	posts     PostStore
	guard     Authorizer
	objects   ObjectStore
	auditLog  AuditLog
	publisher Publisher
	trail     *audit.Trail
	log       *slog.Logger
}

func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		accounts:  d.Accounts,
		posts:     d.Posts,
		guard:     d.Guard,
		objects:   d.Objects,
		auditLog:  d.Audit,
		publisher: d.Publisher,
		trail:     d.Trail,
		log:       log,
	}
}

// ViewProfile returns the public view of any account.
func (s *Service) ViewProfile(ctx context.Context, id int64) (models.PublicAccountView, error) {
	acc, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return models.PublicAccountView{}, err
	}
	return acc.View(), nil
}

// UpdateProfile replaces the target's email and bio. Only the owner or an
// administrator may do so.
func (s *Service) UpdateProfile(ctx context.Context, claim auth.Claim, targetID int64, in models.UpdateProfileRequest) error {
	const op = "feed.UpdateProfile"

	actor, err := s.guard.RequireCapability(ctx, claim, auth.OwnerOrAdmin(targetID))
	if err != nil {
		return err
	}

	email := auth.NormalizeEmail(in.Email)
	if err := auth.ValidateEmail(op, email); err != nil {
		return err
	}
	if err := auth.ValidateBio(op, in.Bio); err != nil {
		return err
	}

	if err := s.accounts.UpdateProfile(ctx, targetID, email, in.Bio); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "feed.profile.updated", "account_id", targetID, "actor_id", actor.ID)
	s.trail.Emit(ctx, audit.Entry{
		Action:    audit.ActionProfileUpdated,
		AccountID: actor.ID,
		Username:  actor.Username,
		Meta:      targetMeta(targetID),
	})
	return nil
}

// ListFeed returns every post, newest first.
func (s *Service) ListFeed(ctx context.Context) ([]models.PostView, error) {
	return s.posts.ListAll(ctx)
}

// ListUserPosts returns one author's posts, newest first. An unknown author
// has no posts.
func (s *Service) ListUserPosts(ctx context.Context, authorID int64) ([]models.PostView, error) {
	return s.posts.ListByAuthor(ctx, authorID)
}

// CreatePost publishes content as the claimed account.
func (s *Service) CreatePost(ctx context.Context, claim auth.Claim, content string) (models.PostView, error) {
	const op = "feed.CreatePost"

	actor, err := s.guard.RequireCapability(ctx, claim, auth.Member)
	if err != nil {
		return models.PostView{}, err
	}

	if strings.TrimSpace(content) == "" {
		return models.PostView{}, apperr.Validation(op, "content is required")
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return models.PostView{}, apperr.Validation(op, "content is too long")
	}
	if !auth.ValidText(content) {
		return models.PostView{}, apperr.Validation(op, "content contains invalid characters")
	}

	post, err := s.posts.CreatePost(ctx, actor.ID, content)
	if err != nil {
		return models.PostView{}, err
	}

	s.log.InfoContext(ctx, "feed.post.created", "post_id", post.ID, "account_id", actor.ID)
	s.trail.Emit(ctx, audit.Entry{
		Action:    audit.ActionPostCreated,
		AccountID: actor.ID,
		Username:  actor.Username,
	})
	if s.publisher != nil {
		s.publisher.Publish(post)
	}
	return post, nil
}

// ListAdministeredAccounts returns every account to an administrator.
func (s *Service) ListAdministeredAccounts(ctx context.Context, claim auth.Claim) ([]models.AccountSummary, error) {
	if _, err := s.guard.RequireCapability(ctx, claim, auth.Admin); err != nil {
		return nil, err
	}
	return s.accounts.ListAccounts(ctx)
}

// RecentAudit returns up to limit audit events to an administrator.
func (s *Service) RecentAudit(ctx context.Context, claim auth.Claim, limit int) ([]models.AuditEvent, error) {
	if _, err := s.guard.RequireCapability(ctx, claim, auth.Admin); err != nil {
		return nil, err
	}
	if s.auditLog == nil {
		return nil, apperr.OpError{Op: "feed.RecentAudit", Kind: apperr.ErrUnavailable, Msg: "audit log is not configured"}
	}
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	return s.auditLog.Recent(ctx, int64(limit))
}

// SetAvatar stores a new profile picture for the target account.
func (s *Service) SetAvatar(ctx context.Context, claim auth.Claim, targetID int64, data []byte) error {
	const op = "feed.SetAvatar"

	actor, err := s.guard.RequireCapability(ctx, claim, auth.OwnerOrAdmin(targetID))
	if err != nil {
		return err
	}
	if s.objects == nil {
		return apperr.OpError{Op: op, Kind: apperr.ErrUnavailable, Msg: "avatar storage is not configured"}
	}

	if len(data) == 0 {
		return apperr.Validation(op, "image is required")
	}
	if len(data) > MaxAvatarBytes {
		return apperr.Validation(op, "image is too large")
	}
	contentType := http.DetectContentType(data)
	if !avatarTypes[contentType] {
		return apperr.Validation(op, "unsupported image type")
	}

	if _, err := s.accounts.FindByID(ctx, targetID); err != nil {
		return err
	}

	key := models.AvatarKey(targetID)
	if err := s.objects.Put(ctx, key, data, contentType); err != nil {
		return err
	}
	if err := s.accounts.SetAvatar(ctx, targetID, key); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "feed.avatar.updated", "account_id", targetID, "actor_id", actor.ID, "bytes", len(data))
	s.trail.Emit(ctx, audit.Entry{
		Action:    audit.ActionAvatarUpdated,
		AccountID: actor.ID,
		Username:  actor.Username,
		Meta:      targetMeta(targetID),
	})
	return nil
}

// Avatar returns the stored profile picture of an account.
func (s *Service) Avatar(ctx context.Context, id int64) ([]byte, string, error) {
	const op = "feed.Avatar"

	if s.objects == nil {
		return nil, "", apperr.NotFound(op, "avatar")
	}
	acc, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if acc.AvatarKey == "" {
		return nil, "", apperr.NotFound(op, "avatar")
	}
	return s.objects.Get(ctx, acc.AvatarKey)
}

func targetMeta(id int64) map[string]string {
	return map[string]string{"target_id": formatID(id)}
}
