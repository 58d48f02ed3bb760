package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ayush/nebula-feed/internal/apperr"
	"github.com/ayush/nebula-feed/internal/audit"
	"github.com/ayush/nebula-feed/internal/models"
)

// AccountFinder resolves a claimed account id.
type AccountFinder interface {
	FindByID(ctx context.Context, id int64) (models.Account, error)
}

// Capability is a predicate over the resolved account.
type Capability struct {
	Name   string
	allows func(models.Account) bool
}

var (
	// Member is held by every resolved account.
	Member = Capability{Name: "member", allows: func(models.Account) bool { return true }}
	// Admin requires the isAdmin flag.
	Admin = Capability{Name: "admin", allows: func(a models.Account) bool { return a.IsAdmin }}
)

// OwnerOrAdmin is held by the owner of a resource and by administrators.
func OwnerOrAdmin(ownerID int64) Capability {
	return Capability{
		Name:   "owner:" + strconv.FormatInt(ownerID, 10),
		allows: func(a models.Account) bool { return a.ID == ownerID || a.IsAdmin },
	}
}

// Guard resolves claims to accounts and checks capabilities.
type Guard struct {
	accounts AccountFinder
	trail    *audit.Trail
	log      *slog.Logger
}

func NewGuard(accounts AccountFinder, trail *audit.Trail, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.Default()
	}
	return &Guard{accounts: accounts, trail: trail, log: log}
}

// RequireCapability returns the claimed account when it exists and holds
// capability. A missing claim, or a claim naming no account, is
// Unauthorized; a resolved account lacking the capability is Forbidden.
func (g *Guard) RequireCapability(ctx context.Context, claim Claim, capability Capability) (models.Account, error) {
	const op = "auth.RequireCapability"

	if !claim.Present() {
		return models.Account{}, apperr.OpError{Op: op, Kind: apperr.ErrUnauthorized, Msg: "authentication required"}
	}

	acc, err := g.accounts.FindByID(ctx, claim.AccountID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.Account{}, apperr.OpError{Op: op, Kind: apperr.ErrUnauthorized, Msg: "authentication required"}
		}
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	if capability.allows == nil || !capability.allows(acc) {
		g.log.InfoContext(ctx, "authz.denied", "account_id", acc.ID, "capability", capability.Name)
		g.trail.Emit(ctx, audit.Entry{
			Action:    audit.ActionDenied,
			AccountID: acc.ID,
			Username:  acc.Username,
			Meta:      map[string]string{"capability": capability.Name},
		})
		return models.Account{}, apperr.OpError{Op: op, Kind: apperr.ErrForbidden, Msg: "access denied"}
	}
	return acc, nil
}
