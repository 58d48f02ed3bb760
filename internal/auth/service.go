package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/nebula-feed/internal/apperr"
	"github.com/ayush/nebula-feed/internal/audit"
	"github.com/ayush/nebula-feed/internal/models"
)

// BcryptCost is the fixed work factor for stored password hashes.
const BcryptCost = 10

// AccountStore defines the credential persistence the identity service needs.
type AccountStore interface {
	CreateAccount(ctx context.Context, in models.NewAccount) (models.Account, error)
	FindByUsername(ctx context.Context, username string) (models.Account, error)
	FindByID(ctx context.Context, id int64) (models.Account, error)
}

// Service implements registration and login.
type Service struct {
	accounts AccountStore
	trail    *audit.Trail
	log      *slog.Logger

	// dummyHash is compared against when the username is unknown so both
	// login failure paths cost one bcrypt verification.
	dummyHash []byte
}

func NewService(accounts AccountStore, trail *audit.Trail, log *slog.Logger) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing-only"), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: dummy hash: %w", err)
	}
	return &Service{accounts: accounts, trail: trail, log: log, dummyHash: dummy}, nil
}

// Register validates and normalizes the input, hashes the password and
// creates the account. Duplicate usernames or emails surface as a
// ConflictError from the store.
func (s *Service) Register(ctx context.Context, in models.RegisterRequest) (models.PublicAccountView, error) {
	acc, err := s.create(ctx, "auth.Register", in, false)
	if err != nil {
		return models.PublicAccountView{}, err
	}

	s.log.InfoContext(ctx, "auth.register.ok", "account_id", acc.ID, "username", acc.Username)
	s.trail.Emit(ctx, audit.Entry{Action: audit.ActionRegistered, AccountID: acc.ID, Username: acc.Username})
	return acc.View(), nil
}

func (s *Service) create(ctx context.Context, op string, in models.RegisterRequest, isAdmin bool) (models.Account, error) {
	username := NormalizeUsername(in.Username)
	email := NormalizeEmail(in.Email)

	if err := validateUsername(op, username); err != nil {
		return models.Account{}, err
	}
	if err := ValidateEmail(op, email); err != nil {
		return models.Account{}, err
	}
	if err := validatePassword(op, in.Password); err != nil {
		return models.Account{}, err
	}
	if err := ValidateBio(op, in.Bio); err != nil {
		return models.Account{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), BcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return models.Account{}, apperr.Validation(op, "password is too long")
		}
		return models.Account{}, fmt.Errorf("%s: hash password: %w", op, err)
	}

	return s.accounts.CreateAccount(ctx, models.NewAccount{
		Username:   username,
		SecretHash: string(hash),
		Email:      email,
		Bio:        in.Bio,
		IsAdmin:    isAdmin,
	})
}

// Login verifies a username/password pair. Unknown usernames and wrong
// passwords return the same error after the same amount of bcrypt work.
func (s *Service) Login(ctx context.Context, username, password string) (models.PublicAccountView, error) {
	username = NormalizeUsername(username)

	acc, err := s.accounts.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return models.PublicAccountView{}, fmt.Errorf("auth.Login: %w", err)
	}

	hash := s.dummyHash
	known := err == nil
	if known {
		hash = []byte(acc.SecretHash)
	}

	cmpErr := bcrypt.CompareHashAndPassword(hash, []byte(password))
	if !known || cmpErr != nil {
		if known && !errors.Is(cmpErr, bcrypt.ErrMismatchedHashAndPassword) {
			s.log.ErrorContext(ctx, "auth.login.hash_invalid", "account_id", acc.ID, "err", cmpErr)
		}
		// Only a resolved account is recorded, never the attempted name.
		entry := audit.Entry{
			Action: audit.ActionLoginFailed,
			Meta:   map[string]string{"account_known": strconv.FormatBool(known)},
		}
		if known {
			entry.AccountID = acc.ID
			entry.Username = acc.Username
		}
		s.trail.Emit(ctx, entry)
		return models.PublicAccountView{}, apperr.ErrInvalidCredentials
	}

	s.log.InfoContext(ctx, "auth.login.ok", "account_id", acc.ID)
	s.trail.Emit(ctx, audit.Entry{Action: audit.ActionLoginSucceeded, AccountID: acc.ID, Username: acc.Username})
	return acc.View(), nil
}

// Account returns the public view of an existing account.
func (s *Service) Account(ctx context.Context, id int64) (models.PublicAccountView, error) {
	acc, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return models.PublicAccountView{}, err
	}
	return acc.View(), nil
}

// EnsureAdmin provisions the administrative account. It is idempotent: an
// existing account with the same username is treated as already
// provisioned and is never escalated. An email held by another account
// leaves no admin behind and is reported as a warning.
func (s *Service) EnsureAdmin(ctx context.Context, username, password, email string) error {
	acc, err := s.create(ctx, "auth.EnsureAdmin", models.RegisterRequest{
		Username: username,
		Password: password,
		Email:    email,
	}, true)

	var ce apperr.ConflictError
	if errors.As(err, &ce) {
		name := NormalizeUsername(username)
		if ce.Field != "username" {
			s.log.WarnContext(ctx, "auth.admin.email_taken", "username", name, "field", ce.Field)
			return nil
		}
		existing, ferr := s.accounts.FindByUsername(ctx, name)
		if ferr != nil {
			return fmt.Errorf("auth.EnsureAdmin: %w", ferr)
		}
		if !existing.IsAdmin {
			s.log.WarnContext(ctx, "auth.admin.not_admin", "account_id", existing.ID, "username", name)
			return nil
		}
		s.log.InfoContext(ctx, "auth.admin.exists", "account_id", existing.ID, "username", name)
		return nil
	}
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "auth.admin.created", "account_id", acc.ID, "username", acc.Username)
	return nil
}
