package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ayush/nebula-feed/internal/apperr"
	"github.com/ayush/nebula-feed/internal/models"
)

const accountColumns = `id, username, secret_hash, email, bio, is_admin, avatar_key, registered_at`

func scanAccount(row pgx.Row) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Username, &a.SecretHash, &a.Email, &a.Bio, &a.IsAdmin, &a.AvatarKey, &a.RegisteredAt)
	return a, err
}

// CreateAccount inserts a new account. Uniqueness of username and email is
// enforced by the table constraints, so concurrent registrations race safely.
func (s *PostgresStore) CreateAccount(ctx context.Context, in models.NewAccount) (models.Account, error) {
	const op = "store.CreateAccount"

	a, err := scanAccount(s.pool.QueryRow(ctx,
		`INSERT INTO accounts (username, secret_hash, email, bio, is_admin)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+accountColumns,
		in.Username, in.SecretHash, in.Email, in.Bio, in.IsAdmin,
	))
	if err != nil {
		if field, ok := classifyUniqueViolation(err); ok {
			return models.Account{}, apperr.ConflictError{Op: op, Field: field}
		}
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (models.Account, error) {
	return s.findOne(ctx, "store.FindByUsername",
		`SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (models.Account, error) {
	return s.findOne(ctx, "store.FindByID",
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (s *PostgresStore) findOne(ctx context.Context, op, query string, arg any) (models.Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, apperr.NotFound(op, "account")
		}
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// UpdateProfile replaces email and bio in a single statement.
func (s *PostgresStore) UpdateProfile(ctx context.Context, id int64, email, bio string) error {
	const op = "store.UpdateProfile"

	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET email = $1, bio = $2 WHERE id = $3`,
		email, bio, id,
	)
	if err != nil {
		if field, ok := classifyUniqueViolation(err); ok {
			return apperr.ConflictError{Op: op, Field: field}
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(op, "account")
	}
	return nil
}

// SetAvatar records the object key of the account's profile picture.
func (s *PostgresStore) SetAvatar(ctx context.Context, id int64, key string) error {
	const op = "store.SetAvatar"

	tag, err := s.pool.Exec(ctx, `UPDATE accounts SET avatar_key = $1 WHERE id = $2`, key, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(op, "account")
	}
	return nil
}

// ListAccounts returns every account, oldest first.
func (s *PostgresStore) ListAccounts(ctx context.Context) ([]models.AccountSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, username, email, is_admin, registered_at FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store.ListAccounts: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.AccountSummary, error) {
		var a models.AccountSummary
		err := row.Scan(&a.ID, &a.Username, &a.Email, &a.IsAdmin, &a.RegisteredAt)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("store.ListAccounts: %w", err)
	}
	return out, nil
}
