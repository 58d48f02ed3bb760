package store

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"

	// Raised for NUL bytes and bytes invalid in the database encoding.
	pgCharacterNotInRepertoire = "22021"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ""
	}
	return pgErr.Code
}

func isForeignKeyViolation(err error) bool { return pgCode(err) == pgForeignKeyViolation }

func isCheckViolation(err error) bool { return pgCode(err) == pgCheckViolation }

func isCharacterViolation(err error) bool { return pgCode(err) == pgCharacterNotInRepertoire }

// classifyUniqueViolation maps a unique violation to the logical field it
// protects. Constraint names come from the schema in postgres.go.
func classifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return "", false
	}

	c := strings.ToLower(pgErr.ConstraintName)
	switch {
	case c == "uq_accounts_username", strings.Contains(c, "username"):
		return "username", true
	case c == "uq_accounts_email", strings.Contains(c, "email"):
		return "email", true
	default:
		return "", true
	}
}
