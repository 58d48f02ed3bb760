package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ayush/nebula-feed/internal/apperr"
	"github.com/ayush/nebula-feed/internal/models"
)

const postViewSelect = `SELECT p.id, p.author_id, p.content, p.created_at, a.username
	FROM posts p
	JOIN accounts a ON a.id = p.author_id`

// CreatePost inserts a post and returns it joined with the author's
// username. A missing author is rejected by the foreign key, so no row is
// persisted.
func (s *PostgresStore) CreatePost(ctx context.Context, authorID int64, content string) (models.PostView, error) {
	const op = "store.CreatePost"

	if strings.TrimSpace(content) == "" {
		return models.PostView{}, apperr.Validation(op, "content is required")
	}
	if strings.ContainsRune(content, 0) {
		return models.PostView{}, apperr.Validation(op, "content contains invalid characters")
	}

	var p models.PostView
	err := s.pool.QueryRow(ctx,
		`WITH p AS (
		     INSERT INTO posts (author_id, content) VALUES ($1, $2)
		     RETURNING id, author_id, content, created_at
		 )
		 SELECT p.id, p.author_id, p.content, p.created_at, a.username
		 FROM p JOIN accounts a ON a.id = p.author_id`,
		authorID, content,
	).Scan(&p.ID, &p.AuthorID, &p.Content, &p.CreatedAt, &p.Username)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return models.PostView{}, apperr.OpError{Op: op, Kind: apperr.ErrInvalidReference, Msg: "author does not exist"}
		case isCheckViolation(err), isCharacterViolation(err):
			return models.PostView{}, apperr.Validation(op, "content is required")
		}
		return models.PostView{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListAll returns the public feed, newest first with ties broken by id.
func (s *PostgresStore) ListAll(ctx context.Context) ([]models.PostView, error) {
	return s.listPosts(ctx, "store.ListAll",
		postViewSelect+` ORDER BY p.created_at DESC, p.id DESC`)
}

// ListByAuthor returns one author's posts in feed order.
func (s *PostgresStore) ListByAuthor(ctx context.Context, authorID int64) ([]models.PostView, error) {
	return s.listPosts(ctx, "store.ListByAuthor",
		postViewSelect+` WHERE p.author_id = $1 ORDER BY p.created_at DESC, p.id DESC`, authorID)
}

func (s *PostgresStore) listPosts(ctx context.Context, op, query string, args ...any) ([]models.PostView, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	posts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PostView, error) {
		var p models.PostView
		err := row.Scan(&p.ID, &p.AuthorID, &p.Content, &p.CreatedAt, &p.Username)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if posts == nil {
		posts = []models.PostView{}
	}
	return posts, nil
}
