// Package postgres implements storage.Repository backed by PostgreSQL.
//
// Posts carry a BIGSERIAL seq column alongside their text ID. Listing
// orders by seq so that cursor pagination matches creation order, the
// same order the BBolt and in-memory backends use.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ourcity/ourcity-cli/storage"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// Store implements storage.Repository backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns a Repository backed by the given database handle.
func NewRepository(db *sql.DB) *Store {
	return &Store{db: db}
}

// NewRepositoryFromDSN connects to PostgreSQL, pings, ensures the schema
// exists, and returns a new Repository.
func NewRepositoryFromDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return NewRepository(db), nil
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func conflictOr(err error, what string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", what, storage.ErrConflict)
	}
	return err
}

func (s *Store) CreateUser(ctx context.Context, u *storage.User) error {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, roles, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Username, u.PasswordHash, pq.Array(roles), u.CreatedAt)
	return conflictOr(err, "user "+u.Username)
}

const userColumns = `id, username, password_hash, roles, created_at`

func scanUser(row *sql.Row, key string) (*storage.User, error) {
	var u storage.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, pq.Array(&u.Roles), &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, username string) (*storage.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row, username)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*storage.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row, id)
}

func (s *Store) UpdateUser(ctx context.Context, u *storage.User) error {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, roles = $3 WHERE username = $1`,
		u.Username, u.PasswordHash, pq.Array(roles))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", u.Username, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) CreatePost(ctx context.Context, p *storage.Post) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (id, title, author_id, author_name, description, location,
		                    upvote_count, downvote_count, comment_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Title, p.AuthorID, p.AuthorName, p.Description, p.Location,
		p.UpvoteCount, p.DownvoteCount, p.CommentCount, p.CreatedAt, p.UpdatedAt)
	return conflictOr(err, "post "+p.ID)
}

const postColumns = `id, title, author_id, author_name, description, location,
	upvote_count, downvote_count, comment_count, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner, p *storage.Post) error {
	return row.Scan(&p.ID, &p.Title, &p.AuthorID, &p.AuthorName, &p.Description, &p.Location,
		&p.UpvoteCount, &p.DownvoteCount, &p.CommentCount, &p.CreatedAt, &p.UpdatedAt)
}

func (s *Store) GetPost(ctx context.Context, id string) (*storage.Post, error) {
	var p storage.Post
	err := scanPost(s.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`, id), &p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPosts(ctx context.Context, after string, limit int) ([]storage.Post, error) {
	out := []storage.Post{}
	if limit <= 0 {
		return out, nil
	}

	var rows *sql.Rows
	var err error
	if after == "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+postColumns+` FROM posts ORDER BY seq DESC LIMIT $1`, limit)
	} else {
		var seq int64
		err = s.db.QueryRowContext(ctx, `SELECT seq FROM posts WHERE id = $1`, after).Scan(&seq)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("cursor %s: %w", after, storage.ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+postColumns+` FROM posts WHERE seq < $1 ORDER BY seq DESC LIMIT $2`, seq, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p storage.Post
		if err := scanPost(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
