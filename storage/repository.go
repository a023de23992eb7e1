// Package storage provides the storage abstraction for the development
// server's users and posts.
package storage

import (
	"context"
	"errors"
	"slices"
	"time"
)

var (
	// ErrNotFound is returned when a user, post or cursor does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when creating a record whose key is taken.
	ErrConflict = errors.New("already exists")
)

// RoleAdmin is the role that may promote other users.
const RoleAdmin = "admin"

// User is an account known to the development server.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"password_hash"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// AddRole grants role and reports whether it was newly added.
func (u *User) AddRole(role string) bool {
	if u.HasRole(role) {
		return false
	}
	u.Roles = append(u.Roles, role)
	return true
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.PasswordHash = slices.Clone(u.PasswordHash)
	cp.Roles = slices.Clone(u.Roles)
	return &cp
}

// Post is a community post.
type Post struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	AuthorID      string    `json:"author_id"`
	AuthorName    string    `json:"author_name"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	UpvoteCount   int       `json:"upvote_count"`
	DownvoteCount int       `json:"downvote_count"`
	CommentCount  int       `json:"comment_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Repository stores users and posts.
//
// ListPosts returns posts newest first, where newest means most recently
// created through CreatePost. When after is non-empty the page starts
// with the post created just before it; an unknown after returns
// ErrNotFound. At most limit posts are returned.
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	UpdateUser(ctx context.Context, u *User) error

	CreatePost(ctx context.Context, p *Post) error
	GetPost(ctx context.Context, id string) (*Post, error)
	ListPosts(ctx context.Context, after string, limit int) ([]Post, error)
}
