// Package memory provides a thread-safe in-memory implementation of storage.Repository.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ourcity/ourcity-cli/storage"
)

// Repository is a thread-safe in-memory implementation of storage.Repository.
// Suitable for testing, demos, and single-process use cases.
type Repository struct {
	mu        sync.RWMutex
	users     map[string]*storage.User
	userIDs   map[string]string
	posts     []*storage.Post
	postIndex map[string]int
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository creates a new empty in-memory Repository.
func NewRepository() *Repository {
	return &Repository{
		users:     make(map[string]*storage.User),
		userIDs:   make(map[string]string),
		postIndex: make(map[string]int),
	}
}

func (r *Repository) CreateUser(_ context.Context, u *storage.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Username]; ok {
		return fmt.Errorf("user %s: %w", u.Username, storage.ErrConflict)
	}
	if _, ok := r.userIDs[u.ID]; ok {
		return fmt.Errorf("user id %s: %w", u.ID, storage.ErrConflict)
	}
	r.users[u.Username] = u.Clone()
	r.userIDs[u.ID] = u.Username
	return nil
}

func (r *Repository) GetUser(_ context.Context, username string) (*storage.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", username, storage.ErrNotFound)
	}
	return u.Clone(), nil
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (*storage.User, error) {
	r.mu.RLock()
	username, ok := r.userIDs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("user id %s: %w", id, storage.ErrNotFound)
	}
	return r.GetUser(ctx, username)
}

// UpdateUser replaces the stored user with the same username. The ID is
// immutable.
func (r *Repository) UpdateUser(_ context.Context, u *storage.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[u.Username]
	if !ok {
		return fmt.Errorf("user %s: %w", u.Username, storage.ErrNotFound)
	}
	updated := u.Clone()
	updated.ID = existing.ID
	r.users[u.Username] = updated
	return nil
}

func (r *Repository) CreatePost(_ context.Context, p *storage.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.postIndex[p.ID]; ok {
		return fmt.Errorf("post %s: %w", p.ID, storage.ErrConflict)
	}
	cp := *p
	r.postIndex[p.ID] = len(r.posts)
	r.posts = append(r.posts, &cp)
	return nil
}

func (r *Repository) GetPost(_ context.Context, id string) (*storage.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.postIndex[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	cp := *r.posts[i]
	return &cp, nil
}

func (r *Repository) ListPosts(_ context.Context, after string, limit int) ([]storage.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	start := len(r.posts) - 1
	if after != "" {
		i, ok := r.postIndex[after]
		if !ok {
			return nil, fmt.Errorf("cursor %s: %w", after, storage.ErrNotFound)
		}
		start = i - 1
	}
	out := make([]storage.Post, 0, min(max(limit, 0), start+1))
	for i := start; i >= 0 && len(out) < limit; i-- {
		out = append(out, *r.posts[i])
	}
	return out, nil
}
