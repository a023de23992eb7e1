// Package storagetest holds behaviour tests shared by every
// storage.Repository backend.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ourcity/ourcity-cli/storage"
)

// Run exercises repo against the storage.Repository contract. repo must
// start empty.
func Run(t *testing.T, repo storage.Repository) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("Users", func(t *testing.T) {
		alice := &storage.User{
			ID:           "u-alice",
			Username:     "alice",
			PasswordHash: []byte("hash"),
			Roles:        []string{"user"},
			CreatedAt:    now,
		}
		require.NoError(t, repo.CreateUser(ctx, alice))

		got, err := repo.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "u-alice", got.ID)
		assert.Equal(t, []byte("hash"), got.PasswordHash)
		assert.Equal(t, []string{"user"}, got.Roles)
		assert.True(t, now.Equal(got.CreatedAt))

		byID, err := repo.GetUserByID(ctx, "u-alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", byID.Username)

		err = repo.CreateUser(ctx, &storage.User{ID: "u-other", Username: "alice", PasswordHash: []byte("x"), CreatedAt: now})
		assert.ErrorIs(t, err, storage.ErrConflict)

		_, err = repo.GetUser(ctx, "nobody")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = repo.GetUserByID(ctx, "u-nobody")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("UpdateUser", func(t *testing.T) {
		u, err := repo.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, u.AddRole(storage.RoleAdmin))
		assert.False(t, u.AddRole(storage.RoleAdmin))
		require.NoError(t, repo.UpdateUser(ctx, u))

		got, err := repo.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, got.HasRole(storage.RoleAdmin))
		assert.Equal(t, "u-alice", got.ID)

		err = repo.UpdateUser(ctx, &storage.User{Username: "nobody"})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ReturnedUsersAreCopies", func(t *testing.T) {
		u, err := repo.GetUser(ctx, "alice")
		require.NoError(t, err)
		u.Roles[0] = "mutated"

		got, err := repo.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.NotContains(t, got.Roles, "mutated")
	})

	t.Run("Posts", func(t *testing.T) {
		posts, err := repo.ListPosts(ctx, "", 10)
		require.NoError(t, err)
		assert.Empty(t, posts)

		for i := 1; i <= 5; i++ {
			require.NoError(t, repo.CreatePost(ctx, &storage.Post{
				ID:          fmt.Sprintf("p%d", i),
				Title:       fmt.Sprintf("Post %d", i),
				AuthorID:    "u-alice",
				AuthorName:  "alice",
				Description: "body",
				CreatedAt:   now.Add(time.Duration(i) * time.Minute),
				UpdatedAt:   now.Add(time.Duration(i) * time.Minute),
			}))
		}

		got, err := repo.GetPost(ctx, "p3")
		require.NoError(t, err)
		assert.Equal(t, "Post 3", got.Title)
		assert.Equal(t, "alice", got.AuthorName)

		_, err = repo.GetPost(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		err = repo.CreatePost(ctx, &storage.Post{ID: "p1", Title: "dup", CreatedAt: now, UpdatedAt: now})
		assert.ErrorIs(t, err, storage.ErrConflict)
	})

	t.Run("ListPostsNewestFirst", func(t *testing.T) {
		page, err := repo.ListPosts(ctx, "", 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"p5", "p4"}, postIDs(page))

		page, err = repo.ListPosts(ctx, "p4", 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"p3", "p2"}, postIDs(page))

		page, err = repo.ListPosts(ctx, "p2", 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"p1"}, postIDs(page))

		page, err = repo.ListPosts(ctx, "p1", 2)
		require.NoError(t, err)
		assert.Empty(t, page)

		_, err = repo.ListPosts(ctx, "missing", 2)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func postIDs(posts []storage.Post) []string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}
