// Package bbolt provides a BBolt-backed storage repository.
package bbolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/ourcity/ourcity-cli/storage"
	"go.etcd.io/bbolt"
)

var (
	usersBucket   = []byte("users")
	userIDsBucket = []byte("user_ids")
	postsBucket   = []byte("posts")
	postIDsBucket = []byte("post_ids")
)

// Store implements storage.Repository backed by a BBolt database.
//
// Posts are keyed by a big-endian sequence number so that cursor order
// matches creation order; post_ids maps a post ID to that key.
type Store struct {
	db *bbolt.DB
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns a Repository backed by the given BBolt database.
func NewRepository(db *bbolt.DB) *Store {
	return &Store{db: db}
}

// NewRepositoryFromFile opens a BBolt database at the given path and returns a new Repository.
func NewRepositoryFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewRepository(db), nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateUser(_ context.Context, u *storage.User) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		users, err := tx.CreateBucketIfNotExists(usersBucket)
		if err != nil {
			return err
		}
		ids, err := tx.CreateBucketIfNotExists(userIDsBucket)
		if err != nil {
			return err
		}
		if users.Get([]byte(u.Username)) != nil {
			return fmt.Errorf("user %s: %w", u.Username, storage.ErrConflict)
		}
		if ids.Get([]byte(u.ID)) != nil {
			return fmt.Errorf("user id %s: %w", u.ID, storage.ErrConflict)
		}
		data, err := json.Marshal(u)
		if err != nil {
			return err
		}
		if err := users.Put([]byte(u.Username), data); err != nil {
			return err
		}
		return ids.Put([]byte(u.ID), []byte(u.Username))
	})
}

func getUser(tx *bbolt.Tx, username string) (*storage.User, error) {
	b := tx.Bucket(usersBucket)
	if b == nil {
		return nil, fmt.Errorf("user %s: %w", username, storage.ErrNotFound)
	}
	data := b.Get([]byte(username))
	if data == nil {
		return nil, fmt.Errorf("user %s: %w", username, storage.ErrNotFound)
	}
	var u storage.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUser(_ context.Context, username string) (*storage.User, error) {
	var u *storage.User
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		u, err = getUser(tx, username)
		return err
	})
	return u, err
}

func (s *Store) GetUserByID(_ context.Context, id string) (*storage.User, error) {
	var u *storage.User
	err := s.db.View(func(tx *bbolt.Tx) error {
		ids := tx.Bucket(userIDsBucket)
		if ids == nil {
			return fmt.Errorf("user id %s: %w", id, storage.ErrNotFound)
		}
		username := ids.Get([]byte(id))
		if username == nil {
			return fmt.Errorf("user id %s: %w", id, storage.ErrNotFound)
		}
		var err error
		u, err = getUser(tx, string(username))
		return err
	})
	return u, err
}

func (s *Store) UpdateUser(_ context.Context, u *storage.User) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		existing, err := getUser(tx, u.Username)
		if err != nil {
			return err
		}
		updated := u.Clone()
		updated.ID = existing.ID
		data, err := json.Marshal(updated)
		if err != nil {
			return err
		}
		return tx.Bucket(usersBucket).Put([]byte(u.Username), data)
	})
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

func (s *Store) CreatePost(_ context.Context, p *storage.Post) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		posts, err := tx.CreateBucketIfNotExists(postsBucket)
		if err != nil {
			return err
		}
		ids, err := tx.CreateBucketIfNotExists(postIDsBucket)
		if err != nil {
			return err
		}
		if ids.Get([]byte(p.ID)) != nil {
			return fmt.Errorf("post %s: %w", p.ID, storage.ErrConflict)
		}
		seq, err := posts.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		key := seqKey(seq)
		if err := posts.Put(key, data); err != nil {
			return err
		}
		return ids.Put([]byte(p.ID), key)
	})
}

func (s *Store) GetPost(_ context.Context, id string) (*storage.Post, error) {
	var p storage.Post
	err := s.db.View(func(tx *bbolt.Tx) error {
		ids := tx.Bucket(postIDsBucket)
		if ids == nil {
			return fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
		}
		key := ids.Get([]byte(id))
		if key == nil {
			return fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
		}
		return json.Unmarshal(tx.Bucket(postsBucket).Get(key), &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPosts(_ context.Context, after string, limit int) ([]storage.Post, error) {
	out := []storage.Post{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		posts := tx.Bucket(postsBucket)
		ids := tx.Bucket(postIDsBucket)
		if posts == nil || ids == nil {
			if after != "" {
				return fmt.Errorf("cursor %s: %w", after, storage.ErrNotFound)
			}
			return nil
		}

		c := posts.Cursor()
		var k, v []byte
		if after == "" {
			k, v = c.Last()
		} else {
			key := ids.Get([]byte(after))
			if key == nil {
				return fmt.Errorf("cursor %s: %w", after, storage.ErrNotFound)
			}
			c.Seek(key)
			k, v = c.Prev()
		}
		for ; k != nil && len(out) < limit; k, v = c.Prev() {
			var p storage.Post
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
