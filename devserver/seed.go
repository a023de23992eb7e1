package devserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ourcity/ourcity-cli/internal/util"
	"github.com/ourcity/ourcity-cli/internal/uuid"
	"github.com/ourcity/ourcity-cli/storage"
)

// RoleUser is granted to every seeded account.
const RoleUser = "user"

// DefaultAdminUsername is the account Seed creates with the admin role.
const DefaultAdminUsername = "admin"

// ErrAdminPasswordRequired is returned by Seed when no admin password is set.
var ErrAdminPasswordRequired = errors.New("admin password is required")

// SeedOptions controls the initial data written by Seed.
type SeedOptions struct {
	// AdminUsername defaults to DefaultAdminUsername.
	AdminUsername string
	AdminPassword string
	// Users are extra non-admin accounts, username to password.
	Users map[string]string
	// SamplePosts adds a handful of posts authored by the admin when the
	// repository has none.
	SamplePosts bool
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

var samplePosts = []struct {
	title, description, location string
}{
	{"Pothole on Main Street", "A deep pothole has opened up near the library crosswalk.", "Main St & 3rd Ave"},
	{"Community garden cleanup", "Volunteers needed Saturday morning to clear the beds before spring planting.", "Riverside Community Garden"},
	{"Streetlight out", "The light at the bus stop has been out for a week and the corner is very dark.", "Oak Ave bus stop"},
	{"New bike lane feedback", "How is the new protected lane working for everyone?", ""},
}

// Seed creates the admin account, any extra users and optional sample
// posts. Accounts that already exist are left untouched, so Seed is safe
// to run against persistent storage on every start.
func Seed(ctx context.Context, repo storage.Repository, opts SeedOptions) error {
	if opts.AdminPassword == "" {
		return ErrAdminPasswordRequired
	}
	if opts.AdminUsername == "" {
		opts.AdminUsername = DefaultAdminUsername
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}

	admin, err := seedUser(ctx, repo, opts.AdminUsername, opts.AdminPassword, opts.BcryptCost, storage.RoleAdmin)
	if err != nil {
		return err
	}
	for username, password := range opts.Users {
		if _, err := seedUser(ctx, repo, username, password, opts.BcryptCost); err != nil {
			return err
		}
	}

	if !opts.SamplePosts {
		return nil
	}
	existing, err := repo.ListPosts(ctx, "", 1)
	if err != nil {
		return fmt.Errorf("checking posts: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	created := time.Now().UTC().Add(-time.Duration(len(samplePosts)) * time.Hour)
	for i, sp := range samplePosts {
		at := created.Add(time.Duration(i) * time.Hour)
		err := repo.CreatePost(ctx, &storage.Post{
			ID:          uuid.New(),
			Title:       sp.title,
			AuthorID:    admin.ID,
			AuthorName:  admin.Username,
			Description: sp.description,
			Location:    sp.location,
			CreatedAt:   at,
			UpdatedAt:   at,
		})
		if err != nil {
			return fmt.Errorf("seeding post %q: %w", sp.title, err)
		}
	}
	return nil
}

func seedUser(ctx context.Context, repo storage.Repository, username, password string, cost int, extraRoles ...string) (*storage.User, error) {
	username = util.NormalizeUsername(username)
	if existing, err := repo.GetUser(ctx, username); err == nil {
		return existing, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("looking up %s: %w", username, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password for %s: %w", username, err)
	}
	u := &storage.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Roles:        append([]string{RoleUser}, extraRoles...),
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("seeding %s: %w", username, err)
	}
	return u, nil
}
