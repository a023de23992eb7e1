package devserver

import (
	"time"

	"github.com/ourcity/ourcity-cli/storage"
)

// Problem is the error body returned for every non-2xx response.
type Problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// LoginRequest is the body of POST /authentication/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// MeResponse is the body of GET /authentication/me.
type MeResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// PostResponse is the wire form of a post.
type PostResponse struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	AuthorID      string `json:"authorId"`
	AuthorName    string `json:"authorName"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
	Description   string `json:"description"`
	Location      string `json:"location,omitempty"`
	UpvoteCount   int    `json:"upvoteCount"`
	DownvoteCount int    `json:"downvoteCount"`
	CommentCount  int    `json:"commentCount"`
}

// PostPageResponse is the body of GET /posts.
type PostPageResponse struct {
	Items      []PostResponse `json:"items"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

func postToResponse(p storage.Post) PostResponse {
	return PostResponse{
		ID:            p.ID,
		Title:         p.Title,
		AuthorID:      p.AuthorID,
		AuthorName:    p.AuthorName,
		CreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     p.UpdatedAt.UTC().Format(time.RFC3339),
		Description:   p.Description,
		Location:      p.Location,
		UpvoteCount:   p.UpvoteCount,
		DownvoteCount: p.DownvoteCount,
		CommentCount:  p.CommentCount,
	}
}

func meResponse(u *storage.User) MeResponse {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return MeResponse{ID: u.ID, Username: u.Username, Roles: roles}
}
