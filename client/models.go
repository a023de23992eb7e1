package client

import "github.com/ourcity/ourcity-cli/transport"

// LoginRequest is the JSON body for POST /authentication/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// User is returned from GET /authentication/me.
type User struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	for _, r := range u.Roles {
		if r == "admin" || r == "Admin" {
			return true
		}
	}
	return false
}

// Post is returned from GET /posts/{id} and inside list pages. Only id and
// title are guaranteed; the rest may be empty.
type Post struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	AuthorID      string `json:"authorId,omitempty"`
	AuthorName    string `json:"authorName,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
	Description   string `json:"description,omitempty"`
	Location      string `json:"location,omitempty"`
	UpvoteCount   int    `json:"upvoteCount,omitempty"`
	DownvoteCount int    `json:"downvoteCount,omitempty"`
	CommentCount  int    `json:"commentCount,omitempty"`
}

// PostPage is the envelope returned from GET /posts.
type PostPage struct {
	Items      []Post `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// PageRequest selects a page of posts. Zero values let the server choose.
type PageRequest struct {
	Limit  int
	Cursor string
}

// LoginResult is the payload of a successful login.
type LoginResult struct {
	Username    string
	Credentials transport.Credentials
}
