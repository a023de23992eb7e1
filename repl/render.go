package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/ourcity/ourcity-cli/client"
)

const ruleWidth = 60

var helpText = `
Available commands:
  login    - Login to OurCity
  logout   - Logout from OurCity
  list     - List all posts
  post     - Get and display a post by ID
  promote  - Promote a user to admin (admin only)
  whoami   - Show the logged in user
  help     - Show this help message
  exit     - Exit the application

`

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func renderPost(w io.Writer, p client.Post) {
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "Title: %s\n", p.Title)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "\nAuthor: %s\n", orDefault(p.AuthorName, "Unknown"))
	fmt.Fprintf(w, "Posted: %s\n", orDefault(p.CreatedAt, "Unknown"))
	if p.Location != "" {
		fmt.Fprintf(w, "Location: %s\n", p.Location)
	}
	if p.UpvoteCount != 0 || p.DownvoteCount != 0 || p.CommentCount != 0 {
		fmt.Fprintf(w, "Votes: +%d / -%d  Comments: %d\n", p.UpvoteCount, p.DownvoteCount, p.CommentCount)
	}
	fmt.Fprintf(w, "\nDescription:\n%s\n", orDefault(p.Description, "No description"))
	fmt.Fprintf(w, "\n%s\n", rule)
}

func renderPostList(w io.Writer, page client.PostPage) {
	if len(page.Items) == 0 {
		fmt.Fprintln(w, "No posts found")
		return
	}
	fmt.Fprintf(w, "\nFound %d post(s):\n\n", len(page.Items))
	for i, p := range page.Items {
		fmt.Fprintf(w, "%d. %s\n", i+1, orDefault(p.Title, "Untitled"))
		fmt.Fprintf(w, "   ID: %s\n\n", orDefault(p.ID, "Unknown"))
	}
	if page.NextCursor != "" {
		fmt.Fprintf(w, "More posts available. Type 'list %s' to see the next page.\n", page.NextCursor)
	}
}

func renderUser(w io.Writer, u client.User) {
	roles := "none"
	if len(u.Roles) > 0 {
		roles = strings.Join(u.Roles, ", ")
	}
	fmt.Fprintf(w, "Logged in as %s\n", u.Username)
	fmt.Fprintf(w, "  ID:    %s\n", orDefault(u.ID, "Unknown"))
	fmt.Fprintf(w, "  Roles: %s\n", roles)
}
