package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ourcity/ourcity-cli/transport"
)

// GetPost handles GET /posts/{id}. creds may be nil.
func (c *Client) GetPost(ctx context.Context, id string, creds transport.Credentials) Outcome[Post] {
	resp, err := c.send(ctx, http.MethodGet, "/posts/"+url.PathEscape(id), nil, creds)
	if err != nil {
		return sendFailure[Post](err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		post, err := decode[Post](resp)
		if err != nil {
			return fail[Post](err, errorOccurred(err))
		}
		return succeed(post, "Post retrieved successfully")
	case http.StatusNotFound:
		return fail[Post](ErrNotFound, "Post not found")
	default:
		return unexpectedStatus[Post](resp.StatusCode, "Request failed")
	}
}

// ListPosts handles GET /posts and returns the first page's items. An empty
// or missing items array yields an empty, non-nil slice.
func (c *Client) ListPosts(ctx context.Context, creds transport.Credentials) Outcome[[]Post] {
	page := c.ListPostsPage(ctx, creds, PageRequest{})
	return Outcome[[]Post]{
		Kind:    page.Kind,
		Value:   page.Value.Items,
		Message: page.Message,
		Err:     page.Err,
	}
}

// ListPostsPage handles GET /posts?limit=&cursor=.
func (c *Client) ListPostsPage(ctx context.Context, creds transport.Credentials, req PageRequest) Outcome[PostPage] {
	path := "/posts"
	q := url.Values{}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Cursor != "" {
		q.Set("cursor", req.Cursor)
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.send(ctx, http.MethodGet, path, nil, creds)
	if err != nil {
		return sendFailure[PostPage](err)
	}
	if resp.StatusCode != http.StatusOK {
		return unexpectedStatus[PostPage](resp.StatusCode, "Request failed")
	}

	page, err := decode[PostPage](resp)
	if err != nil {
		return fail[PostPage](err, errorOccurred(err))
	}
	if page.Items == nil {
		page.Items = []Post{}
	}
	return succeed(page, "Posts retrieved successfully")
}
