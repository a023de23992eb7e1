package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ourcity/ourcity-cli/client"
	"github.com/ourcity/ourcity-cli/transport"
)

// newClient returns a Client pointed at a server that answers every request
// with handler.
func newClient(t *testing.T, handler http.HandlerFunc) *client.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	tr, err := transport.New(srv.URL + "/apis/v1")
	require.NoError(t, err)
	return client.New(tr)
}

func statusHandler(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}
}

func jsonHandler(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		io.WriteString(w, body)
	}
}

func unreachableClient(t *testing.T) *client.Client {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	tr, err := transport.New(url + "/apis/v1")
	require.NoError(t, err)
	return client.New(tr)
}

var testCreds = transport.Credentials{"ourcity_session": "tok"}

func TestLogin(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var body client.LoginRequest
		var method, path string
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			method, path = r.Method, r.URL.Path
			json.NewDecoder(r.Body).Decode(&body)
			http.SetCookie(w, &http.Cookie{Name: "ourcity_session", Value: "tok-1", Path: "/"})
			w.WriteHeader(http.StatusNoContent)
		})

		out := c.Login(t.Context(), "alice", "secret")
		require.True(t, out.OK(), out.Message)
		assert.Equal(t, client.Success, out.Kind)
		assert.Equal(t, "Successfully logged in as alice", out.Message)
		assert.Equal(t, "alice", out.Value.Username)
		assert.Equal(t, transport.Credentials{"ourcity_session": "tok-1"}, out.Value.Credentials)
		assert.NoError(t, out.Err)

		assert.Equal(t, http.MethodPost, method)
		assert.Equal(t, "/apis/v1/authentication/login", path)
		assert.Equal(t, client.LoginRequest{Username: "alice", Password: "secret"}, body)
	})

	t.Run("InvalidCredentials", func(t *testing.T) {
		c := newClient(t, statusHandler(http.StatusUnauthorized))
		out := c.Login(t.Context(), "alice", "wrong")
		assert.False(t, out.OK())
		assert.Equal(t, client.ExpectedFailure, out.Kind)
		assert.Equal(t, "Invalid credentials", out.Message)
		assert.Nil(t, out.Value.Credentials)
		assert.ErrorIs(t, out.Err, client.ErrAuth)
	})

	t.Run("UnexpectedStatus", func(t *testing.T) {
		c := newClient(t, statusHandler(http.StatusInternalServerError))
		out := c.Login(t.Context(), "alice", "pw")
		assert.Equal(t, client.TransportFailure, out.Kind)
		assert.Equal(t, "Login failed with status code 500", out.Message)

		var se *client.StatusError
		require.ErrorAs(t, out.Err, &se)
		assert.Equal(t, 500, se.Code)
		assert.ErrorIs(t, out.Err, client.ErrUnexpectedStatus)
	})

	t.Run("Unreachable", func(t *testing.T) {
		out := unreachableClient(t).Login(t.Context(), "alice", "pw")
		assert.Equal(t, client.TransportFailure, out.Kind)
		assert.Equal(t, "Could not connect to the server. Is it running?", out.Message)
		assert.ErrorIs(t, out.Err, client.ErrConnection)
	})
}

func TestLogout(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		ok      bool
		message string
		err     error
	}{
		{"Success", http.StatusNoContent, true, "Successfully logged out", nil},
		{"Expired", http.StatusUnauthorized, false, "Not authenticated or session expired", client.ErrAuth},
		{"Other", http.StatusBadGateway, false, "Logout failed with status code 502", client.ErrUnexpectedStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cookie string
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				if ck, err := r.Cookie("ourcity_session"); err == nil {
					cookie = ck.Value
				}
				w.WriteHeader(tt.status)
			})
			out := c.Logout(t.Context(), testCreds)
			assert.Equal(t, tt.ok, out.OK())
			assert.Equal(t, tt.message, out.Message)
			assert.Equal(t, "tok", cookie)
			if tt.err != nil {
				assert.ErrorIs(t, out.Err, tt.err)
			}
		})
	}
}

func TestWhoami(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c := newClient(t, jsonHandler(http.StatusOK, `{"id":"u-1","username":"alice","roles":["admin"]}`))
		out := c.Whoami(t.Context(), testCreds)
		require.True(t, out.OK())
		assert.Equal(t, "alice", out.Value.Username)
		assert.True(t, out.Value.IsAdmin())
		assert.Equal(t, "User information retrieved successfully", out.Message)
	})

	t.Run("Expired", func(t *testing.T) {
		c := newClient(t, statusHandler(http.StatusUnauthorized))
		out := c.Whoami(t.Context(), testCreds)
		assert.Equal(t, client.ExpectedFailure, out.Kind)
		assert.Equal(t, "Not authenticated or session expired", out.Message)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		c := newClient(t, jsonHandler(http.StatusOK, `{not json`))
		out := c.Whoami(t.Context(), testCreds)
		assert.Equal(t, client.TransportFailure, out.Kind)
		assert.ErrorIs(t, out.Err, client.ErrTransport)
		assert.Contains(t, out.Message, "An error occurred: decoding response")
	})
}

func TestGetPost(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var path string
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.EscapedPath()
			jsonHandler(http.StatusOK, `{"id":"p 1","title":"Hello","authorName":"alice","createdAt":"2025-01-01T00:00:00Z","description":"Body"}`)(w, r)
		})
		out := c.GetPost(t.Context(), "p 1", nil)
		require.True(t, out.OK())
		assert.Equal(t, "/apis/v1/posts/p%201", path)
		assert.Equal(t, client.Post{
			ID:          "p 1",
			Title:       "Hello",
			AuthorName:  "alice",
			CreatedAt:   "2025-01-01T00:00:00Z",
			Description: "Body",
		}, out.Value)
	})

	t.Run("NotFound", func(t *testing.T) {
		c := newClient(t, statusHandler(http.StatusNotFound))
		out := c.GetPost(t.Context(), "missing", nil)
		assert.False(t, out.OK())
		assert.Equal(t, client.ExpectedFailure, out.Kind)
		assert.Equal(t, "Post not found", out.Message)
		assert.ErrorIs(t, out.Err, client.ErrNotFound)
	})

	t.Run("SendsCredentialsWhenGiven", func(t *testing.T) {
		var cookies int
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			cookies = len(r.Cookies())
			jsonHandler(http.StatusOK, `{"id":"1","title":"t"}`)(w, r)
		})
		c.GetPost(t.Context(), "1", testCreds)
		assert.Equal(t, 1, cookies)
		c.GetPost(t.Context(), "1", nil)
		assert.Equal(t, 0, cookies)
	})

	t.Run("OtherStatus", func(t *testing.T) {
		c := newClient(t, statusHandler(http.StatusForbidden))
		out := c.GetPost(t.Context(), "1", nil)
		assert.Equal(t, "Request failed with status code 403", out.Message)
		assert.Equal(t, client.TransportFailure, out.Kind)
	})
}

func TestListPosts(t *testing.T) {
	t.Run("AnonymousSingleItem", func(t *testing.T) {
		c := newClient(t, jsonHandler(http.StatusOK, `{"items":[{"id":"1","title":"Hello"}]}`))
		out := c.ListPosts(t.Context(), nil)
		require.True(t, out.OK())
		assert.Equal(t, []client.Post{{ID: "1", Title: "Hello"}}, out.Value)
		assert.Equal(t, "Posts retrieved successfully", out.Message)
	})

	t.Run("EmptyItemsIsSuccess", func(t *testing.T) {
		c := newClient(t, jsonHandler(http.StatusOK, `{"items":[]}`))
		out := c.ListPosts(t.Context(), nil)
		require.True(t, out.OK())
		require.NotNil(t, out.Value)
		assert.Empty(t, out.Value)
	})

	t.Run("MissingItemsIsEmpty", func(t *testing.T) {
		c := newClient(t, jsonHandler(http.StatusOK, `{}`))
		out := c.ListPosts(t.Context(), nil)
		require.True(t, out.OK())
		require.NotNil(t, out.Value)
		assert.Empty(t, out.Value)
	})

	t.Run("AnyOtherStatusFails", func(t *testing.T) {
		c := newClient(t, statusHandler(http.StatusNotFound))
		out := c.ListPosts(t.Context(), nil)
		assert.False(t, out.OK())
		assert.Nil(t, out.Value)
		assert.Equal(t, "Request failed with status code 404", out.Message)
		assert.ErrorIs(t, out.Err, client.ErrUnexpectedStatus)
	})

	t.Run("PageQueryAndCursor", func(t *testing.T) {
		var query string
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			query = r.URL.RawQuery
			jsonHandler(http.StatusOK, `{"items":[{"id":"3","title":"c"}],"nextCursor":"3"}`)(w, r)
		})
		out := c.ListPostsPage(t.Context(), nil, client.PageRequest{Limit: 1, Cursor: "2"})
		require.True(t, out.OK())
		assert.Equal(t, "cursor=2&limit=1", query)
		assert.Equal(t, "3", out.Value.NextCursor)
	})

	t.Run("NegativeRetriesStillSends", func(t *testing.T) {
		srv := httptest.NewServer(jsonHandler(http.StatusOK, `{"items":[{"id":"1","title":"Hello"}]}`))
		t.Cleanup(srv.Close)
		tr, err := transport.New(srv.URL+"/apis/v1", transport.WithRetries(-1, time.Millisecond))
		require.NoError(t, err)

		var out client.Outcome[[]client.Post]
		require.NotPanics(t, func() { out = client.New(tr).ListPosts(t.Context(), nil) })
		require.True(t, out.OK())
		assert.Len(t, out.Value, 1)
	})

	t.Run("NilResponseIsTransportFailure", func(t *testing.T) {
		c := client.New(nilTransport{})
		var out client.Outcome[[]client.Post]
		require.NotPanics(t, func() { out = c.ListPosts(t.Context(), nil) })
		assert.Equal(t, client.TransportFailure, out.Kind)
		assert.ErrorIs(t, out.Err, client.ErrTransport)
	})
}

// nilTransport answers every request with neither a response nor an error.
type nilTransport struct{}

func (nilTransport) Do(context.Context, string, string, any, transport.Credentials) (*transport.Response, error) {
	return nil, nil
}

func TestPromote(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		kind    client.Kind
		message string
		err     error
	}{
		{"Success", http.StatusNoContent, client.Success, "Successfully promoted bob to admin", nil},
		{"NotAuthenticated", http.StatusUnauthorized, client.ExpectedFailure, "Not authenticated or session expired", client.ErrAuth},
		{"Forbidden", http.StatusForbidden, client.ExpectedFailure, "You do not have permission to promote users", client.ErrPermission},
		{"NoSuchUser", http.StatusNotFound, client.ExpectedFailure, "User not found", client.ErrNotFound},
		{"Other", http.StatusConflict, client.TransportFailure, "Request failed with status code 409", client.ErrUnexpectedStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var method, path string
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				method, path = r.Method, r.URL.Path
				w.WriteHeader(tt.status)
			})
			out := c.Promote(t.Context(), "bob", testCreds)
			assert.Equal(t, tt.kind, out.Kind)
			assert.Equal(t, tt.message, out.Message)
			assert.Equal(t, http.MethodPut, method)
			assert.Equal(t, "/apis/v1/admin/users/bob/promote-to-admin", path)
			if tt.err != nil {
				assert.ErrorIs(t, out.Err, tt.err)
			} else {
				assert.NoError(t, out.Err)
			}
		})
	}
}

func TestPromoteErrorsAreDistinct(t *testing.T) {
	codes := map[int]error{
		http.StatusUnauthorized: client.ErrAuth,
		http.StatusForbidden:    client.ErrPermission,
		http.StatusNotFound:     client.ErrNotFound,
	}
	for code, want := range codes {
		c := newClient(t, statusHandler(code))
		out := c.Promote(t.Context(), "bob", testCreds)
		for _, other := range codes {
			if errors.Is(want, other) {
				continue
			}
			assert.NotErrorIs(t, out.Err, other, "status %d", code)
		}
		assert.ErrorIs(t, out.Err, want)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "success", client.Success.String())
	assert.Equal(t, "expected_failure", client.ExpectedFailure.String())
	assert.Equal(t, "transport_failure", client.TransportFailure.String())
	assert.Equal(t, "unknown", client.Unknown.String())
}

func TestZeroOutcomeIsNotSuccess(t *testing.T) {
	var out client.Outcome[client.Post]
	assert.Equal(t, client.Unknown, out.Kind)
	assert.False(t, out.OK())
}
