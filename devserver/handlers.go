package devserver

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ourcity/ourcity-cli/internal/util"
	"github.com/ourcity/ourcity-cli/internal/uuid"
	"github.com/ourcity/ourcity-cli/storage"
)

const msgInvalidCredentials = "Invalid credentials"

// Login handles POST /authentication/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[LoginRequest](w, r)
	if !ok {
		return
	}
	username := util.NormalizeUsername(req.Username)

	if blocked, retryAfter := s.rateLimiter.check(username); blocked {
		s.audit.logFailure(AuditLoginRateLimited, r, "rate limited", slog.String("username", username))
		writeRateLimited(w, retryAfter)
		return
	}

	user, err := s.repo.GetUser(r.Context(), username)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		mapError(w, err)
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)) != nil {
		s.rateLimiter.recordFailure(username)
		s.audit.logFailure(AuditLoginFailure, r, "invalid credentials", slog.String("username", username))
		writeProblem(w, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}
	s.rateLimiter.recordSuccess(username)

	token := uuid.New()
	now := time.Now()
	expiresAt := now.Add(s.sessionDuration)
	s.sessions.Put(token, AuthSession{
		UserID:         user.ID,
		Username:       user.Username,
		ExpiresAt:      expiresAt,
		LastAccessedAt: now,
	})
	writeSessionCookie(w, r, token, expiresAt)

	s.audit.logEvent(AuditLoginSuccess, r, user.Username)
	w.WriteHeader(http.StatusNoContent)
}

// Logout handles POST /authentication/logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())
	s.sessions.Delete(session.token)
	clearSessionCookie(w, r)
	s.audit.logEvent(AuditLogout, r, session.Username)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /authentication/me.
func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())
	user, err := s.repo.GetUserByID(r.Context(), session.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		// The account behind a live session is gone.
		s.sessions.Delete(session.token)
		writeProblem(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse(user))
}

// ListPosts handles GET /posts.
func (s *Server) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit, cursor := parsePage(r)

	// Fetch one extra to learn whether another page exists.
	posts, err := s.repo.ListPosts(r.Context(), cursor, limit+1)
	if errors.Is(err, storage.ErrNotFound) {
		writeProblem(w, http.StatusBadRequest, "Invalid cursor")
		return
	}
	if err != nil {
		mapError(w, err)
		return
	}

	resp := PostPageResponse{Items: make([]PostResponse, 0, min(len(posts), limit))}
	if len(posts) > limit {
		posts = posts[:limit]
		resp.NextCursor = posts[limit-1].ID
	}
	for _, p := range posts {
		resp.Items = append(resp.Items, postToResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPost handles GET /posts/{postID}.
func (s *Server) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.repo.GetPost(r.Context(), chi.URLParam(r, "postID"))
	if errors.Is(err, storage.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, postToResponse(*post))
}

// PromoteToAdmin handles PUT /admin/users/{username}/promote-to-admin.
func (s *Server) PromoteToAdmin(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())
	raw := chi.URLParam(r, "username")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	target := util.NormalizeUsername(raw)

	caller, err := s.repo.GetUserByID(r.Context(), session.UserID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		mapError(w, err)
		return
	}
	if caller == nil || !caller.HasRole(storage.RoleAdmin) {
		s.audit.logFailure(AuditPromoteDenied, r, "not an admin",
			slog.String("username", session.Username),
			slog.String("target", target))
		writeProblem(w, http.StatusForbidden, "Admin role required")
		return
	}

	user, err := s.repo.GetUser(r.Context(), target)
	if errors.Is(err, storage.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		mapError(w, err)
		return
	}

	if user.AddRole(storage.RoleAdmin) {
		if err := s.repo.UpdateUser(r.Context(), user); err != nil {
			mapError(w, err)
			return
		}
	}
	s.audit.logEvent(AuditUserPromoted, r, session.Username, slog.String("target", user.Username))
	w.WriteHeader(http.StatusNoContent)
}
