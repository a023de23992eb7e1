// Package devserver is a local stand-in for the OurCity REST API. It
// serves the authentication, post and admin endpoints the CLI calls, with
// cookie sessions, so the CLI can be exercised end to end without the
// real backend.
package devserver

import (
	_ "embed"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-openapi/runtime/middleware"

	"github.com/ourcity/ourcity-cli/internal/logging"
	"github.com/ourcity/ourcity-cli/storage"
)

// BasePath is where Router is mounted by Handler.
const BasePath = "/apis/v1"

const (
	defaultSessionDuration = 24 * time.Hour
	defaultIdleTimeout     = 30 * time.Minute
)

//go:embed openapi.yaml
var openapiSpec []byte

// Server holds the dependencies needed by the REST handlers.
type Server struct {
	repo            storage.Repository
	sessions        SessionStore
	rateLimiter     *loginRateLimiter
	audit           *auditLogger
	logger          *slog.Logger
	sessionDuration time.Duration
}

// Option configures the Server instance.
type Option func(*Server)

// WithLogger sets the structured logger for request and audit events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSessionStore replaces the default in-memory session store.
func WithSessionStore(store SessionStore) Option {
	return func(s *Server) {
		s.sessions = store
	}
}

// WithSessionDuration sets the absolute lifetime of a login session.
func WithSessionDuration(d time.Duration) Option {
	return func(s *Server) {
		s.sessionDuration = d
	}
}

// New creates a new Server instance.
func New(repo storage.Repository, opts ...Option) *Server {
	s := &Server{
		repo:            repo,
		rateLimiter:     newLoginRateLimiter(),
		logger:          logging.Discard(),
		sessionDuration: defaultSessionDuration,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = NewMemorySessionStore(defaultIdleTimeout)
	}
	s.audit = newAuditLogger(s.logger)
	return s
}

// Router returns a chi.Router with all API routes, relative to BasePath.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: BasePath + "/openapi.yaml",
		Path:    "apis/v1/docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: BasePath + "/openapi.yaml",
		Path:    "apis/v1/redoc",
	}, nil))

	r.Group(func(r chi.Router) {
		r.Use(s.LoadSession)

		r.Post("/authentication/login", s.Login)
		r.With(s.RequireAuth).Post("/authentication/logout", s.Logout)
		r.With(s.RequireAuth).Get("/authentication/me", s.Me)

		r.Get("/posts", s.ListPosts)
		r.Get("/posts/{postID}", s.GetPost)

		r.With(s.RequireAuth).Put("/admin/users/{username}/promote-to-admin", s.PromoteToAdmin)
	})

	return r
}

// Handler returns the full server handler: middleware, a health check and
// the API mounted at BasePath.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(SecurityHeaders)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Mount(BasePath, s.Router())
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	logger := s.logger.With("component", "http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.LogAttrs(r.Context(), slog.LevelInfo, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

// SecurityHeaders is middleware that sets standard security response headers
// on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if requestIsSecure(r) {
			w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}
