// Package session holds the per-request authentication state: an opaque
// bearer token and the lazily fetched user profile.
//
// Nothing is persisted. A Session lives for one request and is discarded
// with it.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// User is the decoded profile returned by the profile service.
type User map[string]any

// ProfileFetcher retrieves the profile for a token.
type ProfileFetcher interface {
	Profile(ctx context.Context, token string) (User, error)
}

// Session is the authentication state of a single request.
type Session struct {
	token   string
	fetcher ProfileFetcher
	logger  *slog.Logger

	once sync.Once
	user User
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used when the profile fetch fails.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// New creates a Session for token. fetcher may be nil, in which case the
// session never has a user.
func New(token string, fetcher ProfileFetcher, opts ...Option) *Session {
	s := &Session{
		token:   strings.TrimSpace(token),
		fetcher: fetcher,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromAuthorization creates a Session from an Authorization header value.
// Only the Bearer scheme is recognized; anything else yields an
// unauthenticated session.
func FromAuthorization(header string, fetcher ProfileFetcher, opts ...Option) *Session {
	return New(BearerToken(header), fetcher, opts...)
}

// BearerToken extracts the token from "Bearer <token>". The scheme is
// matched case-insensitively.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Token returns the bearer token, or "" when unauthenticated.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	return s.token
}

// Authenticated reports whether the request carried a token.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// User returns the profile for the session's token. The profile service is
// called at most once per session, and only when a token is present. Any
// failure yields nil.
func (s *Session) User(ctx context.Context) User {
	if !s.Authenticated() || s.fetcher == nil {
		return nil
	}
	s.once.Do(func() {
		user, err := s.fetcher.Profile(ctx, s.token)
		if err != nil {
			s.logger.DebugContext(ctx, "profile fetch failed", "error", err)
			return
		}
		s.user = user
	})
	return s.user
}
