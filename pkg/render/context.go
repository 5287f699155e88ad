package render

import (
	"context"
	"net/url"

	"github.com/vango-dev/stcms/pkg/session"
)

// Context is the data every page is executed with. It is built fresh for
// each request and never shared between requests.
type Context struct {
	// Lang is the resolved language.
	Lang string

	// Path is the request path as received.
	Path string

	// Method is the request method.
	Method string

	// Query and Form are the decoded query string and request body.
	Query url.Values
	Form  url.Values

	// ID is the identifier taken from the second segment of a two-segment
	// subpath when the dynamic template answers, e.g. "my-post" for
	// /en/blog/my-post rendered by en/blog.
	ID string

	// Params are the route parameters, if any.
	Params map[string]string

	// Env is "development" or "production".
	Env string

	// Languages lists the supported languages; DefaultLanguage is one of
	// them.
	Languages       []string
	DefaultLanguage string

	// Session carries the bearer token. May be nil.
	Session *session.Session

	ctx context.Context
}

// WithContext returns a shallow copy bound to ctx. The copy shares the
// session, so the profile is fetched at most once per request.
func (c *Context) WithContext(ctx context.Context) *Context {
	cp := *c
	cp.ctx = ctx
	return &cp
}

// Token returns the bearer token, or "" for anonymous requests.
func (c *Context) Token() string {
	return c.Session.Token()
}

// Authenticated reports whether the request carried a token.
func (c *Context) Authenticated() bool {
	return c.Session.Authenticated()
}

// User returns the current user's profile. It is fetched on first use,
// only when a token is present; nil when anonymous or when the fetch fails.
func (c *Context) User() session.User {
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return c.Session.User(ctx)
}

// Development reports whether the site runs in development mode.
func (c *Context) Development() bool {
	return c.Env == EnvDevelopment
}
