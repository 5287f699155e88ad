package router

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sort"
	"strings"
)

// Router owns the route table and dispatches requests to handlers, falling
// through to a Resolver for everything that is not explicitly routed.
//
// Routes are registered at startup. The table is read-only while serving and
// may be shared by concurrent requests without locking.
type Router struct {
	exact    map[string]map[string]Handler
	patterns map[string][]patternRoute
	fallback Resolver
	logger   *slog.Logger
	debug    bool
}

type patternRoute struct {
	pattern *pattern
	handler Handler
}

// Route describes one registered route.
type Route struct {
	Method  string
	Pattern string
	// Parameterized is true for routes with {name} placeholders.
	Parameterized bool
}

// Option configures a Router.
type Option func(*Router)

// WithResolver sets the resolver used for unmatched requests.
func WithResolver(res Resolver) Option {
	return func(r *Router) {
		r.fallback = res
	}
}

// WithLogger sets the logger used for handler failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithDebug includes handler error messages in 500 responses. Never enable
// it in production.
func WithDebug(debug bool) Option {
	return func(r *Router) {
		r.debug = debug
	}
}

// New creates an empty router.
func New(opts ...Option) *Router {
	r := &Router{
		exact:    make(map[string]map[string]Handler),
		patterns: make(map[string][]patternRoute),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get registers a GET handler.
func (r *Router) Get(path string, h Handler) {
	r.Handle(http.MethodGet, path, h)
}

// Post registers a POST handler.
func (r *Router) Post(path string, h Handler) {
	r.Handle(http.MethodPost, path, h)
}

// Handle registers a handler for method and path. Paths containing {name}
// placeholders are parameterized; they are tried in registration order after
// the exact routes. It panics on a malformed pattern.
func (r *Router) Handle(method, path string, h Handler) {
	method = strings.ToUpper(method)
	if !isPattern(path) {
		if r.exact[method] == nil {
			r.exact[method] = make(map[string]Handler)
		}
		r.exact[method][path] = h
		return
	}
	p, err := compilePattern(path)
	if err != nil {
		panic("router: " + err.Error())
	}
	r.patterns[method] = append(r.patterns[method], patternRoute{pattern: p, handler: h})
}

// SetResolver replaces the resolver used for unmatched requests.
func (r *Router) SetResolver(res Resolver) {
	r.fallback = res
}

// Match looks up the handler for method and path. Exact routes win; then the
// first parameterized route, in registration order, that matches the whole
// path. The returned params are nil for exact matches.
func (r *Router) Match(method, path string) (Handler, map[string]string, bool) {
	method = strings.ToUpper(method)
	if h, ok := r.exact[method][path]; ok {
		return h, nil, true
	}
	for _, route := range r.patterns[method] {
		if params, ok := route.pattern.match(path); ok {
			return route.handler, params, true
		}
	}
	return nil, nil, false
}

// Dispatch produces the response for req. It never panics: handler errors
// and panics become 500 responses, and requests nobody can resolve become a
// plain text 404.
func (r *Router) Dispatch(ctx context.Context, req *Request) (resp *Response) {
	h, params, ok := r.Match(req.Method, req.Path)
	if !ok {
		if r.fallback == nil {
			return Text(http.StatusNotFound, "Page not found")
		}
		return r.resolve(ctx, req)
	}
	if params != nil {
		req.Params = params
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "route handler panicked",
				"method", req.Method,
				"path", req.Path,
				"panic", rec,
				"stack", string(debug.Stack()))
			resp = r.internalError(fmt.Errorf("panic: %v", rec))
		}
	}()

	resp, err := h(ctx, req)
	if err != nil {
		r.logger.ErrorContext(ctx, "route handler failed",
			"method", req.Method,
			"path", req.Path,
			"error", err)
		return r.internalError(err)
	}
	if resp == nil {
		return NewResponse(http.StatusNoContent, "")
	}
	return resp
}

func (r *Router) resolve(ctx context.Context, req *Request) (resp *Response) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "resolver panicked",
				"path", req.Path,
				"panic", rec,
				"stack", string(debug.Stack()))
			resp = r.internalError(fmt.Errorf("panic: %v", rec))
		}
	}()
	resp = r.fallback.Resolve(ctx, req)
	if resp == nil {
		return Text(http.StatusNotFound, "Page not found")
	}
	return resp
}

func (r *Router) internalError(err error) *Response {
	if r.debug {
		return Text(http.StatusInternalServerError, "Internal Server Error: "+err.Error())
	}
	return Text(http.StatusInternalServerError, "Internal Server Error")
}

// Routes lists the route table: exact routes sorted by method and path, then
// parameterized routes per method in registration order.
func (r *Router) Routes() []Route {
	var routes []Route
	for method, paths := range r.exact {
		for path := range paths {
			routes = append(routes, Route{Method: method, Pattern: path})
		}
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Method != routes[j].Method {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Pattern < routes[j].Pattern
	})

	methods := make([]string, 0, len(r.patterns))
	for method := range r.patterns {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	for _, method := range methods {
		for _, route := range r.patterns[method] {
			routes = append(routes, Route{Method: method, Pattern: route.pattern.raw, Parameterized: true})
		}
	}
	return routes
}
