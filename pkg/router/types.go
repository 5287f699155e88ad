package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Handler handles an explicitly registered route. Its response is returned
// to the client as-is; templating is bypassed entirely.
//
// A non-nil error is turned into a 500 response by the Router.
type Handler func(ctx context.Context, req *Request) (*Response, error)

// Resolver produces a response for requests that matched no explicit route.
//
// The multilingual content resolver is the usual implementation; the Router
// itself only knows that something handles the fallthrough.
type Resolver interface {
	Resolve(ctx context.Context, req *Request) *Response
}

// ResolverFunc is a function adapter for Resolver.
type ResolverFunc func(ctx context.Context, req *Request) *Response

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, req *Request) *Response {
	return f(ctx, req)
}

// Request is the transport-independent view of an inbound request.
type Request struct {
	// Method is the upper-cased HTTP method.
	Method string

	// Path is the request path without query string.
	Path string

	// Query holds the query string parameters.
	Query url.Values

	// Form holds the decoded request body parameters.
	Form url.Values

	// Authorization is the raw Authorization header, if any.
	Authorization string

	// Header holds the remaining request headers. May be nil.
	Header http.Header

	// Params are the values extracted from {name} placeholders when a
	// parameterized route matched.
	Params map[string]string
}

// Param returns a route parameter, or "" if it is not set.
func (r *Request) Param(name string) string {
	if r.Params == nil {
		return ""
	}
	return r.Params[name]
}

// Response is the status + headers + body triple handed back to the
// transport layer.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse creates a response with the default HTML content type.
func NewResponse(status int, body string) *Response {
	return &Response{
		Status: status,
		Header: http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		Body:   []byte(body),
	}
}

// Text creates a plain text response.
func Text(status int, body string) *Response {
	return &Response{
		Status: status,
		Header: http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}},
		Body:   []byte(body),
	}
}

// JSON creates a response with v encoded as JSON.
func JSON(status int, v any) (*Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &Response{
		Status: status,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   data,
	}, nil
}

// Redirect creates a redirect response to url.
func Redirect(status int, url string) *Response {
	return &Response{
		Status: status,
		Header: http.Header{"Location": []string{url}},
	}
}

// Send writes the response to an http.ResponseWriter.
func (r *Response) Send(w http.ResponseWriter) {
	for key, values := range r.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(r.Body) > 0 {
		_, _ = w.Write(r.Body)
	}
}
