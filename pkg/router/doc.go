// Package router implements the route table and request dispatcher.
//
// Explicit routes are registered at startup, either as exact paths or as
// parameterized patterns:
//
//	r := router.New(router.WithResolver(site))
//	r.Get("/health", healthHandler)
//	r.Get("/item/{id}", itemHandler)     // GET /item/42 → Param("id") == "42"
//	r.Post("/auth/login", loginHandler)
//
// # Matching
//
// Dispatch tries, in order:
//
//  1. the exact (method, path) entry
//  2. parameterized routes for the method, in registration order
//  3. the configured Resolver
//
// A placeholder matches exactly one non-empty path segment, so "/item/" does
// not match "/item/{id}". Explicit handlers bypass templating; their Response
// is returned as-is.
//
// # Failures
//
// A handler that returns an error or panics produces a 500 response. The
// error message is included in the body only when the router was built with
// WithDebug(true).
package router
