// Package render executes page templates with layout and include
// composition.
//
// Templates are html/template files found on an ordered list of search
// paths (pages, templates, components). A template is addressed by its id,
// the path without extension:
//
//	pages/en/about.html          → "en/about"
//	templates/layouts/base.html  → "layouts/base"
//
// # Layouts
//
// A page names its layout with a directive on its first line and fills the
// layout's blocks:
//
//	{{/* extends "layouts/base" */}}
//	{{define "title"}}About{{end}}
//	{{define "content"}}<h1>About us</h1>{{end}}
//
// Layouts may extend other layouts. The chain is parsed from the root
// down, so the most specific {{define}} wins, and the root layout is what
// gets executed. A cycle in the chain is reported as a syntax error.
//
// # Includes
//
// Any {{template "name"}} reference that nothing in the set defines is
// loaded from the search paths, so partials need no registration:
//
//	{{template "partials/nav" .}}
//
// # Helpers
//
//	vite_assets          script and link tags for the configured entrypoint
//	vite_entry "x.ts"    the same for another entrypoint
//	vite_react_refresh   dev server client, empty in production
//	asset "img/a.png"    URL of a bundled asset
//	is_authenticated     whether the request carried a bearer token
//	route "/about"       URL for a route name
//	lang_url "de" "docs" URL of a page in another language
//	markdown .Text       Markdown rendered to HTML
//	live_reload          development reload script
//	app_env              "development" or "production"
//
// Pages execute with a *Context as dot: {{.Lang}}, {{.ID}}, {{.User}}.
//
// # Errors
//
// Render failures are *Error values. Use errors.Is with
// ErrTemplateNotFound, ErrTemplateSyntax or ErrTemplateRuntime to tell
// them apart. Output is buffered, so a failed render writes nothing.
package render
