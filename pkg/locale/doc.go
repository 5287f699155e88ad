// Package locale detects the language of a request path and lists the
// templates that may answer it.
//
// Languages are directories under the pages root:
//
//	pages/
//	├── en/
//	│   ├── index.html
//	│   ├── 404.html
//	│   └── blog.html          → /en/blog and /en/blog/<id>
//	└── de/
//	    └── docs/
//	        └── installation.html
//
// A path whose first segment is not a known language is served in the
// default language and keeps that segment in its subpath.
package locale
