// Package site resolves requests that matched no explicit route into
// rendered pages.
//
// Multilingual sites keep one page tree per language:
//
//	pages/
//	  en/index.html
//	  en/docs/installation.html
//	  en/404.html
//	  de/index.html
//
// A request is located to a language and subpath, then the candidate
// templates are tried in order until one renders:
//
//	/de/docs/installation  ->  de/docs/installation
//	/en/blog/my-post       ->  en/blog (ID "my-post"), en/blog/my-post, ...
//	/fr/anything           ->  en/fr/anything, ..., en/404 (status 404)
//
// When every candidate fails, development sites answer with a diagnostic
// page listing each attempt; production sites answer "Page not found".
//
// SingleLanguage resolves the same chain against an unprefixed page tree.
package site
