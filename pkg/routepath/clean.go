// Package routepath normalizes request paths before they reach the router.
package routepath

import (
	"errors"
	"strings"
)

// Path errors.
var (
	ErrBackslashInPath = errors.New("path contains backslash")
	ErrNullByteInPath  = errors.New("path contains null byte")
	ErrPathEscapesRoot = errors.New("path escapes root via ..")
)

// Clean normalizes a request path:
//   - Drop a query string or fragment
//   - Ensure a leading slash
//   - Collapse multiple slashes (/blog//post → /blog/post)
//   - Remove "." segments and resolve ".." segments
//   - Remove the trailing slash, except for root "/"
//
// Paths containing a backslash or NUL byte, or whose ".." segments climb
// above the root, are rejected.
func Clean(p string) (string, error) {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}

	if strings.Contains(p, "\\") {
		return "", ErrBackslashInPath
	}
	if strings.Contains(p, "\x00") || strings.Contains(strings.ToUpper(p), "%00") {
		return "", ErrNullByteInPath
	}

	segments := strings.Split(p, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) == 0 {
				return "", ErrPathEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/"), nil
}
