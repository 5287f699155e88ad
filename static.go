package stcms

import (
	"net/http"
	"path"
	"path/filepath"
	"strings"
)

// =============================================================================
// Static Files
// =============================================================================

// staticRelPath maps a request path to a file inside the static directory.
// Traversal, absolute paths and platform separators are rejected.
func (a *App) staticRelPath(urlPath string) (string, bool) {
	if a.staticFS == nil || a.staticDir == "" {
		return "", false
	}

	rel, ok := a.trimStaticPrefix(urlPath)
	if !ok || rel == "" {
		return "", false
	}
	if strings.IndexByte(rel, 0) != -1 || strings.Contains(rel, "\\") {
		return "", false
	}
	// "/public//etc/passwd" leaves "/etc/passwd" after trimming.
	if strings.HasPrefix(rel, "/") {
		return "", false
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}

	clean := path.Clean(rel)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false
	}
	osPath := filepath.FromSlash(clean)
	if filepath.IsAbs(osPath) || filepath.VolumeName(osPath) != "" {
		return "", false
	}
	return clean, true
}

// trimStaticPrefix removes the configured prefix from urlPath.
func (a *App) trimStaticPrefix(urlPath string) (string, bool) {
	prefix := a.staticPrefix
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if !strings.HasPrefix(urlPath, prefix) {
		return "", false
	}
	return strings.TrimPrefix(urlPath, prefix), true
}

// shouldServeStatic reports whether urlPath names a regular file in the
// static directory.
func (a *App) shouldServeStatic(urlPath string) bool {
	rel, ok := a.staticRelPath(urlPath)
	if !ok {
		return false
	}
	f, err := a.staticFS.Open(rel)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	return err == nil && !info.IsDir()
}

// serveStatic writes a static file. Only GET and HEAD are allowed.
func (a *App) serveStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	rel, ok := a.staticRelPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	f, err := a.staticFS.Open(rel)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	a.applyCacheHeaders(w, rel)
	for key, value := range a.config.Static.Headers {
		w.Header().Set(key, value)
	}
	http.ServeContent(w, r, rel, info.ModTime(), f)
}

// applyCacheHeaders sets Cache-Control for a static file.
func (a *App) applyCacheHeaders(w http.ResponseWriter, filePath string) {
	switch a.config.Static.CacheControl {
	case CacheControlNone:
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	case CacheControlProduction:
		if isFingerprinted(filePath) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
		}
	}
}

// isFingerprinted reports whether a built file carries a content hash in its
// name. Vite emits "app-4f3a9c1e.js" by default; "app.4f3a9c1e.js" is
// accepted too.
func isFingerprinted(filePath string) bool {
	base := path.Base(filePath)
	ext := path.Ext(base)
	if ext == "" {
		return false
	}
	stem := strings.TrimSuffix(base, ext)

	i := strings.LastIndexAny(stem, "-.")
	if i < 0 {
		return false
	}
	return isHash(stem[i+1:])
}

// isHash accepts 8 or more characters of Vite's base64url hash alphabet
// containing at least one digit.
func isHash(s string) bool {
	if len(s) < 8 {
		return false
	}
	digit := false
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			digit = true
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		default:
			return false
		}
	}
	return digit
}
