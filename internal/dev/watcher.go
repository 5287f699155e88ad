package dev

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeType represents the type of file change.
type ChangeType int

const (
	ChangeTemplate ChangeType = iota
	ChangeCSS
	ChangeAsset
	ChangeConfig
)

// String implements fmt.Stringer.
func (t ChangeType) String() string {
	switch t {
	case ChangeTemplate:
		return "template"
	case ChangeCSS:
		return "css"
	case ChangeConfig:
		return "config"
	default:
		return "asset"
	}
}

// Change represents a detected file change.
type Change struct {
	Path string
	Type ChangeType
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Paths are the directories to watch, recursively. Missing directories
	// are skipped.
	Paths []string

	// Ignore patterns to skip: names, path segments or globs.
	Ignore []string

	// Debounce is the quiet period before a batch of changes is reported.
	Debounce time.Duration

	// TemplateExt marks template files (default ".html").
	TemplateExt string

	Logger *slog.Logger
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	".vite",
	"*.tmp",
	"*.swp",
	"*~",
	"4913",
}

// Watcher reports batches of file changes under a set of directories.
type Watcher struct {
	config   WatcherConfig
	logger   *slog.Logger
	onChange func([]Change)

	mu      sync.Mutex
	running bool
	fsw     *fsnotify.Watcher
}

// NewWatcher creates a new file watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Debounce == 0 {
		config.Debounce = 100 * time.Millisecond
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}
	if config.TemplateExt == "" {
		config.TemplateExt = ".html"
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{config: config, logger: logger}
}

// OnChange sets the callback for change batches. Each path appears once
// per batch.
func (w *Watcher) OnChange(fn func([]Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start watches until ctx is done. It returns ctx.Err() on cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	w.fsw = fsw
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.fsw = nil
		w.mu.Unlock()
	}()

	for _, root := range w.config.Paths {
		if err := w.addRecursive(fsw, root); err != nil {
			return err
		}
	}

	timer := time.NewTimer(w.config.Debounce)
	timer.Stop()
	pending := make(map[string]Change)

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if change, ok := w.handle(fsw, event); ok {
				pending[change.Path] = change
				timer.Reset(w.config.Debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)

		case <-timer.C:
			w.flush(pending)
			pending = make(map[string]Change)
		}
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) error {
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && w.shouldIgnore(p) {
			return filepath.SkipDir
		}
		return fsw.Add(p)
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	return nil
}

// handle turns an fsnotify event into a Change. New directories are added
// to the watch list.
func (w *Watcher) handle(fsw *fsnotify.Watcher, event fsnotify.Event) (Change, bool) {
	if event.Op == fsnotify.Chmod || w.shouldIgnore(event.Name) {
		return Change{}, false
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(fsw, event.Name); err != nil {
				w.logger.Warn("watch new directory", "path", event.Name, "error", err)
			}
			return Change{}, false
		}
	}
	return Change{Path: event.Name, Type: w.classify(event.Name)}, true
}

func (w *Watcher) flush(pending map[string]Change) {
	if len(pending) == 0 {
		return
	}
	w.mu.Lock()
	callback := w.onChange
	w.mu.Unlock()
	if callback == nil {
		return
	}

	changes := make([]Change, 0, len(pending))
	for _, c := range pending {
		changes = append(changes, c)
	}
	callback(changes)
}

// shouldIgnore checks if a path should be ignored.
func (w *Watcher) shouldIgnore(fullPath string) bool {
	name := filepath.Base(fullPath)
	normalized := filepath.ToSlash(fullPath)

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if name == pattern {
			return true
		}

		hasPathSep := strings.ContainsAny(pattern, `/\`)
		if strings.ContainsAny(pattern, "*?[") {
			if hasPathSep {
				if matched, _ := path.Match(filepath.ToSlash(pattern), normalized); matched {
					return true
				}
			} else if matched, _ := filepath.Match(pattern, name); matched {
				return true
			}
			continue
		}

		if hasPathSep {
			if pathMatchesSegments(normalized, filepath.ToSlash(pattern)) {
				return true
			}
			continue
		}
		if pathHasSegment(normalized, pattern) {
			return true
		}
	}
	return false
}

func pathHasSegment(p, segment string) bool {
	for _, part := range splitPathSegments(p) {
		if part == segment {
			return true
		}
	}
	return false
}

func pathMatchesSegments(p, pattern string) bool {
	pathParts := splitPathSegments(p)
	patternParts := splitPathSegments(pattern)
	if len(patternParts) == 0 || len(patternParts) > len(pathParts) {
		return false
	}

	for i := 0; i <= len(pathParts)-len(patternParts); i++ {
		match := true
		for j := range patternParts {
			if pathParts[i+j] != patternParts[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func splitPathSegments(p string) []string {
	if p == "" {
		return nil
	}
	parts := strings.Split(p, "/")
	result := parts[:0]
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}

// classify determines the type of change based on file extension.
func (w *Watcher) classify(p string) ChangeType {
	ext := strings.ToLower(filepath.Ext(p))
	switch ext {
	case strings.ToLower(w.config.TemplateExt):
		return ChangeTemplate
	case ".css", ".scss", ".sass", ".less":
		return ChangeCSS
	case ".json":
		if filepath.Base(p) == "manifest.json" {
			return ChangeAsset
		}
		return ChangeConfig
	case ".yaml", ".yml", ".env":
		return ChangeConfig
	default:
		return ChangeAsset
	}
}
