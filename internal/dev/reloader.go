package dev

import (
	"log/slog"
)

// Resetter drops cached templates. *render.Engine implements it.
type Resetter interface {
	Reset()
}

// Reloader applies change batches: template edits clear the template cache
// and reload the page, stylesheet edits only swap stylesheets.
type Reloader struct {
	cache  Resetter
	server *ReloadServer
	logger *slog.Logger
}

// NewReloader creates a Reloader. server may be nil when live reload is
// disabled; the cache is still reset.
func NewReloader(cache Resetter, server *ReloadServer, logger *slog.Logger) *Reloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reloader{cache: cache, server: server, logger: logger}
}

// Apply handles one batch of changes.
func (r *Reloader) Apply(changes []Change) {
	var templates, css, other int
	for _, c := range changes {
		switch c.Type {
		case ChangeTemplate:
			templates++
		case ChangeCSS:
			css++
		case ChangeConfig:
			r.logger.Warn("configuration changed, restart to apply", "path", c.Path)
		default:
			other++
		}
	}

	if templates > 0 && r.cache != nil {
		r.cache.Reset()
	}
	r.logger.Info("files changed", "templates", templates, "css", css, "other", other)

	if r.server == nil {
		return
	}
	switch {
	case templates > 0 || other > 0:
		r.server.NotifyReload()
	case css > 0:
		for _, c := range changes {
			if c.Type == ChangeCSS {
				r.server.NotifyCSS(c.Path)
			}
		}
	}
}
