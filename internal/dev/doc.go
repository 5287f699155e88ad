// Package dev provides development mode for a site: template reloading and
// browser live reload.
//
// # Architecture
//
//   - Watcher: reports batches of file changes under the template and public
//     directories, using fsnotify
//   - Reloader: clears the template cache and notifies browsers
//   - ReloadServer: holds browser websocket connections
//
// # Usage
//
//	reload := dev.NewReloadServer(logger)
//	r.Handle(dev.ReloadPath, reload)
//
//	w := dev.NewWatcher(dev.WatcherConfig{Paths: []string{"pages", "templates"}})
//	w.OnChange(dev.NewReloader(app.Engine(), reload, logger).Apply)
//	go w.Start(ctx)
//
// # Live Reload Protocol
//
// The browser connects to /_stcms/reload via WebSocket.
// Messages are JSON-encoded:
//
//	{"type": "reload"}                  // full page reload
//	{"type": "css", "file": "app.css"}  // stylesheet-only reload
package dev
