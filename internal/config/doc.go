// Package config loads site configuration for the stcms command.
//
// Settings are read from, lowest to highest precedence:
//
//  1. built-in defaults
//  2. stcms.yaml in the project directory
//  3. a .env file next to it
//  4. the process environment (APP_ENV, SERVER_PORT, ...)
//  5. command line flags
//
// # Configuration File Structure
//
//	app_env: development
//	api_base_url: http://localhost:8080
//	default_language: en
//	routing: multilingual
//	template_paths: [pages, templates, components]
//	server:
//	  host: localhost
//	  port: 8000
//
// # Usage
//
//	cfg, err := config.Load(config.Options{Dir: ".", Flags: cmd.Flags()})
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	app, err := stcms.New(cfg.Site(logger))
//
// Validate reports every invalid setting at once as coded errors
// (E121 to E126, E161).
package config
