package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// Error codes.
const (
	CodeConfigParse     = "E120"
	CodeInvalidEnv      = "E121"
	CodeInvalidPort     = "E122"
	CodeInvalidRouting  = "E123"
	CodeInvalidURL      = "E124"
	CodeInvalidLanguage = "E125"
	CodeInvalidTimeout  = "E126"
	CodePagesUnreadable = "E140"
	CodeServerStart     = "E141"
	CodeConfigExists    = "E142"
	CodeUnknownScaffold = "E143"
	CodeProjectNotEmpty = "E144"
	CodeManifestInvalid = "E160"
	CodeNoTemplatePaths = "E161"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (E120-E139)
	// ============================================

	CodeConfigParse: {
		Category:   CategoryConfig,
		Message:    "Configuration file could not be parsed",
		Detail:     "stcms.yaml or .env contains invalid syntax.",
		Suggestion: "Run `stcms config init` to generate a valid file.",
	},
	CodeInvalidEnv: {
		Category:   CategoryConfig,
		Message:    "Invalid app_env",
		Detail:     "app_env must be either development or production.",
		Suggestion: "Set APP_ENV=development or APP_ENV=production.",
	},
	CodeInvalidPort: {
		Category:   CategoryConfig,
		Message:    "Invalid server port",
		Detail:     "server.port must be between 1 and 65535.",
		Suggestion: "Use --port or SERVER_PORT to pick another port.",
	},
	CodeInvalidRouting: {
		Category:   CategoryConfig,
		Message:    "Invalid routing mode",
		Detail:     "routing must be multilingual or single.",
		Suggestion: "Use routing: multilingual unless your pages have no language directories.",
	},
	CodeInvalidURL: {
		Category: CategoryConfig,
		Message:  "Invalid URL",
		Detail:   "api_base_url and vite_base_url must be absolute http or https URLs.",
	},
	CodeInvalidLanguage: {
		Category: CategoryConfig,
		Message:  "Invalid language code",
		Detail:   "Language codes name directories and URL segments, so they cannot be empty or contain slashes.",
	},
	CodeInvalidTimeout: {
		Category: CategoryConfig,
		Message:  "Invalid timeout",
		Detail:   "profile_timeout must be a positive duration such as 5s.",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	CodePagesUnreadable: {
		Category:   CategoryCLI,
		Message:    "Pages directory could not be read",
		Detail:     "Languages are discovered from the sub-directories of pages_dir.",
		Suggestion: "Check pages_dir and its permissions.",
	},
	CodeServerStart: {
		Category:   CategoryCLI,
		Message:    "Server failed to start",
		Detail:     "The HTTP listener could not be opened.",
		Suggestion: "Is another process using the port? Try --port.",
	},
	CodeConfigExists: {
		Category:   CategoryCLI,
		Message:    "Configuration file already exists",
		Suggestion: "Pass --force to overwrite it.",
	},
	CodeUnknownScaffold: {
		Category:   CategoryCLI,
		Message:    "Unknown site template",
		Suggestion: "Available templates: minimal, multilingual",
	},
	CodeProjectNotEmpty: {
		Category:   CategoryCLI,
		Message:    "Target directory is not empty",
		Detail:     "New sites are only created in empty or missing directories.",
		Suggestion: "Pick another directory or pass --force.",
	},

	// ============================================
	// Asset and Template Errors (E160-E179)
	// ============================================

	CodeManifestInvalid: {
		Category:   CategoryAssets,
		Message:    "Vite manifest is missing or invalid",
		Detail:     "The manifest must be the JSON object written by `vite build --manifest`.",
		Suggestion: "Rebuild the frontend bundle.",
	},
	CodeNoTemplatePaths: {
		Category: CategoryTemplate,
		Message:  "No template paths configured",
		Detail:   "template_paths must list at least one directory.",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
