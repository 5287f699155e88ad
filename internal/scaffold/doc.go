// Package scaffold creates new sites from built-in templates.
//
// # Available Templates
//
//   - minimal: one language, no layout
//   - multilingual: a layout, a dynamic blog section and 404 pages per
//     language
//
// # Usage
//
//	tmpl, err := scaffold.Get("multilingual")
//	if err != nil {
//	    return err
//	}
//	err = tmpl.Create(dir, scaffold.Config{
//	    Name:      "docs",
//	    Languages: []string{"en", "de"},
//	})
//
// # Template Variables
//
// File contents are text/template documents with [[ ]] delimiters, so the
// {{ }} actions of the generated pages pass through untouched:
//
//	[[.Name]]       - Name of the site
//	[[.Lang]]       - Language of a per-language file
//	[[.Languages]]  - All languages
//	[[.LanguageList]] - All languages as a yaml list
//	[[.Default]]    - Default language
package scaffold
