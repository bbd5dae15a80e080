// Package website renders the HTML document that hosts a live component:
// the <head> with metadata and inline CSS, and the script tags that start
// the client. No external CSS framework is used.
package website

// PageConfig defines the document metadata.
type PageConfig struct {
	// Title is the page title shown in the browser tab.
	Title string
	// Description is the meta description.
	Description string
	// Language is the page language (default: "it").
	Language string
	// ThemeColor is the mobile browser theme color. Empty follows the
	// primary palette color.
	ThemeColor string
	// Colors overrides palette entries by name, e.g. "primary".
	Colors map[string]string
	// Favicon is the path to the favicon.
	Favicon string
	// Scripts are script URLs appended at the end of <body>, loaded with defer.
	Scripts []string
}

// DefaultPageConfig returns a PageConfig with sensible defaults.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Language: "it",
	}
}
