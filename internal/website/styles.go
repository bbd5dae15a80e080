package website

import (
	"fmt"
	"sort"
	"strings"
)

// Colors is the palette exposed as --color-* custom properties.
var Colors = map[string]string{
	"bg":        "#FFFFFF",
	"text":      "#000000",
	"textMuted": "#4B5563",

	"primary":      "#00B8B0", // buttons
	"primaryHover": "#008F88",
	"submit":       "#15803D",
	"submitHover":  "#166534",

	"completed": "#DCFCE7",
	"active":    "rgba(254,249,195,0.5)",
	"pending":   "#F3F4F6",

	"danger": "#EF4444",
	"border": "#D1D5DB",
	"focus":  "#3B82F6",
}

// FontFamily uses the system font stack.
var FontFamily = `system-ui, -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif`

// StyleOption customizes the generated CSS.
type StyleOption func(*styleConfig)

type styleConfig struct {
	customColors map[string]string
}

// WithCustomColors overrides palette entries.
func WithCustomColors(colors map[string]string) StyleOption {
	return func(cfg *styleConfig) {
		for k, v := range colors {
			cfg.customColors[k] = v
		}
	}
}

// RenderStyles generates the base CSS shared by every page.
func RenderStyles(opts ...StyleOption) string {
	cfg := &styleConfig{
		customColors: make(map[string]string),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	colors := make(map[string]string, len(Colors))
	for k, v := range Colors {
		colors[k] = v
	}
	for k, v := range cfg.customColors {
		colors[k] = v
	}

	var sb strings.Builder
	sb.WriteString(cssReset())
	sb.WriteString(cssVariables(colors))
	sb.WriteString(cssBase())
	sb.WriteString(cssAccessibility())
	return sb.String()
}

func cssReset() string {
	return `
*,*::before,*::after{box-sizing:border-box;margin:0;padding:0}
html{-webkit-text-size-adjust:100%}
body{line-height:1.5;-webkit-font-smoothing:antialiased}
input,button{font:inherit}
p,h1,h2,h3{overflow-wrap:break-word}
`
}

func cssVariables(colors map[string]string) string {
	names := make([]string, 0, len(colors))
	for name := range colors {
		names = append(names, name)
	}
	sort.Strings(names)

	vars := make([]string, 0, len(names))
	for _, name := range names {
		vars = append(vars, fmt.Sprintf("--color-%s:%s", name, colors[name]))
	}
	return fmt.Sprintf(":root{%s;--font-sans:%s}\n", strings.Join(vars, ";"), FontFamily)
}

func cssBase() string {
	return `
body{font-family:var(--font-sans);background:var(--color-bg);color:var(--color-text);min-height:100vh;display:flex;justify-content:center;padding:1.5rem 1rem}
`
}

func cssAccessibility() string {
	return `
:focus-visible{outline:2px solid var(--color-focus);outline-offset:2px}
@media (prefers-reduced-motion:reduce){*{transition:none!important}}
`
}
