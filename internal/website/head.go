package website

import (
	"fmt"
	"html"
	"io"
	"strings"
)

// RenderHead generates the <head> section with the base styles followed by
// customCSS.
func RenderHead(cfg PageConfig, customCSS string) string {
	var sb strings.Builder

	themeColor := cfg.ThemeColor
	if themeColor == "" {
		themeColor = cfg.Colors["primary"]
	}
	if themeColor == "" {
		themeColor = Colors["primary"]
	}

	sb.WriteString("<head>\n")

	sb.WriteString(`<meta charset="UTF-8">` + "\n")
	sb.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1.0">` + "\n")
	sb.WriteString(fmt.Sprintf("<title>%s</title>\n", html.EscapeString(cfg.Title)))

	if cfg.Description != "" {
		sb.WriteString(fmt.Sprintf(`<meta name="description" content="%s">`+"\n", html.EscapeString(cfg.Description)))
	}
	sb.WriteString(fmt.Sprintf(`<meta name="theme-color" content="%s">`+"\n", html.EscapeString(themeColor)))
	sb.WriteString(`<meta name="robots" content="noindex">` + "\n")

	if cfg.Favicon != "" {
		sb.WriteString(fmt.Sprintf(`<link rel="icon" href="%s">`+"\n", html.EscapeString(cfg.Favicon)))
	} else {
		sb.WriteString(`<link rel="icon" href="data:image/svg+xml,<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 100 100'><text y='.9em' font-size='90'>🌴</text></svg>">` + "\n")
	}

	sb.WriteString("<style>\n")
	sb.WriteString(RenderStyles(WithCustomColors(cfg.Colors)))
	if customCSS != "" {
		sb.WriteString("\n")
		sb.WriteString(customCSS)
	}
	sb.WriteString("\n</style>\n")

	sb.WriteString("</head>\n")

	return sb.String()
}

// RenderDocument writes a complete HTML document around bodyContent, which
// must already be safe HTML.
func RenderDocument(w io.Writer, cfg PageConfig, customCSS string, bodyContent []byte) error {
	lang := cfg.Language
	if lang == "" {
		lang = "it"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString(fmt.Sprintf("<html lang=\"%s\">\n", html.EscapeString(lang)))
	sb.WriteString(RenderHead(cfg, customCSS))
	sb.WriteString("<body>\n")
	sb.Write(bodyContent)
	sb.WriteString("\n")
	for _, src := range cfg.Scripts {
		sb.WriteString(fmt.Sprintf(`<script src="%s" defer></script>`+"\n", html.EscapeString(src)))
	}
	sb.WriteString("</body>\n</html>")

	_, err := io.WriteString(w, sb.String())
	return err
}
