// ABOUTME: Item description processing for terminal display
// ABOUTME: Detects HTML, converts to Markdown, and renders with glamour

package content

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/charmbracelet/glamour"
)

// htmlTagPattern matches common HTML tags
var htmlTagPattern = regexp.MustCompile(`<\s*(p|div|span|a|br|img|h[1-6]|ul|ol|li|table|tr|td|th|strong|em|b|i|code|pre|blockquote)[^>]*>`)

// IsHTML checks if a description appears to be HTML
func IsHTML(description string) bool {
	if strings.Contains(description, "<!DOCTYPE") || strings.Contains(description, "<html") {
		return true
	}
	return htmlTagPattern.MatchString(description)
}

// ToMarkdown converts an HTML description to Markdown.
// Non-HTML descriptions are returned unchanged.
func ToMarkdown(description string) string {
	if description == "" {
		return description
	}
	if !IsHTML(description) {
		return description
	}

	markdown, err := htmltomarkdown.ConvertString(description)
	if err != nil {
		// If conversion fails, fall back to the raw description
		return description
	}
	return strings.TrimSpace(markdown)
}

// RenderTerminal converts a description to Markdown and renders it for
// the terminal. Render failures fall back to the plain Markdown.
func RenderTerminal(description string) string {
	markdown := ToMarkdown(description)
	rendered, err := glamour.Render(markdown, "dark")
	if err != nil {
		return markdown
	}
	return rendered
}
