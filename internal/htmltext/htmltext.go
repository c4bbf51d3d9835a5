// Package htmltext derives the plain text alternative for HTML bodies.
package htmltext

import (
	"regexp"
	"strings"

	"github.com/jaytaylor/html2text"
)

var blankRuns = regexp.MustCompile(`\n\s*\n`)

// FromHTML converts an HTML document to whitespace normalized plain text.
// Block level tags become line breaks and runs of blank lines collapse to a
// single blank line, so the alternative part reads naturally in text-only
// clients.
func FromHTML(html string) (string, error) {
	text, err := html2text.FromString(html, html2text.Options{
		OmitLinks: false,
	})
	if err != nil {
		return "", err
	}
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text), nil
}
