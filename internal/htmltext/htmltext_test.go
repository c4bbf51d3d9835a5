package htmltext

import (
	"strings"
	"testing"
)

func TestFromHTMLStripsTags(t *testing.T) {
	html := "<html><body><p>Dear Maria,</p><p>We have an offer for <b>Hotel Riviera</b>.</p></body></html>"

	text, err := FromHTML(html)
	if err != nil {
		t.Fatalf("unexpected conversion error: %v", err)
	}

	if strings.Contains(text, "<") || strings.Contains(text, ">") {
		t.Fatalf("expected no markup in plain text output: %q", text)
	}
	if !strings.Contains(text, "Dear Maria,") {
		t.Fatalf("expected content to survive conversion: %q", text)
	}
}

func TestFromHTMLCollapsesBlankLines(t *testing.T) {
	html := "<p>one</p>\n\n\n<p></p>\n\n<p>two</p>"

	text, err := FromHTML(html)
	if err != nil {
		t.Fatalf("unexpected conversion error: %v", err)
	}

	if strings.Contains(text, "\n\n\n") {
		t.Fatalf("expected blank line runs to collapse: %q", text)
	}
	if strings.HasPrefix(text, "\n") || strings.HasSuffix(text, "\n") {
		t.Fatalf("expected trimmed output: %q", text)
	}
}
