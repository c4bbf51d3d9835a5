package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderSubstitutesAllKeys(t *testing.T) {
	template := "Dear {{contact_name}}, greetings from {{sender_name}} ({{today}}) about {{hotel_name}} in {{city}}."
	context := map[string]string{
		"contact_name": "Maria Rossi",
		"hotel_name":   "Hotel Riviera",
		"city":         "Rimini",
		"sender_name":  "Luca Bianchi",
		"today":        "25/08/2026",
	}

	result := Render(template, context)

	for key, value := range context {
		if strings.Contains(result, "{{"+key+"}}") {
			t.Errorf("placeholder {{%s}} left unsubstituted in %q", key, result)
		}
		if !strings.Contains(result, value) {
			t.Errorf("expected rendered output to contain %q", value)
		}
	}
}

func TestRenderEmptyContextIsIdentity(t *testing.T) {
	template := "Hello {{contact_name}}, welcome to {{hotel_name}}."
	if got := Render(template, nil); got != template {
		t.Fatalf("expected identity render, got %q", got)
	}
	if got := Render(template, map[string]string{}); got != template {
		t.Fatalf("expected identity render with empty map, got %q", got)
	}
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	template := "{{known}} and {{unknown}}"
	got := Render(template, map[string]string{"known": "value"})
	if got != "value and {{unknown}}" {
		t.Fatalf("unexpected render result: %q", got)
	}
}

func TestRenderRepeatedPlaceholder(t *testing.T) {
	got := Render("{{city}}, {{city}}!", map[string]string{"city": "Roma"})
	if got != "Roma, Roma!" {
		t.Fatalf("unexpected render result: %q", got)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subject.txt")
	if err := os.WriteFile(path, []byte("Opportunity for {{hotel_name}}"), 0o600); err != nil {
		t.Fatal(err)
	}

	content, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if content != "Opportunity for {{hotel_name}}" {
		t.Fatalf("unexpected template content: %q", content)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.txt")); err == nil {
		t.Fatal("expected error for missing template file")
	}
}
