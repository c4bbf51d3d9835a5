// Package templates implements the placeholder substitution used for
// subject lines and HTML bodies. The syntax is a flat {{key}} replacement
// with no escaping, conditionals or recursion; anything fancier belongs in
// the template files themselves.
package templates

import (
	"fmt"
	"os"
	"strings"
)

// Render replaces every literal {{key}} occurrence in template with the
// corresponding context value. Placeholders without a context entry are
// left verbatim. Render is pure: it never touches the inputs.
func Render(template string, context map[string]string) string {
	if len(context) == 0 {
		return template
	}

	pairs := make([]string, 0, len(context)*2)
	for key, value := range context {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// LoadFile reads a template file as raw text.
func LoadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("templates: load %s: %w", path, err)
	}
	return string(data), nil
}
