// Package secrets resolves credentials that may be mounted as files.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source is an inline value and an optional file. The file wins when set.
type Source struct {
	Name  string
	Value string
	File  string
}

// Load returns the trimmed secret. A missing secret is an error; callers that
// treat the credential as optional should check Source first.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from %q: %w", name, file, err)
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			return v, nil
		}
		return "", fmt.Errorf("%s file %q is empty", name, file)
	}

	if v := strings.TrimSpace(src.Value); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s is not configured", name)
}

// Optional is Load for credentials whose absence disables a feature. It only
// fails when a configured file cannot be read.
func Optional(src Source) (string, error) {
	if strings.TrimSpace(src.File) == "" && strings.TrimSpace(src.Value) == "" {
		return "", nil
	}
	return Load(src)
}
