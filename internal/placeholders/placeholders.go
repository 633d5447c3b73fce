// Package placeholders finds and fills {{name}} variables in prompt content.
package placeholders

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// placeholderRegex matches {{name}} tokens, tolerating inner spaces.
	placeholderRegex = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_.-]*)\s*\}\}`)
)

// Extract extracts all unique placeholders from a string, in order of first use.
func Extract(s string) []string {
	matches := placeholderRegex.FindAllStringSubmatch(s, -1)
	seen := make(map[string]bool)
	result := []string{}

	for _, m := range matches {
		name := m[1]
		if !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}

	return result
}

// Substitute replaces placeholders with values.
// Returns a *MissingError naming every placeholder without a value.
func Substitute(s string, values map[string]string) (string, error) {
	result, missing := Fill(s, values)
	if len(missing) > 0 {
		return "", &MissingError{MissingNames: missing}
	}
	return result, nil
}

// Fill replaces the placeholders that have values and leaves the rest as
// written. It returns the unique names that stayed unfilled.
func Fill(s string, values map[string]string) (string, []string) {
	seen := make(map[string]bool)
	missing := []string{}

	result := placeholderRegex.ReplaceAllStringFunc(s, func(token string) string {
		name := placeholderRegex.FindStringSubmatch(token)[1]
		if value, ok := values[name]; ok {
			return value
		}
		if !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
		return token
	})

	return result, missing
}

// ParseAssignments turns ["name=value", ...] into a map. The first '='
// separates name from value; values may be empty.
func ParseAssignments(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q: want name=value", pair)
		}
		values[name] = value
	}
	return values, nil
}

// MissingError is returned when placeholders are missing values.
type MissingError struct {
	MissingNames []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing placeholders: %s", strings.Join(e.MissingNames, ", "))
}

// Missing returns the list of missing placeholder names.
func (e *MissingError) Missing() []string {
	return e.MissingNames
}
