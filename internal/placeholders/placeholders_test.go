package placeholders

import (
	"errors"
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "no placeholders",
			input:    "Summarize the following text.",
			expected: []string{},
		},
		{
			name:     "single placeholder",
			input:    "Translate {{text}} to French",
			expected: []string{"text"},
		},
		{
			name:     "multiple placeholders",
			input:    "Write a {{tone}} email to {{recipient}}",
			expected: []string{"tone", "recipient"},
		},
		{
			name:     "duplicate placeholders",
			input:    "{{name}} and {{name}} again",
			expected: []string{"name"},
		},
		{
			name:     "inner spaces",
			input:    "Hello {{ user_name }}",
			expected: []string{"user_name"},
		},
		{
			name:     "dotted and dashed names",
			input:    "{{input.lang}} {{max-words}}",
			expected: []string{"input.lang", "max-words"},
		},
		{
			name:     "single braces are text",
			input:    "JSON like {name} stays",
			expected: []string{},
		},
		{
			name:     "names cannot start with a digit",
			input:    "{{1st}}",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Extract(tt.input)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("Extract(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		values   map[string]string
		expected string
		missing  []string
	}{
		{
			name:     "all values present",
			input:    "Write a {{tone}} email to {{ recipient }}",
			values:   map[string]string{"tone": "friendly", "recipient": "Sam"},
			expected: "Write a friendly email to Sam",
		},
		{
			name:     "repeated placeholder",
			input:    "{{x}}-{{x}}",
			values:   map[string]string{"x": "1"},
			expected: "1-1",
		},
		{
			name:     "empty value allowed",
			input:    "[{{x}}]",
			values:   map[string]string{"x": ""},
			expected: "[]",
		},
		{
			name:    "missing values",
			input:   "{{a}} {{b}} {{a}} {{c}}",
			values:  map[string]string{"b": "B"},
			missing: []string{"a", "c"},
		},
		{
			name:     "value containing braces is not re-expanded",
			input:    "{{a}}",
			values:   map[string]string{"a": "{{b}}"},
			expected: "{{b}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Substitute(tt.input, tt.values)
			if tt.missing != nil {
				var me *MissingError
				if !errors.As(err, &me) {
					t.Fatalf("Substitute() error = %v, want *MissingError", err)
				}
				if !reflect.DeepEqual(me.Missing(), tt.missing) {
					t.Errorf("Missing() = %v, want %v", me.Missing(), tt.missing)
				}
				return
			}
			if err != nil {
				t.Fatalf("Substitute() error = %v", err)
			}
			if result != tt.expected {
				t.Errorf("Substitute() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestFillLeavesUnknownTokens(t *testing.T) {
	got, missing := Fill("{{a}} {{ b }}", map[string]string{"a": "A"})
	if got != "A {{ b }}" {
		t.Errorf("Fill() = %q", got)
	}
	if !reflect.DeepEqual(missing, []string{"b"}) {
		t.Errorf("missing = %v", missing)
	}
}

func TestMissingErrorMessage(t *testing.T) {
	err := &MissingError{MissingNames: []string{"a", "b"}}
	if err.Error() != "missing placeholders: a, b" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestParseAssignments(t *testing.T) {
	got, err := ParseAssignments([]string{"tone=friendly", "expr=a=b", "empty="})
	if err != nil {
		t.Fatalf("ParseAssignments() error = %v", err)
	}
	want := map[string]string{"tone": "friendly", "expr": "a=b", "empty": ""}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseAssignments() = %v, want %v", got, want)
	}

	for _, bad := range []string{"novalue", "=x", " =x"} {
		if _, err := ParseAssignments([]string{bad}); err == nil {
			t.Errorf("ParseAssignments(%q) = nil error, want error", bad)
		}
	}
}
