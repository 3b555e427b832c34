package schema

import (
	"fmt"
	"strings"
)

// Cause is one reason a document failed validation. Property is empty when
// the problem concerns the document as a whole.
type Cause struct {
	Property string `json:"property,omitempty"`
	Message  string `json:"message"`
}

// ValidationError lists every cause found while validating a document.
type ValidationError struct {
	SchemaID string
	Causes   []Cause
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Causes))
	for _, c := range e.Causes {
		if c.Property == "" {
			parts = append(parts, c.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", c.Property, c.Message))
	}
	return fmt.Sprintf("schema: %s invalid: %s", e.SchemaID, strings.Join(parts, "; "))
}

// Properties returns the distinct property names with a cause, in order.
func (e *ValidationError) Properties() []string {
	seen := make(map[string]bool, len(e.Causes))
	var out []string
	for _, c := range e.Causes {
		if c.Property == "" || seen[c.Property] {
			continue
		}
		seen[c.Property] = true
		out = append(out, c.Property)
	}
	return out
}
