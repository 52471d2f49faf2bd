// internal/common/validation/schema.go
package validation

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError describes a single schema violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result reports the outcome of a schema validation pass.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidateJSON validates a decoded job payload against a JSON schema document.
// The document is re-marshalled so struct inputs and raw maps are both accepted.
func ValidateJSON(document interface{}, schemaJSON string) (*Result, error) {
	docBytes, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document for validation: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	documentLoader := gojsonschema.NewBytesLoader(docBytes)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}

	out := &Result{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return out, nil
}

// GetErrorMessages returns a simple list of error messages
func (r *Result) GetErrorMessages() []string {
	messages := make([]string, len(r.Errors))
	for i, err := range r.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for a specific field
func (r *Result) HasErrors(field string) bool {
	for _, err := range r.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}
