package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError carries every schema violation found in a document.
type ValidationError struct {
	Schema string
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("document does not conform to %s schema: %s", e.Schema, strings.Join(e.Issues, "; "))
}

// Validate checks doc against the given JSON schema. schemaName only labels
// the error.
func Validate(schemaName, schemaJSON string, doc []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	documentLoader := gojsonschema.NewBytesLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", schemaName, err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return &ValidationError{Schema: schemaName, Issues: issues}
	}
	return nil
}

// DecodeValidated validates doc against the schema and unmarshals it into out
// in one step.
func DecodeValidated(schemaName, schemaJSON string, doc []byte, out any) error {
	if err := Validate(schemaName, schemaJSON, doc); err != nil {
		return err
	}
	if err := json.Unmarshal(doc, out); err != nil {
		return fmt.Errorf("failed to decode %s document: %w", schemaName, err)
	}
	return nil
}
