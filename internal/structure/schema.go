package structure

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kaptinlin/jsonschema"

	"github.com/gcbaptista/prism/internal/errors"
	"github.com/gcbaptista/prism/model"
)

//go:embed outline_schema.json
var outlineSchema []byte

// OutlineValidator checks outlines against the embedded outline schema.
type OutlineValidator struct {
	schema *jsonschema.Schema
}

// NewOutlineValidator compiles the outline schema.
func NewOutlineValidator() (*OutlineValidator, error) {
	schema, err := jsonschema.NewCompiler().Compile(outlineSchema)
	if err != nil {
		return nil, fmt.Errorf("compiling outline schema: %w", err)
	}
	return &OutlineValidator{schema: schema}, nil
}

// Validate returns a *errors.SchemaError when outline does not conform.
func (v *OutlineValidator) Validate(outline model.Outline) error {
	// The validator works on decoded JSON values, not on Go structs.
	raw, err := json.Marshal(outline)
	if err != nil {
		return fmt.Errorf("encoding outline: %w", err)
	}
	var value map[string]any
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("decoding outline: %w", err)
	}

	result := v.schema.Validate(value)
	if result.Valid {
		return nil
	}
	details := make([]string, 0, len(result.Errors))
	for field, e := range result.Errors {
		details = append(details, fmt.Sprintf("%s: %v", field, e))
	}
	sort.Strings(details)
	return errors.NewSchemaError(details)
}
