package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

const schemaResource = "schema.json"

// SchemaValidator checks JSON candidates against a JSON Schema locally.
type SchemaValidator struct {
	schema *jsonschema.Schema
}

// NewSchemaValidator compiles the schema document.
func NewSchemaValidator(schema []byte) (*SchemaValidator, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaResource, bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	s, err := c.Compile(schemaResource)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &SchemaValidator{schema: s}, nil
}

// Validate parses candidate as JSON and validates it. Parse errors are failed verdicts.
func (v *SchemaValidator) Validate(ctx context.Context, candidate string) (domain.ValidationOutcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.ValidationOutcome{}, err
	}
	dec := json.NewDecoder(strings.NewReader(candidate))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return domain.ValidationOutcome{ErrorMessage: "invalid JSON: " + err.Error()}, nil
	}
	if dec.More() {
		return domain.ValidationOutcome{ErrorMessage: "invalid JSON: trailing data after document"}, nil
	}

	if err := v.schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return domain.ValidationOutcome{ErrorMessage: ve.Error()}, nil
		}
		return domain.ValidationOutcome{}, err
	}
	return domain.ValidationOutcome{Passed: true}, nil
}
