// Package schema checks decoded documents against JSON schemas.
package schema

import (
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

// rootField is how gojsonschema names the document root.
const rootField = "(root)"

type Schema struct {
	compiled *gojsonschema.Schema
}

// Compile parses a JSON schema document once so it can validate many
// documents.
func Compile(schemaJSON []byte) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// Validate returns one sorted message per violation, prefixed with the
// offending field. The error is reserved for documents that cannot be
// loaded at all.
func (s *Schema) Validate(doc any) ([]string, error) {
	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		if field := e.Field(); field != "" && field != rootField {
			problems = append(problems, field+": "+e.Description())
			continue
		}
		problems = append(problems, e.Description())
	}
	sort.Strings(problems)
	return problems, nil
}
