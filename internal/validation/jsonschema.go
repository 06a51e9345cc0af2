// Package validation checks request documents against JSON Schemas.
package validation

import (
	"embed"
	"fmt"
	"strings"

	"github.com/cuihairu/faultline/internal/errs"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// maxReported caps how many schema violations end up in one error message.
const maxReported = 5

type Schema struct {
	name string
	s    *gojsonschema.Schema
}

// Compile parses a schema document.
func Compile(name string, doc []byte) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, s: s}, nil
}

// Builtin returns one of the embedded schemas, e.g. "fault_create".
func Builtin(name string) (*Schema, error) {
	doc, err := schemaFS.ReadFile("schemas/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	return Compile(name, doc)
}

// MustBuiltin is Builtin for package-level vars.
func MustBuiltin(name string) *Schema {
	s, err := Builtin(name)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate reports violations as a validation error.
func (s *Schema) Validate(doc []byte) error {
	if len(strings.TrimSpace(string(doc))) == 0 {
		doc = []byte("{}")
	}
	res, err := s.s.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return errs.Validation("invalid JSON body: %v", err)
	}
	if res.Valid() {
		return nil
	}
	var msgs []string
	for i, e := range res.Errors() {
		if i >= maxReported {
			break
		}
		msgs = append(msgs, e.String())
	}
	return errs.Validation("%s", strings.Join(msgs, "; "))
}
