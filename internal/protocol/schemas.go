package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBase = "https://voxeledit.ai/schemas/"

// Validator checks inbound client messages against the embedded schemas.
// A compiled Validator is safe for concurrent use.
type Validator struct {
	hello *jsonschema.Schema
	cmd   *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020

	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		b, err := schemaFS.ReadFile("schemas/" + e.Name())
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(schemaBase+e.Name(), bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("schema %s: %w", e.Name(), err)
		}
	}

	v := &Validator{}
	if v.hello, err = c.Compile(schemaBase + "hello.schema.json"); err != nil {
		return nil, fmt.Errorf("compile hello: %w", err)
	}
	if v.cmd, err = c.Compile(schemaBase + "cmd.schema.json"); err != nil {
		return nil, fmt.Errorf("compile cmd: %w", err)
	}
	return v, nil
}

func (v *Validator) ValidateHello(raw []byte) error { return validate(v.hello, raw) }
func (v *Validator) ValidateCmd(raw []byte) error { return validate(v.cmd, raw) }

func validate(s *jsonschema.Schema, raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return s.Validate(doc)
}
