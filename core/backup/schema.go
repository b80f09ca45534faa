package backup

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/record.schema.json
var recordSchemaJSON []byte

const recordSchemaURL = "record.schema.json"

var recordSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(recordSchemaJSON))
	if err != nil {
		panic(fmt.Sprintf("parse embedded record schema: %v", err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(recordSchemaURL, doc); err != nil {
		panic(fmt.Sprintf("add embedded record schema: %v", err))
	}
	sch, err := c.Compile(recordSchemaURL)
	if err != nil {
		panic(fmt.Sprintf("compile embedded record schema: %v", err))
	}
	return sch
}

// validateRecord checks raw record bytes against the embedded JSON Schema.
func validateRecord(data []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse record: %w", err)
	}
	if err := recordSchema.Validate(inst); err != nil {
		return fmt.Errorf("validate record: %w", err)
	}
	return nil
}
