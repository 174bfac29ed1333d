package messages

import (
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// replaceCommandSchema describes the envelope of a replace command. The
// document itself is only required to be an object; its fields are free.
const replaceCommandSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["document"],
  "properties": {
    "document": {"type": "object"},
    "source": {"type": "string"},
    "correlation_id": {"type": "string"}
  }
}`

var replaceSchema = jsonschema.MustCompileString("replace_command.schema.json", replaceCommandSchema)

// validateEnvelope checks raw command data against its envelope schema.
func validateEnvelope(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if err := replaceSchema.Validate(v); err != nil {
		return fmt.Errorf("invalid replace command: %w", err)
	}
	return nil
}
