package llm

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateJSONSchema reflects a JSON schema from the given output
// struct. Bounds declared with jsonschema tags (e.g. minimum/maximum)
// carry into the schema, so providers that honor response_format
// reject out-of-range values before we ever see them.
func GenerateJSONSchema(v any) (json.RawMessage, error) {
	reflector := jsonschema.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	schema := reflector.Reflect(v)
	return json.Marshal(schema)
}
