package calcdoc

import (
	"encoding/json"
	"fmt"
)

// ParseToolSchema decodes an embedded tool definition and returns it normalized.
//
// Layer 1 validates the raw JSON against the generated tool block schema, layer 2
// (ToolSchema.Validate) checks cross-field rules. JSON and validation failures are
// *ParseError; a definition with no id, title or name fails with ErrSchemaIncomplete.
func ParseToolSchema(data []byte) (ToolSchema, error) {
	bs, err := toolBlockSchema()
	if err != nil {
		return ToolSchema{}, fmt.Errorf("tool block schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return ToolSchema{}, wrapJSONParseError(err)
	}
	if err := bs.resolved.Validate(v); err != nil {
		return ToolSchema{}, &ParseError{Reason: err.Error(), Err: err}
	}
	var block toolBlock
	if err := json.Unmarshal(data, &block); err != nil {
		return ToolSchema{}, wrapJSONParseError(err)
	}
	schema, err := block.toSchema().Normalize()
	if err != nil {
		return ToolSchema{}, err
	}
	if err := schema.Validate(); err != nil {
		return ToolSchema{}, err
	}
	return schema, nil
}
