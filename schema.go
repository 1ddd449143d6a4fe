package calcdoc

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

var errNilSchema = errors.New("schema reflection returned nil")

// blockSchema is the reflected wire schema of toolBlock and its validator.
type blockSchema struct {
	raw      []byte
	resolved *jsonschema.Resolved
}

var toolBlockSchema = sync.OnceValues(reflectBlockSchema[toolBlock])

// reflectBlockSchema builds the JSON Schema of T, annotated from the description and
// enum struct tags. Unknown keys are tolerated everywhere: tool blocks in the wild
// carry extra metadata (descriptions, translations) that the compiler ignores.
func reflectBlockSchema[T any]() (*blockSchema, error) {
	s, err := jsonschema.For[T](&jsonschema.ForOptions{})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errNilSchema
	}
	doc, err := toMap(s)
	if err != nil {
		return nil, err
	}

	annotate(doc, reflect.TypeFor[T]())
	eachNode(doc, func(n map[string]any) {
		if _, isObject := n["properties"]; isObject {
			delete(n, "additionalProperties")
		}
		// A string "id" is a schema identifier; a property named id is a map.
		if _, ok := n["id"].(string); ok {
			delete(n, "id")
		}
		delete(n, "$id")
	})

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var final jsonschema.Schema
	if err := json.Unmarshal(raw, &final); err != nil {
		return nil, err
	}
	resolved, err := final.Resolve(nil)
	if err != nil {
		return nil, err
	}
	return &blockSchema{raw: raw, resolved: resolved}, nil
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	err = json.Unmarshal(data, &m)
	return m, err
}

// annotate copies description and enum tags of typ onto the matching properties of
// node, following pointers, slices ("items") and nested structs.
func annotate(node map[string]any, typ reflect.Type) {
	for typ != nil && (typ.Kind() == reflect.Pointer || typ.Kind() == reflect.Slice || typ.Kind() == reflect.Array) {
		if typ.Kind() != reflect.Pointer {
			node, _ = node["items"].(map[string]any)
		}
		typ = typ.Elem()
	}
	if node == nil || typ == nil || typ.Kind() != reflect.Struct {
		return
	}
	props, _ := node["properties"].(map[string]any)
	for field := range typ.Fields() {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		prop, ok := props[name].(map[string]any)
		if name == "" || name == "-" || !ok {
			continue
		}
		if d := field.Tag.Get("description"); d != "" {
			prop["description"] = d
		}
		if e := field.Tag.Get("enum"); e != "" {
			var values []any
			for v := range strings.SplitSeq(e, ",") {
				values = append(values, strings.TrimSpace(v))
			}
			prop["enum"] = values
		}
		annotate(prop, field.Type)
	}
}

// eachNode calls visit for every object node of a schema document, $defs included.
func eachNode(node map[string]any, visit func(map[string]any)) {
	if node == nil {
		return
	}
	visit(node)
	for _, child := range node {
		switch c := child.(type) {
		case map[string]any:
			eachNode(c, visit)
		case []any:
			for _, item := range c {
				if m, ok := item.(map[string]any); ok {
					eachNode(m, visit)
				}
			}
		}
	}
}

// ToolSchemaJSONSchema returns the JSON Schema of an embedded tool definition.
// Each call returns a fresh copy.
func ToolSchemaJSONSchema() (map[string]any, error) {
	bs, err := toolBlockSchema()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(bs.raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
