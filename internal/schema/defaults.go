package schema

import "encoding/json"

// deriveDefaults builds the default document of a schema. An explicit
// top-level "default" wins. Otherwise object schemas get a map holding the
// defaults of their properties, and nil is returned when there are none.
func deriveDefaults(doc document) any {
	if len(doc.Default) > 0 {
		var val any
		if err := json.Unmarshal(doc.Default, &val); err == nil {
			return val
		}
	}

	out := make(map[string]any)
	for name, raw := range doc.Properties {
		var prop struct {
			Default json.RawMessage `json:"default"`
		}
		if err := json.Unmarshal(raw, &prop); err != nil || len(prop.Default) == 0 {
			continue
		}
		var val any
		if err := json.Unmarshal(prop.Default, &val); err != nil {
			continue
		}
		out[name] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// deepCopy clones the generic JSON shapes produced by encoding/json.
func deepCopy(val any) any {
	switch v := val.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return v
	}
}
