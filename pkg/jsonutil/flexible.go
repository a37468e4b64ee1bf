package jsonutil

import (
	"bytes"
	"encoding/json"
)

// FlexibleJSONText returns the JSON document carried by raw, handling callers
// that send the document either as an encoded string or inline.
// A JSON string yields its contents, an object or array yields its raw text,
// and anything else (null, empty, number, boolean) yields def.
func FlexibleJSONText(raw json.RawMessage, def string) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return def
	}

	switch trimmed[0] {
	case '"':
		var strVal string
		if err := json.Unmarshal(trimmed, &strVal); err == nil {
			return strVal
		}
		return def
	case '{', '[':
		return string(trimmed)
	}
	return def
}

// FlexibleBool returns the boolean carried by raw, or def when raw is empty,
// null or not a JSON boolean.
func FlexibleBool(raw json.RawMessage, def bool) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "true":
		return true
	case "false":
		return false
	}
	return def
}
