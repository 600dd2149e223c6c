package index

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Document is a decoded JSON body. Nested objects are addressed with dotted
// paths such as "credits.director".
type Document map[string]any

func decodeDocument(body []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Values returns the leaf values at path, flattening arrays.
func (d Document) Values(path string) []any {
	var current any = map[string]any(d)
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = obj[part]
		if !ok {
			return nil
		}
	}
	return flatten(current, nil)
}

func flatten(v any, dst []any) []any {
	switch val := v.(type) {
	case nil:
		return dst
	case []any:
		for _, item := range val {
			dst = flatten(item, dst)
		}
		return dst
	case map[string]any:
		return dst
	default:
		return append(dst, val)
	}
}

// Texts returns the string form of every leaf value at path.
func (d Document) Texts(path string) []string {
	values := d.Values(path)
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := valueString(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func valueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}
