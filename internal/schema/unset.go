package schema

// unsetValue is the type of the Unset sentinel. A distinct type keeps it from
// colliding with any value a caller could store legitimately.
type unsetValue struct{}

// Unset marks a field that carries no value. The pre-save cleanup drops such
// fields entirely; the backing store rejects them otherwise.
var Unset = unsetValue{}

// IsUnset reports whether v is the unset sentinel.
func IsUnset(v any) bool {
	_, ok := v.(unsetValue)
	return ok
}

// CleanDocument returns a copy of doc without unset-sentinel fields and
// without the top-level "id" field (the store owns document IDs). Nested maps
// are cleaned of unset values recursively.
func CleanDocument(doc map[string]any) map[string]any {
	out := cleanMap(doc)
	delete(out, "id")
	return out
}

func cleanMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		if IsUnset(value) {
			continue
		}
		if nested, ok := value.(map[string]any); ok {
			out[key] = cleanMap(nested)
			continue
		}
		out[key] = value
	}
	return out
}
