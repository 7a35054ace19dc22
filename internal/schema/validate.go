package schema

import (
	"fmt"
	"strconv"
	"time"
)

// Validate checks doc against the schema under the given profile and returns
// the cleaned working copy. On failure the returned FieldErrors lists every
// failing field path; the document is never partially usable in that case.
//
// Keys the schema does not know are dropped. Fields absent from doc come back
// as their default (or the unset sentinel), so the result always has one entry
// per schema field.
func (s *Schema) Validate(profile Profile, doc map[string]any) (map[string]any, FieldErrors) {
	out := make(map[string]any, len(s.Fields))
	errs := FieldErrors{}

	for i := range s.Fields {
		f := &s.Fields[i]
		raw, present := doc[f.Name]
		if !present || raw == nil || IsUnset(raw) {
			if f.Required {
				errs[f.Name] = "value is required"
				continue
			}
			out[f.Name] = f.fallback()
			continue
		}

		value, msg := f.coerce(raw)
		if msg == "" {
			msg = f.checkBounds(value)
		}
		if msg == "" {
			out[f.Name] = value
			continue
		}

		// ProfileAPI tolerates broken optional values: fall back instead of
		// rejecting a document the user could otherwise still edit.
		if profile == ProfileAPI && !f.Required {
			out[f.Name] = f.fallback()
			continue
		}
		errs[f.Name] = msg
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// coerce converts raw into the field's canonical Go representation.
// It returns an empty message on success.
func (f *Field) coerce(raw any) (any, string) {
	switch f.Kind {
	case KindString:
		if s, ok := raw.(string); ok {
			return s, ""
		}
		return nil, "must be a string"

	case KindInt:
		switch v := raw.(type) {
		case int:
			return int64(v), ""
		case int32:
			return int64(v), ""
		case int64:
			return v, ""
		case float64:
			if v != float64(int64(v)) {
				return nil, "must be a whole number"
			}
			return int64(v), ""
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, "must be a whole number"
			}
			return n, ""
		}
		return nil, "must be a whole number"

	case KindFloat:
		switch v := raw.(type) {
		case int:
			return float64(v), ""
		case int64:
			return float64(v), ""
		case float64:
			return v, ""
		case string:
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, "must be a number"
			}
			return n, ""
		}
		return nil, "must be a number"

	case KindBool:
		if b, ok := raw.(bool); ok {
			return b, ""
		}
		return nil, "must be a boolean"

	case KindStringList:
		return coerceStringList(raw)

	case KindTime:
		return coerceTime(raw)

	case KindFileList:
		return coerceFileList(raw)
	}
	return nil, "unsupported field kind"
}

func (f *Field) checkBounds(value any) string {
	switch v := value.(type) {
	case string:
		if f.MinLen > 0 && len(v) < f.MinLen {
			return fmt.Sprintf("must be at least %d characters", f.MinLen)
		}
		if f.MaxLen > 0 && len(v) > f.MaxLen {
			return fmt.Sprintf("must be at most %d characters", f.MaxLen)
		}
	case int64:
		if f.Min != nil && float64(v) < *f.Min {
			return fmt.Sprintf("must be at least %v", *f.Min)
		}
		if f.Max != nil && float64(v) > *f.Max {
			return fmt.Sprintf("must be at most %v", *f.Max)
		}
	case float64:
		if f.Min != nil && v < *f.Min {
			return fmt.Sprintf("must be at least %v", *f.Min)
		}
		if f.Max != nil && v > *f.Max {
			return fmt.Sprintf("must be at most %v", *f.Max)
		}
	}
	return ""
}

func coerceStringList(raw any) (any, string) {
	switch v := raw.(type) {
	case []string:
		return append([]string{}, v...), ""
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, "must be a list of strings"
			}
			out = append(out, s)
		}
		return out, ""
	}
	return nil, "must be a list of strings"
}

// coerceTime accepts the shapes a stored document can legitimately carry:
// a time.Time, an RFC 3339 (or date-only) string, epoch seconds, or a
// serialized timestamp object with "seconds"/"nanoseconds" keys.
func coerceTime(raw any) (any, string) {
	switch v := raw.(type) {
	case time.Time:
		return v, ""
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, ""
		}
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t, ""
		}
		return nil, "must be a valid time"
	case float64:
		return time.Unix(int64(v), 0).UTC(), ""
	case int64:
		return time.Unix(v, 0).UTC(), ""
	case map[string]any:
		secs, ok := v["seconds"].(float64)
		if !ok {
			return nil, "must be a valid time"
		}
		nanos, _ := v["nanoseconds"].(float64)
		return time.Unix(int64(secs), int64(nanos)).UTC(), ""
	}
	return nil, "must be a valid time"
}

func coerceFileList(raw any) (any, string) {
	items, ok := raw.([]any)
	if !ok {
		return nil, "must be a list of file entries"
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, "must be a list of file entries"
		}
		if url, _ := entry["url"].(string); url == "" {
			return nil, "file entry is missing its URL"
		}
		if name, _ := entry["origName"].(string); name == "" {
			return nil, "file entry is missing its original name"
		}
		out = append(out, entry)
	}
	return out, ""
}
