// Package schema implements declarative, per-collection document validation.
//
// A Schema is a table of field rules shared by two named validation profiles:
// ProfileForm applies every rule strictly (used before saving user input),
// ProfileAPI keeps required-field rules strict but coerces everything else,
// falling back to the field default on values it cannot make sense of (used on
// data fetched from storage, which may predate the current rules).
package schema

// Profile selects which validation strictness a Validate call applies.
type Profile int

const (
	// ProfileForm validates user-entered form values before persistence.
	ProfileForm Profile = iota
	// ProfileAPI validates documents fetched from storage.
	ProfileAPI
)

func (p Profile) String() string {
	if p == ProfileForm {
		return "form"
	}
	return "api"
}

// Kind enumerates the value types a field rule can describe.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindStringList
	KindTime
	KindFileList
)

// Field is one rule row of a schema.
type Field struct {
	Name string
	Kind Kind

	// Required fields are enforced in both profiles. Optional fields are only
	// enforced in ProfileForm; ProfileAPI coerces them with a fallback.
	Required bool

	// String length bounds. Zero values mean "no bound".
	MinLen, MaxLen int

	// Numeric bounds. Nil means "no bound".
	Min, Max *float64

	// Default seeds the empty document and serves as the ProfileAPI fallback.
	// A nil Default falls back to the unset sentinel.
	Default any
}

// Schema binds a collection name to its field rules.
type Schema struct {
	Collection string
	Fields     []Field
}

// Bound is a convenience constructor for numeric bounds.
func Bound(v float64) *float64 { return &v }

// EmptyDocument returns the default working copy for a new record: every field
// present, seeded with its default or the unset sentinel.
func (s *Schema) EmptyDocument() map[string]any {
	doc := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		doc[f.Name] = f.fallback()
	}
	return doc
}

// Field returns the rule for name, or nil when the schema does not know it.
func (s *Schema) Field(name string) *Field {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

func (f *Field) fallback() any {
	if f.Default != nil {
		return f.Default
	}
	switch f.Kind {
	case KindStringList:
		return []string{}
	case KindFileList:
		return []any{}
	case KindBool:
		return false
	default:
		return Unset
	}
}
