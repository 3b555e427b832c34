package interfaces

// SchemaRegistry validates documents against named JSON schemas and hands out
// their defaults.
type SchemaRegistry interface {
	// Validate returns nil or an error listing every failing property.
	Validate(id string, data any) error
	Defaults(id string) (any, error)
	DecodeDefaults(id string, out any) error
	FieldsSafePrivate(id string) []string
}
