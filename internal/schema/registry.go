// Package schema keeps the JSON schemas accounts are validated against and the
// default documents derived from them.
//
// A Registry is built once at startup and then only read. Validation results
// are returned directly, there is no "last errors" state to query afterwards.
package schema

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"sync"

	"github.com/Joseph14078/JoAuth/internal/interfaces"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/jsonschema-go/jsonschema"
)

// Identifiers of the bundled schemas.
const (
	UserID            = "https://joauth.dev/schema/user.json"
	UserPreRegisterID = "https://joauth.dev/schema/user-pre-register.json"
	PasswordID        = "https://joauth.dev/schema/password.json"
	QueryID           = "https://joauth.dev/schema/query.json"
	UserEditID        = "https://joauth.dev/schema/user-edit.json"
)

// customKeywords are understood by the registry but not by the validator.
var customKeywords = []string{"safePrivate"}

var (
	ErrUnknownSchema   = errors.New("schema: unknown schema")
	ErrDuplicateSchema = errors.New("schema: already registered")
)

//go:embed schemas/*.json
var embedded embed.FS

// Embedded returns the schemas shipped with the module.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "schemas")
	if err != nil {
		panic(err)
	}
	return sub
}

// document is the part of a schema the registry reads itself.
type document struct {
	ID                   string                     `json:"$id"`
	Properties           map[string]json.RawMessage `json:"properties"`
	Required             []string                   `json:"required"`
	AdditionalProperties json.RawMessage            `json:"additionalProperties"`
	Default              json.RawMessage            `json:"default"`
	SafePrivate          []string                   `json:"safePrivate"`
}

type entry struct {
	doc        document
	resolved   *jsonschema.Resolved
	properties map[string]*jsonschema.Resolved
	order      []string
	required   map[string]bool
	closed     bool
}

// Registry holds compiled schemas keyed by their $id.
type Registry struct {
	mu       sync.RWMutex
	schemas  map[string]*entry
	defaults map[string]any
	initDone bool
	logger   interfaces.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger interfaces.Logger) *Registry {
	return &Registry{
		schemas:  make(map[string]*entry),
		defaults: make(map[string]any),
		logger:   logger,
	}
}

// Init loads every *.json document of fsys. Calling it again after a
// successful load does nothing.
func (r *Registry) Init(fsys fs.FS) error {
	r.mu.RLock()
	done := r.initDone
	r.mu.RUnlock()
	if done {
		return nil
	}

	names, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return fmt.Errorf("schema: listing schemas: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("schema: reading %s: %w", name, err)
		}
		if err := r.AddSchema(raw); err != nil {
			return fmt.Errorf("schema: loading %s: %w", path.Base(name), err)
		}
	}

	r.mu.Lock()
	r.initDone = true
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Info("Schemas loaded", "count", len(names))
	}
	return nil
}

// AddSchema compiles raw, registers it under its $id and computes its
// defaults.
func (r *Registry) AddSchema(raw []byte) error {
	e, err := compile(raw)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schemas[e.doc.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSchema, e.doc.ID)
	}
	r.schemas[e.doc.ID] = e
	r.defaults[e.doc.ID] = deriveDefaults(e.doc)
	return nil
}

// Defaults returns a fresh copy of the default document of schema id.
func (r *Registry) Defaults(id string) (any, error) {
	r.mu.RLock()
	val, cached := r.defaults[id]
	e, known := r.schemas[id]
	r.mu.RUnlock()

	if !known {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, id)
	}
	if !cached {
		val = deriveDefaults(e.doc)
		r.mu.Lock()
		r.defaults[id] = val
		r.mu.Unlock()
	}
	return deepCopy(val), nil
}

// DecodeDefaults decodes the defaults of schema id into out, a pointer to a
// struct with mapstructure tags.
func (r *Registry) DecodeDefaults(id string, out any) error {
	defaults, err := r.Defaults(id)
	if err != nil {
		return err
	}
	if defaults == nil {
		return nil
	}
	if err := mapstructure.Decode(defaults, out); err != nil {
		return fmt.Errorf("schema: decoding defaults of %s: %w", id, err)
	}
	return nil
}

// FieldsSafePrivate lists the fields of schema id that may be shown to the
// owner of the data.
func (r *Registry) FieldsSafePrivate(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.schemas[id]
	if !ok {
		return nil
	}
	return append([]string(nil), e.doc.SafePrivate...)
}

// Has reports whether schema id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.schemas[id]
	return ok
}

// Validate checks data against schema id and returns a *ValidationError
// listing every problem found, or nil.
//
// When the schema forbids additional properties and data is a
// map[string]any, undeclared keys are deleted from data in place.
func (r *Registry) Validate(id string, data any) error {
	r.mu.RLock()
	e, ok := r.schemas[id]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSchema, id)
	}

	if m, isMap := data.(map[string]any); isMap && e.closed {
		e.strip(m)
	}

	instance, err := toInstance(data)
	if err != nil {
		return &ValidationError{SchemaID: id, Causes: []Cause{{Message: err.Error()}}}
	}

	var causes []Cause
	obj, isObject := instance.(map[string]any)
	if isObject {
		if e.closed {
			e.strip(obj)
		}
		for _, name := range e.order {
			value, present := obj[name]
			if !present {
				if e.required[name] {
					causes = append(causes, Cause{Property: name, Message: "required property is missing"})
				}
				continue
			}
			if err := e.properties[name].Validate(value); err != nil {
				causes = append(causes, Cause{Property: name, Message: err.Error()})
			}
		}
	}

	if err := e.resolved.Validate(instance); err != nil && len(causes) == 0 {
		causes = append(causes, Cause{Message: err.Error()})
	}

	if len(causes) > 0 {
		return &ValidationError{SchemaID: id, Causes: causes}
	}
	return nil
}

func (e *entry) strip(m map[string]any) {
	for key := range m {
		if _, declared := e.doc.Properties[key]; !declared {
			delete(m, key)
		}
	}
}

func compile(raw []byte) (*entry, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("schema: invalid JSON: %w", err)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("schema: missing $id")
	}

	resolved, err := resolve(raw, doc.ID)
	if err != nil {
		return nil, err
	}

	e := &entry{
		doc:        doc,
		resolved:   resolved,
		properties: make(map[string]*jsonschema.Resolved, len(doc.Properties)),
		required:   make(map[string]bool, len(doc.Required)),
		closed:     string(doc.AdditionalProperties) == "false",
	}
	for _, name := range doc.Required {
		e.required[name] = true
	}
	for name, prop := range doc.Properties {
		propResolved, err := resolve(prop, doc.ID+"/properties/"+name)
		if err != nil {
			return nil, fmt.Errorf("schema: property %s of %s: %w", name, doc.ID, err)
		}
		e.properties[name] = propResolved
		e.order = append(e.order, name)
	}
	sort.Strings(e.order)
	return e, nil
}

// resolve compiles a schema document after removing the registry's own
// keywords. The document gets id as its base URI.
func resolve(raw []byte, id string) (*jsonschema.Resolved, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("schema: invalid JSON: %w", err)
	}
	for _, keyword := range customKeywords {
		delete(fields, keyword)
	}
	delete(fields, "$id")
	clean, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	var s jsonschema.Schema
	if err := json.Unmarshal(clean, &s); err != nil {
		return nil, fmt.Errorf("schema: parsing %s: %w", id, err)
	}
	s.ID = id
	resolved, err := s.Resolve(&jsonschema.ResolveOptions{BaseURI: id})
	if err != nil {
		return nil, fmt.Errorf("schema: resolving %s: %w", id, err)
	}
	return resolved, nil
}

// toInstance converts Go values into the generic JSON shapes the validator
// works on.
func toInstance(data any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("schema: value is not JSON encodable: %w", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, err
	}
	return instance, nil
}
