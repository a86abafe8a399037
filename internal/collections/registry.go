package collections

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Registry maps collection names to their schemas. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	entries map[Name]Schema
}

// NewRegistry creates a registry from entries. The map and property slices are copied.
func NewRegistry(entries map[Name]Schema) *Registry {
	copied := make(map[Name]Schema, len(entries))
	for name, schema := range entries {
		props := make([]Property, len(schema.Properties))
		copy(props, schema.Properties)
		schema.Properties = props
		copied[name] = schema
	}
	return &Registry{entries: copied}
}

// Lookup returns the schema registered for name.
func (r *Registry) Lookup(name Name) (Schema, bool) {
	schema, ok := r.entries[name]
	if !ok {
		return Schema{}, false
	}
	props := make([]Property, len(schema.Properties))
	copy(props, schema.Properties)
	schema.Properties = props
	return schema, true
}

// Names returns the registered names in no particular order.
func (r *Registry) Names() []Name {
	names := make([]Name, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// Validate checks that every name in names has a well-formed entry.
func (r *Registry) Validate(names []Name) error {
	var errs []error
	for _, name := range names {
		schema, ok := r.entries[name]
		if !ok {
			errs = append(errs, fmt.Errorf("no registry entry for collection: %s", name))
			continue
		}
		if err := validateSchema(schema); err != nil {
			errs = append(errs, fmt.Errorf("collection %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func validateSchema(s Schema) error {
	switch s.Vectorization {
	case ExternallyVectorized:
	case CallerSuppliedVectors:
		if s.Dimensions <= 0 {
			return fmt.Errorf("caller-supplied vectors require positive dimensions, got %d", s.Dimensions)
		}
	default:
		return fmt.Errorf("unknown vectorization %d", s.Vectorization)
	}
	if len(s.Properties) == 0 {
		return errors.New("no properties declared")
	}
	seen := make(map[string]bool, len(s.Properties))
	for _, p := range s.Properties {
		if p.Name == "" {
			return errors.New("property with empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate property %q", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// ShapeOf derives the property shape of record type T from its exported
// fields and their json tags.
func ShapeOf[T any]() ([]Property, error) {
	var zero T
	typ := reflect.TypeOf(zero)
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("record type %v is not a struct", typ)
	}

	shape := make([]Property, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		dt, err := dataTypeOf(field.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		shape = append(shape, Property{Name: name, DataType: dt})
	}
	return shape, nil
}

var timeType = reflect.TypeOf(time.Time{})

func dataTypeOf(t reflect.Type) (DataType, error) {
	if t == timeType {
		return DataTypeDate, nil
	}
	switch t.Kind() {
	case reflect.String:
		return DataTypeText, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return DataTypeInt, nil
	case reflect.Float32, reflect.Float64:
		return DataTypeNumber, nil
	case reflect.Bool:
		return DataTypeBoolean, nil
	default:
		return "", fmt.Errorf("unsupported kind %s", t.Kind())
	}
}
