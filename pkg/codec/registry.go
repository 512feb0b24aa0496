// Package codec converts between wire-format JSON values and typed domain
// objects using a static type-descriptor registry, without reflection.
//
// The registry is populated once at startup (the API client does this from
// its generated descriptor table) and is immutable afterward, so a single
// Registry may be shared by arbitrarily many goroutines.
package codec

import (
	"fmt"
	"strings"
)

// DateType is the literal type name given date-formatted values.
const DateType = "Date"

// primitives is the fixed set of wire primitives, passed through unchanged
// in both directions. Matching is case-insensitive.
var primitives = map[string]struct{}{
	"string":  {},
	"boolean": {},
	"double":  {},
	"integer": {},
	"long":    {},
	"float":   {},
	"number":  {},
	"any":     {},
}

// Attribute describes one property of a structural type.
//
// Get and Set bridge the codec to concrete instances without reflection; the
// generated descriptor table supplies closures that cast the instance to its
// concrete type. Get must return nil for absent values. For array- and
// map-typed attributes the closures exchange []any / map[string]any with the
// codec and convert to the concrete element type themselves.
type Attribute struct {
	WireName string
	Name     string
	Type     string
	Format   string
	Get      func(instance any) any
	Set      func(instance any, value any)

	expr *TypeExpr
}

// TypeDescriptor describes one structural type: its attributes, an optional
// discriminator property, and a factory constructing a default instance.
// A nil Factory makes the codec materialize instances as map[string]any
// keyed by property name.
type TypeDescriptor struct {
	Name             string
	Discriminator    string
	DiscriminatorMap map[string]string
	Factory          func() any
	Attributes       []Attribute
}

// Registry holds descriptors and enum names. Register everything before
// first use; the conversion paths take no locks.
type Registry struct {
	types map[string]*TypeDescriptor
	enums map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]*TypeDescriptor),
		enums: make(map[string]struct{}),
	}
}

// RegisterType adds a structural type descriptor. Attribute type expressions
// are parsed here, once, rather than on every conversion.
func (r *Registry) RegisterType(desc TypeDescriptor) error {
	if strings.TrimSpace(desc.Name) == "" {
		return fmt.Errorf("type descriptor requires a name")
	}
	if _, exists := r.types[desc.Name]; exists {
		return fmt.Errorf("type %s already registered", desc.Name)
	}
	d := desc
	d.Attributes = make([]Attribute, len(desc.Attributes))
	copy(d.Attributes, desc.Attributes)
	for i := range d.Attributes {
		a := &d.Attributes[i]
		if a.WireName == "" {
			a.WireName = a.Name
		}
		if a.Name == "" {
			a.Name = a.WireName
		}
		a.expr = ParseTypeExpr(a.Type)
	}
	r.types[d.Name] = &d
	return nil
}

// MustRegisterType is RegisterType for static descriptor tables.
func (r *Registry) MustRegisterType(desc TypeDescriptor) {
	if err := r.RegisterType(desc); err != nil {
		panic(err)
	}
}

// RegisterEnum marks names as enum types, encoded as their underlying
// primitive with no conversion.
func (r *Registry) RegisterEnum(names ...string) {
	for _, name := range names {
		r.enums[name] = struct{}{}
	}
}

// Type looks up a registered descriptor.
func (r *Registry) Type(name string) (*TypeDescriptor, bool) {
	d, ok := r.types[name]
	return d, ok
}

// IsEnum reports whether name is a registered enum type.
func (r *Registry) IsEnum(name string) bool {
	_, ok := r.enums[name]
	return ok
}

// IsPrimitive reports whether name is a wire primitive.
func IsPrimitive(name string) bool {
	_, ok := primitives[strings.ToLower(name)]
	return ok
}
