package codec

import "time"

// isoInstant is the wire layout for dates without a "date" format: a UTC
// ISO-8601 instant with millisecond precision.
const isoInstant = "2006-01-02T15:04:05.000Z"

// dateOnly is the wire layout when an attribute carries format "date".
// It renders the value's own calendar fields, zero-padded.
const dateOnly = "2006-01-02"

// wireDateLayouts are tried in order when reading a date off the wire.
var wireDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	isoInstant,
	dateOnly,
}

// ResolveConcreteType resolves the concrete type a polymorphic value
// represents. Resolution redirects at most once: a discriminator value
// either maps to a concrete name, names a registered type itself, or the
// declared name is kept. Unknown declared names, primitives, enums and
// absent values all resolve to the declared name unchanged.
func (r *Registry) ResolveConcreteType(value any, declared string) string {
	if value == nil {
		return declared
	}
	if IsPrimitive(declared) || declared == DateType {
		return declared
	}
	if r.IsEnum(declared) {
		return declared
	}
	desc, ok := r.types[declared]
	if !ok || desc.Discriminator == "" {
		return declared
	}

	dv, _ := r.discriminatorValue(value, desc)
	if dv == "" {
		return declared
	}
	if mapped, ok := desc.DiscriminatorMap[dv]; ok {
		return mapped
	}
	if _, ok := r.types[dv]; ok {
		return dv
	}
	return declared
}

// discriminatorValue reads the discriminator property off either a wire map
// or a typed instance.
func (r *Registry) discriminatorValue(value any, desc *TypeDescriptor) (string, bool) {
	if m, ok := value.(map[string]any); ok {
		for _, key := range []string{desc.Discriminator, wireNameFor(desc, desc.Discriminator)} {
			if raw, ok := m[key]; ok {
				if s, ok := raw.(string); ok {
					return s, true
				}
			}
		}
		return "", false
	}
	for i := range desc.Attributes {
		a := &desc.Attributes[i]
		if a.Name != desc.Discriminator {
			continue
		}
		if a.Get == nil {
			return "", false
		}
		if s, ok := a.Get(value).(string); ok {
			return s, true
		}
	}
	return "", false
}

func wireNameFor(desc *TypeDescriptor, property string) string {
	for i := range desc.Attributes {
		if desc.Attributes[i].Name == property {
			return desc.Attributes[i].WireName
		}
	}
	return property
}

// ToWire converts a typed value to a JSON-compatible plain value under the
// given type expression. It never fails: unknown types and structurally
// unexpected values pass through unchanged.
func (r *Registry) ToWire(value any, typeExpr, format string) any {
	return r.toWire(value, ParseTypeExpr(typeExpr), format)
}

func (r *Registry) toWire(value any, expr *TypeExpr, format string) any {
	if value == nil {
		return nil
	}

	switch expr.kind {
	case exprNullable, exprOptional:
		return r.toWire(value, expr.elem, format)
	case exprArray:
		items, ok := value.([]any)
		if !ok {
			return value
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = r.toWire(item, expr.elem, format)
		}
		return out
	case exprMap:
		entries, ok := value.(map[string]any)
		if !ok {
			return value
		}
		out := make(map[string]any, len(entries))
		for key, item := range entries {
			out[key] = r.toWire(item, expr.elem, format)
		}
		return out
	}

	name := expr.name
	if IsPrimitive(name) {
		return value
	}
	if name == DateType {
		return dateToWire(value, format)
	}
	if r.IsEnum(name) {
		return value
	}

	resolved := r.ResolveConcreteType(value, name)
	desc, ok := r.types[resolved]
	if !ok {
		// Unregistered (or discriminator-mapped but unknown) type: pass
		// the value through for forward compatibility.
		return value
	}

	out := make(map[string]any, len(desc.Attributes))
	for i := range desc.Attributes {
		attr := &desc.Attributes[i]
		converted := r.toWire(attributeValue(value, attr), attr.expr, attr.Format)
		if converted == nil && attr.expr.IsOptional() {
			continue
		}
		out[attr.WireName] = converted
	}
	return out
}

// attributeValue reads an attribute off either a typed instance or a plain
// property-name-keyed map.
func attributeValue(instance any, attr *Attribute) any {
	if m, ok := instance.(map[string]any); ok {
		return m[attr.Name]
	}
	if attr.Get == nil {
		return nil
	}
	return attr.Get(instance)
}

// FromWire converts a wire value back into a typed value under the given
// type expression. Unknown attributes are ignored, missing attributes are
// skipped so factory defaults survive, and unknown types pass through.
func (r *Registry) FromWire(wire any, typeExpr, format string) any {
	return r.fromWire(wire, ParseTypeExpr(typeExpr), format)
}

func (r *Registry) fromWire(wire any, expr *TypeExpr, format string) any {
	switch expr.kind {
	case exprNullable, exprOptional:
		return r.fromWire(wire, expr.elem, format)
	case exprArray:
		if wire == nil {
			return nil
		}
		items, ok := wire.([]any)
		if !ok {
			return wire
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = r.fromWire(item, expr.elem, format)
		}
		return out
	case exprMap:
		if wire == nil {
			return nil
		}
		entries, ok := wire.(map[string]any)
		if !ok {
			return wire
		}
		out := make(map[string]any, len(entries))
		for key, item := range entries {
			out[key] = r.fromWire(item, expr.elem, format)
		}
		return out
	}

	// Concrete-type resolution runs before the absence check; the write
	// path checks absence first. The asymmetry is part of the codec's
	// contract and is covered by tests.
	resolved := r.ResolveConcreteType(wire, expr.name)

	if wire == nil {
		return nil
	}
	if IsPrimitive(resolved) {
		return wire
	}
	if resolved == DateType {
		return dateFromWire(wire)
	}
	if r.IsEnum(resolved) {
		return wire
	}

	desc, ok := r.types[resolved]
	if !ok {
		return wire
	}
	payload, ok := wire.(map[string]any)
	if !ok {
		return wire
	}

	var instance any
	if desc.Factory != nil {
		instance = desc.Factory()
	} else {
		instance = make(map[string]any, len(desc.Attributes))
	}
	for i := range desc.Attributes {
		attr := &desc.Attributes[i]
		raw, present := payload[attr.WireName]
		if !present {
			continue
		}
		converted := r.fromWire(raw, attr.expr, attr.Format)
		if converted == nil {
			// Sparse payloads never stamp an absent value over a
			// factory default.
			continue
		}
		assignAttribute(instance, attr, converted)
	}
	return instance
}

func assignAttribute(instance any, attr *Attribute, value any) {
	if m, ok := instance.(map[string]any); ok {
		m[attr.Name] = value
		return
	}
	if attr.Set != nil {
		attr.Set(instance, value)
	}
}

func dateToWire(value any, format string) any {
	t, ok := value.(time.Time)
	if !ok {
		return value
	}
	if format == "date" {
		return t.Format(dateOnly)
	}
	return t.UTC().Format(isoInstant)
}

// dateFromWire accepts any layout the instant parser recognizes; there is no
// format-specific branch on read. Unparseable values pass through unchanged.
func dateFromWire(wire any) any {
	switch v := wire.(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range wireDateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
		return v
	default:
		return wire
	}
}
