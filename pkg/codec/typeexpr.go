package codec

import "strings"

// TypeExpr is the parsed form of the registry's type-expression grammar:
//
//	T
//	T | null
//	T | undefined
//	Array<T>
//	{ [key: string]: T }
//
// Expressions are parsed once when a descriptor is registered and interpreted
// recursively during conversion. They are tree-shaped by construction, so no
// cycle detection is needed.
type TypeExpr struct {
	kind exprKind
	name string    // set for named
	elem *TypeExpr // set for nullable/optional/array/map
}

type exprKind uint8

const (
	exprNamed exprKind = iota
	exprNullable
	exprOptional
	exprArray
	exprMap
)

// ParseTypeExpr parses a type expression string. Unrecognized syntax is
// treated as a plain named type, which the codec passes through unchanged.
func ParseTypeExpr(src string) *TypeExpr {
	s := strings.TrimSpace(src)

	if rest, ok := strings.CutSuffix(s, "| undefined"); ok {
		return &TypeExpr{kind: exprOptional, elem: ParseTypeExpr(strings.TrimSpace(rest))}
	}
	if rest, ok := strings.CutSuffix(s, "| null"); ok {
		return &TypeExpr{kind: exprNullable, elem: ParseTypeExpr(strings.TrimSpace(rest))}
	}
	if inner, ok := cutDelimited(s, "Array<", ">"); ok {
		return &TypeExpr{kind: exprArray, elem: ParseTypeExpr(inner)}
	}
	if inner, ok := cutDelimited(s, "{", "}"); ok {
		if rest, ok := strings.CutPrefix(inner, "[key: string]:"); ok {
			return &TypeExpr{kind: exprMap, elem: ParseTypeExpr(rest)}
		}
	}
	return &TypeExpr{kind: exprNamed, name: s}
}

func cutDelimited(s, prefix, suffix string) (string, bool) {
	if strings.HasPrefix(s, prefix) && strings.HasSuffix(s, suffix) {
		return strings.TrimSpace(s[len(prefix) : len(s)-len(suffix)]), true
	}
	return "", false
}

// IsOptional reports whether the top-level modifier is `| undefined`.
// Structural serialization omits optional attributes whose converted value
// is absent instead of emitting an explicit null.
func (e *TypeExpr) IsOptional() bool { return e != nil && e.kind == exprOptional }

// Name returns the named type at the root of the expression after stripping
// nullable/optional modifiers, or "" for array/map expressions. Stripping a
// modifier never changes which descriptor is looked up, only the recursion
// target.
func (e *TypeExpr) Name() string {
	for e != nil {
		switch e.kind {
		case exprNamed:
			return e.name
		case exprNullable, exprOptional:
			e = e.elem
		default:
			return ""
		}
	}
	return ""
}

// String reconstructs the source form, mainly for error messages and logs.
func (e *TypeExpr) String() string {
	switch e.kind {
	case exprNullable:
		return e.elem.String() + " | null"
	case exprOptional:
		return e.elem.String() + " | undefined"
	case exprArray:
		return "Array<" + e.elem.String() + ">"
	case exprMap:
		return "{ [key: string]: " + e.elem.String() + " }"
	default:
		return e.name
	}
}
