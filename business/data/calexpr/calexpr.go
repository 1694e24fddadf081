// Package calexpr provides symbolic calendar expressions: references to named market calendars
// (atoms) combined with AllOf ("&") and AnyOf ("|").
//
// An expression is parsed once from its compact infix form, for example "NYK|TKY&LDN", and is
// immutable afterwards. "&" binds tighter than "|", so "NYK|TKY&LDN" is NYK or (TKY and LDN).
// Chains of the same operator are flattened into a single node.
package calexpr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParse is returned for malformed expression strings and invalid calendar names
var ErrParse = errors.New("invalid calendar expression")

// Expr is a calendar expression. The only implementations are Atom, AllOf and AnyOf.
type Expr interface {
	// String returns the infix form of the expression
	String() string
	// Leaves returns the distinct atoms of the expression in order of first appearance
	Leaves() []Atom
	isExpr()
}

// Atom references a single named market calendar such as "TKY"
type Atom string

// AllOf is closed only on dates every member is closed
type AllOf []Expr

// AnyOf is closed on dates at least one member is closed
type AnyOf []Expr

func (Atom) isExpr()  {}
func (AllOf) isExpr() {}
func (AnyOf) isExpr() {}

// NewAtom validates name and returns it as an Atom.
// Names must be non-empty and contain only ASCII letters, digits and underscores.
func NewAtom(name string) (Atom, error) {
	if len(name) == 0 {
		return "", fmt.Errorf("%w: calendar name is empty", ErrParse)
	}
	for i := 0; i < len(name); i++ {
		if !isAtomByte(name[i]) {
			return "", fmt.Errorf("%w: calendar name %q contains %q, only letters, digits and '_' are allowed",
				ErrParse, name, name[i])
		}
	}
	return Atom(name), nil
}

// NewAllOf combines children into an AllOf, flattening nested AllOf children.
// A single child is returned as is. AnyOf children are rejected because the infix form has no grouping.
func NewAllOf(children ...Expr) (Expr, error) {
	flat := make(AllOf, 0, len(children))
	for _, child := range children {
		switch c := child.(type) {
		case nil:
			return nil, fmt.Errorf("%w: nil operand", ErrParse)
		case AllOf:
			flat = append(flat, c...)
		case AnyOf:
			return nil, fmt.Errorf("%w: %s cannot be an operand of '&'", ErrParse, c)
		default:
			flat = append(flat, c)
		}
	}
	switch len(flat) {
	case 0:
		return nil, fmt.Errorf("%w: '&' needs at least one operand", ErrParse)
	case 1:
		return flat[0], nil
	}
	return flat, nil
}

// NewAnyOf combines children into an AnyOf, flattening nested AnyOf children.
// A single child is returned as is.
func NewAnyOf(children ...Expr) (Expr, error) {
	flat := make(AnyOf, 0, len(children))
	for _, child := range children {
		switch c := child.(type) {
		case nil:
			return nil, fmt.Errorf("%w: nil operand", ErrParse)
		case AnyOf:
			flat = append(flat, c...)
		default:
			flat = append(flat, c)
		}
	}
	switch len(flat) {
	case 0:
		return nil, fmt.Errorf("%w: '|' needs at least one operand", ErrParse)
	case 1:
		return flat[0], nil
	}
	return flat, nil
}

func (a Atom) String() string {
	return string(a)
}

// String joins the members with '&'. An AnyOf member is written in parentheses, which Parse does not accept.
func (e AllOf) String() string {
	parts := make([]string, len(e))
	for i, child := range e {
		if _, ok := child.(AnyOf); ok {
			parts[i] = "(" + child.String() + ")"
			continue
		}
		parts[i] = child.String()
	}
	return strings.Join(parts, "&")
}

func (e AnyOf) String() string {
	parts := make([]string, len(e))
	for i, child := range e {
		parts[i] = child.String()
	}
	return strings.Join(parts, "|")
}

func (a Atom) Leaves() []Atom {
	return []Atom{a}
}

func (e AllOf) Leaves() []Atom {
	return collectLeaves(e)
}

func (e AnyOf) Leaves() []Atom {
	return collectLeaves(e)
}

// collectLeaves walks e depth first and records every atom the first time it is seen
func collectLeaves(e Expr) []Atom {
	seen := make(map[Atom]bool)
	var leaves []Atom
	var walk func(e Expr)
	walk = func(e Expr) {
		switch e := e.(type) {
		case Atom:
			if !seen[e] {
				seen[e] = true
				leaves = append(leaves, e)
			}
		case AllOf:
			for _, child := range e {
				walk(child)
			}
		case AnyOf:
			for _, child := range e {
				walk(child)
			}
		}
	}
	walk(e)
	return leaves
}

// Equal reports whether a and b are the same expression tree, member order included
func Equal(a, b Expr) bool {
	switch a := a.(type) {
	case Atom:
		b, ok := b.(Atom)
		return ok && a == b
	case AllOf:
		b, ok := b.(AllOf)
		return ok && equalMembers(a, b)
	case AnyOf:
		b, ok := b.(AnyOf)
		return ok && equalMembers(a, b)
	}
	return a == nil && b == nil
}

func equalMembers(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func isAtomByte(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '_'
}
