package calexpr

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	anyOfOperator = "|"
	allOfOperator = "&"
)

// Parse reads an expression from its infix form.
//
// Atoms are bare calendar names, "&" builds AllOf and "|" builds AnyOf, with "&" binding tighter.
// Whitespace and parentheses are not permitted. A single name parses to an Atom.
func Parse(s string) (Expr, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrParse)
	}
	if err := checkCharacters(s); err != nil {
		return nil, err
	}

	segments := strings.Split(s, anyOfOperator)
	terms := make(AnyOf, 0, len(segments))
	for i, segment := range segments {
		term, err := parseAllOf(s, segment, i)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return terms, nil
}

// MustParse is like Parse but panics on error. Use it for expressions known at compile time.
func MustParse(s string) Expr {
	e, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return e
}

// parseAllOf parses one '|' separated segment of input
func parseAllOf(input string, segment string, index int) (Expr, error) {
	if len(segment) == 0 {
		return nil, fmt.Errorf("%w: %q: missing operand for '|' in segment %d", ErrParse, input, index+1)
	}
	names := strings.Split(segment, allOfOperator)
	atoms := make(AllOf, 0, len(names))
	for _, name := range names {
		if len(name) == 0 {
			return nil, fmt.Errorf("%w: %q: missing operand for '&' in %q", ErrParse, input, segment)
		}
		atom, err := NewAtom(name)
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, atom)
	}
	if len(atoms) == 1 {
		return atoms[0], nil
	}
	return atoms, nil
}

// checkCharacters rejects anything other than atom characters and the two operators
func checkCharacters(s string) error {
	for offset := 0; offset < len(s); {
		c := s[offset]
		if isAtomByte(c) || c == '&' || c == '|' {
			offset++
			continue
		}
		r, _ := utf8.DecodeRuneInString(s[offset:])
		if unicode.IsSpace(r) {
			return fmt.Errorf("%w: %q: whitespace is not permitted (offset %d)", ErrParse, s, offset)
		}
		return fmt.Errorf("%w: %q: unexpected character %q at offset %d", ErrParse, s, r, offset)
	}
	return nil
}
