package calendar

import (
	"fmt"

	"github.com/OpenTransitTools/bizcal/business/data/calexpr"
)

// AtomSource fetches the calendar of one named market.
// Implementations report an unknown name with an error wrapping ErrNotFound.
type AtomSource interface {
	FetchAtom(name calexpr.Atom) (*Calendar, error)
}

// AtomSourceFunc adapts a function to AtomSource
type AtomSourceFunc func(name calexpr.Atom) (*Calendar, error)

func (f AtomSourceFunc) FetchAtom(name calexpr.Atom) (*Calendar, error) {
	return f(name)
}

// Source resolves any calendar expression
type Source interface {
	Calendar(e calexpr.Expr) (*Calendar, error)
}

// Induce returns the Source derived from an AtomSource
func Induce(src AtomSource) Source {
	return inducedSource{atoms: src}
}

type inducedSource struct {
	atoms AtomSource
}

func (s inducedSource) Calendar(e calexpr.Expr) (*Calendar, error) {
	return Resolve(e, s.atoms)
}

// Resolve fetches every distinct atom of e once, stopping at the first failure, and then
// merges the tree bottom up with AllClosedOf and AnyClosedOf.
func Resolve(e calexpr.Expr, src AtomSource) (*Calendar, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: nil expression", calexpr.ErrParse)
	}
	leaves := e.Leaves()
	fetched := make(map[calexpr.Atom]*Calendar, len(leaves))
	for _, name := range leaves {
		cal, err := src.FetchAtom(name)
		if err != nil {
			return nil, fmt.Errorf("%w: fetching %s: %w", ErrProvider, name, err)
		}
		if cal == nil {
			return nil, fmt.Errorf("%w: fetching %s: no calendar returned", ErrProvider, name)
		}
		fetched[name] = cal
	}
	return fold(e, fetched)
}

// ResolveString parses s and resolves it
func ResolveString(s string, src AtomSource) (*Calendar, error) {
	e, err := calexpr.Parse(s)
	if err != nil {
		return nil, err
	}
	return Resolve(e, src)
}

func fold(e calexpr.Expr, fetched map[calexpr.Atom]*Calendar) (*Calendar, error) {
	switch v := e.(type) {
	case calexpr.Atom:
		return fetched[v], nil
	case calexpr.AllOf:
		cals, err := foldAll(v, fetched)
		if err != nil {
			return nil, err
		}
		return AllClosedOf(cals...)
	case calexpr.AnyOf:
		cals, err := foldAll(v, fetched)
		if err != nil {
			return nil, err
		}
		return AnyClosedOf(cals...)
	}
	return nil, fmt.Errorf("%w: unsupported expression %T", calexpr.ErrParse, e)
}

func foldAll(members []calexpr.Expr, fetched map[calexpr.Atom]*Calendar) ([]*Calendar, error) {
	cals := make([]*Calendar, 0, len(members))
	for _, m := range members {
		c, err := fold(m, fetched)
		if err != nil {
			return nil, err
		}
		cals = append(cals, c)
	}
	return cals, nil
}
