package calsvc

import (
	"sort"
	"sync"
	"time"

	"github.com/OpenTransitTools/bizcal/business/data/calendar"
	"github.com/OpenTransitTools/bizcal/business/data/calexpr"
)

// cachedAtom holds a fetched calendar and when it was fetched
type cachedAtom struct {
	calendar  *calendar.Calendar
	fetchedAt time.Time
}

// atomCache is a calendar.AtomSource that keeps calendars fetched from source until they expire or are flushed.
// Failed fetches are not cached. Provides thread safe access.
type atomCache struct {
	mu     sync.Mutex
	source calendar.AtomSource
	atoms  map[calexpr.Atom]*cachedAtom
	now    func() time.Time
}

// makeAtomCache atomCache factory
func makeAtomCache(source calendar.AtomSource) *atomCache {
	return &atomCache{
		source: source,
		atoms:  make(map[calexpr.Atom]*cachedAtom),
		now:    time.Now,
	}
}

// FetchAtom returns the cached calendar of name, fetching it from source when not present
func (c *atomCache) FetchAtom(name calexpr.Atom) (*calendar.Calendar, error) {
	c.mu.Lock()
	atom, present := c.atoms[name]
	c.mu.Unlock()
	if present {
		return atom.calendar, nil
	}

	// fetch without holding the lock, concurrent misses on the same name may fetch twice
	cal, err := c.source.FetchAtom(name)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.atoms[name] = &cachedAtom{
		calendar:  cal,
		fetchedAt: c.now(),
	}
	return cal, nil
}

// expireAtoms removes all calendars fetched more than expireAfter before "at".
// returns the number of calendars that have been removed and how many are currently stored.
func (c *atomCache) expireAtoms(at time.Time, expireAfter time.Duration) (removed int, currentSize int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, atom := range c.atoms {
		if at.Sub(atom.fetchedAt) >= expireAfter {
			delete(c.atoms, name)
			removed++
		}
	}
	return removed, len(c.atoms)
}

// flush removes every cached calendar, returning how many were removed
func (c *atomCache) flush() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := len(c.atoms)
	c.atoms = make(map[calexpr.Atom]*cachedAtom)
	return removed
}

// atomNames lists the names of the cached calendars
func (c *atomCache) atomNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.atoms))
	for name := range c.atoms {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}
