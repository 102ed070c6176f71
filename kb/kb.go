// Package kb holds the destination catalog the user picks a route target
// from, along with the current selection.
package kb

import (
	"fmt"
	"sync"

	"github.com/signalsfoundry/geospatial-navigator/model"
)

// EventType indicates what kind of change happened in the catalog.
type EventType int

const (
	EventPlaceAdded EventType = iota
	EventCatalogReplaced
	EventSelectionChanged
)

// Event is emitted to subscribers when something interesting happens.
type Event struct {
	Type     EventType
	Place    model.Place
	Selected int64
}

// Catalog is an in-memory, thread-safe list of destinations. Places keep
// their insertion order so a picker shows them the way the routing service
// listed them.
type Catalog struct {
	mu sync.RWMutex

	places   map[int64]model.Place
	order    []int64
	selected int64

	subs   []func(Event)
	subIDs []*byte
}

// NewCatalog constructs an empty catalog with no selection.
func NewCatalog() *Catalog {
	return &Catalog{
		places:   make(map[int64]model.Place),
		selected: model.NoDestination,
	}
}

// AddPlace adds a new place. It returns an error if the ID already exists or
// collides with the "no destination" sentinel.
func (c *Catalog) AddPlace(p model.Place) error {
	c.mu.Lock()
	if p.ID == model.NoDestination {
		c.mu.Unlock()
		return fmt.Errorf("place ID %d is reserved", p.ID)
	}
	if _, exists := c.places[p.ID]; exists {
		c.mu.Unlock()
		return fmt.Errorf("place with ID %d already exists", p.ID)
	}
	c.places[p.ID] = p
	c.order = append(c.order, p.ID)
	subs := append([]func(Event){}, c.subs...)
	c.mu.Unlock()

	notify(subs, Event{Type: EventPlaceAdded, Place: p, Selected: model.NoDestination})
	return nil
}

// Replace swaps the whole catalog for places. A selection that no longer
// exists is cleared.
func (c *Catalog) Replace(places []model.Place) error {
	next := make(map[int64]model.Place, len(places))
	order := make([]int64, 0, len(places))
	for _, p := range places {
		if p.ID == model.NoDestination {
			return fmt.Errorf("place ID %d is reserved", p.ID)
		}
		if _, dup := next[p.ID]; dup {
			return fmt.Errorf("duplicate place ID %d", p.ID)
		}
		next[p.ID] = p
		order = append(order, p.ID)
	}

	c.mu.Lock()
	c.places = next
	c.order = order
	if _, ok := c.places[c.selected]; !ok {
		c.selected = model.NoDestination
	}
	selected := c.selected
	subs := append([]func(Event){}, c.subs...)
	c.mu.Unlock()

	notify(subs, Event{Type: EventCatalogReplaced, Selected: selected})
	return nil
}

// GetPlace returns the place with the given ID.
func (c *Catalog) GetPlace(id int64) (model.Place, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.places[id]
	return p, ok
}

// ListPlaces returns a snapshot of all places in insertion order.
func (c *Catalog) ListPlaces() []model.Place {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res := make([]model.Place, 0, len(c.order))
	for _, id := range c.order {
		res = append(res, c.places[id])
	}
	return res
}

// Select makes id the current destination. model.NoDestination clears the
// selection; any other unknown ID is an error.
func (c *Catalog) Select(id int64) error {
	c.mu.Lock()
	if id != model.NoDestination {
		if _, ok := c.places[id]; !ok {
			c.mu.Unlock()
			return fmt.Errorf("place with ID %d not found", id)
		}
	}
	if c.selected == id {
		c.mu.Unlock()
		return nil
	}
	c.selected = id
	ev := Event{Type: EventSelectionChanged, Selected: id, Place: c.places[id]}
	subs := append([]func(Event){}, c.subs...)
	c.mu.Unlock()

	notify(subs, ev)
	return nil
}

// Selected returns the selected place ID, or model.NoDestination.
func (c *Catalog) Selected() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

// Subscribe registers a callback for catalog events. It returns an
// unsubscribe function.
func (c *Catalog) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := new(byte)
	c.subs = append(c.subs, fn)
	c.subIDs = append(c.subIDs, id)

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, sid := range c.subIDs {
			if sid == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				c.subIDs = append(c.subIDs[:i], c.subIDs[i+1:]...)
				return
			}
		}
	}
}

// Notify subscribers outside the lock to avoid deadlocks.
func notify(subs []func(Event), ev Event) {
	for _, sub := range subs {
		sub(ev)
	}
}
