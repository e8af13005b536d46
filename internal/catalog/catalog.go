// Package catalog holds the classified events seen by the service, keyed by
// event ID. Replays of the same event overwrite the stored record in place.
package catalog

import (
	"context"
	"log/slog"
	"sync"

	"github.com/couchcryptid/quake-threat-service/internal/domain"
	"github.com/couchcryptid/quake-threat-service/internal/interaction"
	"github.com/couchcryptid/quake-threat-service/internal/observability"
)

// Catalog is a thread-safe in-memory event store.
// It implements pipeline.BatchLoader.
type Catalog struct {
	mu      sync.RWMutex
	index   map[string]int
	events  []domain.EventRecord // first-seen order
	regions []domain.Region
	places  []interaction.Place
	metrics *observability.Metrics
}

// New creates an empty catalog. regions drives the per-region summary.
// metrics may be nil.
func New(regions []domain.Region, metrics *observability.Metrics) *Catalog {
	return &Catalog{
		index:   make(map[string]int),
		regions: regions,
		metrics: metrics,
	}
}

// LoadBatch stores every event. It never fails.
func (c *Catalog) LoadBatch(_ context.Context, events []domain.EventRecord) error {
	c.Upsert(events...)
	return nil
}

// Upsert inserts new events and replaces existing ones with the same ID.
func (c *Catalog) Upsert(events ...domain.EventRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range events {
		if i, ok := c.index[e.ID]; ok {
			c.events[i] = e
			continue
		}
		c.index[e.ID] = len(c.events)
		c.events = append(c.events, e)
	}

	if c.metrics != nil {
		c.metrics.CatalogSize.Set(float64(len(c.events)))
	}
}

// Get returns the event with the given ID.
func (c *Catalog) Get(id string) (domain.EventRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		return domain.EventRecord{}, false
	}
	return c.events[i], true
}

// Len returns the number of distinct events.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.events)
}

// Events returns a copy of all events in first-seen order.
func (c *Catalog) Events() []domain.EventRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.EventRecord(nil), c.events...)
}

// TopK returns the k strongest events. Ties keep first-seen order.
func (c *Catalog) TopK(k int) []domain.EventRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.TopK(c.events, k)
}

// Summary returns the per-region breakdown of every stored event.
func (c *Catalog) Summary() domain.Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.DebugSummary(c.events, c.regions)
}

// SetPlaces replaces the city or region markers used by Pin.
func (c *Catalog) SetPlaces(places []interaction.Place) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.places = append([]interaction.Place(nil), places...)
}

// Places returns a copy of the place markers.
func (c *Catalog) Places() []interaction.Place {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]interaction.Place(nil), c.places...)
}

// PinResult is what remains on the map after a click on a fresh view.
type PinResult struct {
	PinnedEvent *domain.EventRecord  `json:"pinned_event,omitempty"`
	PinnedPlace *interaction.Place   `json:"pinned_place,omitempty"`
	Events      []domain.EventRecord `json:"events"`
	Places      []interaction.Place  `json:"places"`
}

// Pin clicks at pt on an idle view of the current events and places and
// reports the pinned marker and every marker left visible. A click that hits
// nothing leaves everything visible.
func (c *Catalog) Pin(pt domain.GeoPoint, toleranceKm float64, logger *slog.Logger) PinResult {
	c.mu.RLock()
	m := interaction.NewMachine(c.events, c.places, interaction.GeoFootprint{ToleranceKm: toleranceKm}, logger)
	c.mu.RUnlock()

	m.OnClicked(interaction.PointerFor(pt))

	res := PinResult{Events: []domain.EventRecord{}, Places: []interaction.Place{}}
	if id, ok := m.Pinned(); ok {
		if id.Kind == interaction.EventMarker {
			e := m.Event(id.Index)
			res.PinnedEvent = &e
		} else {
			pl := m.Place(id.Index)
			res.PinnedPlace = &pl
		}
	}
	for _, v := range m.Visible() {
		if v.Kind == interaction.EventMarker {
			res.Events = append(res.Events, m.Event(v.Index))
			continue
		}
		res.Places = append(res.Places, m.Place(v.Index))
	}
	return res
}
