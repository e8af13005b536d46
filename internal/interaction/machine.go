// Package interaction implements the marker hover/pin state machine. Pinning
// an event or place hides every marker outside the relevant threat radius;
// the next click restores everything.
package interaction

import (
	"log/slog"
	"sync"

	"github.com/couchcryptid/quake-threat-service/internal/domain"
)

// MarkerKind distinguishes the two marker collections.
type MarkerKind int

const (
	EventMarker MarkerKind = iota
	PlaceMarker
)

func (k MarkerKind) String() string {
	if k == PlaceMarker {
		return "place"
	}
	return "event"
}

// MarkerID identifies a marker by collection and index.
type MarkerID struct {
	Kind  MarkerKind
	Index int
}

// MarkerState is the per-marker display state.
type MarkerState struct {
	Hidden   bool `json:"hidden"`
	Selected bool `json:"selected"`
	Clicked  bool `json:"clicked"`
}

// Place is a region or city marker anchored at a single location.
type Place struct {
	Name     string          `json:"name"`
	Location domain.GeoPoint `json:"location"`
}

// Marker is the view of a marker handed to a Footprint.
type Marker struct {
	ID       MarkerID
	Location domain.GeoPoint
	Radius   float64
}

// Pointer is a pointer position in whatever space the Footprint understands.
type Pointer struct {
	X, Y float64
}

// Footprint reports whether a pointer lies within a marker's visual
// footprint. It is supplied by the rendering layer.
type Footprint interface {
	Contains(m Marker, p Pointer) bool
}

// FootprintFunc adapts a function to Footprint.
type FootprintFunc func(m Marker, p Pointer) bool

func (f FootprintFunc) Contains(m Marker, p Pointer) bool { return f(m, p) }

// Machine owns all marker state. Inputs are serialized: each call runs to
// completion before the next is accepted.
type Machine struct {
	mu sync.Mutex

	events      []domain.EventRecord
	places      []Place
	eventStates []MarkerState
	placeStates []MarkerState

	footprint Footprint
	logger    *slog.Logger

	hovered *MarkerID
	pinned  *MarkerID
}

// NewMachine creates a machine with every marker idle. The event and place
// slices are copied. A nil logger falls back to slog.Default.
func NewMachine(events []domain.EventRecord, places []Place, footprint Footprint, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Machine{
		events:      append([]domain.EventRecord(nil), events...),
		places:      append([]Place(nil), places...),
		eventStates: make([]MarkerState, len(events)),
		placeStates: make([]MarkerState, len(places)),
		footprint:   footprint,
		logger:      logger,
	}
	return m
}

// OnPointerMoved updates the hovered marker. Hover is suspended while a
// marker is pinned. Event markers are scanned before place markers and the
// first hit wins.
func (m *Machine) OnPointerMoved(p Pointer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pinned != nil {
		return
	}
	if m.hovered != nil {
		m.state(*m.hovered).Selected = false
		m.hovered = nil
	}

	id, ok := m.scan(p, false)
	if !ok {
		return
	}
	m.state(id).Selected = true
	m.hovered = &id
}

// OnClicked pins the marker under the pointer, or unpins if something is
// already pinned. An unmatched click does nothing.
func (m *Machine) OnClicked(p Pointer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pinned != nil {
		m.unpin()
		return
	}

	if id, ok := m.scanKind(EventMarker, p, true); ok {
		m.pinEvent(id)
		return
	}
	if id, ok := m.scanKind(PlaceMarker, p, true); ok {
		m.pinPlace(id)
	}
}

// pinEvent hides events and places farther from the pinned event than its
// threat radius.
func (m *Machine) pinEvent(id MarkerID) {
	pinned := m.events[id.Index]
	m.eventStates[id.Index].Clicked = true
	m.pinned = &id

	hidden := 0
	for i, e := range m.events {
		if i == id.Index {
			continue
		}
		if domain.DistanceKm(pinned.Location, e.Location) > pinned.ThreatRadiusKm {
			m.eventStates[i].Hidden = true
			hidden++
		}
	}
	for i, pl := range m.places {
		if domain.DistanceKm(pinned.Location, pl.Location) > pinned.ThreatRadiusKm {
			m.placeStates[i].Hidden = true
			hidden++
		}
	}

	m.logger.Debug("event pinned",
		"event_id", pinned.ID,
		"threat_radius_km", pinned.ThreatRadiusKm,
		"hidden", hidden,
	)
}

// pinPlace hides every event whose own threat radius does not reach the
// pinned place, and every other place.
func (m *Machine) pinPlace(id MarkerID) {
	pinned := m.places[id.Index]
	m.placeStates[id.Index].Clicked = true
	m.pinned = &id

	hidden := 0
	for i, e := range m.events {
		if domain.DistanceKm(pinned.Location, e.Location) > e.ThreatRadiusKm {
			m.eventStates[i].Hidden = true
			hidden++
		}
	}
	for i := range m.placeStates {
		if i != id.Index {
			m.placeStates[i].Hidden = true
			hidden++
		}
	}

	m.logger.Debug("place pinned", "place", pinned.Name, "hidden", hidden)
}

// unpin returns the pinned marker to idle and unhides every marker.
func (m *Machine) unpin() {
	id := *m.pinned
	st := m.state(id)
	st.Clicked = false
	st.Selected = false
	if m.hovered != nil && *m.hovered == id {
		m.hovered = nil
	}
	m.pinned = nil

	for i := range m.eventStates {
		m.eventStates[i].Hidden = false
	}
	for i := range m.placeStates {
		m.placeStates[i].Hidden = false
	}

	m.logger.Debug("marker unpinned", "kind", id.Kind.String(), "index", id.Index)
}

// scan checks events then places.
func (m *Machine) scan(p Pointer, skipHidden bool) (MarkerID, bool) {
	if id, ok := m.scanKind(EventMarker, p, skipHidden); ok {
		return id, true
	}
	return m.scanKind(PlaceMarker, p, skipHidden)
}

func (m *Machine) scanKind(kind MarkerKind, p Pointer, skipHidden bool) (MarkerID, bool) {
	n := len(m.events)
	if kind == PlaceMarker {
		n = len(m.places)
	}
	for i := range n {
		id := MarkerID{Kind: kind, Index: i}
		if skipHidden && m.state(id).Hidden {
			continue
		}
		if m.footprint.Contains(m.marker(id), p) {
			return id, true
		}
	}
	return MarkerID{}, false
}

func (m *Machine) state(id MarkerID) *MarkerState {
	if id.Kind == PlaceMarker {
		return &m.placeStates[id.Index]
	}
	return &m.eventStates[id.Index]
}

func (m *Machine) marker(id MarkerID) Marker {
	if id.Kind == PlaceMarker {
		return Marker{ID: id, Location: m.places[id.Index].Location}
	}
	e := m.events[id.Index]
	return Marker{ID: id, Location: e.Location, Radius: e.Radius}
}

// State returns a marker's current state. Unknown IDs report the zero state.
func (m *Machine) State(id MarkerID) MarkerState {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.valid(id) {
		return MarkerState{}
	}
	return *m.state(id)
}

// Pinned returns the pinned marker, if any.
func (m *Machine) Pinned() (MarkerID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pinned == nil {
		return MarkerID{}, false
	}
	return *m.pinned, true
}

// Hovered returns the hovered marker, if any.
func (m *Machine) Hovered() (MarkerID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hovered == nil {
		return MarkerID{}, false
	}
	return *m.hovered, true
}

// Visible returns every marker that is not hidden, events first.
func (m *Machine) Visible() []MarkerID {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []MarkerID
	for i, st := range m.eventStates {
		if !st.Hidden {
			out = append(out, MarkerID{Kind: EventMarker, Index: i})
		}
	}
	for i, st := range m.placeStates {
		if !st.Hidden {
			out = append(out, MarkerID{Kind: PlaceMarker, Index: i})
		}
	}
	return out
}

// Event returns the event behind an event marker index.
func (m *Machine) Event(i int) domain.EventRecord { return m.events[i] }

// Place returns the place behind a place marker index.
func (m *Machine) Place(i int) Place { return m.places[i] }

func (m *Machine) valid(id MarkerID) bool {
	switch id.Kind {
	case EventMarker:
		return id.Index >= 0 && id.Index < len(m.events)
	case PlaceMarker:
		return id.Index >= 0 && id.Index < len(m.places)
	default:
		return false
	}
}
