package interaction

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/couchcryptid/quake-threat-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(id string, lat, lon, magnitude float64) domain.EventRecord {
	return domain.EventRecord{
		ID:             id,
		Location:       domain.GeoPoint{Lat: lat, Lon: lon},
		Magnitude:      magnitude,
		Radius:         domain.Radius(magnitude),
		ThreatRadiusKm: domain.ThreatRadiusKm(magnitude),
	}
}

func at(lat, lon float64) Pointer {
	return PointerFor(domain.GeoPoint{Lat: lat, Lon: lon})
}

func newTestMachine(events []domain.EventRecord, places []Place) *Machine {
	return NewMachine(events, places, GeoFootprint{ToleranceKm: 50}, slog.New(slog.DiscardHandler))
}

var (
	ev0 = MarkerID{Kind: EventMarker, Index: 0}
	ev1 = MarkerID{Kind: EventMarker, Index: 1}
	ev2 = MarkerID{Kind: EventMarker, Index: 2}
	pl0 = MarkerID{Kind: PlaceMarker, Index: 0}
	pl1 = MarkerID{Kind: PlaceMarker, Index: 1}
)

// pinScenario: a M6.0 at the origin (threat radius ~1959 km), one nearby
// event, one far event, one nearby place and one far place.
func pinScenario() *Machine {
	return newTestMachine(
		[]domain.EventRecord{
			event("big", 0, 0, 6.0),
			event("near", 5, 0, 3.0),
			event("far", 40, 0, 3.0),
		},
		[]Place{
			{Name: "Harbor", Location: domain.GeoPoint{Lat: 1, Lon: 1}},
			{Name: "Distant", Location: domain.GeoPoint{Lat: -30, Lon: 0}},
		},
	)
}

func TestNewMachine_AllIdle(t *testing.T) {
	m := pinScenario()

	for _, id := range []MarkerID{ev0, ev1, ev2, pl0, pl1} {
		assert.Equal(t, MarkerState{}, m.State(id))
	}
	_, pinned := m.Pinned()
	assert.False(t, pinned)
	_, hovered := m.Hovered()
	assert.False(t, hovered)
	assert.Len(t, m.Visible(), 5)
}

func TestOnPointerMoved_HoverAndRevert(t *testing.T) {
	m := pinScenario()

	m.OnPointerMoved(at(5, 0))
	assert.True(t, m.State(ev1).Selected)
	got, ok := m.Hovered()
	require.True(t, ok)
	assert.Equal(t, ev1, got)

	m.OnPointerMoved(at(1, 1))
	assert.False(t, m.State(ev1).Selected)
	assert.True(t, m.State(pl0).Selected)

	m.OnPointerMoved(at(20, 20))
	assert.False(t, m.State(pl0).Selected)
	_, ok = m.Hovered()
	assert.False(t, ok)
}

func TestOnPointerMoved_EventsBeforePlaces(t *testing.T) {
	m := newTestMachine(
		[]domain.EventRecord{event("quake", 10, 10, 4.0)},
		[]Place{{Name: "Town", Location: domain.GeoPoint{Lat: 10, Lon: 10}}},
	)

	m.OnPointerMoved(at(10, 10))

	assert.True(t, m.State(ev0).Selected)
	assert.False(t, m.State(pl0).Selected)
}

func TestOnClicked_PinEventHidesBeyondThreatRadius(t *testing.T) {
	m := pinScenario()

	m.OnClicked(at(0, 0))

	got, ok := m.Pinned()
	require.True(t, ok)
	assert.Equal(t, ev0, got)
	assert.True(t, m.State(ev0).Clicked)
	assert.False(t, m.State(ev0).Hidden)

	assert.False(t, m.State(ev1).Hidden, "event inside radius stays visible")
	assert.True(t, m.State(ev2).Hidden, "event outside radius is hidden")
	assert.False(t, m.State(pl0).Hidden, "place inside radius stays visible")
	assert.True(t, m.State(pl1).Hidden, "place outside radius is hidden")

	assert.Equal(t, []MarkerID{ev0, ev1, pl0}, m.Visible())
}

func TestOnClicked_SecondClickUnpinsAndRestores(t *testing.T) {
	m := pinScenario()

	m.OnClicked(at(0, 0))
	m.OnClicked(at(80, 80))

	_, ok := m.Pinned()
	assert.False(t, ok)
	for _, id := range []MarkerID{ev0, ev1, ev2, pl0, pl1} {
		st := m.State(id)
		assert.False(t, st.Hidden, "%+v", id)
		assert.False(t, st.Clicked, "%+v", id)
	}
	assert.Len(t, m.Visible(), 5)
}

func TestOnClicked_UnpinClearsHoverOnPinnedMarker(t *testing.T) {
	m := pinScenario()

	m.OnPointerMoved(at(0, 0))
	m.OnClicked(at(0, 0))
	assert.Equal(t, MarkerState{Selected: true, Clicked: true}, m.State(ev0))

	m.OnClicked(at(0, 0))
	assert.Equal(t, MarkerState{}, m.State(ev0))
	_, ok := m.Hovered()
	assert.False(t, ok)
}

func TestOnClicked_PinPlaceUsesEachEventsRadius(t *testing.T) {
	m := newTestMachine(
		[]domain.EventRecord{
			event("small-close", 1, 0, 2.0), // ~111 km away, reach ~18 km
			event("big-far", 10, 0, 6.0),    // ~1112 km away, reach ~1959 km
		},
		[]Place{
			{Name: "Capital", Location: domain.GeoPoint{Lat: 0, Lon: 0}},
			{Name: "Elsewhere", Location: domain.GeoPoint{Lat: -60, Lon: 100}},
		},
	)

	m.OnClicked(at(0, 0))

	got, ok := m.Pinned()
	require.True(t, ok)
	assert.Equal(t, pl0, got)
	assert.True(t, m.State(pl0).Clicked)
	assert.True(t, m.State(ev0).Hidden)
	assert.False(t, m.State(ev1).Hidden)
	assert.True(t, m.State(pl1).Hidden, "other places are hidden")
	assert.False(t, m.State(pl0).Hidden)
	assert.Equal(t, []MarkerID{ev1, pl0}, m.Visible())

	m.OnClicked(at(0, 0))
	assert.False(t, m.State(ev0).Hidden)
	assert.False(t, m.State(pl1).Hidden)
	assert.False(t, m.State(pl0).Clicked)
}

func TestOnClicked_PinEventNearAntipodeHidesFarSide(t *testing.T) {
	m := newTestMachine(
		[]domain.EventRecord{
			event("south", -86.77999999999997, -179, 6.0),
			event("north", 86.77999999999997, 1, 3.0),
		},
		[]Place{{Name: "Opposite", Location: domain.GeoPoint{Lat: 86.77999999999997, Lon: 1}}},
	)

	m.OnClicked(at(-86.77999999999997, -179))

	got, ok := m.Pinned()
	require.True(t, ok)
	assert.Equal(t, ev0, got)
	assert.True(t, m.State(ev1).Hidden)
	assert.True(t, m.State(pl0).Hidden)
	assert.Equal(t, []MarkerID{ev0}, m.Visible())
}

func TestNewMachine_NilLoggerUsesDefault(t *testing.T) {
	m := NewMachine(pinScenario().events, nil, GeoFootprint{ToleranceKm: 50}, nil)

	assert.NotPanics(t, func() {
		m.OnClicked(at(0, 0))
		m.OnClicked(at(0, 0))
	})
	_, ok := m.Pinned()
	assert.False(t, ok)
}

func TestOnClicked_MissDoesNothing(t *testing.T) {
	m := pinScenario()

	m.OnClicked(at(70, 70))

	_, ok := m.Pinned()
	assert.False(t, ok)
	assert.Len(t, m.Visible(), 5)
}

func TestHoverSuspendedWhilePinned(t *testing.T) {
	m := pinScenario()

	m.OnClicked(at(0, 0))
	m.OnPointerMoved(at(5, 0))

	assert.False(t, m.State(ev1).Selected)
	_, ok := m.Hovered()
	assert.False(t, ok)
}

func TestOnClicked_HiddenMarkersAreNotClickable(t *testing.T) {
	m := newTestMachine(
		[]domain.EventRecord{event("only", 0, 0, 4.0)},
		nil,
	)
	m.eventStates[0].Hidden = true

	m.OnClicked(at(0, 0))

	_, ok := m.Pinned()
	assert.False(t, ok)
}

func TestStateUnknownMarker(t *testing.T) {
	m := pinScenario()
	assert.Equal(t, MarkerState{}, m.State(MarkerID{Kind: EventMarker, Index: 99}))
	assert.Equal(t, MarkerState{}, m.State(MarkerID{Kind: MarkerKind(7), Index: 0}))
}

func TestFootprintFunc(t *testing.T) {
	calls := 0
	fp := FootprintFunc(func(mk Marker, _ Pointer) bool {
		calls++
		return mk.ID == ev1
	})
	m := NewMachine(pinScenario().events, nil, fp, slog.New(slog.DiscardHandler))

	m.OnPointerMoved(Pointer{})

	assert.True(t, m.State(ev1).Selected)
	assert.Equal(t, 2, calls)
}

func TestGeoFootprint_RadiusWidensReach(t *testing.T) {
	mk := Marker{Location: domain.GeoPoint{}, Radius: 10}

	assert.False(t, GeoFootprint{ToleranceKm: 50}.Contains(mk, at(1, 0)))
	assert.True(t, GeoFootprint{ToleranceKm: 50, KmPerRadius: 10}.Contains(mk, at(1, 0)))
}

func TestMachine_ConcurrentInputsSerialized(t *testing.T) {
	m := pinScenario()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.OnPointerMoved(at(float64(i%6), 0))
			m.OnClicked(at(0, 0))
		}(i)
	}
	wg.Wait()

	// An even number of clicks on the pinned event leaves nothing pinned.
	_, ok := m.Pinned()
	assert.False(t, ok)
	assert.Len(t, m.Visible(), 5)
}
