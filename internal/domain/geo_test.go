package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// square returns a closed ring with corners (minLat,minLon) and (maxLat,maxLon).
func square(minLat, minLon, maxLat, maxLon float64) []GeoPoint {
	return []GeoPoint{
		{Lat: minLat, Lon: minLon},
		{Lat: minLat, Lon: maxLon},
		{Lat: maxLat, Lon: maxLon},
		{Lat: maxLat, Lon: minLon},
	}
}

func mustPolygon(t *testing.T, ring []GeoPoint) Polygon {
	t.Helper()
	p, err := NewPolygon(ring)
	require.NoError(t, err)
	return p
}

func TestPolygonContains_ConvexInterior(t *testing.T) {
	poly := mustPolygon(t, square(0, 0, 10, 10))

	for _, pt := range []GeoPoint{
		{Lat: 5, Lon: 5},
		{Lat: 0.001, Lon: 0.001},
		{Lat: 9.999, Lon: 9.999},
		{Lat: 1, Lon: 9},
		{Lat: 9, Lon: 1},
	} {
		assert.True(t, poly.Contains(pt), "expected %+v inside", pt)
	}
}

func TestPolygonContains_OutsideBoundingBox(t *testing.T) {
	poly := mustPolygon(t, square(0, 0, 10, 10))

	for _, pt := range []GeoPoint{
		{Lat: -1, Lon: 5},
		{Lat: 11, Lon: 5},
		{Lat: 5, Lon: -0.5},
		{Lat: 5, Lon: 10.5},
		{Lat: -45, Lon: 170},
	} {
		assert.False(t, poly.Contains(pt), "expected %+v outside", pt)
	}
}

func TestPolygonContains_Concave(t *testing.T) {
	// U shape opening north: the notch between lon 3 and 7 above lat 3 is outside.
	poly := mustPolygon(t, []GeoPoint{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 10},
		{Lat: 10, Lon: 10},
		{Lat: 10, Lon: 7},
		{Lat: 3, Lon: 7},
		{Lat: 3, Lon: 3},
		{Lat: 10, Lon: 3},
		{Lat: 10, Lon: 0},
	})

	assert.True(t, poly.Contains(GeoPoint{Lat: 5, Lon: 1.5}))
	assert.True(t, poly.Contains(GeoPoint{Lat: 5, Lon: 8.5}))
	assert.True(t, poly.Contains(GeoPoint{Lat: 1.5, Lon: 5}))
	assert.False(t, poly.Contains(GeoPoint{Lat: 5, Lon: 5}))
}

func TestPolygonContains_VertexIsConsistent(t *testing.T) {
	poly := mustPolygon(t, square(0, 0, 10, 10))
	vertex := GeoPoint{Lat: 10, Lon: 10}

	first := poly.Contains(vertex)
	for range 10 {
		assert.Equal(t, first, poly.Contains(vertex))
	}
}

func TestNewPolygon_DropsExplicitClosure(t *testing.T) {
	ring := append(square(0, 0, 1, 1), GeoPoint{Lat: 0, Lon: 0})
	poly := mustPolygon(t, ring)

	assert.Len(t, poly.Vertices(), 4)
}

func TestNewPolygon_Degenerate(t *testing.T) {
	poly, err := NewPolygon([]GeoPoint{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}})

	require.ErrorIs(t, err, ErrDegenerateGeometry)
	assert.True(t, poly.Degenerate())
	assert.False(t, poly.Contains(GeoPoint{Lat: 0.5, Lon: 0.5}))
}

func TestNewPolygon_ClosedTriangleOfTwoPointsIsDegenerate(t *testing.T) {
	_, err := NewPolygon([]GeoPoint{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}, {Lat: 0, Lon: 0}})
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
}

func TestNewPolygon_CopiesInput(t *testing.T) {
	ring := square(0, 0, 10, 10)
	poly := mustPolygon(t, ring)

	ring[0] = GeoPoint{Lat: 50, Lon: 50}

	assert.Equal(t, GeoPoint{Lat: 0, Lon: 0}, poly.Vertices()[0])
}

func TestRegionContains_MultiPolygon(t *testing.T) {
	region := Region{
		Name: "Archipelago",
		Polygons: []Polygon{
			mustPolygon(t, square(0, 0, 1, 1)),
			mustPolygon(t, square(5, 5, 6, 6)),
		},
	}

	assert.True(t, region.Contains(GeoPoint{Lat: 0.5, Lon: 0.5}))
	assert.True(t, region.Contains(GeoPoint{Lat: 5.5, Lon: 5.5}))
	assert.False(t, region.Contains(GeoPoint{Lat: 3, Lon: 3}))
}

func TestRegionCenter(t *testing.T) {
	region := Region{
		Name: "Archipelago",
		Polygons: []Polygon{
			mustPolygon(t, square(0, 0, 1, 1)),
			mustPolygon(t, square(5, 5, 6, 6)),
		},
	}

	assert.Equal(t, GeoPoint{Lat: 3, Lon: 3}, region.Center())
	assert.Equal(t, GeoPoint{}, Region{Name: "empty"}.Center())
}

func TestDistanceKm(t *testing.T) {
	t.Run("same point", func(t *testing.T) {
		p := GeoPoint{Lat: 35.68, Lon: 139.69}
		assert.InDelta(t, 0, DistanceKm(p, p), 1e-9)
	})

	t.Run("one degree of latitude", func(t *testing.T) {
		d := DistanceKm(GeoPoint{Lat: 0, Lon: 0}, GeoPoint{Lat: 1, Lon: 0})
		assert.InDelta(t, 111.19, d, 0.01)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := GeoPoint{Lat: 34.05, Lon: -118.24}
		b := GeoPoint{Lat: 40.71, Lon: -74.01}
		assert.InDelta(t, DistanceKm(a, b), DistanceKm(b, a), 1e-9)
		assert.InDelta(t, 3936, DistanceKm(a, b), 5)
	})

	t.Run("antipodal", func(t *testing.T) {
		d := DistanceKm(GeoPoint{Lat: 0, Lon: 0}, GeoPoint{Lat: 0, Lon: 180})
		assert.InDelta(t, 20015.09, d, 0.1)
	})

	t.Run("near antipodal never NaN", func(t *testing.T) {
		d := DistanceKm(
			GeoPoint{Lat: -86.77999999999997, Lon: -179},
			GeoPoint{Lat: 86.77999999999997, Lon: 1},
		)
		assert.False(t, math.IsNaN(d))
		assert.InDelta(t, math.Pi*EarthRadiusKm, d, 1)
	})

	t.Run("grid of antipodes", func(t *testing.T) {
		for lat := -90.0; lat <= 90; lat += 0.37 {
			for lon := -180.0; lon < 180; lon += 7.3 {
				a := GeoPoint{Lat: lat, Lon: lon}
				b := GeoPoint{Lat: -lat, Lon: lon + 180}
				d := DistanceKm(a, b)
				require.False(t, math.IsNaN(d), "%+v -> %+v", a, b)
				require.LessOrEqual(t, d, math.Pi*EarthRadiusKm+1e-6)
			}
		}
	})
}
