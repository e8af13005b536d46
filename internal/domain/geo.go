package domain

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// GeoPoint is a WGS-84 latitude/longitude pair in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DistanceKm returns the great-circle (haversine) distance between two points.
func DistanceKm(a, b GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push h just past 1 for near-antipodal points.
	h = math.Min(1, math.Max(0, h))
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// bbox is minLon, minLat, maxLon, maxLat.
type bbox [4]float64

func (b bbox) contains(p GeoPoint) bool {
	return p.Lon >= b[0] && p.Lon <= b[2] && p.Lat >= b[1] && p.Lat <= b[3]
}

// Polygon is a closed ring of vertices. The last vertex implicitly connects
// back to the first.
type Polygon struct {
	ring []GeoPoint
	box  bbox
}

// NewPolygon builds a polygon from an ordered ring. A trailing vertex equal to
// the first (explicit GeoJSON closure) is dropped. Rings with fewer than three
// vertices are returned together with ErrDegenerateGeometry; such a polygon
// never contains any point.
func NewPolygon(ring []GeoPoint) (Polygon, error) {
	if n := len(ring); n > 1 && ring[0] == ring[n-1] {
		ring = ring[:n-1]
	}
	pts := make([]GeoPoint, len(ring))
	copy(pts, ring)

	poly := Polygon{ring: pts, box: computeBBox(pts)}
	if len(pts) < 3 {
		return poly, fmt.Errorf("%w: ring has %d vertices", ErrDegenerateGeometry, len(pts))
	}
	return poly, nil
}

// Vertices returns a copy of the ring.
func (p Polygon) Vertices() []GeoPoint {
	out := make([]GeoPoint, len(p.ring))
	copy(out, p.ring)
	return out
}

// Degenerate reports whether the ring has fewer than three vertices.
func (p Polygon) Degenerate() bool {
	return len(p.ring) < 3
}

// Contains reports whether pt lies inside the ring using an even-odd ray cast
// toward +infinity longitude. Points exactly on an edge or vertex may land on
// either side but always the same side for the same input.
func (p Polygon) Contains(pt GeoPoint) bool {
	n := len(p.ring)
	if n < 3 || !p.box.contains(pt) {
		return false
	}

	inside := false
	x, y := pt.Lon, pt.Lat
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := p.ring[i].Lon, p.ring[i].Lat
		xj, yj := p.ring[j].Lon, p.ring[j].Lat
		// yi != yj whenever the first clause holds, so the division is safe.
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

func computeBBox(ring []GeoPoint) bbox {
	b := bbox{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for _, pt := range ring {
		b[0] = math.Min(b[0], pt.Lon)
		b[1] = math.Min(b[1], pt.Lat)
		b[2] = math.Max(b[2], pt.Lon)
		b[3] = math.Max(b[3], pt.Lat)
	}
	return b
}

// Region is a named multi-polygon such as a country with islands. Polygons
// belong to exactly one region.
type Region struct {
	Name     string
	Polygons []Polygon
}

// Contains reports whether any of the region's polygons contains pt.
func (r Region) Contains(pt GeoPoint) bool {
	for _, poly := range r.Polygons {
		if poly.Contains(pt) {
			return true
		}
	}
	return false
}

// Center returns the midpoint of the bounding box spanning all polygons. It is
// used as a marker anchor for regions that have no explicit location.
func (r Region) Center() GeoPoint {
	b := bbox{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for _, poly := range r.Polygons {
		if len(poly.ring) == 0 {
			continue
		}
		b[0] = math.Min(b[0], poly.box[0])
		b[1] = math.Min(b[1], poly.box[1])
		b[2] = math.Max(b[2], poly.box[2])
		b[3] = math.Max(b[3], poly.box[3])
	}
	if math.IsInf(b[0], 0) {
		return GeoPoint{}
	}
	return GeoPoint{Lat: (b[1] + b[3]) / 2, Lon: (b[0] + b[2]) / 2}
}
