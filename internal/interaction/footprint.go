package interaction

import "github.com/couchcryptid/quake-threat-service/internal/domain"

// GeoFootprint treats the pointer as a geographic position (X is longitude,
// Y is latitude) and hits a marker when the pointer is within ToleranceKm of
// it. KmPerRadius widens event markers in proportion to their drawn radius.
type GeoFootprint struct {
	ToleranceKm float64
	KmPerRadius float64
}

func (g GeoFootprint) Contains(m Marker, p Pointer) bool {
	reach := g.ToleranceKm + g.KmPerRadius*m.Radius
	return domain.DistanceKm(m.Location, PointerAt(p)) <= reach
}

// PointerAt converts a pointer in geographic space to a GeoPoint.
func PointerAt(p Pointer) domain.GeoPoint {
	return domain.GeoPoint{Lat: p.Y, Lon: p.X}
}

// PointerFor places the pointer on a geographic position.
func PointerFor(pt domain.GeoPoint) Pointer {
	return Pointer{X: pt.Lon, Y: pt.Lat}
}
