// Package domain models earthquake point events and the country regions they
// are classified against.
//
// # Data Source
//
// Events arrive as GeoJSON point Features, one per message, in the shape the
// upstream feed collector emits for the USGS 2.5+ weekly summary:
//
//	{"type":"Feature","id":"us7000abcd",
//	 "geometry":{"type":"Point","coordinates":[142.37,38.32]},
//	 "properties":{"magnitude":6.1,"depth":29.0,"title":"M 6.1 - off the east coast of Honshu","age":"Past Day"}}
//
// Coordinates follow GeoJSON order (longitude first). "mag" is accepted as an
// alias for "magnitude". Numeric properties may be JSON numbers or numeric
// strings.
//
// Region boundaries come from a countries GeoJSON FeatureCollection with a
// "name" property and Polygon or MultiPolygon geometry.
//
// # Classification
//
// A point is on land when any polygon of any region contains it. Regions are
// tested in input order and the first match owns the point; later matches are
// reported as alternates rather than errors. Containment uses an even-odd ray
// cast toward +infinity longitude with a bounding-box prefilter.
//
// # Severity Model
//
//	Radius:       1.75 * magnitude (marker size proxy)
//	Threat:       20 * 1.8^(2*magnitude - 5) miles, * 1.6 to kilometres
//	Depth:        <70 km shallow | <300 km intermediate | >=300 km deep
//	Magnitude:    <4.0 small | <5.0 medium | >=5.0 large
//	Recency:      "Past Hour" and "Past Day" are recent; everything else is not
//
// Every whole magnitude step multiplies the threat radius by 1.8^2 = 3.24. No
// clamping is applied.
//
// # ID Generation
//
// Features that carry a GeoJSON id keep it. Otherwise the ID is a
// deterministic SHA-256 of title|lat|lon|magnitude|depth so that replays of
// the same feature land on the same key downstream. See [generateID].
package domain
