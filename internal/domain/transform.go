package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ParseRawEvent decodes a RawEvent's value, a single GeoJSON point Feature,
// into a RawFeature.
func ParseRawEvent(raw RawEvent) (RawFeature, error) {
	f, err := geojson.UnmarshalFeature(raw.Value)
	if err != nil {
		return RawFeature{}, fmt.Errorf("parse raw event: %w", err)
	}
	return FeatureFromGeoJSON(f)
}

// FeatureFromGeoJSON converts a decoded GeoJSON feature. Only point
// geometries are accepted.
func FeatureFromGeoJSON(f *geojson.Feature) (RawFeature, error) {
	pt, ok := f.Geometry.(orb.Point)
	if !ok {
		return RawFeature{}, fmt.Errorf("%w: geometry %T is not a point", ErrMalformedFeature, f.Geometry)
	}

	var id string
	if f.ID != nil {
		id = fmt.Sprint(f.ID)
	}
	props := make(map[string]any, len(f.Properties))
	for k, v := range f.Properties {
		props[k] = v
	}

	return RawFeature{
		ID:         id,
		Location:   GeoPoint{Lat: pt.Lat(), Lon: pt.Lon()},
		Properties: props,
	}, nil
}

// NewEventRecord builds the classified record for a feature. Magnitude and
// depth are required; a missing or non-numeric value returns
// ErrMalformedFeature. The age tag comes from the "age" label, falling back to
// the "time" property (epoch milliseconds) relative to now.
func NewEventRecord(f RawFeature, placement Placement, now time.Time) (EventRecord, error) {
	magnitude, err := requireNumber(f.Properties, "magnitude", "mag")
	if err != nil {
		return EventRecord{}, err
	}
	depth, err := requireNumber(f.Properties, "depth")
	if err != nil {
		return EventRecord{}, err
	}

	rec := EventRecord{
		ID:             f.ID,
		Title:          stringProperty(f.Properties, "title"),
		Location:       f.Location,
		Magnitude:      magnitude,
		Depth:          depth,
		Radius:         Radius(magnitude),
		ThreatRadiusKm: ThreatRadiusKm(magnitude),
		DepthTier:      ClassifyDepth(depth),
		MagnitudeTier:  ClassifyMagnitude(magnitude),
		Age:            deriveAge(f.Properties, now),
		ClassifiedAt:   now,
	}
	rec.Recent = rec.Age.Recent()
	if placement.OnLand {
		rec.Kind = LandEvent
		rec.RegionName = placement.RegionName
		rec.Alternates = append([]string(nil), placement.Alternates...)
	}
	if rec.ID == "" {
		rec.ID = generateID(rec.Title, f.Location, magnitude, depth)
	}
	return rec, nil
}

func deriveAge(props map[string]any, now time.Time) AgeTag {
	if label := stringProperty(props, "age"); label != "" {
		return ParseAgeTag(label)
	}
	if ms, ok := parseNumber(props["time"]); ok {
		return DeriveAgeTag(time.UnixMilli(int64(ms)), now)
	}
	return AgeOlder
}

// requireNumber returns the first of keys present in props as a float.
func requireNumber(props map[string]any, keys ...string) (float64, error) {
	for _, key := range keys {
		v, present := props[key]
		if !present || v == nil {
			continue
		}
		n, ok := parseNumber(v)
		if !ok {
			return 0, fmt.Errorf("%w: %s %q is not numeric", ErrMalformedFeature, key, fmt.Sprint(v))
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: missing %s", ErrMalformedFeature, keys[0])
}

// parseNumber accepts JSON numbers and numeric strings. NaN and infinities
// are rejected.
func parseNumber(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func stringProperty(props map[string]any, key string) string {
	if s, ok := props[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// generateID produces a deterministic ID from the event's key fields so that
// replaying the same feature yields the same ID.
func generateID(title string, loc GeoPoint, magnitude, depth float64) string {
	input := fmt.Sprintf("%s|%.4f|%.4f|%g|%g", title, loc.Lat, loc.Lon, magnitude, depth)
	hash := sha256.Sum256([]byte(input))
	return "quake-" + hex.EncodeToString(hash[:8])
}

// SerializeEvent marshals a classified event into an OutputEvent keyed by ID.
func SerializeEvent(event EventRecord) (OutputEvent, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize event: %w", err)
	}
	return OutputEvent{
		Key:   []byte(event.ID),
		Value: data,
		Headers: map[string]string{
			"kind":          event.Kind.String(),
			"depth_tier":    string(event.DepthTier),
			"classified_at": event.ClassifiedAt.Format(time.RFC3339),
		},
	}, nil
}
