package domain

import (
	"context"
	"fmt"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// RawFeature is a parsed point feature: a location plus the feed's property
// map. Required properties are "magnitude" and "depth"; "title" and "age" are
// expected but optional.
type RawFeature struct {
	ID         string
	Location   GeoPoint
	Properties map[string]any
}

// EventKind discriminates land and ocean events.
type EventKind int

const (
	OceanEvent EventKind = iota
	LandEvent
)

func (k EventKind) String() string {
	if k == LandEvent {
		return "land"
	}
	return "ocean"
}

// MarshalText encodes the kind as "land" or "ocean".
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes "land" or "ocean".
func (k *EventKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "land":
		*k = LandEvent
	case "ocean":
		*k = OceanEvent
	default:
		return fmt.Errorf("unknown event kind %q", b)
	}
	return nil
}

// EventRecord is a classified earthquake. Radius and ThreatRadiusKm are
// derived once at construction; RegionName is set iff Kind is LandEvent.
// Alternates lists any later regions that also contained the point.
type EventRecord struct {
	ID             string        `json:"id"`
	Title          string        `json:"title,omitempty"`
	Location       GeoPoint      `json:"location"`
	Magnitude      float64       `json:"magnitude"`
	Depth          float64       `json:"depth"`
	Kind           EventKind     `json:"kind"`
	RegionName     string        `json:"region,omitempty"`
	Alternates     []string      `json:"alternates,omitempty"`
	Radius         float64       `json:"radius"`
	ThreatRadiusKm float64       `json:"threat_radius_km"`
	DepthTier      DepthTier     `json:"depth_tier"`
	MagnitudeTier  MagnitudeTier `json:"magnitude_tier"`
	Age            AgeTag        `json:"age"`
	Recent         bool          `json:"recent"`
	ClassifiedAt   time.Time     `json:"classified_at"`
}

// OnLand reports whether the event was placed inside a region.
func (e EventRecord) OnLand() bool {
	return e.Kind == LandEvent
}

func (e EventRecord) String() string {
	if e.Title != "" {
		return e.Title
	}
	return e.ID
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
