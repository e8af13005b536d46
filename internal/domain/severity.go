package domain

import (
	"math"
	"strings"
	"time"
)

// Severity thresholds. Lower bounds are inclusive: a depth of exactly 70 km
// is intermediate and a magnitude of exactly 5.0 is large.
const (
	ThresholdIntermediateDepthKm = 70.0
	ThresholdDeepDepthKm         = 300.0

	ThresholdLightMagnitude    = 4.0
	ThresholdModerateMagnitude = 5.0

	radiusPerMagnitude = 1.75
	kmPerMile          = 1.6
)

// DepthTier buckets hypocentre depth.
type DepthTier string

const (
	DepthShallow      DepthTier = "shallow"
	DepthIntermediate DepthTier = "intermediate"
	DepthDeep         DepthTier = "deep"
)

// MagnitudeTier buckets magnitude for marker sizing.
type MagnitudeTier string

const (
	MagnitudeSmall  MagnitudeTier = "small"
	MagnitudeMedium MagnitudeTier = "medium"
	MagnitudeLarge  MagnitudeTier = "large"
)

// Radius is the visual size proxy for a marker.
func Radius(magnitude float64) float64 {
	return radiusPerMagnitude * magnitude
}

// ThreatRadiusKm is the distance beyond which a location is considered
// unaffected: 20 miles scaled by 1.8^(2m-5), converted to kilometres. Each
// whole magnitude step multiplies the radius by 3.24. The result is not
// clamped.
func ThreatRadiusKm(magnitude float64) float64 {
	miles := 20.0 * math.Pow(1.8, 2*magnitude-5)
	return miles * kmPerMile
}

// ClassifyDepth returns the depth tier for a depth in kilometres.
func ClassifyDepth(depth float64) DepthTier {
	switch {
	case depth < ThresholdIntermediateDepthKm:
		return DepthShallow
	case depth < ThresholdDeepDepthKm:
		return DepthIntermediate
	default:
		return DepthDeep
	}
}

// ClassifyMagnitude returns the magnitude tier.
func ClassifyMagnitude(magnitude float64) MagnitudeTier {
	switch {
	case magnitude < ThresholdLightMagnitude:
		return MagnitudeSmall
	case magnitude < ThresholdModerateMagnitude:
		return MagnitudeMedium
	default:
		return MagnitudeLarge
	}
}

// AgeTag is the feed's recency label.
type AgeTag int

const (
	AgeOlder AgeTag = iota
	AgePastHour
	AgePastDay
	AgePastWeek
)

var ageLabels = map[AgeTag]string{
	AgePastHour: "Past Hour",
	AgePastDay:  "Past Day",
	AgePastWeek: "Past Week",
	AgeOlder:    "Older",
}

// ParseAgeTag maps a feed label to an AgeTag. Matching ignores case and
// surrounding whitespace; anything unrecognised is AgeOlder.
func ParseAgeTag(label string) AgeTag {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "past hour":
		return AgePastHour
	case "past day":
		return AgePastDay
	case "past week":
		return AgePastWeek
	default:
		return AgeOlder
	}
}

// DeriveAgeTag buckets an event time relative to now. Used when the feed
// supplies an event time but no age label.
func DeriveAgeTag(eventTime, now time.Time) AgeTag {
	age := now.Sub(eventTime)
	switch {
	case age <= time.Hour: // includes clock skew putting the event in the future
		return AgePastHour
	case age <= 24*time.Hour:
		return AgePastDay
	case age <= 7*24*time.Hour:
		return AgePastWeek
	default:
		return AgeOlder
	}
}

// Recent reports whether the tag gets the recent-event overlay.
func (a AgeTag) Recent() bool {
	return a == AgePastHour || a == AgePastDay
}

func (a AgeTag) String() string {
	if s, ok := ageLabels[a]; ok {
		return s
	}
	return ageLabels[AgeOlder]
}

// MarshalText encodes the tag as its feed label.
func (a AgeTag) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes a feed label.
func (a *AgeTag) UnmarshalText(b []byte) error {
	*a = ParseAgeTag(string(b))
	return nil
}
