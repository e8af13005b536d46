package domain

import (
	"errors"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Placement is the result of classifying a point against regions.
type Placement struct {
	RegionName string   `json:"region,omitempty"`
	OnLand     bool     `json:"on_land"`
	Alternates []string `json:"alternates,omitempty"` // later regions that also contain the point
}

// Ambiguous reports whether the point fell inside more than one region.
func (p Placement) Ambiguous() bool {
	return len(p.Alternates) > 0
}

// Locator resolves a point to its owning region, if any.
type Locator interface {
	Locate(pt GeoPoint) Placement
}

// Regions is an ordered region list. Order is the tie-break when regions
// overlap: the first region containing a point owns it.
type Regions []Region

// Locate implements Locator.
func (rs Regions) Locate(pt GeoPoint) Placement {
	return Classify(pt, rs)
}

// Classify returns the first region, in input order, that has any polygon
// containing pt. Later regions that also contain pt are listed as
// Alternates so callers can report the overlap. A point contained by no
// region is an ocean placement.
func Classify(pt GeoPoint, regions []Region) Placement {
	var placement Placement
	for _, region := range regions {
		if !region.Contains(pt) {
			continue
		}
		if !placement.OnLand {
			placement.RegionName = region.Name
			placement.OnLand = true
			continue
		}
		placement.Alternates = append(placement.Alternates, region.Name)
	}
	return placement
}

// ClassifyAll classifies every feature against regions and derives its
// severity fields. Features are processed in parallel; the returned records
// keep input order. A malformed feature is dropped and reported as a
// *FeatureError in the joined error; it never prevents the rest of the set
// from being classified. Points inside more than one region are logged at
// warn level and keep the extra regions in EventRecord.Alternates. A nil
// logger falls back to slog.Default.
func ClassifyAll(features []RawFeature, regions []Region, logger *slog.Logger) ([]EventRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}
	locator := Regions(regions)
	now := clock.Now()

	records := make([]EventRecord, len(features))
	errs := make([]error, len(features))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range features {
		g.Go(func() error {
			placement := locator.Locate(features[i].Location)
			rec, err := NewEventRecord(features[i], placement, now)
			if err != nil {
				errs[i] = &FeatureError{Index: i, ID: features[i].ID, Err: err}
				return nil
			}
			if placement.Ambiguous() {
				logger.Warn("point contained by multiple regions",
					"event_id", rec.ID,
					"region", placement.RegionName,
					"alternates", placement.Alternates,
				)
			}
			records[i] = rec
			return nil
		})
	}
	_ = g.Wait() // workers report per-item errors through errs

	out := make([]EventRecord, 0, len(features))
	for i := range records {
		if errs[i] == nil {
			out = append(out, records[i])
		}
	}
	return out, errors.Join(errs...)
}
