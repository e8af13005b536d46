// Package geojson loads region polygons, city points and raw quake features
// from GeoJSON FeatureCollections.
package geojson

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/quake-threat-service/internal/domain"
	"github.com/couchcryptid/quake-threat-service/internal/interaction"
)

// RegionSet is the result of loading a regions file.
type RegionSet struct {
	Regions []domain.Region
	// Degenerate counts polygons with fewer than three distinct vertices.
	// They are kept but never contain a point.
	Degenerate int
}

// LoadRegionsFile reads and parses a regions FeatureCollection from disk.
func LoadRegionsFile(path string, logger *slog.Logger) (RegionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RegionSet{}, fmt.Errorf("read regions %s: %w", path, err)
	}
	return ParseRegions(data, logger)
}

// ParseRegions converts each Polygon or MultiPolygon feature into a Region,
// in file order. Only exterior rings are used. Features with any other
// geometry are skipped with a warning. A feature with neither a name nor an
// id is named region-<index> so that a land hit always carries a label.
func ParseRegions(data []byte, logger *slog.Logger) (RegionSet, error) {
	fc, err := orbjson.UnmarshalFeatureCollection(data)
	if err != nil {
		return RegionSet{}, fmt.Errorf("parse regions: %w", err)
	}

	var set RegionSet
	for i, f := range fc.Features {
		name := featureName(f)
		if name == "" {
			name = fmt.Sprintf("region-%d", i)
			logger.Warn("region has no name or id", "index", i, "region", name)
		}

		var rings []orb.Ring
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			rings = exteriorRings(orb.MultiPolygon{g})
		case orb.MultiPolygon:
			rings = exteriorRings(g)
		default:
			logger.Warn("skipping region with unsupported geometry",
				"index", i, "region", name, "geometry", fmt.Sprintf("%T", f.Geometry))
			continue
		}

		region := domain.Region{Name: name, Polygons: make([]domain.Polygon, 0, len(rings))}
		for _, ring := range rings {
			poly, err := domain.NewPolygon(ringPoints(ring))
			if errors.Is(err, domain.ErrDegenerateGeometry) {
				set.Degenerate++
				logger.Warn("degenerate polygon", "region", name, "vertices", len(ring))
			}
			region.Polygons = append(region.Polygons, poly)
		}
		set.Regions = append(set.Regions, region)
	}

	logger.Info("regions loaded", "regions", len(set.Regions), "degenerate_polygons", set.Degenerate)
	return set, nil
}

// LoadPlacesFile reads and parses a city points FeatureCollection from disk.
func LoadPlacesFile(path string) ([]interaction.Place, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read places %s: %w", path, err)
	}
	return ParsePlaces(data)
}

// ParsePlaces converts point features into place markers. A non-point
// feature fails the whole file. Unnamed places are named place-<index>.
func ParsePlaces(data []byte) ([]interaction.Place, error) {
	fc, err := orbjson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse places: %w", err)
	}

	places := make([]interaction.Place, 0, len(fc.Features))
	for i, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			return nil, fmt.Errorf("place %d: geometry %T is not a point", i, f.Geometry)
		}
		name := featureName(f)
		if name == "" {
			name = fmt.Sprintf("place-%d", i)
		}
		places = append(places, interaction.Place{
			Name:     name,
			Location: domain.GeoPoint{Lat: pt.Lat(), Lon: pt.Lon()},
		})
	}
	return places, nil
}

// RegionPlaces returns one place marker per region, at the centre of its
// bounding box. Used when no city file is configured.
func RegionPlaces(regions []domain.Region) []interaction.Place {
	places := make([]interaction.Place, 0, len(regions))
	for _, r := range regions {
		places = append(places, interaction.Place{Name: r.Name, Location: r.Center()})
	}
	return places
}

// LoadPlaces returns the city markers in citiesPath, or one marker per
// region when citiesPath is empty.
func LoadPlaces(citiesPath string, regions []domain.Region) ([]interaction.Place, error) {
	if citiesPath == "" {
		return RegionPlaces(regions), nil
	}
	return LoadPlacesFile(citiesPath)
}

// LoadFeaturesFile reads and parses a quake FeatureCollection from disk.
func LoadFeaturesFile(path string) ([]domain.RawFeature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read features %s: %w", path, err)
	}
	return ParseFeatures(data)
}

// ParseFeatures decodes a quake FeatureCollection. Non-point features are
// dropped and reported as *domain.FeatureError values in the joined error.
func ParseFeatures(data []byte) ([]domain.RawFeature, error) {
	fc, err := orbjson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse features: %w", err)
	}

	features := make([]domain.RawFeature, 0, len(fc.Features))
	var errs []error
	for i, f := range fc.Features {
		raw, err := domain.FeatureFromGeoJSON(f)
		if err != nil {
			errs = append(errs, &domain.FeatureError{Index: i, ID: idString(f.ID), Err: err})
			continue
		}
		features = append(features, raw)
	}
	return features, errors.Join(errs...)
}

func exteriorRings(mp orb.MultiPolygon) []orb.Ring {
	rings := make([]orb.Ring, 0, len(mp))
	for _, poly := range mp {
		if len(poly) == 0 {
			rings = append(rings, nil)
			continue
		}
		rings = append(rings, poly[0])
	}
	return rings
}

func ringPoints(ring orb.Ring) []domain.GeoPoint {
	pts := make([]domain.GeoPoint, len(ring))
	for i, p := range ring {
		pts[i] = domain.GeoPoint{Lat: p.Lat(), Lon: p.Lon()}
	}
	return pts
}

func featureName(f *orbjson.Feature) string {
	if name, ok := f.Properties["name"].(string); ok && name != "" {
		return name
	}
	return idString(f.ID)
}

func idString(id any) string {
	if id == nil {
		return ""
	}
	return fmt.Sprint(id)
}
