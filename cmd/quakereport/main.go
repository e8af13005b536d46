// Command quakereport classifies a GeoJSON file of earthquakes against a
// regions file and prints the ranked events and per-region counts. With
// -click it pins the marker at a position and lists what stays visible.
//
// Usage:
//
//	go run ./cmd/quakereport \
//	  -regions data/countries.geo.json \
//	  -cities data/city-data.json \
//	  -features data/quakes.geojson \
//	  -top 10 -click 38.3,142.4
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-threat-service/internal/adapter/geojson"
	"github.com/couchcryptid/quake-threat-service/internal/domain"
	"github.com/couchcryptid/quake-threat-service/internal/interaction"
	"github.com/couchcryptid/quake-threat-service/internal/observability"
)

type options struct {
	regionsPath  string
	citiesPath   string
	featuresPath string
	top          int
	summary      bool
	click        string
	toleranceKm  float64
	now          string
	logLevel     string
}

func main() {
	var opts options
	flag.StringVar(&opts.regionsPath, "regions", "", "GeoJSON FeatureCollection of region polygons")
	flag.StringVar(&opts.citiesPath, "cities", "", "optional GeoJSON FeatureCollection of city points")
	flag.StringVar(&opts.featuresPath, "features", "", "GeoJSON FeatureCollection of earthquake points")
	flag.IntVar(&opts.top, "top", 10, "number of strongest events to list")
	flag.BoolVar(&opts.summary, "summary", true, "print per-region counts")
	flag.StringVar(&opts.click, "click", "", "simulate a click at lat,lon and list visible markers")
	flag.Float64Var(&opts.toleranceKm, "tolerance", 50, "click tolerance in km")
	flag.StringVar(&opts.now, "now", "", "RFC3339 reference time for age derivation (default: current time)")
	flag.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	flag.Parse()

	if opts.regionsPath == "" || opts.featuresPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: observability.ParseLevel(opts.logLevel)}))
	if code := run(opts, os.Stdout, logger); code != 0 {
		os.Exit(code)
	}
}

func run(opts options, out io.Writer, logger *slog.Logger) int {
	if opts.now != "" {
		now, err := time.Parse(time.RFC3339, opts.now)
		if err != nil {
			logger.Error("invalid -now", "error", err)
			return 2
		}
		domain.SetClock(clockwork.NewFakeClockAt(now))
		defer domain.SetClock(nil)
	}

	regionSet, err := geojson.LoadRegionsFile(opts.regionsPath, logger)
	if err != nil {
		logger.Error("load regions", "error", err)
		return 1
	}

	features, err := geojson.LoadFeaturesFile(opts.featuresPath)
	skipped := countFeatureErrors(err)
	if err != nil && skipped == 0 {
		logger.Error("load features", "error", err)
		return 1
	}
	if skipped > 0 {
		logger.Warn("skipped malformed features", "error", err)
	}

	events, err := domain.ClassifyAll(features, regionSet.Regions, logger)
	if err != nil {
		n := countFeatureErrors(err)
		skipped += n
		logger.Warn("skipped unclassifiable features", "count", n, "error", err)
	}

	fmt.Fprintf(out, "Classified %d events (%d skipped)\n", len(events), skipped)
	printOverlaps(out, events)
	printTop(out, domain.TopK(events, opts.top))

	if opts.summary {
		printSummary(out, domain.DebugSummary(events, regionSet.Regions))
	}

	if opts.click != "" {
		pt, err := parseLatLon(opts.click)
		if err != nil {
			logger.Error("invalid -click", "error", err)
			return 2
		}

		places, err := geojson.LoadPlaces(opts.citiesPath, regionSet.Regions)
		if err != nil {
			logger.Error("load cities", "error", err)
			return 1
		}

		m := interaction.NewMachine(events, places, interaction.GeoFootprint{ToleranceKm: opts.toleranceKm}, logger)
		m.OnClicked(interaction.PointerFor(pt))
		printClick(out, m, pt)
	}

	return 0
}

func printTop(out io.Writer, top []domain.EventRecord) {
	if len(top) == 0 {
		return
	}
	fmt.Fprintf(out, "\nTop %d by magnitude:\n", len(top))
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tMAG\tEVENT\tWHERE\tDEPTH\tTHREAT KM\tAGE")
	for i, e := range top {
		where := "ocean"
		if e.OnLand() {
			where = e.RegionName
		}
		fmt.Fprintf(tw, "%d\t%.1f\t%s\t%s\t%s\t%.1f\t%s\n",
			i+1, e.Magnitude, e.String(), where, e.DepthTier, e.ThreatRadiusKm, e.Age)
	}
	tw.Flush() //nolint:errcheck // stdout
}

// printOverlaps lists events whose point fell inside more than one region.
func printOverlaps(out io.Writer, events []domain.EventRecord) {
	var overlapping []domain.EventRecord
	for _, e := range events {
		if len(e.Alternates) > 0 {
			overlapping = append(overlapping, e)
		}
	}
	if len(overlapping) == 0 {
		return
	}
	fmt.Fprintf(out, "%d events inside overlapping regions:\n", len(overlapping))
	for _, e := range overlapping {
		fmt.Fprintf(out, "  %s: %s (also %s)\n", e.String(), e.RegionName, strings.Join(e.Alternates, ", "))
	}
}

func printSummary(out io.Writer, s domain.Summary) {
	fmt.Fprintln(out, "\nEvents by region:")
	for _, rc := range s.Regions {
		fmt.Fprintf(out, "  %s: %d\n", rc.Region, rc.Count)
	}
	fmt.Fprintf(out, "  OCEAN QUAKES: %d\n", s.Ocean)
}

func printClick(out io.Writer, m *interaction.Machine, pt domain.GeoPoint) {
	id, ok := m.Pinned()
	switch {
	case !ok:
		fmt.Fprintf(out, "\nClick at %.4f,%.4f: no marker\n", pt.Lat, pt.Lon)
		return
	case id.Kind == interaction.EventMarker:
		e := m.Event(id.Index)
		fmt.Fprintf(out, "\nClick at %.4f,%.4f: pinned event %s (threat radius %.1f km)\n", pt.Lat, pt.Lon, e.String(), e.ThreatRadiusKm)
	default:
		fmt.Fprintf(out, "\nClick at %.4f,%.4f: pinned place %s\n", pt.Lat, pt.Lon, m.Place(id.Index).Name)
	}

	fmt.Fprintln(out, "Visible markers:")
	for _, v := range m.Visible() {
		if v.Kind == interaction.EventMarker {
			e := m.Event(v.Index)
			fmt.Fprintf(out, "  event %s (M%.1f)\n", e.String(), e.Magnitude)
			continue
		}
		fmt.Fprintf(out, "  place %s\n", m.Place(v.Index).Name)
	}
}

func parseLatLon(s string) (domain.GeoPoint, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return domain.GeoPoint{}, fmt.Errorf("want lat,lon, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("longitude: %w", err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return domain.GeoPoint{}, fmt.Errorf("%q out of range", s)
	}
	return domain.GeoPoint{Lat: lat, Lon: lon}, nil
}

// countFeatureErrors counts the *domain.FeatureError values in a joined error.
func countFeatureErrors(err error) int {
	if err == nil {
		return 0
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		var fe *domain.FeatureError
		if errors.As(err, &fe) {
			return 1
		}
		return 0
	}
	n := 0
	for _, e := range joined.Unwrap() {
		var fe *domain.FeatureError
		if errors.As(e, &fe) {
			n++
		}
	}
	return n
}
