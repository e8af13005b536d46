package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/quake-threat-service/internal/catalog"
	"github.com/couchcryptid/quake-threat-service/internal/domain"
	"github.com/couchcryptid/quake-threat-service/internal/interaction"
)

// maxTopK bounds the k query parameter on /api/quakes/top.
const maxTopK = 1000

// defaultPinToleranceKm is the click reach on /api/pin when tolerance_km is
// not given.
const defaultPinToleranceKm = 50.0

// EventQuerier exposes read access to classified events and place markers.
type EventQuerier interface {
	TopK(k int) []domain.EventRecord
	Summary() domain.Summary
	Places() []interaction.Place
	Pin(pt domain.GeoPoint, toleranceKm float64, logger *slog.Logger) catalog.PinResult
}

// Server exposes health, readiness, metrics and event query HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /api/quakes/top, /api/summary, /api/places and /api/pin routes. defaultK
// is used when the top request carries no k parameter.
func NewServer(addr string, ready sharedobs.ReadinessChecker, events EventQuerier, defaultK int, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/quakes/top", handleTop(events, defaultK))
	mux.HandleFunc("GET /api/summary", handleSummary(events))
	mux.HandleFunc("GET /api/places", handlePlaces(events))
	mux.HandleFunc("GET /api/pin", handlePin(events, logger))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type topResponse struct {
	Count  int                  `json:"count"`
	Events []domain.EventRecord `json:"events"`
}

func handleTop(events EventQuerier, defaultK int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		k := defaultK
		if v := r.URL.Query().Get("k"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > maxTopK {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error": "k must be an integer between 1 and " + strconv.Itoa(maxTopK),
				})
				return
			}
			k = n
		}

		top := events.TopK(k)
		if top == nil {
			top = []domain.EventRecord{}
		}
		writeJSON(w, http.StatusOK, topResponse{Count: len(top), Events: top})
	}
}

func handleSummary(events EventQuerier) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s := events.Summary()
		if s.Regions == nil {
			s.Regions = []domain.RegionCount{}
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func handlePlaces(events EventQuerier) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		places := events.Places()
		if places == nil {
			places = []interaction.Place{}
		}
		writeJSON(w, http.StatusOK, places)
	}
}

func handlePin(events EventQuerier, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
		lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
		if errLat != nil || errLon != nil || !(lat >= -90 && lat <= 90) || !(lon >= -180 && lon <= 180) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "lat and lon must be numbers within [-90,90] and [-180,180]",
			})
			return
		}

		tolerance := defaultPinToleranceKm
		if v := q.Get("tolerance_km"); v != "" {
			t, err := strconv.ParseFloat(v, 64)
			if err != nil || !(t >= 0) {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error": "tolerance_km must be a non-negative number",
				})
				return
			}
			tolerance = t
		}

		writeJSON(w, http.StatusOK, events.Pin(domain.GeoPoint{Lat: lat, Lon: lon}, tolerance, logger))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
