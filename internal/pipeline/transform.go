package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/quake-threat-service/internal/domain"
	"github.com/couchcryptid/quake-threat-service/internal/observability"
)

// QuakeTransformer implements Transformer: it decodes a point feature,
// places it against the region locator and derives the severity fields.
type QuakeTransformer struct {
	locator domain.Locator
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a QuakeTransformer. metrics may be nil.
func NewTransformer(locator domain.Locator, logger *slog.Logger, metrics *observability.Metrics) *QuakeTransformer {
	return &QuakeTransformer{
		locator: locator,
		logger:  logger,
		metrics: metrics,
	}
}

func (t *QuakeTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.EventRecord, error) {
	feature, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.EventRecord{}, err
	}

	placement := t.locator.Locate(feature.Location)
	if placement.Ambiguous() {
		t.logger.Warn("point contained by multiple regions",
			"event_id", feature.ID,
			"region", placement.RegionName,
			"alternates", placement.Alternates,
		)
		if t.metrics != nil {
			t.metrics.AmbiguousPlacements.Inc()
		}
	}

	return domain.NewEventRecord(feature, placement, domain.Now())
}
