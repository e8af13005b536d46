package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-threat-service/internal/domain"
	"github.com/couchcryptid/quake-threat-service/internal/observability"
)

// BatchExtractor pulls raw quake messages from the source topic.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer classifies a single raw message.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.EventRecord, error)
}

// BatchLoader accepts classified events.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.EventRecord) error
}

// MultiLoader hands each batch to every loader in turn and stops at the
// first error.
type MultiLoader []BatchLoader

func (m MultiLoader) LoadBatch(ctx context.Context, events []domain.EventRecord) error {
	for _, l := range m {
		if err := l.LoadBatch(ctx, events); err != nil {
			return err
		}
	}
	return nil
}

// Pipeline consumes raw quakes, classifies them and hands the records to
// its loader. Offsets are committed once a record is loaded or rejected.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	batchSize   int

	retry *retryDelay
	ready atomic.Bool
}

// New wires the three stages together.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
		retry:       newRetryDelay(clockwork.NewRealClock()),
	}
}

// Ready reports whether a batch has reached the loader.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// CheckReadiness fails until the first batch has been loaded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.Ready() {
		return errors.New("no quake batch loaded yet")
	}
	return nil
}

// Run consumes batches until ctx is cancelled. Extract and load failures
// are retried after a growing delay; it only returns nil.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for p.step(ctx) {
	}

	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	return nil
}

// step handles one batch and reports whether the loop should continue.
func (p *Pipeline) step(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	start := time.Now()

	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	switch {
	case ctx.Err() != nil:
		return false
	case err != nil:
		p.logger.Error("extract batch failed", "error", err, "retry_in", p.retry.current)
		return p.retry.wait(ctx)
	case len(batch) == 0:
		return true
	}

	p.retry.reset()
	p.metrics.MessagesConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))

	records, accepted := p.classify(ctx, batch)
	if len(records) == 0 {
		return true
	}

	if err := p.loader.LoadBatch(ctx, records); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_size", len(records), "retry_in", p.retry.current)
		return p.retry.wait(ctx)
	}
	p.metrics.MessagesProduced.Add(float64(len(records)))
	for _, raw := range accepted {
		p.commit(ctx, raw)
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return true
}

// classify transforms every message. Rejected messages are committed here
// so a malformed quake is never redelivered; accepted ones are returned
// alongside their records and committed after the load.
func (p *Pipeline) classify(ctx context.Context, batch []domain.RawEvent) ([]domain.EventRecord, []domain.RawEvent) {
	records := make([]domain.EventRecord, 0, len(batch))
	accepted := make([]domain.RawEvent, 0, len(batch))

	for _, raw := range batch {
		rec, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.metrics.TransformErrors.Inc()
			p.logger.Warn("dropping unclassifiable message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.commit(ctx, raw)
			continue
		}
		p.metrics.EventsClassified.WithLabelValues(rec.Kind.String()).Inc()
		records = append(records, rec)
		accepted = append(accepted, raw)
	}
	return records, accepted
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("offset commit failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
