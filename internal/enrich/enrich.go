// Package enrich re-resolves every corpus record against the metadata
// providers and folds the fresh answers back in, using a bounded worker
// pool so provider rate limits stay the only throttle.
package enrich

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arrestlit/corpus-service/internal/domain"
	"github.com/arrestlit/corpus-service/internal/observability"
	"github.com/arrestlit/corpus-service/internal/resolver"
)

// Resolver resolves an identifier to its canonical record.
type Resolver interface {
	Resolve(ctx context.Context, id domain.Identifier) (*domain.RawRecord, error)
}

// Enricher runs batch enrichment jobs over a corpus.
type Enricher struct {
	resolver Resolver
	workers  int
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// Result summarizes one enrichment job.
type Result struct {
	// JobID identifies the run in logs and API responses.
	JobID string `json:"jobId"`
	// Total is the number of corpus records examined.
	Total int `json:"total"`
	// Succeeded is the number of records refreshed from a provider.
	Succeeded int `json:"succeeded"`
	// Failed is the number of records whose lookup failed; the originals
	// are kept untouched.
	Failed int `json:"failed"`
	// Skipped is the number of records carrying no resolvable identifier.
	Skipped int `json:"skipped"`
}

// New creates an Enricher. workers bounds concurrent resolutions; metrics
// may be nil.
func New(res Resolver, workers int, logger zerolog.Logger, metrics *observability.Metrics) *Enricher {
	if workers <= 0 {
		workers = 1
	}
	return &Enricher{
		resolver: res,
		workers:  workers,
		logger:   logger.With().Str("component", "enricher").Logger(),
		metrics:  metrics,
	}
}

// Run re-resolves every record in place and returns the outcome tally.
// Records are never dropped: a failed or skipped lookup leaves the original
// record as it was. Only a cancelled context aborts the job early.
func (e *Enricher) Run(ctx context.Context, records []domain.RawRecord) (Result, error) {
	result := Result{
		JobID: uuid.New().String(),
		Total: len(records),
	}
	logger := e.logger.With().Str("job_id", result.JobID).Logger()
	logger.Info().Int("total", result.Total).Int("workers", e.workers).Msg("enrichment started")

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan int)
	)

	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcome := e.enrichOne(ctx, &records[i], logger)
				e.countOutcome(outcome)
				mu.Lock()
				switch outcome {
				case "succeeded":
					result.Succeeded++
				case "failed":
					result.Failed++
				case "skipped":
					result.Skipped++
				}
				mu.Unlock()
			}
		}()
	}

dispatch:
	for i := range records {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		logger.Warn().Err(err).Msg("enrichment aborted")
		return result, err
	}

	logger.Info().
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("enrichment finished")
	return result, nil
}

func (e *Enricher) enrichOne(ctx context.Context, rec *domain.RawRecord, logger zerolog.Logger) string {
	id := domain.Identifier{DOI: rec.DOI, PMID: rec.PMID, PMCID: rec.PMCID}
	if id.IsZero() {
		logger.Debug().Str("id", rec.ID).Msg("record has no resolvable identifier")
		return "skipped"
	}

	fresh, err := e.resolver.Resolve(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrLookup) || errors.Is(err, domain.ErrNotFound) {
			logger.Warn().Err(err).Str("id", rec.ID).Msg("lookup failed, keeping record")
		} else {
			logger.Error().Err(err).Str("id", rec.ID).Msg("enrichment error, keeping record")
		}
		return "failed"
	}

	// Fresh provider data wins; curated fields the providers never return
	// (domains, setting, design) survive through the fallback side.
	*rec = *resolver.Merge(fresh, rec)
	return "succeeded"
}

func (e *Enricher) countOutcome(outcome string) {
	if e.metrics != nil {
		e.metrics.EnrichmentOutcomes.WithLabelValues(outcome).Inc()
	}
}
