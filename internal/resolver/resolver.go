// Package resolver turns an external identifier (DOI, PMID or PMCID) into a
// single canonical RawRecord by orchestrating the citation registry and the
// biomedical literature database and reconciling their answers.
package resolver

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/arrestlit/corpus-service/internal/domain"
	"github.com/arrestlit/corpus-service/internal/observability"
)

// Registry is the JSON citation registry keyed by DOI.
type Registry interface {
	GetByDOI(ctx context.Context, doi string) (*domain.RawRecord, error)
}

// Biomedical is the XML literature database keyed by PMID, with identifier
// cross-reference and term-search endpoints.
type Biomedical interface {
	FetchByPMID(ctx context.Context, pmid string) (*domain.RawRecord, error)
	ResolvePMCID(ctx context.Context, pmcid string) (string, error)
	SearchPMIDsByDOI(ctx context.Context, doi string) ([]string, error)
}

// Resolver resolves canonical records across both providers. Each Resolve
// call is independent and idempotent; the network calls within one
// resolution are strictly sequential because each step depends on the
// previous step's output.
type Resolver struct {
	registry   Registry
	biomedical Biomedical
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// New creates a Resolver. metrics may be nil when instrumentation is not
// wanted (tests, one-shot CLI runs).
func New(registry Registry, biomedical Biomedical, logger zerolog.Logger, metrics *observability.Metrics) *Resolver {
	return &Resolver{
		registry:   registry,
		biomedical: biomedical,
		logger:     logger.With().Str("component", "resolver").Logger(),
		metrics:    metrics,
	}
}

// Resolve produces the canonical record for an identifier. Identifier
// precedence is PMCID, then PMID, then DOI. Domain failures surface as
// LookupError; transport failures propagate unwrapped. The Resolver never
// retries; retry policy belongs to the caller.
func (r *Resolver) Resolve(ctx context.Context, id domain.Identifier) (*domain.RawRecord, error) {
	rec, err := r.resolve(ctx, id)
	if r.metrics != nil {
		if err != nil {
			r.metrics.ResolutionsFailed.Inc()
		} else {
			r.metrics.ResolutionsCompleted.Inc()
		}
	}
	if err != nil {
		return nil, err
	}

	// The primary key is the PMID when known, the DOI otherwise.
	if rec.PMID != "" {
		rec.ID = rec.PMID
	} else {
		rec.ID = rec.DOI
	}
	return rec, nil
}

func (r *Resolver) resolve(ctx context.Context, id domain.Identifier) (*domain.RawRecord, error) {
	switch {
	case id.PMCID != "":
		pmid, err := r.resolvePMCID(ctx, id.PMCID)
		if err != nil {
			return nil, err
		}
		r.logger.Debug().Str("pmcid", id.PMCID).Str("pmid", pmid).Msg("cross-referenced PMCID")
		return r.fetchPMID(ctx, pmid)

	case id.PMID != "":
		return r.fetchPMID(ctx, id.PMID)

	case id.DOI != "":
		return r.resolveDOI(ctx, id.DOI)

	default:
		return nil, domain.NewLookupError("identifier required")
	}
}

// resolveDOI fetches the registry record and, when a PubMed counterpart can
// be located, merges the two with the biomedical record taking precedence.
// A failed supplemental lookup degrades to the registry record alone; the
// registry lookup itself failing fails the resolution.
func (r *Resolver) resolveDOI(ctx context.Context, doi string) (*domain.RawRecord, error) {
	stop := r.observe("crossref", "works")
	reg, err := r.registry.GetByDOI(ctx, doi)
	stop()
	if err != nil {
		return nil, err
	}

	pmid := reg.PMID
	if pmid == "" {
		stop = r.observe("pubmed", "esearch")
		ids, err := r.biomedical.SearchPMIDsByDOI(ctx, doi)
		stop()
		if err != nil {
			r.logger.Warn().Err(err).Str("doi", doi).Msg("DOI term-search failed, keeping registry record")
			return reg, nil
		}
		if len(ids) == 0 {
			return reg, nil
		}
		pmid = ids[0]
		r.logger.Debug().Str("doi", doi).Str("pmid", pmid).Msg("located PMID via term-search")
	}

	bio, err := r.fetchPMID(ctx, pmid)
	if err != nil {
		r.logger.Warn().Err(err).Str("doi", doi).Str("pmid", pmid).Msg("PMID fetch failed, keeping registry record")
		return reg, nil
	}

	return Merge(bio, reg), nil
}

func (r *Resolver) fetchPMID(ctx context.Context, pmid string) (*domain.RawRecord, error) {
	stop := r.observe("pubmed", "efetch")
	defer stop()
	return r.biomedical.FetchByPMID(ctx, pmid)
}

func (r *Resolver) resolvePMCID(ctx context.Context, pmcid string) (string, error) {
	stop := r.observe("pubmed", "elink")
	defer stop()
	return r.biomedical.ResolvePMCID(ctx, pmcid)
}

// observe counts a provider call and returns a stop function that records
// its duration.
func (r *Resolver) observe(provider, endpoint string) func() {
	if r.metrics == nil {
		return func() {}
	}
	r.metrics.ProviderRequests.WithLabelValues(provider, endpoint).Inc()
	start := time.Now()
	return func() {
		r.metrics.ProviderRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	}
}
