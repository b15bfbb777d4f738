// Package main provides the corpus ingestion CLI: resolving identifiers into
// the corpus, running batch enrichment and rebuilding the normalized view.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/arrestlit/corpus-service/internal/config"
	"github.com/arrestlit/corpus-service/internal/domain"
	"github.com/arrestlit/corpus-service/internal/enrich"
	"github.com/arrestlit/corpus-service/internal/normalize"
	"github.com/arrestlit/corpus-service/internal/observability"
	"github.com/arrestlit/corpus-service/internal/providers/crossref"
	"github.com/arrestlit/corpus-service/internal/providers/pubmed"
	"github.com/arrestlit/corpus-service/internal/resolver"
	"github.com/arrestlit/corpus-service/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		doi         = flag.String("doi", "", "resolve a DOI into the corpus")
		pmid        = flag.String("pmid", "", "resolve a PMID into the corpus")
		pmcid       = flag.String("pmcid", "", "resolve a PMCID into the corpus")
		doEnrich    = flag.Bool("enrich", false, "re-resolve every corpus record")
		renormalize = flag.Bool("renormalize", false, "rebuild the normalized corpus from the raw corpus")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "ingest").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registryClient := crossref.New(crossref.Config{
		BaseURL:   cfg.Providers.Crossref.BaseURL,
		Email:     cfg.Providers.Crossref.Email,
		Timeout:   cfg.Providers.Crossref.Timeout,
		RateLimit: cfg.Providers.Crossref.RateLimit,
	})
	biomedicalClient := pubmed.New(pubmed.Config{
		BaseURL:   cfg.Providers.PubMed.BaseURL,
		Tool:      cfg.Providers.PubMed.Tool,
		Email:     cfg.Providers.PubMed.Email,
		APIKey:    cfg.Providers.PubMed.APIKey,
		Timeout:   cfg.Providers.PubMed.Timeout,
		RateLimit: cfg.Providers.PubMed.RateLimit,
	})

	st := store.New(cfg.Store.RawPath, cfg.Store.NormalizedPath)
	res := resolver.New(registryClient, biomedicalClient, logger, nil)

	id := domain.Identifier{DOI: *doi, PMID: *pmid, PMCID: *pmcid}

	switch {
	case !id.IsZero():
		return addRecord(ctx, st, res, id, logger)
	case *doEnrich:
		return enrichCorpus(ctx, st, res, cfg.Enrich.Workers, logger)
	case *renormalize:
		return rebuildNormalized(st, logger)
	default:
		flag.Usage()
		return errors.New("one of -doi, -pmid, -pmcid, -enrich or -renormalize is required")
	}
}

func addRecord(ctx context.Context, st *store.Store, res *resolver.Resolver, id domain.Identifier, logger zerolog.Logger) error {
	rec, err := res.Resolve(ctx, id)
	if err != nil {
		return err
	}

	records, err := st.LoadRaw()
	if err != nil {
		return err
	}

	replaced := false
	for i := range records {
		if domain.SameID(records[i].PMID, rec.PMID) || domain.SameID(records[i].DOI, rec.DOI) {
			records[i] = *rec
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, *rec)
	}

	if err := saveCorpus(st, records); err != nil {
		return err
	}

	logger.Info().
		Str("id", rec.ID).
		Str("title", rec.Title).
		Bool("replaced", replaced).
		Msg("record resolved into corpus")
	return nil
}

func enrichCorpus(ctx context.Context, st *store.Store, res *resolver.Resolver, workers int, logger zerolog.Logger) error {
	records, err := st.LoadRaw()
	if err != nil {
		return err
	}

	enricher := enrich.New(res, workers, logger, nil)
	result, err := enricher.Run(ctx, records)
	if err != nil {
		return err
	}

	if err := saveCorpus(st, records); err != nil {
		return err
	}

	logger.Info().
		Int("total", result.Total).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("enrichment complete")
	return nil
}

func rebuildNormalized(st *store.Store, logger zerolog.Logger) error {
	records, err := st.LoadRaw()
	if err != nil {
		return err
	}

	normalized := normalize.Normalize(records)
	if err := st.SaveNormalized(normalized); err != nil {
		return err
	}

	logger.Info().
		Int("raw", len(records)).
		Int("normalized", len(normalized)).
		Msg("normalized corpus rebuilt")
	return nil
}

// saveCorpus persists the raw corpus and the normalized view derived from it.
func saveCorpus(st *store.Store, records []domain.RawRecord) error {
	if err := st.SaveRaw(records); err != nil {
		return err
	}
	return st.SaveNormalized(normalize.Normalize(records))
}
