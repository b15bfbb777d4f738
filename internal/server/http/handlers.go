package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/arrestlit/corpus-service/internal/domain"
	"github.com/arrestlit/corpus-service/internal/normalize"
	"github.com/arrestlit/corpus-service/internal/search"
)

// searchCorpus runs a faceted search over the normalized corpus. The full
// search state arrives as URL query parameters, so result pages are
// shareable links.
func (s *Server) searchCorpus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.SearchRequests.Inc()
	}

	corpus, err := s.store.LoadNormalized()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load corpus")
		writeError(w, http.StatusInternalServerError, "failed to load corpus")
		return
	}

	state := search.DecodeState(r.URL.Query(), search.SearchState{})
	results := search.Search(corpus, state)

	if s.metrics != nil {
		s.metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}

	writeJSON(w, http.StatusOK, searchResponse{
		State:   search.EncodeState(state).Encode(),
		Total:   len(results),
		Records: results,
	})
}

// getFacets returns bucket counts over the whole corpus, independent of any
// active query or filter.
func (s *Server) getFacets(w http.ResponseWriter, r *http.Request) {
	corpus, err := s.store.LoadNormalized()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load corpus")
		writeError(w, http.StatusInternalServerError, "failed to load corpus")
		return
	}

	writeJSON(w, http.StatusOK, search.BuildFacets(corpus))
}

// resolveRecord resolves an identifier through the providers, folds the
// record into the corpus and renormalizes.
func (s *Server) resolveRecord(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "one of doi, pmid or pmcid is required")
		return
	}

	rec, err := s.resolver.Resolve(r.Context(), domain.Identifier{
		DOI:   req.DOI,
		PMID:  req.PMID,
		PMCID: req.PMCID,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("resolution failed")
		writeError(w, statusForError(err), err.Error())
		return
	}

	if err := s.upsertRecord(rec); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist record")
		writeError(w, http.StatusInternalServerError, "failed to persist record")
		return
	}

	writeJSON(w, http.StatusOK, resolveResponse{Record: *rec})
}

// enrichCorpus re-resolves every corpus record and reports the tally.
func (s *Server) enrichCorpus(w http.ResponseWriter, r *http.Request) {
	s.corpusMu.Lock()
	defer s.corpusMu.Unlock()

	records, err := s.store.LoadRaw()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load corpus")
		writeError(w, http.StatusInternalServerError, "failed to load corpus")
		return
	}

	result, err := s.enricher.Run(r.Context(), records)
	if err != nil {
		s.logger.Error().Err(err).Msg("enrichment aborted")
		writeError(w, http.StatusInternalServerError, "enrichment aborted")
		return
	}

	if err := s.saveCorpus(records); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist corpus")
		writeError(w, http.StatusInternalServerError, "failed to persist corpus")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// upsertRecord replaces the matching corpus record or appends a new one,
// then renormalizes and persists both documents.
func (s *Server) upsertRecord(rec *domain.RawRecord) error {
	s.corpusMu.Lock()
	defer s.corpusMu.Unlock()

	records, err := s.store.LoadRaw()
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

	return s.saveCorpus(records)
}

// saveCorpus persists the raw corpus and the normalized view derived from
// it. Callers hold corpusMu.
func (s *Server) saveCorpus(records []domain.RawRecord) error {
	if err := s.store.SaveRaw(records); err != nil {
		return err
	}
	return s.store.SaveNormalized(normalize.Normalize(records))
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	var apiErr *domain.ExternalAPIError
	switch {
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrLookup):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
