package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrestlit/corpus-service/internal/domain"
	"github.com/arrestlit/corpus-service/internal/enrich"
	"github.com/arrestlit/corpus-service/internal/normalize"
	"github.com/arrestlit/corpus-service/internal/store"
)

type fakeResolver struct {
	record *domain.RawRecord
	err    error
}

func (f *fakeResolver) Resolve(_ context.Context, _ domain.Identifier) (*domain.RawRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	rec := *f.record
	return &rec, nil
}

type fakeEnricher struct {
	result enrich.Result
	err    error
}

func (f *fakeEnricher) Run(_ context.Context, records []domain.RawRecord) (enrich.Result, error) {
	return f.result, f.err
}

func newTestServer(t *testing.T, res Resolver, enr Enricher, corpus []domain.RawRecord) (*Server, *store.Store) {
	t.Helper()

	dir := t.TempDir()
	st := store.New(filepath.Join(dir, "corpus.json"), filepath.Join(dir, "corpus.normalized.json"))
	if corpus != nil {
		require.NoError(t, st.SaveRaw(corpus))
		require.NoError(t, st.SaveNormalized(normalize.Normalize(corpus)))
	}

	srv := NewServer(Config{
		Address:      "127.0.0.1:0",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}, st, res, enr, zerolog.Nop(), nil, nil)

	return srv, st
}

func seedCorpus() []domain.RawRecord {
	return []domain.RawRecord{
		{
			ID:       "1",
			PMID:     "1",
			Title:    "Cognitive outcomes after OHCA",
			Abstract: "Memory deficits in survivors.",
			Year:     2023,
		},
		{
			ID:       "2",
			PMID:     "2",
			Title:    "Caregiver burden after resuscitation",
			Abstract: "Caregivers report distress.",
			Year:     2021,
		},
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, &fakeResolver{}, &fakeEnricher{}, nil)

	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
}

func TestSearchCorpus(t *testing.T) {
	t.Run("returns the full corpus without parameters", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeResolver{}, &fakeEnricher{}, seedCorpus())

		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/search", nil))

		require.Equal(t, http.StatusOK, rr.Code)

		var resp searchResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Total)
		assert.Equal(t, "1", resp.Records[0].ID)
	})

	t.Run("applies query and filters from the URL", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeResolver{}, &fakeEnricher{}, seedCorpus())

		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet,
			"/api/v1/search?q=caregiver&years=2020:2022", nil))

		require.Equal(t, http.StatusOK, rr.Code)

		var resp searchResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.Total)
		assert.Equal(t, "2", resp.Records[0].ID)
		assert.Contains(t, resp.State, "q=caregiver")
		assert.Contains(t, resp.State, "2020%3A2022")
	})

	t.Run("empty corpus yields empty result", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeResolver{}, &fakeEnricher{}, nil)

		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/search", nil))

		require.Equal(t, http.StatusOK, rr.Code)

		var resp searchResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Zero(t, resp.Total)
	})
}

func TestGetFacets(t *testing.T) {
	srv, _ := newTestServer(t, &fakeResolver{}, &fakeEnricher{}, seedCorpus())

	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/facets", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var facets struct {
		Years   map[string]int `json:"years"`
		Domains map[string]int `json:"domains"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &facets))
	assert.Equal(t, 1, facets.Years["2023"])
	assert.Equal(t, 1, facets.Domains["Cognitive"])
	assert.Equal(t, 1, facets.Domains["Caregiver"])
}

func TestResolveRecord(t *testing.T) {
	t.Run("resolves and persists a new record", func(t *testing.T) {
		resolved := &domain.RawRecord{
			ID:    "12345678",
			PMID:  "12345678",
			DOI:   "10.1234/test",
			Title: "Fresh record",
			Year:  2024,
		}
		srv, st := newTestServer(t, &fakeResolver{record: resolved}, &fakeEnricher{}, seedCorpus())

		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/records:resolve",
			strings.NewReader(`{"doi":"10.1234/test"}`)))

		require.Equal(t, http.StatusOK, rr.Code)

		var resp resolveResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "12345678", resp.Record.ID)

		records, err := st.LoadRaw()
		require.NoError(t, err)
		assert.Len(t, records, 3)

		normalized, err := st.LoadNormalized()
		require.NoError(t, err)
		assert.Len(t, normalized, 3)
		// Renormalized ordering: year descending puts the new record first.
		assert.Equal(t, "12345678", normalized[0].ID)
	})

	t.Run("replaces an existing record by identifier", func(t *testing.T) {
		resolved := &domain.RawRecord{ID: "1", PMID: "1", Title: "Refreshed", Year: 2023}
		srv, st := newTestServer(t, &fakeResolver{record: resolved}, &fakeEnricher{}, seedCorpus())

		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/records:resolve",
			strings.NewReader(`{"pmid":"1"}`)))

		require.Equal(t, http.StatusOK, rr.Code)

		records, err := st.LoadRaw()
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "Refreshed", records[0].Title)
	})

	t.Run("rejects an empty identifier", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeResolver{}, &fakeEnricher{}, nil)

		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/records:resolve",
			strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeResolver{}, &fakeEnricher{}, nil)

		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/records:resolve",
			strings.NewReader(`{`)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("lookup failure maps to 422", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeResolver{err: domain.NewLookupError("no such record")}, &fakeEnricher{}, nil)

		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/records:resolve",
			strings.NewReader(`{"pmid":"404"}`)))

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, rr.Body.String(), "no such record")
	})

	t.Run("provider failure maps to 502", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeResolver{err: domain.NewExternalAPIError("PubMed", 500, "down")}, &fakeEnricher{}, nil)

		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/records:resolve",
			strings.NewReader(`{"pmid":"1"}`)))

		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})
}

func TestEnrichCorpus(t *testing.T) {
	t.Run("runs the enricher and reports the tally", func(t *testing.T) {
		enr := &fakeEnricher{result: enrich.Result{JobID: "job-1", Total: 2, Succeeded: 2}}
		srv, _ := newTestServer(t, &fakeResolver{}, enr, seedCorpus())

		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/corpus:enrich", nil))

		require.Equal(t, http.StatusOK, rr.Code)

		var result enrich.Result
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, "job-1", result.JobID)
		assert.Equal(t, 2, result.Succeeded)
	})

	t.Run("enricher failure maps to 500", func(t *testing.T) {
		enr := &fakeEnricher{err: context.Canceled}
		srv, _ := newTestServer(t, &fakeResolver{}, enr, seedCorpus())

		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/corpus:enrich", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
