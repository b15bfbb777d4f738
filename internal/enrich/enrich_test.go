package enrich

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrestlit/corpus-service/internal/domain"
)

type fakeResolver struct {
	mu      sync.Mutex
	calls   int
	resolve func(id domain.Identifier) (*domain.RawRecord, error)
}

func (f *fakeResolver) Resolve(_ context.Context, id domain.Identifier) (*domain.RawRecord, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.resolve(id)
}

func TestEnricher_Run(t *testing.T) {
	t.Run("tallies outcomes and keeps originals on failure", func(t *testing.T) {
		res := &fakeResolver{resolve: func(id domain.Identifier) (*domain.RawRecord, error) {
			if id.PMID == "bad" {
				return nil, domain.NewLookupError("no such record")
			}
			return &domain.RawRecord{
				ID:    id.PMID,
				PMID:  id.PMID,
				Title: "Fresh " + id.PMID,
				Year:  2024,
			}, nil
		}}

		records := []domain.RawRecord{
			{ID: "1", PMID: "1", Title: "Stale one", Year: 2020},
			{ID: "bad", PMID: "bad", Title: "Unresolvable", Year: 2019},
			{ID: "x", Title: "No identifiers"},
			{ID: "2", PMID: "2", Title: "Stale two", Year: 2021},
		}

		e := New(res, 2, zerolog.Nop(), nil)
		result, err := e.Run(context.Background(), records)
		require.NoError(t, err)

		assert.NotEmpty(t, result.JobID)
		assert.Equal(t, 4, result.Total)
		assert.Equal(t, 2, result.Succeeded)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 1, result.Skipped)

		// Refreshed in place.
		assert.Equal(t, "Fresh 1", records[0].Title)
		assert.Equal(t, 2024, records[0].Year)
		// Failed and skipped records stay untouched.
		assert.Equal(t, "Unresolvable", records[1].Title)
		assert.Equal(t, "No identifiers", records[2].Title)
	})

	t.Run("curated fields survive a refresh", func(t *testing.T) {
		res := &fakeResolver{resolve: func(id domain.Identifier) (*domain.RawRecord, error) {
			return &domain.RawRecord{ID: id.PMID, PMID: id.PMID, Title: "Fresh", Year: 2024}, nil
		}}

		records := []domain.RawRecord{
			{
				ID:      "1",
				PMID:    "1",
				Title:   "Stale",
				Year:    2020,
				Domains: []string{"Cognitive"},
				Setting: "OHCA",
				Design:  "Prospective cohort",
			},
		}

		e := New(res, 1, zerolog.Nop(), nil)
		_, err := e.Run(context.Background(), records)
		require.NoError(t, err)

		assert.Equal(t, "Fresh", records[0].Title)
		assert.Equal(t, []string{"Cognitive"}, records[0].Domains)
		assert.Equal(t, "OHCA", records[0].Setting)
		assert.Equal(t, "Prospective cohort", records[0].Design)
	})

	t.Run("every record is resolved exactly once", func(t *testing.T) {
		res := &fakeResolver{resolve: func(id domain.Identifier) (*domain.RawRecord, error) {
			return &domain.RawRecord{ID: id.PMID, PMID: id.PMID, Title: "T", Year: 2024}, nil
		}}

		records := make([]domain.RawRecord, 20)
		for i := range records {
			pmid := string(rune('a' + i))
			records[i] = domain.RawRecord{ID: pmid, PMID: pmid, Title: "T"}
		}

		e := New(res, 4, zerolog.Nop(), nil)
		result, err := e.Run(context.Background(), records)
		require.NoError(t, err)
		assert.Equal(t, 20, result.Succeeded)
		assert.Equal(t, 20, res.calls)
	})

	t.Run("cancelled context aborts the job", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res := &fakeResolver{resolve: func(id domain.Identifier) (*domain.RawRecord, error) {
			return &domain.RawRecord{ID: id.PMID}, nil
		}}

		records := []domain.RawRecord{{ID: "1", PMID: "1"}}

		e := New(res, 1, zerolog.Nop(), nil)
		_, err := e.Run(ctx, records)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("empty corpus is a no-op", func(t *testing.T) {
		e := New(&fakeResolver{resolve: nil}, 1, zerolog.Nop(), nil)
		result, err := e.Run(context.Background(), nil)
		require.NoError(t, err)
		assert.Zero(t, result.Total)
	})
}
