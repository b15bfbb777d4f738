package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrestlit/corpus-service/internal/domain"
)

func rec(id, title string, year int, mutate ...func(*domain.NormalizedRecord)) domain.NormalizedRecord {
	r := domain.NormalizedRecord{
		RawRecord: domain.RawRecord{
			ID:    id,
			Title: title,
			Year:  year,
		},
	}
	for _, m := range mutate {
		m(&r)
	}
	return r
}

func testCorpus() []domain.NormalizedRecord {
	return []domain.NormalizedRecord{
		rec("1", "Cognitive outcomes after cardiac arrest", 2023, func(r *domain.NormalizedRecord) {
			r.Abstract = "Memory and attention deficits in survivors."
			r.Domains = []string{"Cognitive"}
			r.Setting = "OHCA"
			r.Design = "Prospective cohort"
			r.Journal = "Resuscitation"
			r.Country = "Sweden"
		}),
		rec("2", "Quality of life in pediatric survivors", 2021, func(r *domain.NormalizedRecord) {
			r.Abstract = "Children show reduced quality of life."
			r.Domains = []string{"Quality Of Life"}
			r.Setting = "IHCA"
			r.Journal = "Pediatric Critical Care"
			r.Country = "England"
			r.CorrCountryName = "United Kingdom"
		}),
		rec("3", "Caregiver burden after resuscitation", 2023, func(r *domain.NormalizedRecord) {
			r.Abstract = "Caregivers report emotional distress."
			r.Domains = []string{"Caregiver", "Psychological"}
			r.Setting = "Mixed"
			r.Journal = "Resuscitation"
			r.Country = "Sweden"
		}),
	}
}

func ids(records []domain.NormalizedRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestSearch_EmptyQuery(t *testing.T) {
	t.Run("no filters returns everything by recency", func(t *testing.T) {
		got := Search(testCorpus(), SearchState{})
		// 2023 ties break on title ascending: "Caregiver..." before "Cognitive...".
		assert.Equal(t, []string{"3", "1", "2"}, ids(got))
	})

	t.Run("year range filters", func(t *testing.T) {
		got := Search(testCorpus(), SearchState{MinYear: 2022})
		assert.Equal(t, []string{"3", "1"}, ids(got))

		got = Search(testCorpus(), SearchState{MaxYear: 2021})
		assert.Equal(t, []string{"2"}, ids(got))
	})

	t.Run("facet filters are case-insensitive", func(t *testing.T) {
		got := Search(testCorpus(), SearchState{Settings: []string{"ohca"}})
		assert.Equal(t, []string{"1"}, ids(got))
	})

	t.Run("facets are conjunctive across dimensions", func(t *testing.T) {
		got := Search(testCorpus(), SearchState{
			Journals: []string{"Resuscitation"},
			Domains:  []string{"Caregiver"},
		})
		assert.Equal(t, []string{"3"}, ids(got))
	})

	t.Run("multiple values in one facet are disjunctive", func(t *testing.T) {
		got := Search(testCorpus(), SearchState{Settings: []string{"OHCA", "IHCA"}})
		assert.Equal(t, []string{"1", "2"}, ids(got))
	})

	t.Run("country facet uses the corrected name", func(t *testing.T) {
		got := Search(testCorpus(), SearchState{Countries: []string{"United Kingdom"}})
		assert.Equal(t, []string{"2"}, ids(got))

		// The raw string no longer matches once a correction exists.
		got = Search(testCorpus(), SearchState{Countries: []string{"England"}})
		assert.Empty(t, got)
	})
}

func TestSearch_QuickFilters(t *testing.T) {
	t.Run("pediatric quick filter", func(t *testing.T) {
		got := Search(testCorpus(), SearchState{QuickFilter: "pediatric"})
		assert.Equal(t, []string{"2"}, ids(got))
	})

	t.Run("caregivers quick filter", func(t *testing.T) {
		got := Search(testCorpus(), SearchState{QuickFilter: "caregivers"})
		assert.Equal(t, []string{"3"}, ids(got))
	})

	t.Run("unknown quick filter matches nothing", func(t *testing.T) {
		got := Search(testCorpus(), SearchState{QuickFilter: "nope"})
		assert.Empty(t, got)
	})
}

func TestSearch_Query(t *testing.T) {
	t.Run("exact word match ranks first", func(t *testing.T) {
		got := Search(testCorpus(), SearchState{Query: "cognitive"})
		require.NotEmpty(t, got)
		assert.Equal(t, "1", got[0].ID)
	})

	t.Run("conjunctive tier requires every token", func(t *testing.T) {
		got := Search(testCorpus(), SearchState{Query: "cognitive outcomes"})
		assert.Equal(t, []string{"1"}, ids(got))
	})

	t.Run("typo falls back to approximate tier", func(t *testing.T) {
		got := Search(testCorpus(), SearchState{Query: "cogntive"})
		require.NotEmpty(t, got)
		assert.Equal(t, "1", got[0].ID)
	})

	t.Run("nonsense query matches nothing", func(t *testing.T) {
		got := Search(testCorpus(), SearchState{Query: "zzzzqqqq"})
		assert.Empty(t, got)
	})

	t.Run("journal-only match is filtered out", func(t *testing.T) {
		// "pediatric critical care" appears only in record 2's journal; a
		// non-content match alone must not produce a hit.
		corpus := []domain.NormalizedRecord{
			rec("j", "Unrelated title", 2020, func(r *domain.NormalizedRecord) {
				r.Journal = "Annals of Surgery"
			}),
		}
		got := Search(corpus, SearchState{Query: "surgery"})
		assert.Empty(t, got)
	})

	t.Run("equal scores order by year then title", func(t *testing.T) {
		corpus := []domain.NormalizedRecord{
			rec("old", "Resuscitation outcomes alpha", 2019),
			rec("new", "Resuscitation outcomes beta", 2022),
			rec("tie", "Resuscitation outcomes aardvark", 2019),
		}
		got := Search(corpus, SearchState{Query: "resuscitation"})
		require.Len(t, got, 3)
		assert.Equal(t, []string{"new", "tie", "old"}, ids(got))
	})

	t.Run("query combines with facet filters", func(t *testing.T) {
		got := Search(testCorpus(), SearchState{Query: "survivors", Settings: []string{"IHCA"}})
		assert.Equal(t, []string{"2"}, ids(got))
	})
}

func TestBuildFacets(t *testing.T) {
	f := BuildFacets(testCorpus())

	assert.Equal(t, 2, f.Years[2023])
	assert.Equal(t, 1, f.Years[2021])
	assert.Equal(t, 1, f.Domains["Cognitive"])
	assert.Equal(t, 1, f.Domains["Caregiver"])
	assert.Equal(t, 1, f.Domains["Psychological"])
	assert.Equal(t, 1, f.Settings["OHCA"])
	assert.Equal(t, 1, f.Designs["Prospective cohort"])
	assert.Equal(t, 2, f.Journals["Resuscitation"])

	// Corrected country name replaces the raw string in facet counts.
	assert.Equal(t, 2, f.Countries["Sweden"])
	assert.Equal(t, 1, f.Countries["United Kingdom"])
	assert.Zero(t, f.Countries["England"])
}

func TestDisplayCountry(t *testing.T) {
	raw := domain.RawRecord{Country: "England"}
	assert.Equal(t, "England", DisplayCountry(&raw))

	raw.CorrCountryName = "United Kingdom"
	assert.Equal(t, "United Kingdom", DisplayCountry(&raw))
}
