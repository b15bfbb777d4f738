package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrestlit/corpus-service/internal/domain"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"comma form", "Doe, Jane Marie", "Doe JM"},
		{"comma form single given", "Smith, John", "Smith J"},
		{"comma form hyphenated given", "Lee, Ji-Won", "Lee JW"},
		{"comma with no given part", "Doe,", "Doe"},
		{"plain form", "Jane Marie Doe", "Doe JM"},
		{"plain form two tokens", "John Smith", "Smith J"},
		{"single token unchanged", "Ibsen", "Ibsen"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"lowercase given gets uppercased initials", "anna maria lopez", "lopez AM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestDeduplicate(t *testing.T) {
	t.Run("first occurrence wins", func(t *testing.T) {
		records := []domain.RawRecord{
			{ID: "a", DOI: "10.1/x", Title: "First"},
			{ID: "b", DOI: "10.1/X", Title: "Duplicate DOI, different case"},
			{ID: "c", PMID: "123", Title: "Third"},
			{ID: "d", PMID: "123", Title: "Duplicate PMID"},
			{ID: "e", Title: "No identifiers"},
		}

		out := Deduplicate(records)
		require.Len(t, out, 3)
		assert.Equal(t, "First", out[0].Title)
		assert.Equal(t, "Third", out[1].Title)
		assert.Equal(t, "No identifiers", out[2].Title)
	})

	t.Run("records without identifiers never collide", func(t *testing.T) {
		records := []domain.RawRecord{
			{ID: "a", Title: "One"},
			{ID: "b", Title: "Two"},
		}
		assert.Len(t, Deduplicate(records), 2)
	})

	t.Run("duplicate kept untouched, not merged", func(t *testing.T) {
		records := []domain.RawRecord{
			{ID: "a", DOI: "10.1/x", Title: "Sparse"},
			{ID: "b", DOI: "10.1/x", Title: "Rich", Abstract: "Full abstract"},
		}

		out := Deduplicate(records)
		require.Len(t, out, 1)
		assert.Equal(t, "Sparse", out[0].Title)
		assert.Empty(t, out[0].Abstract)
	})
}

func TestInferDomains(t *testing.T) {
	t.Run("matches buckets across title, abstract and keywords", func(t *testing.T) {
		rec := domain.RawRecord{
			Title:    "Cognitive recovery after resuscitation",
			Abstract: "We measured anxiety and depression in survivors.",
			Keywords: []string{"quality of life"},
		}

		got := InferDomains(rec)
		assert.Equal(t, []string{"Cognitive", "Psychological", "Quality Of Life"}, got)
	})

	t.Run("existing domains seed the set and keep position", func(t *testing.T) {
		rec := domain.RawRecord{
			Domains:  []string{"Caregiver"},
			Abstract: "cognitive deficits were common",
		}

		got := InferDomains(rec)
		assert.Equal(t, []string{"Caregiver", "Cognitive"}, got)
	})

	t.Run("no match yields nil", func(t *testing.T) {
		rec := domain.RawRecord{Title: "Epinephrine dosing in resuscitation"}
		assert.Nil(t, InferDomains(rec))
	})
}

func TestInferSetting(t *testing.T) {
	tests := []struct {
		name string
		rec  domain.RawRecord
		want string
	}{
		{"out-of-hospital marker", domain.RawRecord{Title: "OHCA outcomes"}, SettingOHCA},
		{"spelled-out out-of-hospital", domain.RawRecord{Abstract: "after out-of-hospital cardiac arrest"}, SettingOHCA},
		{"in-hospital marker", domain.RawRecord{Title: "In-hospital arrest survival"}, SettingIHCA},
		{"generic cardiac arrest is mixed", domain.RawRecord{Title: "Cardiac arrest survivors"}, SettingMixed},
		{"no marker is unclear", domain.RawRecord{Title: "Post-intensive care syndrome"}, SettingUnclear},
		{"pre-set value kept", domain.RawRecord{Setting: "OHCA", Title: "in-hospital"}, SettingOHCA},
		{"out-of-hospital beats in-hospital", domain.RawRecord{Title: "OHCA versus in-hospital arrest"}, SettingOHCA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferSetting(tt.rec))
		})
	}
}

func TestInferDesign(t *testing.T) {
	tests := []struct {
		name string
		rec  domain.RawRecord
		want string
	}{
		{"randomized", domain.RawRecord{Title: "A randomized trial of hypothermia"}, DesignRCT},
		{"randomized beats prospective", domain.RawRecord{Abstract: "a randomized prospective study"}, DesignRCT},
		{"prospective", domain.RawRecord{Abstract: "prospective cohort of survivors"}, DesignProspective},
		{"retrospective", domain.RawRecord{Title: "Retrospective analysis"}, DesignRetrospective},
		{"cross-sectional", domain.RawRecord{Title: "A cross-sectional survey"}, DesignCrossSectional},
		{"mixed methods", domain.RawRecord{Abstract: "a mixed methods evaluation"}, DesignMixedMethods},
		{"no marker is empty", domain.RawRecord{Title: "Case report"}, ""},
		{"pre-set value kept", domain.RawRecord{Design: "Registry study", Title: "randomized"}, "Registry study"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferDesign(tt.rec))
		})
	}
}

func TestSanitizeCountry(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantCountry string
		wantCode    string
		wantName    string
	}{
		{"clean string untouched", "Sweden", "Sweden", "", ""},
		{"correction by exact match", "England", "England", "GB", "United Kingdom"},
		{"electronic address stripped", "Denmark. Electronic address: jane@hospital.dk", "Denmark", "", ""},
		{"email stripped", "Norway jane@uio.no", "Norway", "", ""},
		{"trailing punctuation stripped", "USA.", "USA", "US", "United States"},
		{"medline taiwan form", "China (Republic : 1949- )", "China (Republic : 1949- )", "TW", "Taiwan"},
		{"empty", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			country, code, name := SanitizeCountry(tt.in)
			assert.Equal(t, tt.wantCountry, country)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("full pipeline", func(t *testing.T) {
		records := []domain.RawRecord{
			{
				ID:       "1",
				PMID:     "1",
				Title:    "Beta cognitive outcomes after OHCA",
				Abstract: "A randomized trial...",
				Authors:  []string{"Doe, Jane Marie", "Smith, John A"},
				Year:     2020,
				Country:  "England.",
			},
			{
				ID:      "2",
				PMID:    "2",
				Title:   "Alpha quality of life after cardiac arrest",
				Authors: []string{"Brown, Sarah"},
				Year:    2023,
			},
			{
				ID:    "3",
				PMID:  "1", // duplicate of the first record
				Title: "Dropped duplicate",
				Year:  2024,
			},
		}

		out := Normalize(records)
		require.Len(t, out, 2)

		// Year descending, so the 2023 record comes first.
		assert.Equal(t, "2", out[0].ID)
		assert.Equal(t, "1", out[1].ID)

		first := out[0]
		assert.Equal(t, []string{"Quality Of Life"}, first.Domains)
		assert.Equal(t, SettingMixed, first.Setting)
		assert.Equal(t, []string{"Brown S"}, first.NormalizedAuthors)
		assert.False(t, first.IsAbstractTruncated)

		second := out[1]
		assert.Equal(t, []string{"Cognitive"}, second.Domains)
		assert.Equal(t, SettingOHCA, second.Setting)
		assert.Equal(t, DesignRCT, second.Design)
		assert.Equal(t, []string{"Doe JM", "Smith JA"}, second.NormalizedAuthors)
		assert.Equal(t, []string{"Doe, Jane Marie", "Smith, John A"}, second.Authors)
		assert.True(t, second.IsAbstractTruncated)
		assert.Equal(t, "England", second.Country)
		assert.Equal(t, "GB", second.CorrCountryCode)
		assert.Equal(t, "United Kingdom", second.CorrCountryName)
	})

	t.Run("equal years order by title ascending", func(t *testing.T) {
		records := []domain.RawRecord{
			{ID: "b", PMID: "10", Title: "zeta study", Year: 2021},
			{ID: "a", PMID: "11", Title: "Alpha study", Year: 2021},
		}

		out := Normalize(records)
		require.Len(t, out, 2)
		assert.Equal(t, "Alpha study", out[0].Title)
		assert.Equal(t, "zeta study", out[1].Title)
	})

	t.Run("existing country correction is never overwritten", func(t *testing.T) {
		records := []domain.RawRecord{
			{ID: "1", PMID: "1", Title: "t", Year: 2020, Country: "England", CorrCountryCode: "SE", CorrCountryName: "Sweden"},
		}

		out := Normalize(records)
		require.Len(t, out, 1)
		assert.Equal(t, "SE", out[0].CorrCountryCode)
		assert.Equal(t, "Sweden", out[0].CorrCountryName)
		assert.Equal(t, "England", out[0].Country)
	})
}
