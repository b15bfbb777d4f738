package search

import "github.com/arrestlit/corpus-service/internal/domain"

// Facets holds occurrence counts per filter dimension, computed over the
// full corpus regardless of the active query or filters. They feed the
// filter-option UI, which shows every available bucket with its total.
type Facets struct {
	Years     map[int]int    `json:"years"`
	Domains   map[string]int `json:"domains"`
	Settings  map[string]int `json:"settings"`
	Designs   map[string]int `json:"designs"`
	Countries map[string]int `json:"countries"`
	Journals  map[string]int `json:"journals"`
}

// BuildFacets counts bucket occurrences across the whole corpus.
func BuildFacets(corpus []domain.NormalizedRecord) Facets {
	f := Facets{
		Years:     make(map[int]int),
		Domains:   make(map[string]int),
		Settings:  make(map[string]int),
		Designs:   make(map[string]int),
		Countries: make(map[string]int),
		Journals:  make(map[string]int),
	}

	for i := range corpus {
		rec := &corpus[i]

		f.Years[rec.Year]++
		for _, d := range rec.Domains {
			f.Domains[d]++
		}
		if rec.Setting != "" {
			f.Settings[rec.Setting]++
		}
		if rec.Design != "" {
			f.Designs[rec.Design]++
		}
		if c := DisplayCountry(&rec.RawRecord); c != "" {
			f.Countries[c]++
		}
		if rec.Journal != "" {
			f.Journals[rec.Journal]++
		}
	}

	return f
}
