// Package search implements the faceted, fuzzy-ranked search engine over
// the normalized corpus. The engine is stateless and pure: every call gets
// the corpus and the full search state and produces a fresh result list, so
// concurrent calls need no synchronization.
package search

import (
	"sort"
	"strings"

	"github.com/arrestlit/corpus-service/internal/domain"
)

// QuickFilters are the predefined lexical shortcuts. Each maps a filter
// name to the OR-ed substring terms matched against title, abstract,
// keywords and domains.
var QuickFilters = map[string][]string{
	"pediatric":      {"pediatric", "paediatric", "children", "child"},
	"caregivers":     {"caregiver", "carer", "next of kin"},
	"long-term":      {"long-term", "longitudinal", "follow-up"},
	"rehabilitation": {"rehabilitation", "rehab", "cognitive training"},
}

// Search filters the corpus by the facet state and, when a query is
// present, ranks the survivors fuzzily. Ordering is deterministic: score
// ascending (query only), then year descending, then title ascending.
func Search(corpus []domain.NormalizedRecord, state SearchState) []domain.NormalizedRecord {
	candidates := make([]*domain.NormalizedRecord, 0, len(corpus))
	for i := range corpus {
		if passesFilter(&corpus[i], state) {
			candidates = append(candidates, &corpus[i])
		}
	}

	if strings.TrimSpace(state.Query) == "" {
		sortByRecency(candidates)
		return collect(candidates)
	}

	hits := rank(candidates, state.Query)

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score < hits[j].score
		}
		if hits[i].record.Year != hits[j].record.Year {
			return hits[i].record.Year > hits[j].record.Year
		}
		return lessTitle(hits[i].record.Title, hits[j].record.Title)
	})

	out := make([]domain.NormalizedRecord, 0, len(hits))
	for _, h := range hits {
		out = append(out, *h.record)
	}
	return out
}

// rank runs the two-tier fuzzy strategy: a conjunctive literal-inclusion
// pass first, then a plain approximate pass if the first finds nothing.
// Either way, hits are kept only when the score clears MaxScore and at
// least one matched field is a content field.
func rank(candidates []*domain.NormalizedRecord, query string) []hit {
	idx := buildIndex(candidates)

	tokens := queryTokens(query)
	var hits []hit
	if len(tokens) > 0 {
		hits = idx.searchConjunctive(tokens)
	}
	if len(hits) == 0 {
		hits = idx.searchApproximate(query)
	}

	kept := hits[:0]
	for _, h := range hits {
		if h.score <= MaxScore && h.hasContentMatch() {
			kept = append(kept, h)
		}
	}
	return kept
}

// queryTokens lower-cases and splits the query, discarding tokens shorter
// than minTokenLen.
func queryTokens(query string) []string {
	var out []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		if len([]rune(tok)) >= minTokenLen {
			out = append(out, tok)
		}
	}
	return out
}

// passesFilter applies the year range, the five facet lists and the quick
// filter. Facets are conjunctive across dimensions and disjunctive within
// one: an empty selection means "any".
func passesFilter(rec *domain.NormalizedRecord, state SearchState) bool {
	if state.MinYear != 0 && rec.Year < state.MinYear {
		return false
	}
	if state.MaxYear != 0 && rec.Year > state.MaxYear {
		return false
	}

	if !matchesFacet(state.Domains, rec.Domains) {
		return false
	}
	if !matchesFacet(state.Settings, []string{rec.Setting}) {
		return false
	}
	if !matchesFacet(state.Designs, []string{rec.Design}) {
		return false
	}
	if !matchesFacet(state.Countries, []string{DisplayCountry(&rec.RawRecord)}) {
		return false
	}
	if !matchesFacet(state.Journals, []string{rec.Journal}) {
		return false
	}

	return matchesQuickFilter(rec, state.QuickFilter)
}

// matchesFacet reports whether the record values intersect the selection.
// An empty selection passes everything.
func matchesFacet(selected, values []string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, sel := range selected {
		for _, v := range values {
			if v != "" && strings.EqualFold(sel, v) {
				return true
			}
		}
	}
	return false
}

// matchesQuickFilter applies the named quick filter as a case-insensitive
// lexical OR over title, abstract, keywords and domains. Unknown names
// pass nothing through; an empty name passes everything.
func matchesQuickFilter(rec *domain.NormalizedRecord, name string) bool {
	if name == "" {
		return true
	}
	terms, ok := QuickFilters[name]
	if !ok {
		return false
	}

	haystack := strings.ToLower(rec.Title + " " + rec.Abstract + " " +
		strings.Join(rec.Keywords, " ") + " " + strings.Join(rec.Domains, " "))

	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

// DisplayCountry returns the country a record is shown and faceted under:
// the corrected name when enrichment recorded one, the raw country
// otherwise.
func DisplayCountry(rec *domain.RawRecord) string {
	if rec.CorrCountryName != "" {
		return rec.CorrCountryName
	}
	return rec.Country
}

// sortByRecency orders records by year descending, titles ascending.
func sortByRecency(records []*domain.NormalizedRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Year != records[j].Year {
			return records[i].Year > records[j].Year
		}
		return lessTitle(records[i].Title, records[j].Title)
	})
}

func lessTitle(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

func collect(records []*domain.NormalizedRecord) []domain.NormalizedRecord {
	out := make([]domain.NormalizedRecord, 0, len(records))
	for _, r := range records {
		out = append(out, *r)
	}
	return out
}
