// Package normalize turns a batch of raw bibliographic records into the
// deduplicated, enriched, consistently ordered corpus the search engine
// consumes. Everything here is pure: raw records in, normalized records
// out, no I/O and no shared state.
package normalize

import (
	"sort"
	"strings"

	"github.com/arrestlit/corpus-service/internal/domain"
)

// Deduplicate drops records whose non-empty DOI or PMID was already seen,
// comparing case-insensitively. The first occurrence wins and input order is
// preserved. This is deliberately not a field merge: batch dedup keeps the
// earlier record untouched, while the resolver's DOI path merges providers.
func Deduplicate(records []domain.RawRecord) []domain.RawRecord {
	seenDOI := make(map[string]struct{}, len(records))
	seenPMID := make(map[string]struct{}, len(records))

	out := make([]domain.RawRecord, 0, len(records))
	for _, rec := range records {
		doi := strings.ToLower(rec.DOI)
		pmid := strings.ToLower(rec.PMID)

		if doi != "" {
			if _, dup := seenDOI[doi]; dup {
				continue
			}
		}
		if pmid != "" {
			if _, dup := seenPMID[pmid]; dup {
				continue
			}
		}

		if doi != "" {
			seenDOI[doi] = struct{}{}
		}
		if pmid != "" {
			seenPMID[pmid] = struct{}{}
		}
		out = append(out, rec)
	}
	return out
}

// Normalize runs the full normalization pipeline: dedup, classification
// inference, country sanitation, author canonicalization, and the final
// deterministic ordering (year descending, title ascending).
func Normalize(records []domain.RawRecord) []domain.NormalizedRecord {
	deduped := Deduplicate(records)

	out := make([]domain.NormalizedRecord, 0, len(deduped))
	for _, rec := range deduped {
		out = append(out, normalizeOne(rec))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return compareTitles(out[i].Title, out[j].Title) < 0
	})

	return out
}

func normalizeOne(rec domain.RawRecord) domain.NormalizedRecord {
	rec.Domains = InferDomains(rec)
	rec.Setting = InferSetting(rec)
	rec.Design = InferDesign(rec)

	// Corrected countries are authoritative; sanitation only runs while no
	// correction has been recorded.
	if rec.CorrCountryCode == "" && rec.Country != "" {
		country, code, name := SanitizeCountry(rec.Country)
		rec.Country = country
		if code != "" {
			rec.CorrCountryCode = code
			rec.CorrCountryName = name
		}
	}

	normAuthors := make([]string, len(rec.Authors))
	for i, a := range rec.Authors {
		normAuthors[i] = NormalizeName(a)
	}

	return domain.NormalizedRecord{
		RawRecord:           rec,
		NormalizedAuthors:   normAuthors,
		IsAbstractTruncated: strings.HasSuffix(strings.TrimSpace(rec.Abstract), "..."),
	}
}

// compareTitles orders titles case-insensitively, falling back to the raw
// byte order for deterministic ties.
func compareTitles(a, b string) int {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return strings.Compare(la, lb)
	}
	return strings.Compare(a, b)
}
