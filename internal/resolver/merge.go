package resolver

import "github.com/arrestlit/corpus-service/internal/domain"

// Merge reconciles two records for the same work into one. Preferred fields
// win; fallback fields fill gaps. Authors, abstract, keywords and mesh are
// taken from preferred only when non-empty, and links and flags are unioned
// field-wise with preferred overriding fallback per key.
func Merge(preferred, fallback *domain.RawRecord) *domain.RawRecord {
	out := *preferred

	out.PMID = firstNonEmpty(preferred.PMID, fallback.PMID)
	out.DOI = firstNonEmpty(preferred.DOI, fallback.DOI)
	out.PMCID = firstNonEmpty(preferred.PMCID, fallback.PMCID)
	out.Title = firstNonEmpty(preferred.Title, fallback.Title)
	out.Journal = firstNonEmpty(preferred.Journal, fallback.Journal)
	out.Date = firstNonEmpty(preferred.Date, fallback.Date)
	out.Country = firstNonEmpty(preferred.Country, fallback.Country)
	out.CorrCountryCode = firstNonEmpty(preferred.CorrCountryCode, fallback.CorrCountryCode)
	out.CorrCountryName = firstNonEmpty(preferred.CorrCountryName, fallback.CorrCountryName)
	out.Setting = firstNonEmpty(preferred.Setting, fallback.Setting)
	out.Design = firstNonEmpty(preferred.Design, fallback.Design)

	if preferred.Year == 0 {
		out.Year = fallback.Year
	}

	if len(preferred.Authors) == 0 {
		out.Authors = fallback.Authors
	}
	if preferred.Abstract == "" {
		out.Abstract = fallback.Abstract
	}
	if len(preferred.Keywords) == 0 {
		out.Keywords = fallback.Keywords
	}
	if len(preferred.Mesh) == 0 {
		out.Mesh = fallback.Mesh
	}
	if len(preferred.Domains) == 0 {
		out.Domains = fallback.Domains
	}

	out.Links = domain.Links{
		DOI:    firstNonEmpty(preferred.Links.DOI, fallback.Links.DOI),
		PubMed: firstNonEmpty(preferred.Links.PubMed, fallback.Links.PubMed),
		PMC:    firstNonEmpty(preferred.Links.PMC, fallback.Links.PMC),
	}

	out.Flags = domain.Flags{
		OpenAccess:  firstFlag(preferred.Flags.OpenAccess, fallback.Flags.OpenAccess),
		HasFulltext: firstFlag(preferred.Flags.HasFulltext, fallback.Flags.HasFulltext),
	}

	return &out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstFlag(a, b *bool) *bool {
	if a != nil {
		return a
	}
	return b
}
