// Package domain defines the core bibliographic record types shared by the
// resolver, normalizer and search engine, together with the error taxonomy
// for record resolution.
package domain

import "strings"

// Links holds the external URLs for a record. Absent links serialize to
// absent JSON keys, never to empty strings or nulls.
type Links struct {
	DOI    string `json:"doi,omitempty"`
	PubMed string `json:"pubmed,omitempty"`
	PMC    string `json:"pmc,omitempty"`
}

// Flags holds access heuristics for a record. A nil pointer means "unknown",
// which is distinct from an explicit false.
type Flags struct {
	OpenAccess  *bool `json:"open_access,omitempty"`
	HasFulltext *bool `json:"has_fulltext,omitempty"`
}

// RawRecord is a resolved bibliographic entry as produced by the resolver or
// loaded from the corpus store. The primary key is the PMID when known,
// otherwise the DOI.
type RawRecord struct {
	ID       string   `json:"id"`
	PMID     string   `json:"pmid,omitempty"`
	DOI      string   `json:"doi,omitempty"`
	PMCID    string   `json:"pmcid,omitempty"`
	Title    string   `json:"title"`
	Journal  string   `json:"journal,omitempty"`
	Abstract string   `json:"abstract"`
	Authors  []string `json:"authors"`
	Year     int      `json:"year"`
	Date     string   `json:"date,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Mesh     []string `json:"mesh,omitempty"`
	Country  string   `json:"country,omitempty"`

	// CorrCountryCode and CorrCountryName are set by enrichment when a known-bad
	// affiliation country string has been corrected. Once set they are
	// authoritative and never overwritten.
	CorrCountryCode string `json:"corrCountryCode,omitempty"`
	CorrCountryName string `json:"corrCountryName,omitempty"`

	Links Links `json:"links"`
	Flags Flags `json:"flags,omitempty"`

	Domains []string `json:"domains,omitempty"`
	Setting string   `json:"setting,omitempty"`
	Design  string   `json:"design,omitempty"`
}

// NormalizedRecord extends RawRecord with the fields computed during corpus
// normalization.
type NormalizedRecord struct {
	RawRecord

	// NormalizedAuthors holds one "Surname INITIALS" entry per raw author,
	// in the same order.
	NormalizedAuthors []string `json:"normalizedAuthors"`

	// IsAbstractTruncated is true iff the trimmed abstract ends with a
	// literal ellipsis, indicating the provider cut it short.
	IsAbstractTruncated bool `json:"isAbstractTruncated"`
}

// Identifier names a paper by any of its external identifiers. At least one
// field must be set for resolution.
type Identifier struct {
	DOI   string `json:"doi,omitempty"`
	PMID  string `json:"pmid,omitempty"`
	PMCID string `json:"pmcid,omitempty"`
}

// IsZero reports whether no identifier is present.
func (id Identifier) IsZero() bool {
	return id.DOI == "" && id.PMID == "" && id.PMCID == ""
}

// SameID compares two external identifiers case-insensitively. Empty strings
// never match.
func SameID(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

// BoolPtr returns a pointer to b, for populating Flags.
func BoolPtr(b bool) *bool {
	return &b
}
