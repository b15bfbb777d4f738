// Package pubmed provides a client for the NCBI PubMed E-utilities API, the
// XML-based biomedical literature database. Besides record fetch (efetch)
// it exposes the identifier cross-reference endpoint (elink, PMCID to PMID)
// and the term-search endpoint (esearch, DOI to PMID).
//
// The E-utilities API documentation is available at:
// https://www.ncbi.nlm.nih.gov/books/NBK25499/
package pubmed

import "encoding/xml"

// PubmedArticleSet represents the response from the efetch.fcgi endpoint.
type PubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []PubmedArticle `xml:"PubmedArticle"`
}

// PubmedArticle represents a single article in the PubMed database.
type PubmedArticle struct {
	MedlineCitation MedlineCitation `xml:"MedlineCitation"`
	PubmedData      PubmedData      `xml:"PubmedData"`
}

// MedlineCitation contains the core bibliographic information.
type MedlineCitation struct {
	PMID               PMID                `xml:"PMID"`
	Article            Article             `xml:"Article"`
	MedlineJournalInfo *MedlineJournalInfo `xml:"MedlineJournalInfo,omitempty"`
	MeshHeadingList    *MeshHeadingList    `xml:"MeshHeadingList,omitempty"`
	KeywordList        *KeywordList        `xml:"KeywordList,omitempty"`
}

// PMID represents the PubMed identifier with optional version.
type PMID struct {
	Version int    `xml:"Version,attr,omitempty"`
	Value   string `xml:",chardata"`
}

// Article contains the article metadata.
type Article struct {
	Journal      Journal       `xml:"Journal"`
	ArticleTitle string        `xml:"ArticleTitle"`
	Abstract     *Abstract     `xml:"Abstract,omitempty"`
	AuthorList   *AuthorList   `xml:"AuthorList,omitempty"`
	ArticleDate  []ArticleDate `xml:"ArticleDate,omitempty"`
}

// Journal contains journal information.
type Journal struct {
	JournalIssue    JournalIssue `xml:"JournalIssue"`
	Title           string       `xml:"Title,omitempty"`
	ISOAbbreviation string       `xml:"ISOAbbreviation,omitempty"`
}

// JournalIssue contains the volume, issue, and publication date.
type JournalIssue struct {
	Volume  string  `xml:"Volume,omitempty"`
	Issue   string  `xml:"Issue,omitempty"`
	PubDate PubDate `xml:"PubDate"`
}

// PubDate represents the publication date which may have various formats.
// MedlineDate is a free-text fallback ("2020 Jan-Feb", "2019-2020").
type PubDate struct {
	Year        string `xml:"Year,omitempty"`
	Month       string `xml:"Month,omitempty"`
	Day         string `xml:"Day,omitempty"`
	MedlineDate string `xml:"MedlineDate,omitempty"`
}

// MedlineJournalInfo carries journal-level indexing data, including the
// publication country used for affiliation-country enrichment.
type MedlineJournalInfo struct {
	Country     string `xml:"Country,omitempty"`
	MedlineTA   string `xml:"MedlineTA,omitempty"`
	NlmUniqueID string `xml:"NlmUniqueID,omitempty"`
}

// Abstract contains the article abstract, which may have multiple sections.
type Abstract struct {
	AbstractTexts []AbstractText `xml:"AbstractText"`
}

// AbstractText represents a section of the abstract. Structured abstracts
// have labeled sections (BACKGROUND, METHODS, RESULTS, ...).
type AbstractText struct {
	Label       string `xml:"Label,attr,omitempty"`
	NlmCategory string `xml:"NlmCategory,attr,omitempty"`
	Value       string `xml:",chardata"`
}

// AuthorList contains the list of authors.
type AuthorList struct {
	CompleteYN string   `xml:"CompleteYN,attr,omitempty"`
	Authors    []Author `xml:"Author"`
}

// Author represents a single author.
type Author struct {
	ValidYN        string `xml:"ValidYN,attr,omitempty"`
	LastName       string `xml:"LastName,omitempty"`
	ForeName       string `xml:"ForeName,omitempty"`
	Initials       string `xml:"Initials,omitempty"`
	CollectiveName string `xml:"CollectiveName,omitempty"`
}

// ArticleDate represents the article-level publication date.
type ArticleDate struct {
	DateType string `xml:"DateType,attr,omitempty"`
	Year     string `xml:"Year"`
	Month    string `xml:"Month,omitempty"`
	Day      string `xml:"Day,omitempty"`
}

// MeshHeadingList contains the MeSH terms assigned to the article.
type MeshHeadingList struct {
	MeshHeadings []MeshHeading `xml:"MeshHeading"`
}

// MeshHeading represents a MeSH descriptor with optional qualifiers.
type MeshHeading struct {
	DescriptorName DescriptorName `xml:"DescriptorName"`
}

// DescriptorName represents a MeSH descriptor.
type DescriptorName struct {
	UI    string `xml:"UI,attr,omitempty"`
	Value string `xml:",chardata"`
}

// KeywordList contains author-provided keywords.
type KeywordList struct {
	Owner    string    `xml:"Owner,attr,omitempty"`
	Keywords []Keyword `xml:"Keyword"`
}

// Keyword represents a single keyword.
type Keyword struct {
	Value string `xml:",chardata"`
}

// PubmedData contains additional PubMed-specific data.
type PubmedData struct {
	PublicationStatus string        `xml:"PublicationStatus,omitempty"`
	ArticleIdList     ArticleIdList `xml:"ArticleIdList"`
}

// ArticleIdList contains various identifiers for the article.
type ArticleIdList struct {
	ArticleIds []ArticleId `xml:"ArticleId"`
}

// ArticleId represents an article identifier (pubmed, doi, pmc, ...).
type ArticleId struct {
	IdType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}

// ELinkResult represents the JSON response from the elink.fcgi endpoint
// used for PMCID to PMID cross-referencing.
type ELinkResult struct {
	LinkSets []LinkSet `json:"linksets"`
}

// LinkSet is one cross-reference result group.
type LinkSet struct {
	DBFrom     string      `json:"dbfrom"`
	IDs        []string    `json:"ids"`
	LinkSetDBs []LinkSetDB `json:"linksetdbs"`
}

// LinkSetDB holds the linked identifiers for one target database.
type LinkSetDB struct {
	DBTo     string   `json:"dbto"`
	LinkName string   `json:"linkname"`
	Links    []string `json:"links"`
}

// ESearchResult represents the JSON response from the esearch.fcgi endpoint
// used for DOI term-search fallback.
type ESearchResult struct {
	Result ESearchIDList `json:"esearchresult"`
}

// ESearchIDList carries the matching identifier list.
type ESearchIDList struct {
	Count  string   `json:"count"`
	IDList []string `json:"idlist"`
}
