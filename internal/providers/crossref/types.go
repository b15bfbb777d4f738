// Package crossref provides a client for the Crossref REST API, the
// JSON-based citation registry used to resolve records by DOI.
//
// API documentation: https://api.crossref.org/swagger-ui/index.html
package crossref

// WorkResponse represents the top-level response from the works endpoint.
type WorkResponse struct {
	Status  string `json:"status"`
	Message Work   `json:"message"`
}

// Work represents a single registered work.
type Work struct {
	DOI             string     `json:"DOI"`
	Title           []string   `json:"title"`
	ContainerTitle  []string   `json:"container-title"`
	Author          []Author   `json:"author"`
	Abstract        string     `json:"abstract"`
	Subject         []string   `json:"subject"`
	PublishedPrint  *DateParts `json:"published-print"`
	PublishedOnline *DateParts `json:"published-online"`
	Published       *DateParts `json:"published"`
	Issued          *DateParts `json:"issued"`
	License         []License  `json:"license"`
	Link            []Link     `json:"link"`

	// PMID is populated by registries that carry a PubMed cross-reference
	// for the work. Empty when no cross-reference exists.
	PMID string `json:"PMID"`
}

// Author represents a work contributor. Personal authors carry Family and
// Given; collective authors carry only Name.
type Author struct {
	Family string `json:"family"`
	Given  string `json:"given"`
	Name   string `json:"name"`
}

// DateParts holds a registry date as nested numeric parts:
// [[year, month, day]], with month and day optional.
type DateParts struct {
	DateParts [][]int `json:"date-parts"`
}

// License represents a license entry attached to a work.
type License struct {
	URL            string `json:"URL"`
	ContentVersion string `json:"content-version"`
}

// Link represents a full-text link entry attached to a work.
type Link struct {
	URL         string `json:"URL"`
	ContentType string `json:"content-type"`
}
