package httpserver

import "github.com/arrestlit/corpus-service/internal/domain"

// Request and response types for JSON serialization.

type resolveRequest struct {
	DOI   string `json:"doi" validate:"required_without_all=PMID PMCID"`
	PMID  string `json:"pmid" validate:"omitempty,numeric"`
	PMCID string `json:"pmcid"`
}

type resolveResponse struct {
	Record domain.RawRecord `json:"record"`
}

type searchResponse struct {
	// State is the canonical URL encoding of the applied search state.
	State   string                    `json:"state"`
	Total   int                       `json:"total"`
	Records []domain.NormalizedRecord `json:"records"`
}
