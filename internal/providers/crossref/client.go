package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/arrestlit/corpus-service/internal/domain"
	"github.com/arrestlit/corpus-service/internal/providers"
)

const (
	// DefaultBaseURL is the default Crossref REST API base URL.
	DefaultBaseURL = "https://api.crossref.org"

	// DefaultRateLimit is the default rate limit for requests per second.
	// The polite pool (identified UA with a mailto) allows higher rates.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// sourceName is the human-readable name for this source.
	sourceName = "Crossref"

	// doiURLPrefix is the resolver prefix used to build DOI links.
	doiURLPrefix = "https://doi.org/"
)

// Config holds the configuration for the Crossref client.
type Config struct {
	// BaseURL is the Crossref REST API base URL.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Email is the contact email sent in the identifying User-Agent.
	// Providing one grants access to the polite pool with higher limits.
	Email string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int
}

// applyDefaults applies default values to the config.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
}

// Client fetches work metadata from the citation registry.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
}

// New creates a new Crossref client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	ua := "arrestlit-corpus-service/1.0"
	if cfg.Email != "" {
		ua += " (mailto:" + cfg.Email + ")"
	}

	return &Client{
		config: cfg,
		httpClient: providers.NewHTTPClient(providers.HTTPClientConfig{
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			BurstSize: cfg.BurstSize,
			UserAgent: ua,
		}),
	}
}

// NewWithHTTPClient creates a new Crossref client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// GetByDOI retrieves the registered work for a DOI and maps it into a
// RawRecord. Missing title or publication year fails with a LookupError;
// a non-success status fails with an ExternalAPIError.
func (c *Client) GetByDOI(ctx context.Context, doi string) (*domain.RawRecord, error) {
	u := c.config.BaseURL + "/works/" + url.PathEscape(doi)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var wr WorkResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	return workToRecord(wr.Message)
}

// workToRecord maps a registry work into the common RawRecord shape. Raw
// provider payloads never cross this boundary.
func workToRecord(w Work) (*domain.RawRecord, error) {
	if len(w.Title) == 0 || strings.TrimSpace(w.Title[0]) == "" {
		return nil, domain.NewLookupErrorf("registry record for %q has no title", w.DOI)
	}

	year, date := extractDate(w)
	if year == 0 {
		return nil, domain.NewLookupErrorf("registry record for %q has no publication year", w.DOI)
	}

	rec := &domain.RawRecord{
		ID:       w.DOI,
		DOI:      w.DOI,
		PMID:     w.PMID,
		Title:    strings.TrimSpace(w.Title[0]),
		Abstract: stripTags(w.Abstract),
		Authors:  extractAuthors(w.Author),
		Year:     year,
		Date:     date,
		Keywords: trimAll(w.Subject),
	}

	if len(w.ContainerTitle) > 0 {
		rec.Journal = strings.TrimSpace(w.ContainerTitle[0])
	}

	rec.Links.DOI = doiURLPrefix + w.DOI

	// Heuristic access proxies: a license entry suggests open access and a
	// full-text link suggests retrievable fulltext. Neither is authoritative.
	if len(w.License) > 0 {
		rec.Flags.OpenAccess = domain.BoolPtr(true)
	}
	if len(w.Link) > 0 {
		rec.Flags.HasFulltext = domain.BoolPtr(true)
	}

	return rec, nil
}

// extractDate picks the first populated date field in precedence order:
// print, online, published, issued. It returns the year and an ISO-ish date
// string (YYYY, YYYY-MM or YYYY-MM-DD) with zero-padded month and day.
func extractDate(w Work) (int, string) {
	for _, dp := range []*DateParts{w.PublishedPrint, w.PublishedOnline, w.Published, w.Issued} {
		if dp == nil || len(dp.DateParts) == 0 || len(dp.DateParts[0]) == 0 {
			continue
		}
		parts := dp.DateParts[0]

		year := parts[0]
		if year == 0 {
			continue
		}

		date := fmt.Sprintf("%04d", year)
		if len(parts) > 1 && parts[1] > 0 {
			date += fmt.Sprintf("-%02d", parts[1])
			if len(parts) > 2 && parts[2] > 0 {
				date += fmt.Sprintf("-%02d", parts[2])
			}
		}
		return year, date
	}
	return 0, ""
}

// extractAuthors renders contributors as display names: "Family, Given" for
// personal authors, the bare name for collective authors. Entries with
// neither are dropped.
func extractAuthors(authors []Author) []string {
	out := make([]string, 0, len(authors))
	for _, a := range authors {
		switch {
		case a.Family != "" && a.Given != "":
			out = append(out, a.Family+", "+a.Given)
		case a.Family != "":
			out = append(out, a.Family)
		case a.Name != "":
			out = append(out, a.Name)
		}
	}
	return out
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)
var spacePattern = regexp.MustCompile(`\s+`)

// stripTags removes HTML/JATS markup from registry abstracts by replacing
// every tag with a single space and collapsing whitespace. This is a lossy
// heuristic: it cannot tell meaningful inline markup from wrapper tags.
func stripTags(s string) string {
	if s == "" {
		return ""
	}
	s = tagPattern.ReplaceAllString(s, " ")
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// trimAll trims every element and drops empties.
func trimAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
