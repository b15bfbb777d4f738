package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
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
	// DefaultBaseURL is the base URL for NCBI E-utilities API.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultRateLimit is the rate limit without an API key (3 requests/second).
	// With an API key, the limit increases to 10 requests/second.
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// sourceName is the human-readable name for this source.
	sourceName = "PubMed"

	pubmedURLPrefix = "https://pubmed.ncbi.nlm.nih.gov/"
	pmcURLPrefix    = "https://www.ncbi.nlm.nih.gov/pmc/articles/"
	doiURLPrefix    = "https://doi.org/"
)

// Config holds the configuration for the PubMed client.
type Config struct {
	// BaseURL is the base URL for the E-utilities API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Tool identifies the calling application to NCBI.
	Tool string

	// Email is the contact email sent with every request, per NCBI
	// usage policy.
	Email string

	// APIKey is the NCBI API key for higher rate limits.
	// Optional but recommended for production use.
	APIKey string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	// Defaults to DefaultRateLimit (3 req/sec) if zero.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int
}

// applyDefaults applies default values to the config.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Tool == "" {
		c.Tool = "arrestlit-corpus-service"
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

// Client fetches article metadata and cross-references identifiers against
// the biomedical literature database.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
}

// New creates a new PubMed client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	ua := cfg.Tool + "/1.0"
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

// NewWithHTTPClient creates a new PubMed client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// FetchByPMID retrieves the article metadata for a PMID via efetch and maps
// it into a RawRecord.
func (c *Client) FetchByPMID(ctx context.Context, pmid string) (*domain.RawRecord, error) {
	q := c.baseQuery()
	q.Set("db", "pubmed")
	q.Set("id", pmid)
	q.Set("retmode", "xml")

	body, err := c.get(ctx, "/efetch.fcgi", q)
	if err != nil {
		return nil, err
	}

	var set PubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("failed to parse XML response: %w", err)
	}

	if len(set.Articles) == 0 {
		return nil, domain.NewLookupErrorf("no PubMed record for PMID %s", pmid)
	}

	return articleToRecord(set.Articles[0])
}

// ResolvePMCID cross-references a PMCID to a PMID via elink. It selects the
// first PubMed-database link in the response and fails with a LookupError
// when no such link exists.
func (c *Client) ResolvePMCID(ctx context.Context, pmcid string) (string, error) {
	id := strings.ToUpper(strings.TrimSpace(pmcid))
	if !strings.HasPrefix(id, "PMC") {
		id = "PMC" + id
	}

	q := c.baseQuery()
	q.Set("dbfrom", "pmc")
	q.Set("db", "pubmed")
	q.Set("id", id)
	q.Set("retmode", "json")

	body, err := c.get(ctx, "/elink.fcgi", q)
	if err != nil {
		return "", err
	}

	var result ELinkResult
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse JSON response: %w", err)
	}

	for _, ls := range result.LinkSets {
		for _, db := range ls.LinkSetDBs {
			if db.DBTo == "pubmed" && len(db.Links) > 0 {
				return db.Links[0], nil
			}
		}
	}

	return "", domain.NewLookupErrorf("unresolvable PMCID %s", pmcid)
}

// SearchPMIDsByDOI runs the esearch term-search fallback using the pattern
// "<doi>[doi]" and returns the matching PMIDs in response order. An empty
// result is not an error; the caller decides how to proceed.
func (c *Client) SearchPMIDsByDOI(ctx context.Context, doi string) ([]string, error) {
	q := c.baseQuery()
	q.Set("db", "pubmed")
	q.Set("term", doi+"[doi]")
	q.Set("retmode", "json")

	body, err := c.get(ctx, "/esearch.fcgi", q)
	if err != nil {
		return nil, err
	}

	var result ESearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	return result.Result.IDList, nil
}

// baseQuery returns the politeness parameters every E-utilities call carries.
func (c *Client) baseQuery() url.Values {
	q := url.Values{}
	q.Set("tool", c.config.Tool)
	if c.config.Email != "" {
		q.Set("email", c.config.Email)
	}
	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	}
	return q
}

// get executes a GET against an E-utilities endpoint and returns the body.
// A non-success status maps to an ExternalAPIError.
func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u, err := url.Parse(c.config.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body))
	}

	return body, nil
}

// articleToRecord maps a PubmedArticle into the common RawRecord shape.
func articleToRecord(article PubmedArticle) (*domain.RawRecord, error) {
	citation := article.MedlineCitation
	pmid := strings.TrimSpace(citation.PMID.Value)

	title := stripTags(citation.Article.ArticleTitle)
	if title == "" {
		return nil, domain.NewLookupErrorf("PubMed record %s has no title", pmid)
	}

	year, date := extractDate(citation.Article)
	if year == 0 {
		return nil, domain.NewLookupErrorf("PubMed record %s has no publication year", pmid)
	}

	rec := &domain.RawRecord{
		ID:       pmid,
		PMID:     pmid,
		Title:    title,
		Journal:  strings.TrimSpace(citation.Article.Journal.Title),
		Abstract: extractAbstract(citation.Article.Abstract),
		Authors:  extractAuthors(citation.Article.AuthorList),
		Year:     year,
		Date:     date,
	}

	if citation.KeywordList != nil {
		for _, kw := range citation.KeywordList.Keywords {
			if v := strings.TrimSpace(kw.Value); v != "" {
				rec.Keywords = append(rec.Keywords, v)
			}
		}
	}

	if citation.MeshHeadingList != nil {
		for _, mh := range citation.MeshHeadingList.MeshHeadings {
			if v := strings.TrimSpace(mh.DescriptorName.Value); v != "" {
				rec.Mesh = append(rec.Mesh, v)
			}
		}
	}

	if citation.MedlineJournalInfo != nil {
		rec.Country = strings.TrimSpace(citation.MedlineJournalInfo.Country)
	}

	for _, aid := range article.PubmedData.ArticleIdList.ArticleIds {
		switch strings.ToLower(aid.IdType) {
		case "doi":
			rec.DOI = strings.TrimSpace(aid.Value)
		case "pmc":
			rec.PMCID = strings.TrimSpace(aid.Value)
		}
	}

	rec.Links.PubMed = pubmedURLPrefix + pmid + "/"
	if rec.DOI != "" {
		rec.Links.DOI = doiURLPrefix + rec.DOI
	}
	if rec.PMCID != "" {
		rec.Links.PMC = pmcURLPrefix + rec.PMCID + "/"
		// Fulltext in PMC implies open access in this model. A deliberate
		// simplification: PMC deposit is a proxy, not a license check.
		rec.Flags.HasFulltext = domain.BoolPtr(true)
		rec.Flags.OpenAccess = domain.BoolPtr(true)
	}

	return rec, nil
}

// extractAbstract renders every abstract segment in document order, prefixing
// labeled segments as "LABEL: text" and joining with newlines.
func extractAbstract(abstract *Abstract) string {
	if abstract == nil {
		return ""
	}

	var parts []string
	for _, at := range abstract.AbstractTexts {
		text := strings.TrimSpace(at.Value)
		if text == "" {
			continue
		}
		if at.Label != "" {
			parts = append(parts, at.Label+": "+text)
		} else {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n")
}

// extractAuthors renders author display names: "Surname Initials" when
// initials are present, "Surname, Forename" otherwise, or the collective
// name. Entries lacking both a surname and a collective name are dropped.
func extractAuthors(authorList *AuthorList) []string {
	if authorList == nil {
		return nil
	}

	out := make([]string, 0, len(authorList.Authors))
	for _, a := range authorList.Authors {
		switch {
		case a.LastName != "" && a.Initials != "":
			out = append(out, a.LastName+" "+a.Initials)
		case a.LastName != "" && a.ForeName != "":
			out = append(out, a.LastName+", "+a.ForeName)
		case a.LastName != "":
			out = append(out, a.LastName)
		case a.CollectiveName != "":
			out = append(out, a.CollectiveName)
		}
	}
	return out
}

// monthTable maps month-name strings to zero-padded month numbers. Numeric
// month strings pass through unchanged.
var monthTable = map[string]string{
	"jan": "01", "january": "01",
	"feb": "02", "february": "02",
	"mar": "03", "march": "03",
	"apr": "04", "april": "04",
	"may": "05",
	"jun": "06", "june": "06",
	"jul": "07", "july": "07",
	"aug": "08", "august": "08",
	"sep": "09", "sept": "09", "september": "09",
	"oct": "10", "october": "10",
	"nov": "11", "november": "11",
	"dec": "12", "december": "12",
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// extractDate picks the publication date with the precedence the database
// documents: an explicit ArticleDate with a year, then the journal-issue
// PubDate, then the first 4-digit run of a free-text MedlineDate (year only).
func extractDate(article Article) (int, string) {
	for _, ad := range article.ArticleDate {
		if y := parseYear(ad.Year); y > 0 {
			return y, composeDate(ad.Year, ad.Month, ad.Day)
		}
	}

	pd := article.Journal.JournalIssue.PubDate
	if y := parseYear(pd.Year); y > 0 {
		return y, composeDate(pd.Year, pd.Month, pd.Day)
	}

	if pd.MedlineDate != "" {
		if m := yearPattern.FindString(pd.MedlineDate); m != "" {
			return parseYear(m), m
		}
	}

	return 0, ""
}

// parseYear parses a 4-digit year string, returning 0 when invalid.
func parseYear(s string) int {
	s = strings.TrimSpace(s)
	if len(s) != 4 {
		return 0
	}
	y := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		y = y*10 + int(r-'0')
	}
	return y
}

// composeDate builds the ISO-ish date string from raw parts, mapping month
// names through monthTable.
func composeDate(year, month, day string) string {
	date := strings.TrimSpace(year)

	month = strings.TrimSpace(month)
	if month == "" {
		return date
	}
	if mapped, ok := monthTable[strings.ToLower(month)]; ok {
		month = mapped
	}
	date += "-" + month

	if day = strings.TrimSpace(day); day != "" {
		date += "-" + day
	}
	return date
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)
var spacePattern = regexp.MustCompile(`\s+`)

// stripTags removes residual markup from structured titles.
func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	s = tagPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}
