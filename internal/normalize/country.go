package normalize

import (
	"regexp"
	"strings"
)

// countryCorrection maps a known-bad affiliation country string to its
// standardized ISO code and name.
type countryCorrection struct {
	code string
	name string
}

// countryCorrections is a hand-curated table of strings that provider
// affiliation data repeatedly gets wrong. Matching is exact after
// sanitation, case-insensitive.
var countryCorrections = map[string]countryCorrection{
	"england":                      {"GB", "United Kingdom"},
	"scotland":                     {"GB", "United Kingdom"},
	"wales":                        {"GB", "United Kingdom"},
	"northern ireland":             {"GB", "United Kingdom"},
	"united kingdom":               {"GB", "United Kingdom"},
	"uk":                           {"GB", "United Kingdom"},
	"usa":                          {"US", "United States"},
	"united states of america":     {"US", "United States"},
	"korea (south)":                {"KR", "South Korea"},
	"republic of korea":            {"KR", "South Korea"},
	"korea":                        {"KR", "South Korea"},
	"russia (federation)":          {"RU", "Russia"},
	"russian federation":           {"RU", "Russia"},
	"china (republic : 1949- )":    {"TW", "Taiwan"},
	"netherlands (kingdom of the)": {"NL", "Netherlands"},
	"the netherlands":              {"NL", "Netherlands"},
	"holland":                      {"NL", "Netherlands"},
	"czechia":                      {"CZ", "Czech Republic"},
	"turkiye":                      {"TR", "Turkey"},
}

var (
	contactFragmentPattern = regexp.MustCompile(`(?i)[\s.,;]*(electronic address|e-?mail)\s*:.*$`)
	emailPattern           = regexp.MustCompile(`\S+@\S+`)
	trailingPunctPattern   = regexp.MustCompile(`[\s.,;:]+$`)
)

// SanitizeCountry cleans a raw affiliation-derived country string and looks
// it up in the correction table. It returns the sanitized string and, when a
// correction matched, the standardized code and name (empty otherwise).
func SanitizeCountry(raw string) (country, code, name string) {
	s := strings.TrimSpace(raw)
	s = contactFragmentPattern.ReplaceAllString(s, "")
	s = emailPattern.ReplaceAllString(s, "")
	s = trailingPunctPattern.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if corr, ok := countryCorrections[strings.ToLower(s)]; ok {
		return s, corr.code, corr.name
	}
	return s, "", ""
}
