package search

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SearchState is the complete filter and query state of an interactive
// search session. It round-trips through URL query parameters so sessions
// are shareable links.
type SearchState struct {
	Query     string
	MinYear   int
	MaxYear   int
	Domains   []string
	Settings  []string
	Designs   []string
	Countries []string
	Journals  []string

	// QuickFilter names a predefined lexical OR-query shortcut; empty
	// means none.
	QuickFilter string
}

// facetParams maps URL parameter names to facet accessors, in serialization
// order.
var facetParams = []string{"domain", "setting", "design", "country", "journal"}

func (s *SearchState) facetValues(param string) *[]string {
	switch param {
	case "domain":
		return &s.Domains
	case "setting":
		return &s.Settings
	case "design":
		return &s.Designs
	case "country":
		return &s.Countries
	case "journal":
		return &s.Journals
	}
	return nil
}

// EncodeState serializes a state into URL query parameters. Empty strings
// and empty facet lists serialize to absent parameters; the year range
// serializes as "min:max". Multi-value facets serialize as repeated
// parameters.
func EncodeState(state SearchState) url.Values {
	v := url.Values{}

	if state.Query != "" {
		v.Set("q", state.Query)
	}
	if state.MinYear != 0 || state.MaxYear != 0 {
		v.Set("years", fmt.Sprintf("%d:%d", state.MinYear, state.MaxYear))
	}
	for _, param := range facetParams {
		for _, val := range *state.facetValues(param) {
			v.Add(param, val)
		}
	}
	if state.QuickFilter != "" {
		v.Set("quick", state.QuickFilter)
	}

	return v
}

// DecodeState parses URL query parameters back into a state. Absent
// parameters fall back to the caller-supplied defaults, so a round trip is
// lossless exactly when both ends agree on defaults: an empty facet list
// deserializes to the default list, not to empty.
func DecodeState(v url.Values, defaults SearchState) SearchState {
	state := defaults

	if q := v.Get("q"); q != "" {
		state.Query = q
	}
	if years := v.Get("years"); years != "" {
		if min, max, ok := parseYearRange(years); ok {
			state.MinYear, state.MaxYear = min, max
		}
	}
	for _, param := range facetParams {
		if vals, ok := v[param]; ok && len(vals) > 0 {
			*state.facetValues(param) = vals
		}
	}
	if quick := v.Get("quick"); quick != "" {
		state.QuickFilter = quick
	}

	return state
}

// parseYearRange parses "min:max" into its bounds.
func parseYearRange(s string) (int, int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	min, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	max, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return min, max, true
}
