package search

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/arrestlit/corpus-service/internal/domain"
)

// MaxScore is the worst match quality a hit may have and still be returned.
// Scores are distances: 0 is a perfect match, 1 is no similarity at all.
const MaxScore = 0.35

// minTokenLen is the shortest query token considered for conjunctive
// matching; shorter tokens add noise without narrowing anything.
const minTokenLen = 3

// indexedField describes one searchable record field. Weight scales the
// distance: a low-weight field has to match much better to achieve the same
// score as a title match. Content fields are the ones that may carry a hit
// on their own; matches confined to the others are discarded as noise.
type indexedField struct {
	name    string
	weight  float64
	content bool
}

var indexedFields = []indexedField{
	{"title", 1.0, true},
	{"abstract", 0.9, true},
	{"keywords", 0.7, true},
	{"authors", 0.4, false},
	{"journal", 0.4, false},
}

// fieldText extracts the lower-cased searchable text of a field.
func fieldText(rec *domain.NormalizedRecord, name string) string {
	switch name {
	case "title":
		return strings.ToLower(rec.Title)
	case "abstract":
		return strings.ToLower(rec.Abstract)
	case "keywords":
		return strings.ToLower(strings.Join(rec.Keywords, " "))
	case "authors":
		return strings.ToLower(strings.Join(rec.Authors, " ") + " " + strings.Join(rec.NormalizedAuthors, " "))
	case "journal":
		return strings.ToLower(rec.Journal)
	}
	return ""
}

// hit is one fuzzy match with its quality and location metadata.
type hit struct {
	record        *domain.NormalizedRecord
	score         float64
	matchedFields map[string]bool
}

// hasContentMatch reports whether any matched field is a content field.
func (h *hit) hasContentMatch() bool {
	for _, f := range indexedFields {
		if f.content && h.matchedFields[f.name] {
			return true
		}
	}
	return false
}

// fuzzyIndex holds the tokenized field texts of the filtered candidates.
type fuzzyIndex struct {
	records []*domain.NormalizedRecord
	// fields[i][name] is the word list of field name for record i.
	fields []map[string][]string
	// texts[i][name] is the raw lower-cased field text, for literal
	// inclusion checks.
	texts []map[string]string
}

// buildIndex tokenizes the candidate records once so repeated token lookups
// stay cheap.
func buildIndex(records []*domain.NormalizedRecord) *fuzzyIndex {
	idx := &fuzzyIndex{
		records: records,
		fields:  make([]map[string][]string, len(records)),
		texts:   make([]map[string]string, len(records)),
	}
	for i, rec := range records {
		idx.fields[i] = make(map[string][]string, len(indexedFields))
		idx.texts[i] = make(map[string]string, len(indexedFields))
		for _, f := range indexedFields {
			text := fieldText(rec, f.name)
			idx.texts[i][f.name] = text
			idx.fields[i][f.name] = strings.Fields(text)
		}
	}
	return idx
}

// searchConjunctive keeps candidates where every token is literally included
// (case-insensitive substring) in at least one field. This is the precision
// tier: approximate matches do not count here.
func (idx *fuzzyIndex) searchConjunctive(tokens []string) []hit {
	var hits []hit
	for i := range idx.records {
		matched := make(map[string]bool)
		total := 0.0
		ok := true

		for _, tok := range tokens {
			score, field, literal := idx.bestMatch(i, tok)
			if !literal {
				ok = false
				break
			}
			matched[field] = true
			total += score
		}
		if !ok {
			continue
		}

		hits = append(hits, hit{
			record:        idx.records[i],
			score:         total / float64(len(tokens)),
			matchedFields: matched,
		})
	}
	return hits
}

// searchApproximate scores every candidate against the raw query tokens
// disjunctively: the best-matching token determines the record score. This
// is the recall tier the engine falls back to when the conjunctive tier
// returns nothing.
func (idx *fuzzyIndex) searchApproximate(query string) []hit {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil
	}

	var hits []hit
	for i := range idx.records {
		best := 1.0
		matched := make(map[string]bool)

		for _, tok := range tokens {
			score, field, _ := idx.bestMatch(i, tok)
			if score < best {
				best = score
				matched = map[string]bool{field: true}
			}
		}

		if best <= MaxScore {
			hits = append(hits, hit{
				record:        idx.records[i],
				score:         best,
				matchedFields: matched,
			})
		}
	}
	return hits
}

// bestMatch finds the best-scoring field for a token. It returns the
// weighted distance, the field name, and whether the token occurred
// literally in that field.
func (idx *fuzzyIndex) bestMatch(i int, token string) (float64, string, bool) {
	best := 1.0
	bestField := ""
	literal := false

	for _, f := range indexedFields {
		raw, lit := matchInField(token, idx.texts[i][f.name], idx.fields[i][f.name])

		// Low-weight fields inflate the distance, privileging title and
		// abstract matches of equal raw quality.
		weighted := raw * (2.0 - f.weight)
		if weighted > 1.0 {
			weighted = 1.0
		}

		if weighted < best || (weighted == best && lit && !literal) {
			best = weighted
			bestField = f.name
			literal = lit
		}
	}
	return best, bestField, literal
}

// matchInField scores a token against one field. Literal inclusion scores
// by how much of the containing word the token covers; otherwise the best
// normalized edit distance against the field's words is used.
func matchInField(token, text string, words []string) (float64, bool) {
	if text == "" {
		return 1.0, false
	}

	if strings.Contains(text, token) {
		best := 1.0
		for _, w := range words {
			if w == token {
				return 0.0, true
			}
			if strings.Contains(w, token) {
				cover := 1.0 - float64(len(token))/float64(len(w))
				if s := 0.1 * cover; s < best {
					best = s
				}
			}
		}
		if best < 1.0 {
			return best, true
		}
		// The token spans a word boundary; treat as a near-literal phrase hit.
		return 0.05, true
	}

	best := 1.0
	for _, w := range words {
		d := float64(levenshtein.ComputeDistance(token, w))
		max := float64(len(token))
		if float64(len(w)) > max {
			max = float64(len(w))
		}
		if max == 0 {
			continue
		}
		if s := d / max; s < best {
			best = s
		}
	}
	return best, false
}
