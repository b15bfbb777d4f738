package normalize

import (
	"strings"
	"unicode"

	"github.com/arrestlit/corpus-service/internal/domain"
)

// Outcome settings for cardiac arrest studies.
const (
	SettingOHCA    = "OHCA"
	SettingIHCA    = "IHCA"
	SettingMixed   = "Mixed"
	SettingUnclear = "Unclear"
)

// Study designs recognized by design inference.
const (
	DesignRCT            = "Randomized controlled trial"
	DesignProspective    = "Prospective cohort"
	DesignRetrospective  = "Retrospective cohort"
	DesignCrossSectional = "Cross-sectional study"
	DesignMixedMethods   = "Mixed methods"
)

// domainBucket pairs an outcome-domain bucket with the lexical markers that
// place a paper in it.
type domainBucket struct {
	name     string
	keywords []string
}

// domainBuckets is scanned in order; order here only affects which bucket is
// recorded first when a record matches several.
var domainBuckets = []domainBucket{
	{"cognitive", []string{
		"cognitive", "cognition", "neurocognitive", "neuropsychological",
		"memory", "attention", "executive function",
	}},
	{"psychological", []string{
		"psychological", "anxiety", "depression", "ptsd",
		"post-traumatic", "posttraumatic", "emotional distress", "mental health",
	}},
	{"quality of life", []string{
		"quality of life", "qol", "hrqol", "well-being", "wellbeing",
		"life satisfaction",
	}},
	{"participation", []string{
		"participation", "return to work", "social functioning",
		"reintegration", "activities of daily living",
	}},
	{"caregiver", []string{
		"caregiver", "carer", "family burden", "next of kin", "relatives",
	}},
}

// InferDomains classifies a record into outcome-domain buckets by scanning
// title, abstract and keywords for fixed marker sets. Pre-existing domains
// seed the result (lower-cased) and keep their position. Bucket order in the
// output is first-match insertion order.
func InferDomains(rec domain.RawRecord) []string {
	set := newOrderedSet()
	for _, d := range rec.Domains {
		set.Add(strings.ToLower(strings.TrimSpace(d)))
	}

	haystack := strings.ToLower(rec.Title + " " + rec.Abstract + " " + strings.Join(rec.Keywords, " "))

	for _, bucket := range domainBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(haystack, kw) {
				set.Add(bucket.name)
				break
			}
		}
	}

	if set.Len() == 0 {
		return nil
	}

	out := make([]string, 0, set.Len())
	for _, name := range set.Values() {
		out = append(out, capitalizeWords(name))
	}
	return out
}

// InferSetting classifies where the arrest occurred. Pre-set values are
// kept. Markers are checked in priority order: out-of-hospital, in-hospital,
// generic cardiac arrest, then Unclear.
func InferSetting(rec domain.RawRecord) string {
	if rec.Setting != "" {
		return rec.Setting
	}

	haystack := strings.ToLower(rec.Title + " " + rec.Abstract)

	switch {
	case strings.Contains(haystack, "out-of-hospital") || strings.Contains(haystack, "ohca"):
		return SettingOHCA
	case strings.Contains(haystack, "in-hospital") || strings.Contains(haystack, "ihca"):
		return SettingIHCA
	case strings.Contains(haystack, "cardiac arrest"):
		return SettingMixed
	default:
		return SettingUnclear
	}
}

// InferDesign classifies the study design. Pre-set values are kept. Markers
// are checked in priority order; a randomized trial with prospective
// follow-up is still a randomized trial.
func InferDesign(rec domain.RawRecord) string {
	if rec.Design != "" {
		return rec.Design
	}

	haystack := strings.ToLower(rec.Title + " " + rec.Abstract)

	switch {
	case strings.Contains(haystack, "randomized"):
		return DesignRCT
	case strings.Contains(haystack, "prospective"):
		return DesignProspective
	case strings.Contains(haystack, "retrospective"):
		return DesignRetrospective
	case strings.Contains(haystack, "cross-sectional"):
		return DesignCrossSectional
	case strings.Contains(haystack, "mixed-method") || strings.Contains(haystack, "mixed methods"):
		return DesignMixedMethods
	default:
		return ""
	}
}

// capitalizeWords uppercases the first letter of every space-separated word.
func capitalizeWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		words[i] = string(unicode.ToUpper(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}
