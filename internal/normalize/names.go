package normalize

import (
	"strings"
	"unicode"
)

// NormalizeName canonicalizes a free-text author name to "Surname INITIALS".
//
// Comma form ("Doe, Jane Marie") splits surname and given names at the first
// comma; initials are the first letter of every hyphen- or space-delimited
// token of the given part. Plain form ("Jane Marie Doe") takes the last
// whitespace token as the surname. A single bare token is returned unchanged.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	if idx := strings.Index(name, ","); idx >= 0 {
		surname := strings.TrimSpace(name[:idx])
		given := strings.TrimSpace(name[idx+1:])
		if given == "" {
			return surname
		}
		return surname + " " + initialsOf(given)
	}

	tokens := strings.Fields(name)
	if len(tokens) == 1 {
		return tokens[0]
	}

	surname := tokens[len(tokens)-1]
	var b strings.Builder
	for _, tok := range tokens[:len(tokens)-1] {
		b.WriteString(firstLetterUpper(tok))
	}
	return surname + " " + b.String()
}

// initialsOf concatenates the uppercased first letter of every token in the
// given-name part, splitting on spaces and hyphens.
func initialsOf(given string) string {
	var b strings.Builder
	for _, tok := range strings.FieldsFunc(given, func(r rune) bool {
		return r == ' ' || r == '-'
	}) {
		b.WriteString(firstLetterUpper(tok))
	}
	return b.String()
}

func firstLetterUpper(tok string) string {
	for _, r := range tok {
		return string(unicode.ToUpper(r))
	}
	return ""
}
