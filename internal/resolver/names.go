// Package resolver maps free-form player name strings to canonical player
// IDs. It never creates players; ingestion owns placeholder creation.
package resolver

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Fold lowercases a name and strips diacritics, so "Djoković" and "djokovic"
// compare equal.
func Fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// isInitial reports whether a token is an abbreviated given name ("N.", "J-L.",
// or a bare single letter).
func isInitial(token string) bool {
	t := strings.TrimSuffix(token, ".")
	if t == "" {
		return true
	}
	for _, part := range strings.Split(t, "-") {
		if len([]rune(part)) > 1 {
			return false
		}
	}
	return true
}

// Surname extracts the folded surname from any supported name shape:
// "Djokovic N.", "N. Djokovic", "Novak Djokovic", "Djokovic Novak", and
// compound surnames like "Van De Zandschulp B.". Heuristic: initials are
// discarded; of the remaining tokens, the surname is the trailing run of
// particles plus final token, or the final token alone.
func Surname(name string) string {
	tokens := tokens(name)
	if len(tokens) == 0 {
		return ""
	}
	if len(tokens) == 1 {
		return tokens[0]
	}

	// Compound-surname particles that glue onto the following token.
	particles := map[string]bool{
		"van": true, "von": true, "de": true, "del": true, "della": true,
		"der": true, "den": true, "di": true, "da": true, "la": true,
		"le": true, "al": true, "el": true, "o": true, "mc": true,
	}

	// Find the start of the trailing particle run ending at the last token.
	start := len(tokens) - 1
	for start > 0 && particles[tokens[start-1]] {
		start--
	}
	if start < len(tokens)-1 {
		return strings.Join(tokens[start:], " ")
	}
	return tokens[len(tokens)-1]
}

// SurnamesEqual compares two free-form names by folded surname.
func SurnamesEqual(a, b string) bool {
	sa, sb := Surname(a), Surname(b)
	return sa != "" && sa == sb
}

// FirstInitial returns the folded first letter of the given-name portion, or
// empty when the name carries no given name.
func FirstInitial(name string) string {
	surname := Surname(name)
	surnameTokens := map[string]bool{}
	for _, t := range strings.Fields(surname) {
		surnameTokens[t] = true
	}
	for _, tok := range rawTokens(name) {
		tok = strings.TrimSuffix(tok, ".")
		if surnameTokens[tok] {
			continue
		}
		if r := []rune(tok); len(r) > 0 {
			return string(r[0])
		}
	}
	return ""
}

// Keys generates normalized lookup keys for a raw name, most specific first:
// the folded full name, the token-reversed form, and "surname initial".
func Keys(name string) []string {
	folded := Fold(name)
	toks := tokens(name)
	keys := []string{folded}

	if len(toks) >= 2 {
		reversed := make([]string, len(toks))
		for i, t := range toks {
			reversed[len(toks)-1-i] = t
		}
		keys = append(keys, strings.Join(reversed, " "))
	}
	if surname := Surname(name); surname != "" {
		if initial := FirstInitial(name); initial != "" {
			keys = append(keys, surname+" "+initial)
		}
		keys = append(keys, surname)
	}

	// Dedupe preserving order.
	seen := map[string]bool{}
	out := keys[:0]
	for _, k := range keys {
		if k != "" && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

func rawTokens(name string) []string {
	return strings.FieldsFunc(Fold(name), func(r rune) bool {
		return r == ' ' || r == ','
	})
}

func tokens(name string) []string {
	raw := rawTokens(name)
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if isInitial(t) {
			continue
		}
		out = append(out, strings.TrimSuffix(t, "."))
	}
	if len(out) == 0 && len(raw) > 0 {
		// Name was all initials; keep them rather than return nothing.
		for _, t := range raw {
			out = append(out, strings.TrimSuffix(t, "."))
		}
	}
	return out
}
