// Package normalize implements the bidirectional kebab/snake ↔ camel/Pascal
// name mapping used to resolve tool-proxy attribute access.
package normalize

import "strings"

// Camel lowercases the first letter of s and folds any `[-_]x` run into an
// uppercase X, e.g. "list-directory" -> "listDirectory".
func Camel(s string) string {
	p := Pascal(s)
	if p == "" {
		return p
	}
	r := []rune(p)
	r[0] = toLower(r[0])
	return string(r)
}

// Pascal is Camel but with an uppercase first letter,
// e.g. "list_directory" -> "ListDirectory".
func Pascal(s string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range s {
		if r == '-' || r == '_' || r == ' ' {
			upperNext = true
			continue
		}
		if upperNext {
			b.WriteRune(toUpper(r))
			upperNext = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Kebab converts a camelCase/PascalCase/snake_case identifier to kebab-case.
func Kebab(s string) string {
	return joinWords(splitWords(s), "-")
}

// Snake converts a camelCase/PascalCase/kebab-case identifier to snake_case.
func Snake(s string) string {
	return joinWords(splitWords(s), "_")
}

// Space converts an identifier to space-separated lowercase words.
func Space(s string) string {
	return joinWords(splitWords(s), " ")
}

// Candidates returns the set of alternate spellings used for reverse
// lookup: {s, kebab(s), snake(s), space(s)}.
func Candidates(s string) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range []string{s, Kebab(s), Snake(s), Space(s)} {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// IsCamel reports whether s looks like camelCase (starts lowercase, no
// separators, contains at least one uppercase letter or is a bare lowercase
// word).
func IsCamel(s string) bool {
	if s == "" {
		return false
	}
	if strings.ContainsAny(s, "-_ ") {
		return false
	}
	r := []rune(s)
	return r[0] == toLower(r[0])
}

func splitWords(s string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '-' || r == '_' || r == ' ':
			flush()
		case isUpper(r) && i > 0 && !isUpper(runes[i-1]) && runes[i-1] != '-' && runes[i-1] != '_' && runes[i-1] != ' ':
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}

func joinWords(words []string, sep string) string {
	return strings.Join(words, sep)
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
