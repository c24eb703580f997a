package bm25

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	htmlTagPattern = regexp.MustCompile(`</?[A-Za-z][^<>]*>`)
	urlPattern     = regexp.MustCompile(`\b(?:https?|ftps?)://\S+`)
)

// Tokenize turns text into index terms.
//
// HTML tags and URLs are removed, the rest is lower-cased and split on
// anything that is not a letter, digit or underscore. Tokens made only of
// digits are dropped. Identifiers written in camelCase or snake_case
// produce their parts in addition to the whole identifier, so "parseConfig"
// matches queries for "parse" and "config" as well as "parseconfig".
func Tokenize(text string) []string {
	text = htmlTagPattern.ReplaceAllString(text, " ")
	text = urlPattern.ReplaceAllString(text, " ")

	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !isWordRune(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		whole := strings.ToLower(strings.Trim(f, "_"))
		if whole == "" || isDigits(whole) {
			continue
		}
		tokens = append(tokens, whole)

		parts := splitIdentifier(f)
		if len(parts) < 2 {
			continue
		}
		for _, p := range parts {
			p = strings.ToLower(p)
			if p != "" && !isDigits(p) {
				tokens = append(tokens, p)
			}
		}
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// splitIdentifier splits on underscores and camelCase boundaries.
// An upper-case run followed by a lower-case letter keeps its last letter
// with the next part: "HTTPServer" gives "HTTP", "Server".
func splitIdentifier(s string) []string {
	var parts []string
	for _, seg := range strings.Split(s, "_") {
		if seg == "" {
			continue
		}
		runes := []rune(seg)
		start := 0
		for i := 1; i < len(runes); i++ {
			prev, cur := runes[i-1], runes[i]
			boundary := unicode.IsLower(prev) && unicode.IsUpper(cur)
			if !boundary && unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				boundary = true
			}
			if boundary {
				parts = append(parts, string(runes[start:i]))
				start = i
			}
		}
		parts = append(parts, string(runes[start:]))
	}
	return parts
}
