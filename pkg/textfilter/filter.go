// Package textfilter keeps storyteller narrative kid-safe. The game is
// written for young players, so every model response is filtered before
// it reaches the transcript.
package textfilter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// replacements maps words to family-friendly alternatives. Keys are
// matched case-insensitively on word boundaries.
var replacements = map[string]string{
	"fuck":    "fudge",
	"shit":    "shoot",
	"damn":    "dang",
	"damned":  "danged",
	"hell":    "heck",
	"ass":     "tail",
	"bitch":   "grump",
	"bastard": "brute",
	"crap":    "crud",
	"piss":    "ticked",
	"goddamn": "gosh-dang",
	"stupid":  "silly",
	"idiot":   "goof",
	"moron":   "goof",
	"kill":    "defeat",
	"killed":  "defeated",
	"die":     "fall",
	"died":    "fell",
	"dead":    "down",
	"blood":   "bruises",
	"bloody":  "bruised",
}

// Filter rewrites text that should not reach young players.
type Filter struct {
	regexes map[string]*regexp.Regexp
}

// New compiles the word-boundary patterns up front.
func New() *Filter {
	f := &Filter{regexes: make(map[string]*regexp.Regexp, len(replacements))}
	for word := range replacements {
		f.regexes[word] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	}
	return f
}

// Clean replaces each matched word with its alternative, preserving the
// case shape of the original.
func (f *Filter) Clean(text string) string {
	result := text
	for word, replacement := range replacements {
		result = f.regexes[word].ReplaceAllStringFunc(result, func(match string) string {
			return preserveCase(match, replacement)
		})
	}
	return result
}

// Flags reports whether the text contains any filtered word.
func (f *Filter) Flags(text string) bool {
	for _, regex := range f.regexes {
		if regex.MatchString(text) {
			return true
		}
	}
	return false
}

// preserveCase applies the case pattern of the original word to the
// replacement.
func preserveCase(original, replacement string) string {
	if len(original) == 0 {
		return replacement
	}

	if strings.ToUpper(original) == original {
		return strings.ToUpper(replacement)
	}
	if strings.ToLower(original) == original {
		return strings.ToLower(replacement)
	}

	titleCaser := cases.Title(language.English)
	if titleCaser.String(strings.ToLower(original)) == original {
		return titleCaser.String(replacement)
	}

	// Mixed case, copy the pattern character by character.
	result := make([]rune, 0, len(replacement))
	originalRunes := []rune(original)
	for i, r := range []rune(replacement) {
		if i < len(originalRunes) && unicode.IsUpper(originalRunes[i]) {
			result = append(result, unicode.ToUpper(r))
		} else {
			result = append(result, unicode.ToLower(r))
		}
	}
	return string(result)
}
