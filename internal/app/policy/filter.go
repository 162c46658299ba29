/*
Package policy decides whether a chat message may be broadcast.

The Filter matches whole words against a fixed denylist, ignoring case, Unicode
compatibility forms and the most common character substitutions. It holds no per-call
state, so one Filter is shared by every connection.
*/
package policy

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// defaultTerms is the built-in denylist.
var defaultTerms = []string{
	"arse",
	"arsehole",
	"asshole",
	"bastard",
	"bitch",
	"bollocks",
	"bullshit",
	"cunt",
	"dick",
	"dickhead",
	"fuck",
	"fucked",
	"fucker",
	"fucking",
	"motherfucker",
	"prick",
	"shit",
	"shitty",
	"slut",
	"twat",
	"wanker",
	"whore",
}

// substitutions undoes common look-alike spellings before a second matching pass.
var substitutions = strings.NewReplacer(
	"@", "a",
	"$", "s",
	"0", "o",
	"1", "i",
	"3", "e",
	"4", "a",
	"5", "s",
	"7", "t",
)

// Filter classifies text as allowed or blocked.
type Filter struct {
	// single holds one-word terms.
	single map[string]struct{}

	// phrases holds multi-word terms as word sequences.
	phrases [][]string
}

// NewFilter builds a Filter from the built-in denylist plus extra terms.
// Extra terms may contain several words; they then match only as a contiguous phrase.
func NewFilter(extra ...string) *Filter {
	f := &Filter{single: make(map[string]struct{})}

	for _, term := range slices.Concat(defaultTerms, extra) {
		words := tokenize(term)
		switch len(words) {
		case 0:
		case 1:
			f.single[words[0]] = struct{}{}
		default:
			f.phrases = append(f.phrases, words)
		}
	}

	return f
}

// IsAllowed reports whether text may be broadcast.
// Blank text is allowed; rejecting empty messages is not this filter's concern.
func (f *Filter) IsAllowed(text string) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}

	folded := fold(text)
	if f.matches(tokenizeFolded(folded)) {
		return false
	}

	return !f.matches(tokenizeFolded(substitutions.Replace(folded)))
}

func (f *Filter) matches(words []string) bool {
	for _, w := range words {
		if _, ok := f.single[w]; ok {
			return true
		}
	}

	for _, phrase := range f.phrases {
		for i := 0; i+len(phrase) <= len(words); i++ {
			if slices.Equal(words[i:i+len(phrase)], phrase) {
				return true
			}
		}
	}

	return false
}

func fold(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}

func tokenize(s string) []string {
	return tokenizeFolded(fold(s))
}

// tokenizeFolded splits on every rune that cannot be part of a word.
// Look-alike symbols are kept so the substitution pass can still see them.
func tokenizeFolded(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '@' && r != '$'
	})
}
