package domain

import (
	_ "embed"
	"strings"
	"unicode"
	"unicode/utf8"
)

//go:embed lexicon.txt
var lexiconData string

// minLexiconWord is the shortest lexicon entry used for segmentation.
// Shorter pieces would be dropped by the length filter anyway.
const minLexiconWord = 3

var defaultTokenizer = NewTokenizer(ParseLexicon(lexiconData))

// DefaultTokenizer returns the tokenizer built from the embedded lexicon.
func DefaultTokenizer() *Tokenizer {
	return defaultTokenizer
}

// Tokenize splits an SLD into candidate keywords with the built-in lexicon.
func Tokenize(sld string) []string {
	return defaultTokenizer.Tokenize(sld)
}

// Tokenizer turns a second-level label into an ordered list of keyword tokens.
// It is safe for concurrent use; the lexicon is never mutated after construction.
type Tokenizer struct {
	lexicon map[string]struct{}
	maxLen  int
}

// NewTokenizer creates a tokenizer. A nil or empty lexicon disables dictionary
// segmentation, so only separators and case boundaries split tokens.
func NewTokenizer(words []string) *Tokenizer {
	t := &Tokenizer{lexicon: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if len(w) < minLexiconWord || !isLowerASCII(w) {
			continue
		}
		t.lexicon[w] = struct{}{}
		if len(w) > t.maxLen {
			t.maxLen = len(w)
		}
	}
	return t
}

// ParseLexicon reads one word per line, ignoring blanks and '#' comments.
func ParseLexicon(data string) []string {
	var words []string
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words
}

// Tokenize returns the keyword tokens of sld in left-to-right order.
// Duplicates are kept; callers decide how to deduplicate.
func (t *Tokenizer) Tokenize(sld string) []string {
	replaced := strings.Map(func(r rune) rune {
		if r == '-' || r == '_' {
			return ' '
		}
		return r
	}, sld)

	var tokens []string
	for _, raw := range splitWords(replaced) {
		for _, tok := range t.segment(strings.ToLower(raw)) {
			if keepToken(tok) {
				tokens = append(tokens, tok)
			}
		}
	}
	return tokens
}

// splitWords splits before every uppercase ASCII letter and consumes runs of
// whitespace and dots. Adjacent capitals each start a new word ("AITools" ->
// "A", "I", "Tools").
func splitWords(s string) []string {
	var (
		words []string
		cur   strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}

	for _, r := range s {
		switch {
		case r == '.' || unicode.IsSpace(r):
			flush()
		case r >= 'A' && r <= 'Z':
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()

	return words
}

// segment splits a lowercase run into lexicon words when the whole run can be
// covered by them. The cover with the fewest words wins; on a tie the longer
// leading word wins. Runs that cannot be fully covered come back unchanged,
// and so do runs whose cover has only minimum-length pieces ("carpet" is not
// "car" + "pet").
func (t *Tokenizer) segment(word string) []string {
	if t.maxLen == 0 || !isLowerASCII(word) {
		return []string{word}
	}
	if _, ok := t.lexicon[word]; ok {
		return []string{word}
	}

	n := len(word)
	const unreachable = -1

	// best[i] is the fewest lexicon words covering word[i:]; next[i] is where
	// the chosen first word of that cover ends.
	best := make([]int, n+1)
	next := make([]int, n+1)
	for i := range best {
		best[i] = unreachable
	}
	best[n] = 0

	for i := n - 1; i >= 0; i-- {
		limit := i + t.maxLen
		if limit > n {
			limit = n
		}
		for j := limit; j >= i+minLexiconWord; j-- {
			if best[j] == unreachable {
				continue
			}
			if _, ok := t.lexicon[word[i:j]]; !ok {
				continue
			}
			if best[i] == unreachable || best[j]+1 < best[i] {
				best[i] = best[j] + 1
				next[i] = j
			}
		}
	}

	if best[0] == unreachable {
		return []string{word}
	}

	parts := make([]string, 0, best[0])
	onlyShort := true
	for i := 0; i < n; i = next[i] {
		parts = append(parts, word[i:next[i]])
		if next[i]-i > minLexiconWord {
			onlyShort = false
		}
	}
	if onlyShort {
		return []string{word}
	}
	return parts
}

// keepToken drops tokens of two characters or fewer and all-digit tokens.
func keepToken(tok string) bool {
	if utf8.RuneCountInString(tok) <= 2 {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return true
		}
	}
	return false
}

func isLowerASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return s != ""
}
