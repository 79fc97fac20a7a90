package retrieval

import (
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

// Question words carry no retrieval signal and are stripped before term
// derivation. Filtering never empties the set: a query that is only stop
// words falls back to its raw words.
var stopWords = map[string]struct{}{
	"what": {}, "is": {}, "are": {}, "how": {}, "does": {}, "do": {},
	"where": {}, "when": {}, "why": {}, "which": {}, "who": {},
	"a": {}, "an": {}, "the": {}, "of": {}, "in": {}, "to": {},
}

// Terms holds the derived search terms for one question.
type Terms struct {
	// Core is the stop-word-stripped query, used for embeddings.
	Core string
	// All is the ordered, deduplicated term set: core query, full query,
	// individual words, and adjacent word pairs.
	All []string
}

func DeriveTerms(query string) Terms {
	cleaned := strings.ToLower(strings.TrimSpace(query))
	if cleaned == "" {
		return Terms{}
	}

	words := tokenize(cleaned)

	core := make([]string, 0, len(words))
	for _, w := range words {
		if _, skip := stopWords[w]; !skip {
			core = append(core, w)
		}
	}
	if len(core) == 0 {
		core = words
	}

	coreQuery := strings.Join(core, " ")

	seen := make(map[string]struct{})
	var all []string
	add := func(term string) {
		if term == "" {
			return
		}
		if _, ok := seen[term]; ok {
			return
		}
		seen[term] = struct{}{}
		all = append(all, term)
	}

	add(coreQuery)
	add(cleaned)
	for _, w := range core {
		add(w)
	}
	for i := 0; i+1 < len(core); i++ {
		add(core[i] + " " + core[i+1])
	}

	return Terms{Core: coreQuery, All: all}
}

// tokenize splits a question into lower-cased word tokens, stripping
// punctuation. Falls back to whitespace splitting if tokenization fails.
func tokenize(s string) []string {
	doc, err := prose.NewDocument(s,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return strings.Fields(s)
	}

	var words []string
	for _, tok := range doc.Tokens() {
		w := strings.TrimFunc(strings.ToLower(tok.Text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return strings.Fields(s)
	}
	return words
}
