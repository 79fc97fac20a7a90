package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveTerms_QuestionWithAcronym(t *testing.T) {
	terms := DeriveTerms("What is MMBM?")

	assert.Equal(t, "mmbm", terms.Core)
	assert.Contains(t, terms.All, "mmbm")
	assert.Contains(t, terms.All, "what is mmbm?")
}

func TestDeriveTerms_StripsStopWords(t *testing.T) {
	terms := DeriveTerms("How does order flow work")

	assert.Equal(t, "order flow work", terms.Core)
	assert.Contains(t, terms.All, "order")
	assert.Contains(t, terms.All, "flow")
	assert.NotContains(t, terms.All, "how")
	assert.NotContains(t, terms.All, "does")
}

func TestDeriveTerms_BuildsAdjacentPairs(t *testing.T) {
	terms := DeriveTerms("bullish order flow")

	assert.Contains(t, terms.All, "bullish order")
	assert.Contains(t, terms.All, "order flow")
	assert.NotContains(t, terms.All, "bullish flow")
}

func TestDeriveTerms_StopWordOnlyQueryFallsBack(t *testing.T) {
	// A question that is nothing but stop words must still produce terms.
	terms := DeriveTerms("what is")

	assert.NotEmpty(t, terms.All)
	assert.NotEmpty(t, terms.Core)
}

func TestDeriveTerms_EmptyQuery(t *testing.T) {
	terms := DeriveTerms("   ")

	assert.Empty(t, terms.All)
	assert.Empty(t, terms.Core)
}

func TestDeriveTerms_Deduplicates(t *testing.T) {
	terms := DeriveTerms("mmbm")

	count := 0
	for _, term := range terms.All {
		if term == "mmbm" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestDeriveTerms_RegexMetacharactersSurvive(t *testing.T) {
	// Escaping happens in the store layer; derivation must simply not
	// choke on metacharacters.
	terms := DeriveTerms("what is (MMBM)+?")

	assert.Contains(t, terms.All, "mmbm")
}
