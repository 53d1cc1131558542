package dedup

import (
	"strings"
	"unicode"
)

const defaultMaxKeywords = 20

// baseStopwords covers English articles, prepositions, and conjunctions.
// Tokens of rune length <= 2 are filtered before the stopword check, so only
// longer function words need listing. The content is bilingual; common CJK
// function words are one or two runes and fall out of the length filter.
var baseStopwords = []string{
	"the", "and", "for", "nor", "but", "yet", "not",
	"are", "was", "were", "has", "have", "had",
	"will", "can", "could", "would", "should", "may", "might",
	"this", "that", "these", "those",
	"with", "from", "into", "onto", "over", "under", "about",
	"after", "before", "between", "through", "during", "above", "below",
	"than", "then", "when", "where", "which", "while", "who", "whom", "what", "how",
	"its", "his", "her", "their", "them", "they", "you", "your", "our",
	"all", "any", "per", "via", "out", "off",
}

// Extractor reduces text to a bounded, ordered set of topical tokens used
// for fuzzy duplicate comparison.
type Extractor struct {
	maxKeywords int
	stopwords   map[string]struct{}
}

// NewExtractor builds an extractor with the base stopword list plus any
// configured extras (e.g. language-specific function words).
func NewExtractor(extraStopwords []string) *Extractor {
	stop := make(map[string]struct{}, len(baseStopwords)+len(extraStopwords))
	for _, w := range baseStopwords {
		stop[w] = struct{}{}
	}
	for _, w := range extraStopwords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			stop[w] = struct{}{}
		}
	}
	return &Extractor{maxKeywords: defaultMaxKeywords, stopwords: stop}
}

// Extract tokenizes on non-alphanumeric boundaries (Unicode-aware, so CJK
// runs survive intact), drops short tokens and stopwords, lowercases,
// deduplicates preserving first-seen order, and truncates to 20 tokens.
// A result of zero qualifying tokens is an empty slice, never an error;
// callers treat it as "cannot assess similarity".
func (e *Extractor) Extract(text string) []string {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	keywords := make([]string, 0, e.maxKeywords)
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if len([]rune(token)) <= 2 {
			continue
		}
		token = strings.ToLower(token)
		if _, ok := e.stopwords[token]; ok {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
		if len(keywords) == e.maxKeywords {
			break
		}
	}

	return keywords
}
