package analysis

import (
	"strings"
	"unicode"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/textmatch"
)

// minSentenceLen is the minimum sentence length in runes; shorter
// fragments are noise for attribution and are discarded from all
// metrics.
const minSentenceLen = 20

// SplitSentences splits text on sentence terminators (".", "!", "?"
// followed by whitespace or end of string) and on newline runs, strips
// each piece, and keeps those of at least minSentenceLen runes.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		current.Reset()
		if len([]rune(s)) >= minSentenceLen {
			sentences = append(sentences, s)
		}
	}

	runes := []rune(strings.TrimSpace(text))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\n' {
			flush()
			continue
		}
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				flush()
				// Consume the whitespace run following the terminator.
				for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) && runes[i+1] != '\n' {
					i++
				}
			}
		}
	}
	flush()
	return sentences
}

// sentenceSimilarity compares two sentences case-insensitively.
func sentenceSimilarity(a, b string) float64 {
	return textmatch.Ratio(strings.ToLower(a), strings.ToLower(b))
}

// bestMatch returns the index and score of the candidate most similar
// to sentence, or (-1, 0) when candidates is empty.
func bestMatch(sentence string, candidates []string) (int, float64) {
	bestIdx := -1
	bestScore := 0.0
	for i, cand := range candidates {
		if score := sentenceSimilarity(sentence, cand); score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	return bestIdx, bestScore
}
