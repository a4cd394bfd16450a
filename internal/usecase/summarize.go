package usecase

import (
	"regexp"
	"sort"
	"strings"
)

var sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// splitSentences breaks text on sentence-ending punctuation followed
// by whitespace.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	marked := sentenceEnd.ReplaceAllString(text, "$1\x00")
	parts := strings.Split(marked, "\x00")

	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// extractiveSummary keeps the highest-scoring sentences, preserving
// document order. Sentences are scored by the corpus frequency of
// their words, a lightweight stand-in for TF-IDF ranking.
func extractiveSummary(text string, maxSentences int) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return ""
	}
	if len(sentences) <= maxSentences {
		return strings.Join(sentences, " ")
	}

	freq := make(map[string]int)
	tokenized := make([][]string, len(sentences))
	for i, s := range sentences {
		words := tokenizeWords(s)
		tokenized[i] = words
		for _, w := range words {
			freq[w]++
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i, words := range tokenized {
		var sum float64
		for _, w := range words {
			sum += float64(freq[w])
		}
		scores[i] = scored{idx: i, score: sum}
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	top := scores[:maxSentences]
	sort.Slice(top, func(i, j int) bool { return top[i].idx < top[j].idx })

	selected := make([]string, len(top))
	for i, s := range top {
		selected[i] = sentences[s.idx]
	}
	return strings.Join(selected, " ")
}

func tokenizeWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
}

// maxContextChars bounds each shortened passage so an unsummarizable
// wall of text cannot blow up the generation prompt.
const maxContextChars = 300

// shortenContexts compresses retrieved passages before they go into
// the generation prompt. Passages that still exceed the bound after
// summarization, such as text with no sentence punctuation, are cut to
// a raw prefix.
func shortenContexts(contexts []string, sentencesPerContext int) []string {
	short := make([]string, len(contexts))
	for i, c := range contexts {
		s := extractiveSummary(c, sentencesPerContext)
		if s == "" {
			s = c
		}
		if runes := []rune(s); len(runes) > maxContextChars {
			s = string(runes[:maxContextChars])
		}
		short[i] = s
	}
	return short
}
