package summary

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var (
	sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)
	tokenPattern    = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a an the and or but if then else for to of in on at by with as is are
		was were be been being it its this that these those from up down over under again further than so
		such into about between through during before after above below out off own same too very can will
		just should now has have had not no do does did`) {
		stopwords[w] = struct{}{}
	}
}

// Extract builds an extractive summary of at most maxWords words. Sentences
// are ranked by the normalized frequency of their content words and emitted
// in document order.
func Extract(text string, maxWords int) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" || maxWords <= 0 {
		return ""
	}

	sentences := sentencePattern.FindAllString(text, -1)
	if len(sentences) == 0 {
		return truncateWords(text, maxWords)
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}

	freq := map[string]float64{}
	var top float64
	for _, sent := range sentences {
		for _, tok := range tokens(sent) {
			if _, ok := stopwords[tok]; ok {
				continue
			}
			freq[tok]++
			top = max(top, freq[tok])
		}
	}

	type ranked struct {
		idx   int
		score float64
	}
	scores := make([]ranked, len(sentences))
	for i, sent := range sentences {
		toks := tokens(sent)
		var score float64
		for _, tok := range toks {
			score += freq[tok]
		}
		if top > 0 && len(toks) > 0 {
			score = score / top / math.Sqrt(float64(len(toks)))
		}
		scores[i] = ranked{idx: i, score: score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	selected := make([]int, 0, len(scores))
	words := 0
	for _, r := range scores {
		n := len(strings.Fields(sentences[r.idx]))
		if words+n > maxWords {
			continue
		}
		selected = append(selected, r.idx)
		words += n
	}
	if len(selected) == 0 {
		return truncateWords(sentences[scores[0].idx], maxWords)
	}
	sort.Ints(selected)

	out := make([]string, len(selected))
	for i, idx := range selected {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " ")
}

func tokens(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func truncateWords(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:maxWords], " ")
}
