package challenge

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
)

var questionLine = regexp.MustCompile(`^\s*\d+\.\s*(.+)$`)

// ParseQuestions keeps lines shaped like "<int>. <text>" and drops the rest.
// At most n questions are returned.
func ParseQuestions(raw string, n int) []string {
	questions := make([]string, 0, n)
	for _, line := range strings.Split(raw, "\n") {
		if len(questions) >= n {
			break
		}
		m := questionLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		q := strings.TrimSpace(strings.Trim(strings.TrimSpace(m[1]), "*_"))
		if q == "" {
			continue
		}
		questions = append(questions, q)
	}
	return questions
}

type field int

const (
	fieldStatus field = iota
	fieldScore
	fieldJustification
	fieldSnippet
)

// A label ends with a colon and either starts a line, optionally behind list
// numbering or markdown emphasis, or follows whitespace or a separator such
// as "|" inside a line. The separator belongs to the label match so it never
// trails the previous value. The snippet label may carry a parenthesized
// suffix such as "(if applicable)".
func labelPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)(?:^[ \t>#*_\-]*(?:\d+\.)?[ \t*_]*|[ \t|;,]+[*_]*)` + label + `[ \t*_]*:[ \t*_]*`)
}

var labels = map[field]*regexp.Regexp{
	fieldStatus:        labelPattern(`evaluation[ \t]+status`),
	fieldScore:         labelPattern(`score`),
	fieldJustification: labelPattern(`justification`),
	fieldSnippet:       labelPattern(`desired[ \t]+answer[ \t]+snippet(?:[ \t]*\([^)\n]*\))?`),
}

var scorePattern = regexp.MustCompile(`-?\d+`)

type labelMatch struct {
	field field
	start int
	end   int
}

// ParseEvaluation reads the four labeled sections of a rubric response. Each
// value runs from its label to the next known label or the end of the text.
// Missing or malformed fields get defaults and never cause an error.
func ParseEvaluation(raw string, threshold int) *model.Evaluation {
	var matches []labelMatch
	for f, re := range labels {
		for _, loc := range re.FindAllStringIndex(raw, -1) {
			matches = append(matches, labelMatch{field: f, start: loc[0], end: loc[1]})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].start < matches[j].start
	})

	values := make(map[field]string)
	for i, m := range matches {
		if _, seen := values[m.field]; seen {
			continue
		}
		end := len(raw)
		if i+1 < len(matches) {
			end = matches[i+1].start
		}
		values[m.field] = strings.TrimSpace(strings.Trim(strings.TrimSpace(raw[m.end:end]), "*_"))
	}

	eval := &model.Evaluation{
		Status:         types.EvaluationStatusUnknown,
		Score:          0,
		Justification:  model.JustificationUnparsed,
		DesiredSnippet: model.SnippetNotAvailable,
	}

	if v, ok := values[fieldStatus]; ok {
		eval.Status = types.ParseEvaluationStatus(firstLine(v))
	}
	if v, ok := values[fieldScore]; ok {
		eval.Score = parseScore(v)
	}
	if v := values[fieldJustification]; v != "" {
		eval.Justification = v
	}
	if v := values[fieldSnippet]; v != "" && !strings.EqualFold(strings.TrimRight(v, "."), "n/a") {
		eval.DesiredSnippet = v
	}

	// a Correct label alone is not trusted; the score decides
	eval.IsCorrect = eval.Status == types.EvaluationStatusCorrect && eval.Score >= threshold
	return eval
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func parseScore(s string) int {
	m := scorePattern.FindString(firstLine(s))
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return max(0, min(n, model.MaxScore))
}
