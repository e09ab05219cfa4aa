package main

import (
	"regexp"
	"strconv"
	"strings"
)

var digitRunRe = regexp.MustCompile(`\d+`)

// InterpretResponse extracts a score from a raw service reply. Digit runs
// are scanned first; replies phrased in words fall back to the keyword
// dictionaries. Reverse coding turns the extracted score into the final
// one. Nil scores mean the reply could not be scored.
func InterpretResponse(raw string, question Question) (extracted, final *int, reason string) {
	for _, run := range digitRunRe.FindAllString(raw, -1) {
		n, err := strconv.Atoi(run)
		if err != nil {
			continue
		}
		if question.Range.Contains(n) {
			extracted = &n
			break
		}
	}
	if extracted == nil {
		extracted = mapTextToScore(raw, question)
	}
	if extracted != nil {
		f := *extracted
		if question.ReverseCoded {
			f = question.Range.Reverse(f)
		}
		final = &f
	}

	reason = raw
	if extracted != nil {
		// Strip one leading occurrence of the score plus trailing
		// punctuation so the rationale reads clean.
		leading := regexp.MustCompile(`^\s*` + strconv.Itoa(*extracted) + `[\s.,:\-]*`)
		reason = strings.TrimSpace(leading.ReplaceAllString(raw, ""))
	}
	return extracted, final, reason
}

// keywordScale maps ordered answer phrasings to ordinal scores for one
// coding template. Earlier entries win.
type keywordScale struct {
	trigger string // substring of the coding description selecting this scale
	levels  []keywordLevel
}

type keywordLevel struct {
	score int
	words []string
}

var keywordScales = []keywordScale{
	{
		trigger: "Never true",
		levels: []keywordLevel{
			{1, []string{"never true", "never", "not at all"}},
			{2, []string{"rarely", "seldom"}},
			{3, []string{"sometimes", "occasionally"}},
			{4, []string{"often", "frequently"}},
			{5, []string{"very often", "always", "constantly"}},
		},
	},
	{
		trigger: "All the time",
		levels: []keywordLevel{
			{1, []string{"all the time", "always"}},
			{2, []string{"most of the time", "usually"}},
			{3, []string{"sometimes", "occasionally"}},
			{4, []string{"rarely", "seldom"}},
			{5, []string{"never", "not at all"}},
		},
	},
	{
		trigger: "Strongly agree",
		levels: []keywordLevel{
			{1, []string{"strongly agree", "fully agree", "completely agree"}},
			{2, []string{"somewhat agree", "partially agree"}},
			{3, []string{"a little agree", "slightly agree"}},
			{4, []string{"don't know", "unsure", "no idea"}},
			{5, []string{"a little disagree", "slightly disagree"}},
			{6, []string{"somewhat disagree", "partially disagree"}},
			{7, []string{"strongly disagree", "completely disagree"}},
		},
	},
	{
		trigger: "Excellent",
		levels: []keywordLevel{
			{1, []string{"excellent", "definitely"}},
			{2, []string{"very good", "highly likely"}},
			{3, []string{"good", "likely"}},
			{4, []string{"fair", "so-so", "uncertain"}},
			{5, []string{"poor", "unlikely", "definitely not"}},
		},
	},
}

// mapTextToScore handles replies that answer in words instead of digits.
// The scale is selected by inspecting the question's coding description.
func mapTextToScore(raw string, question Question) *int {
	text := strings.ToLower(raw)
	for _, scale := range keywordScales {
		if !strings.Contains(question.Coding, scale.trigger) {
			continue
		}
		for _, level := range scale.levels {
			for _, word := range level.words {
				if strings.Contains(text, word) {
					score := level.score
					return &score
				}
			}
		}
		return nil
	}
	return nil
}
