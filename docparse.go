package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Dimension names the document parser recognizes even when a header line
// lacks its trailing colon.
var knownDimensions = []string{
	"Emotional Abuse",
	"Emotional Neglect",
	"Supervisory Support",
	"Perceived Control",
	"Personal Mastery",
	"Perceived Constraints",
	"Job Insecurity",
}

// Header repairs for recurring source-document typos.
var dimensionRepairs = map[string]string{
	"Job Insecurit": "Job Insecurity",
}

// Lines carrying these prefixes are labels, never dimension headers or
// question stems.
var labelPrefixes = []string{"Items:", "Question", "Coding:", "Scaling:", "Scoring Key:"}

const defaultCoding = "1-5 Likert scale"

// section groups the lines that follow one dimension header.
type section struct {
	dimension string
	lines     []string
}

// parseDocumentFile runs the extraction cascade over a free-text
// questionnaire document: structural split into dimension sections,
// per-section pattern extraction, a loose line-by-line rescan, and
// finally a service-assisted pass. The first stage producing at least one
// question wins.
func parseDocumentFile(ctx context.Context, path string, llm LLMClient, parseTokens int) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	text := string(data)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	sections := splitSections(lines)
	if len(sections) == 0 {
		return nil, &ParseError{File: path, Problems: []string{"no dimension headers found"}}
	}

	questions := extractSectionQuestions(sections)
	if len(questions) == 0 {
		questions = looseLineScan(lines)
	}
	if len(questions) == 0 && llm != nil {
		questions, err = llmExtractQuestions(ctx, llm, text, parseTokens)
		if err != nil {
			return nil, &ParseError{File: path, Problems: []string{fmt.Sprintf("service-assisted parse failed: %v", err)}}
		}
	}
	if len(questions) == 0 {
		return nil, &ParseError{File: path, Problems: []string{"no questions found"}}
	}
	return questions, nil
}

// isDimensionHeader applies the structural rule: a short line ending in a
// colon (half or full width) that is not a label line, or a short line
// fuzzy-matching a known dimension name.
func isDimensionHeader(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || trimmed == ":" || trimmed == "：" {
		return false
	}
	if isLabelLine(line) {
		return false
	}
	if strings.HasSuffix(trimmed, ":") || strings.HasSuffix(trimmed, "：") {
		return true
	}
	// Known names count even without the colon, but only on short lines
	// so descriptive prose mentioning a dimension does not split a
	// section.
	if len(trimmed) < 50 {
		lower := strings.ToLower(trimmed)
		for _, dim := range knownDimensions {
			if strings.Contains(lower, strings.ToLower(dim)) {
				return true
			}
		}
	}
	return false
}

func isLabelLine(line string) bool {
	for _, prefix := range labelPrefixes {
		if strings.Contains(line, prefix) {
			return true
		}
	}
	return false
}

var trailingScaleRe = regexp.MustCompile(`(?i)\s*scale$`)

// normalizeDimension turns a header line into a dimension label: colon and
// trailing "scale" stripped, spacing collapsed, known typos repaired.
func normalizeDimension(line string) string {
	name := strings.TrimSpace(line)
	name = strings.TrimSuffix(name, ":")
	name = strings.TrimSuffix(name, "：")
	name = trailingScaleRe.ReplaceAllString(name, "")
	name = strings.Join(strings.Fields(name), " ")
	if repaired, ok := dimensionRepairs[name]; ok {
		return repaired
	}
	return name
}

func splitSections(lines []string) []section {
	var sections []section
	var current *section
	for _, line := range lines {
		if isDimensionHeader(line) {
			sections = append(sections, section{dimension: normalizeDimension(line)})
			current = &sections[len(sections)-1]
			continue
		}
		if current != nil {
			current.lines = append(current.lines, line)
		}
	}
	for i, sec := range sections {
		if sec.dimension == "" {
			sections[i].dimension = fmt.Sprintf("Dimension %d", i+1)
		}
	}
	return sections
}

// Ordered coding-standard phrase patterns; the first match in a section
// wins. Patterns without a capture group use the whole match.
var codingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)Coding:\s*(.*?)\.`),
	regexp.MustCompile(`(?is)(?:Scoring Key|Scoring):\s*(.*?)\.`),
	regexp.MustCompile(`(?i)(?:Responses are obtained using a|Scoring Key:)\s*([^\n]+)`),
	regexp.MustCompile(`(?i)(?:1 = |Strongly agree;)[^\n]*`),
	regexp.MustCompile(`(?i)(?:Scoring Key:|Coding:)[^\n]*?1[^\n]*?[57][^\n]*`),
}

func findCoding(sectionText string) string {
	for _, re := range codingPatterns {
		match := re.FindStringSubmatch(sectionText)
		if match == nil {
			continue
		}
		if re.NumSubexp() > 0 && match[1] != "" {
			return strings.TrimSpace(match[1])
		}
		return strings.TrimSpace(match[0])
	}
	return defaultCoding
}

// docScoreRange derives the range from digits in the coding phrase,
// highest scale first.
func docScoreRange(coding string) ScoreRange {
	switch {
	case strings.Contains(coding, "7"):
		return ScoreRange{Min: 1, Max: 7}
	case strings.Contains(coding, "6"):
		return ScoreRange{Min: 1, Max: 6}
	case strings.Contains(coding, "4"):
		return ScoreRange{Min: 1, Max: 4}
	}
	return ScoreRange{Min: 1, Max: 5}
}

// stemPattern pairs a quoted-stem regex with the positions of its stem and
// reverse-marker capture groups.
type stemPattern struct {
	re     *regexp.Regexp
	stem   int
	marker int
}

// Tried in order per section; the first pattern yielding any match
// supplies all of that section's questions.
var stemPatterns = []stemPattern{
	{regexp.MustCompile(`(\d+)\.\s{0,3}"(.*?)"\s{0,3}(\(R\))?`), 2, 3},
	{regexp.MustCompile(`\*(\d+)\s{0,3}[.:]*\s{0,3}"(.*?)"\s{0,3}(\(R\))?`), 2, 3},
	{regexp.MustCompile(`•\s{0,3}"(.*?)"\s{0,3}(\(R\))?`), 1, 2},
	{regexp.MustCompile(`(\d+)\s{0,3}"(.*?)"\s{0,3}(\(R\))?`), 2, 3},
	{regexp.MustCompile(`\*\s{0,3}"(.*?)"\s{0,3}(\(R\))?`), 1, 2},
}

func extractSectionQuestions(sections []section) []Question {
	var questions []Question
	counts := make(map[string]int)

	for _, sec := range sections {
		sectionText := strings.Join(sec.lines, "\n")
		coding := findCoding(sectionText)
		rng := docScoreRange(coding)

		for _, pattern := range stemPatterns {
			matches := pattern.re.FindAllStringSubmatch(sectionText, -1)
			if len(matches) == 0 {
				continue
			}
			for _, match := range matches {
				stem := strings.TrimSpace(match[pattern.stem])
				stem = strings.TrimSpace(strings.TrimLeft(stem, "*"))
				reversed := match[pattern.marker] != ""
				if inline, wasMarked := stripReverseMarker(stem); wasMarked {
					stem = inline
					reversed = true
				}
				if len(stem) <= 3 || isLabelLine(stem) {
					continue
				}
				counts[sec.dimension]++
				questions = append(questions, Question{
					ID:           fmt.Sprintf("%s_%d", dimensionCode(sec.dimension), counts[sec.dimension]),
					Dimension:    sec.dimension,
					Stem:         stem,
					Coding:       coding,
					ReverseCoded: reversed,
					Range:        rng,
				})
			}
			break
		}
	}
	return questions
}

// dimensionCode builds the short id prefix from the dimension's initials.
func dimensionCode(dimension string) string {
	var code strings.Builder
	for _, word := range strings.Fields(dimension) {
		code.WriteString(strings.ToUpper(word[:1]))
		if code.Len() == 3 {
			break
		}
	}
	if code.Len() == 0 {
		return "Q"
	}
	return code.String()
}

var looseQuestionRe = regexp.MustCompile(`^(?:(\d+)\.|•|\*)\s*(.*)$`)

// looseLineScan is the relaxed fallback: one pass over all lines with
// running dimension and coding cursors, quotes optional.
func looseLineScan(lines []string) []Question {
	currentDim := "Unknown"
	currentCoding := defaultCoding
	counts := make(map[string]int)
	var questions []Question

	for _, line := range lines {
		switch {
		case isDimensionHeader(line):
			currentDim = normalizeDimension(line)
		case strings.HasPrefix(line, "Coding:"):
			currentCoding = strings.TrimSpace(strings.TrimPrefix(line, "Coding:"))
		case strings.HasPrefix(line, "Scoring Key:"):
			currentCoding = strings.TrimSpace(strings.TrimPrefix(line, "Scoring Key:"))
		default:
			match := looseQuestionRe.FindStringSubmatch(line)
			if match == nil {
				continue
			}
			stem := strings.TrimSpace(match[2])
			if strings.HasPrefix(stem, `"`) && strings.HasSuffix(stem, `"`) && len(stem) > 1 {
				stem = stem[1 : len(stem)-1]
			}
			stem = strings.TrimSpace(strings.TrimLeft(stem, "*"))
			stem, reversed := stripReverseMarker(stem)
			if stem == "" {
				continue
			}
			counts[currentDim]++
			questions = append(questions, Question{
				ID:           fmt.Sprintf("%s_%d", dimensionCode(currentDim), counts[currentDim]),
				Dimension:    currentDim,
				Stem:         stem,
				Coding:       currentCoding,
				ReverseCoded: reversed,
				Range:        docScoreRange(currentCoding),
			})
		}
	}
	return questions
}

// llmParsedQuestion is the JSON shape the service-assisted stage asks for.
type llmParsedQuestion struct {
	QuestionID   string `json:"question_id"`
	Dimension    string `json:"dimension"`
	Stem         string `json:"stem"`
	Coding       string `json:"coding"`
	ReverseCoded bool   `json:"reverse_coded"`
	ScoreRange   []int  `json:"score_range"`
}

var jsonArrayRe = regexp.MustCompile(`\[\s*\{[\s\S]*\}\s*\]`)

func llmExtractQuestions(ctx context.Context, llm LLMClient, docText string, parseTokens int) ([]Question, error) {
	prompt := fmt.Sprintf(`You are an expert in questionnaire analysis. Parse the following questionnaire text and extract:
1. Dimensions (questionnaire sections)
2. Questions within each dimension
3. Coding standards (scoring scales)
4. Reverse-coded items (marked with (R))

Return the result as a JSON array of objects, where each object has:
- question_id: unique identifier (e.g. "EA_1" for Emotional Abuse question 1)
- dimension: dimension name
- stem: question text (without the (R) marker)
- coding: scoring standard
- reverse_coded: boolean indicating if reverse-coded
- score_range: [min, max] score values

Questionnaire text:
%s

Please return only the JSON array, no other text.`, docText)

	reply, err := llm.Complete(ctx, prompt, parseTokens)
	if err != nil {
		return nil, err
	}

	raw := jsonArrayRe.FindString(stripCodeFences(reply))
	if raw == "" {
		return nil, fmt.Errorf("reply contains no JSON array")
	}

	var parsed []llmParsedQuestion
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse question JSON: %w", err)
	}

	var questions []Question
	for _, q := range parsed {
		if q.QuestionID == "" || q.Dimension == "" || q.Stem == "" || q.Coding == "" {
			continue
		}
		rng := ScoreRange{Min: 1, Max: 5}
		if len(q.ScoreRange) == 2 {
			rng = ScoreRange{Min: q.ScoreRange[0], Max: q.ScoreRange[1]}
		}
		questions = append(questions, Question{
			ID:           q.QuestionID,
			Dimension:    q.Dimension,
			Stem:         q.Stem,
			Coding:       q.Coding,
			ReverseCoded: q.ReverseCoded,
			Range:        rng,
		})
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("no usable questions in reply")
	}
	return questions, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
