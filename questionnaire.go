package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Required questionnaire columns for tabular input.
var questionnaireColumns = []string{"question_id", "dimension", "stem", "coding"}

// ParseError reports every violating row of a tabular file at once rather
// than stopping at the first.
type ParseError struct {
	File     string
	Problems []string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.File, strings.Join(e.Problems, "; "))
}

// ParseQuestionnaireFile dispatches on the declared file kind: CSV/xlsx go
// through the tabular parser, everything else is treated as a free-text
// questionnaire document. The LLM client is only consulted by the
// document parser's last-resort stage.
func ParseQuestionnaireFile(ctx context.Context, path string, llm LLMClient, parseTokens int) ([]Question, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx", ".xls":
		return parseTabularQuestionnaire(path)
	default:
		return parseDocumentFile(ctx, path, llm, parseTokens)
	}
}

func parseTabularQuestionnaire(path string) ([]Question, error) {
	rows, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &ParseError{File: path, Problems: []string{"file is empty"}}
	}

	idx := headerIndex(rows[0])
	var missing []string
	for _, col := range questionnaireColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &ParseError{File: path, Problems: []string{
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")),
		}}
	}

	// First pass collects every incomplete row so the user sees all of
	// them in one error.
	var problems []string
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after the header
		var blank []string
		for _, col := range questionnaireColumns {
			if cell(row, idx[col]) == "" {
				blank = append(blank, col)
			}
		}
		if len(blank) > 0 {
			problems = append(problems, fmt.Sprintf("row %d: missing %s", rowNum, strings.Join(blank, ", ")))
		}
	}
	if len(problems) > 0 {
		return nil, &ParseError{File: path, Problems: problems}
	}

	questions := make([]Question, 0, len(rows)-1)
	for _, row := range rows[1:] {
		stem := cell(row, idx["stem"])
		stem, reversed := stripReverseMarker(stem)
		coding := cell(row, idx["coding"])

		questions = append(questions, Question{
			ID:           cell(row, idx["question_id"]),
			Dimension:    cell(row, idx["dimension"]),
			Stem:         stem,
			Coding:       coding,
			ReverseCoded: reversed,
			Range:        tabularScoreRange(coding),
		})
	}
	return questions, nil
}

// stripReverseMarker detects the inline reverse-coding marker and removes
// it from the stored stem.
func stripReverseMarker(stem string) (string, bool) {
	reversed := false
	for _, marker := range []string{"(R)", "(reversed)"} {
		if strings.Contains(stem, marker) {
			reversed = true
			stem = strings.ReplaceAll(stem, marker, "")
		}
	}
	return strings.TrimSpace(stem), reversed
}

// tabularScoreRange applies the single-signal heuristic: 1-5 unless the
// coding text mentions a 7.
func tabularScoreRange(coding string) ScoreRange {
	if strings.Contains(coding, "7") {
		return ScoreRange{Min: 1, Max: 7}
	}
	return ScoreRange{Min: 1, Max: 5}
}
