package main

import (
	"context"
	"strings"
	"testing"
)

const sectionedDoc = `Emotional Abuse Scale:
Coding: 1 = Never true; 5 = Very often true.
1. "People in my family called me names"
2. "People in my family said hurtful things" (R)

Perceived Control:
Scoring Key: 1 = Strongly agree; 7 = Strongly disagree.
1. "I can do just about anything I set my mind to"
`

func TestParseDocumentSections(t *testing.T) {
	path := writeTempFile(t, "questionnaire.txt", sectionedDoc)

	questions, err := ParseQuestionnaireFile(context.Background(), path, nil, 100)
	if err != nil {
		t.Fatalf("ParseQuestionnaireFile failed: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d: %+v", len(questions), questions)
	}

	if questions[0].ID != "EA_1" || questions[0].Dimension != "Emotional Abuse" {
		t.Fatalf("unexpected first question: %+v", questions[0])
	}
	if questions[0].ReverseCoded {
		t.Fatal("first question should not be reverse coded")
	}
	if !questions[1].ReverseCoded {
		t.Fatal("second question should be reverse coded")
	}
	if questions[1].ID != "EA_2" {
		t.Fatalf("unexpected second id: %q", questions[1].ID)
	}

	pc := questions[2]
	if pc.Dimension != "Perceived Control" || pc.ID != "PC_1" {
		t.Fatalf("unexpected third question: %+v", pc)
	}
	if pc.Range != (ScoreRange{Min: 1, Max: 7}) {
		t.Fatalf("expected 1-7 range from scoring key, got %+v", pc.Range)
	}
}

func TestParseDocumentLooseLines(t *testing.T) {
	doc := `Job Insecurit:
Coding: 1 = Strongly agree; 5 = Strongly disagree
1. I am afraid of losing my job (R)
2. I feel uncertain about my future at work
`
	path := writeTempFile(t, "loose.txt", doc)

	questions, err := ParseQuestionnaireFile(context.Background(), path, nil, 100)
	if err != nil {
		t.Fatalf("ParseQuestionnaireFile failed: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d: %+v", len(questions), questions)
	}
	// The known-typo repair kicks in on the header.
	if questions[0].Dimension != "Job Insecurity" {
		t.Fatalf("expected repaired dimension, got %q", questions[0].Dimension)
	}
	if questions[0].ID != "JI_1" || !questions[0].ReverseCoded {
		t.Fatalf("unexpected first question: %+v", questions[0])
	}
	if questions[1].ReverseCoded {
		t.Fatal("second question should not be reverse coded")
	}
}

func TestParseDocumentNoHeaders(t *testing.T) {
	path := writeTempFile(t, "prose.txt", "Just narrative prose\nwith no structure at all\n")

	_, err := ParseQuestionnaireFile(context.Background(), path, nil, 100)
	if err == nil {
		t.Fatal("expected error for document without dimension headers")
	}
	if !strings.Contains(err.Error(), "no dimension headers") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseDocumentLLMFallback(t *testing.T) {
	doc := `Personal Mastery:
The items of this scale are only available in narrative form here.
`
	path := writeTempFile(t, "narrative.txt", doc)

	llm := &fakeLLM{replies: []string{
		"```json\n[{\"question_id\":\"PM_1\",\"dimension\":\"Personal Mastery\",\"stem\":\"I can do just about anything I set my mind to\",\"coding\":\"1 = Strongly agree; 7 = Strongly disagree\",\"reverse_coded\":false,\"score_range\":[1,7]}]\n```",
	}}

	questions, err := ParseQuestionnaireFile(context.Background(), path, llm, 100)
	if err != nil {
		t.Fatalf("ParseQuestionnaireFile failed: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question from service-assisted parse, got %d", len(questions))
	}
	q := questions[0]
	if q.ID != "PM_1" || q.Dimension != "Personal Mastery" || q.Range != (ScoreRange{Min: 1, Max: 7}) {
		t.Fatalf("unexpected question: %+v", q)
	}
	if llm.calls != 1 {
		t.Fatalf("expected exactly one service call, got %d", llm.calls)
	}
}

func TestNormalizeDimension(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Emotional Abuse Scale:", "Emotional Abuse"},
		{"Perceived   Control：", "Perceived Control"},
		{"Job Insecurit:", "Job Insecurity"},
	}
	for _, tc := range cases {
		if got := normalizeDimension(tc.in); got != tc.want {
			t.Fatalf("normalizeDimension(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDocScoreRangePriority(t *testing.T) {
	cases := []struct {
		coding string
		want   ScoreRange
	}{
		{"1 = Strongly agree; 7 = Strongly disagree", ScoreRange{1, 7}},
		{"1 to 6 frequency scale", ScoreRange{1, 6}},
		{"1 = Never; 4 = Always", ScoreRange{1, 4}},
		{"1-5 Likert scale", ScoreRange{1, 5}},
	}
	for _, tc := range cases {
		if got := docScoreRange(tc.coding); got != tc.want {
			t.Fatalf("docScoreRange(%q) = %+v, want %+v", tc.coding, got, tc.want)
		}
	}
}
