package main

import "testing"

func TestLoadKeywordOverrides(t *testing.T) {
	content := `
scales:
  - trigger: "Very satisfied"
    levels:
      - score: 1
        words: ["very satisfied", "love it"]
      - score: 5
        words: ["very dissatisfied", "hate it"]
`
	path := writeTempFile(t, "keywords.yaml", content)

	before := len(keywordScales)
	if err := LoadKeywordOverrides(path); err != nil {
		t.Fatalf("LoadKeywordOverrides failed: %v", err)
	}
	t.Cleanup(func() { keywordScales = keywordScales[:before] })

	if len(keywordScales) != before+1 {
		t.Fatalf("expected one appended scale, got %d -> %d", before, len(keywordScales))
	}

	q := Question{Coding: "1 = Very satisfied; 5 = Very dissatisfied", Range: ScoreRange{1, 5}}
	extracted, _, _ := InterpretResponse("Honestly I love it here.", q)
	if extracted == nil || *extracted != 1 {
		t.Fatalf("expected override keyword score 1, got %v", extracted)
	}
}

func TestLoadKeywordOverridesMissingFile(t *testing.T) {
	if err := LoadKeywordOverrides("/nonexistent/keywords.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
