package main

import "testing"

func intPtr(n int) *int { return &n }

func TestCalculateScaleScoresPartialSum(t *testing.T) {
	records := []ResponseRecord{
		{Dimension: "Perceived Control", FinalScore: nil},
		{Dimension: "Perceived Control", FinalScore: intPtr(4)},
		{Dimension: "Perceived Control", FinalScore: intPtr(2)},
	}

	scales := CalculateScaleScores(records)
	s, ok := scales["Perceived Control"]
	if !ok {
		t.Fatal("missing dimension score")
	}
	if s.Total == nil || *s.Total != 6 {
		t.Fatalf("expected total 6, got %v", s.Total)
	}
	if s.Mean == nil || *s.Mean != 3.0 {
		t.Fatalf("expected mean 3.0, got %v", s.Mean)
	}
}

func TestCalculateScaleScoresMeanRounding(t *testing.T) {
	records := []ResponseRecord{
		{Dimension: "X", FinalScore: intPtr(1)},
		{Dimension: "X", FinalScore: intPtr(1)},
		{Dimension: "X", FinalScore: intPtr(2)},
	}
	scales := CalculateScaleScores(records)
	if s := scales["X"]; s.Mean == nil || *s.Mean != 1.33 {
		t.Fatalf("expected mean 1.33, got %v", s.Mean)
	}
}

func TestCalculateScaleScoresAllNull(t *testing.T) {
	records := []ResponseRecord{
		{Dimension: "Emotional Neglect", FinalScore: nil},
		{Dimension: "Emotional Neglect", FinalScore: nil},
	}
	scales := CalculateScaleScores(records)
	s, ok := scales["Emotional Neglect"]
	if !ok {
		t.Fatal("dimension with only null scores must still appear")
	}
	if s.Total != nil || s.Mean != nil {
		t.Fatalf("expected null total and mean, got %+v", s)
	}
}

func TestMergeScaleScores(t *testing.T) {
	records := []ResponseRecord{
		{Dimension: "X", FinalScore: intPtr(3)},
		{Dimension: "X", FinalScore: intPtr(5)},
	}
	scales := CalculateScaleScores(records)
	MergeScaleScores(records, scales)

	for i, rec := range records {
		s, ok := rec.Scales["X"]
		if !ok || s.Total == nil || *s.Total != 8 {
			t.Fatalf("record %d missing merged scales: %+v", i, rec.Scales)
		}
	}
}
