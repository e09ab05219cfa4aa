package main

import "testing"

func TestCompareSubjectID(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"2", "10", -1},
		{"10", "2", 1},
		{"3", "3", 0},
		{"abc", "abd", -1},
		{"2", "abc", 1}, // mixed falls back to string compare
	}
	for _, tc := range cases {
		got := compareSubjectID(tc.a, tc.b)
		if (got < 0) != (tc.want < 0) || (got > 0) != (tc.want > 0) {
			t.Fatalf("compareSubjectID(%q, %q) = %d, want sign of %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSubjectAttr(t *testing.T) {
	s := Subject{Extra: []Attribute{{Name: "occupation", Value: "Chef"}}}
	if got := s.Attr("occupation"); got != "Chef" {
		t.Fatalf("unexpected attr: %q", got)
	}
	if got := s.Attr("industry"); got != "" {
		t.Fatalf("expected empty for absent attr, got %q", got)
	}
}

func TestScoreRangeContains(t *testing.T) {
	r := ScoreRange{Min: 1, Max: 5}
	if !r.Contains(1) || !r.Contains(5) {
		t.Fatal("bounds must be inclusive")
	}
	if r.Contains(0) || r.Contains(6) {
		t.Fatal("out-of-range values must be rejected")
	}
}
