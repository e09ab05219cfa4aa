package main

import (
	"strconv"
	"strings"
)

type ScoreRange struct {
	Min int
	Max int
}

func (r ScoreRange) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

// Reverse mirrors a raw score so higher always means the same direction.
func (r ScoreRange) Reverse(score int) int {
	return r.Min + r.Max - score
}

// Question is one questionnaire item in canonical form. OrderIndex is the
// only field set after parsing: it records the presentation position the
// question was given for one subject run.
type Question struct {
	ID           string
	Dimension    string
	Stem         string
	Coding       string
	ReverseCoded bool
	Range        ScoreRange
	OrderIndex   int
}

// Attribute is one extra background column carried through to the output.
// A slice (not a map) keeps the file's column order.
type Attribute struct {
	Name  string
	Value string
}

type Subject struct {
	ID     string
	Age    int
	Gender string
	Extra  []Attribute
}

// Attr returns the named extra attribute, or "" if absent.
func (s Subject) Attr(name string) string {
	for _, a := range s.Extra {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ResponseRecord is one result row per (subject, question). Created by the
// interpreter, dimension scores merged in by the aggregator, then immutable.
type ResponseRecord struct {
	SubjectID    string
	Gender       string
	Age          int
	Extra        []Attribute
	OrderIndex   int
	QuestionID   string
	Dimension    string
	Stem         string
	Coding       string
	ReverseCoded bool
	RawResponse  string
	Extracted    *int
	FinalScore   *int
	Reason       string
	Status       string
	Scales       map[string]ScaleScore
}

type ScaleScore struct {
	Total *int
	Mean  *float64
}

type FailedRecord struct {
	SubjectID  string
	QuestionID string
	Reason     string
}

// compareSubjectID orders ids numerically when both sides parse as
// integers, so "2" sorts before "10".
func compareSubjectID(a, b string) int {
	na, errA := strconv.Atoi(strings.TrimSpace(a))
	nb, errB := strconv.Atoi(strings.TrimSpace(b))
	if errA == nil && errB == nil {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}
