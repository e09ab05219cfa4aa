package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func sinkFixture() []ResponseRecord {
	extras := []Attribute{{Name: "occupation", Value: "Engineer"}}
	return []ResponseRecord{
		{
			SubjectID: "10", Gender: "Male", Age: 40, Extra: extras,
			OrderIndex: 1, QuestionID: "PC_1", Dimension: "Perceived Control",
			Stem: "Stem A", Coding: "1-5", RawResponse: "4 Sure.",
			Extracted: intPtr(4), FinalScore: intPtr(4), Reason: "Sure.", Status: StatusSuccess,
			Scales: map[string]ScaleScore{"Perceived Control": {Total: intPtr(4), Mean: floatPtr(4)}},
		},
		{
			SubjectID: "2", Gender: "Female", Age: 25, Extra: extras,
			OrderIndex: 2, QuestionID: "PC_2", Dimension: "Perceived Control",
			Stem: "Stem C", Coding: "1-5", Status: StatusFailed, Reason: "service call failed",
		},
		{
			SubjectID: "2", Gender: "Female", Age: 25, Extra: extras,
			OrderIndex: 1, QuestionID: "PC_1", Dimension: "Perceived Control",
			Stem: "Stem B", Coding: "1-5", RawResponse: "3 Maybe.",
			Extracted: intPtr(3), FinalScore: intPtr(3), Reason: "Maybe.", Status: StatusSuccess,
			Scales: map[string]ScaleScore{"Perceived Control": {Total: intPtr(3), Mean: floatPtr(3)}},
		},
	}
}

func floatPtr(f float64) *float64 { return &f }

func readResultCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "\uFEFF") {
		t.Fatal("expected UTF-8 BOM prefix")
	}
	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, "\uFEFF"))).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	return rows
}

func TestSaveResultsEmptyIsNoOp(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveResults(dir, "csv", nil, nil, false)
	if err != nil {
		t.Fatalf("SaveResults failed: %v", err)
	}
	if path != "" {
		t.Fatalf("expected no path for empty save, got %q", path)
	}
	if _, err := os.Stat(filepath.Join(dir, "Simulation_Results.csv")); !os.IsNotExist(err) {
		t.Fatal("expected no result file")
	}
}

func TestSaveResultsCSVOrdering(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveResults(dir, "csv", sinkFixture(), nil, false)
	if err != nil {
		t.Fatalf("SaveResults failed: %v", err)
	}
	if filepath.Base(path) != "Simulation_Results.csv" {
		t.Fatalf("unexpected file name: %s", path)
	}

	rows := readResultCSV(t, path)
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}

	header := rows[0]
	wantPrefix := []string{"subject_id", "gender", "age", "occupation", "order_index"}
	for i, col := range wantPrefix {
		if header[i] != col {
			t.Fatalf("header[%d] = %q, want %q", i, header[i], col)
		}
	}
	last := header[len(header)-2:]
	if last[0] != "Perceived Control_total" || last[1] != "Perceived Control_mean" {
		t.Fatalf("expected dimension columns last, got %v", last)
	}

	// Numeric subject order ("2" before "10"), then presentation index.
	if rows[1][0] != "2" || rows[2][0] != "2" || rows[3][0] != "10" {
		t.Fatalf("unexpected subject order: %v %v %v", rows[1][0], rows[2][0], rows[3][0])
	}
	if rows[1][4] != "1" || rows[2][4] != "2" {
		t.Fatalf("unexpected order_index values: %v %v", rows[1][4], rows[2][4])
	}

	// The failed row carries empty score cells.
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[col] = i
	}
	failed := rows[2]
	if failed[idx["final_score"]] != "" || failed[idx["status"]] != StatusFailed {
		t.Fatalf("unexpected failed row: %v", failed)
	}
	if rows[3][idx["Perceived Control_mean"]] != "4.00" {
		t.Fatalf("unexpected mean cell: %q", rows[3][idx["Perceived Control_mean"]])
	}
}

func TestSaveResultsInterruptedNaming(t *testing.T) {
	dir := t.TempDir()
	failures := []FailedRecord{{SubjectID: "2", QuestionID: "PC_2", Reason: "boom"}}
	path, err := SaveResults(dir, "csv", sinkFixture(), failures, true)
	if err != nil {
		t.Fatalf("SaveResults failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "Interrupted_Results_") {
		t.Fatalf("unexpected interrupted file name: %s", path)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	foundFailures := false
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "Interrupted_Failed_") {
			foundFailures = true
		}
	}
	if !foundFailures {
		t.Fatal("expected interrupted failure table")
	}
}

func TestSaveResultsXLSX(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveResults(dir, "xlsx", sinkFixture(), nil, false)
	if err != nil {
		t.Fatalf("SaveResults failed: %v", err)
	}
	if filepath.Base(path) != "Simulation_Results.xlsx" {
		t.Fatalf("unexpected file name: %s", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("read xlsx rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "subject_id" {
		t.Fatalf("unexpected xlsx header: %v", rows[0])
	}
}

func TestWriteFatalReport(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteFatalReport(dir, "service error (authentication_error/401): InvalidApiKey", sinkFixture())
	if err != nil {
		t.Fatalf("WriteFatalReport failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"Reason: InvalidApiKey",
		"Subjects processed: 2",
		"Rows processed: 3",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("report missing %q:\n%s", want, text)
		}
	}
}
