package main

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadTableXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	data := [][]interface{}{
		{"subject_id", "age", "gender"},
		{"1", "30", "Male"},
	}
	for i, row := range data {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save xlsx: %v", err)
	}
	f.Close()

	rows, err := readTable(path)
	if err != nil {
		t.Fatalf("readTable failed: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "1" || rows[1][2] != "Male" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestHeaderIndexNormalizes(t *testing.T) {
	idx := headerIndex([]string{" Subject_ID ", "AGE", "gender"})
	if idx["subject_id"] != 0 || idx["age"] != 1 || idx["gender"] != 2 {
		t.Fatalf("unexpected index: %v", idx)
	}
}

func TestCellOutOfRange(t *testing.T) {
	row := []string{"a"}
	if got := cell(row, 5); got != "" {
		t.Fatalf("expected empty for out-of-range column, got %q", got)
	}
	if got := cell(row, -1); got != "" {
		t.Fatalf("expected empty for negative column, got %q", got)
	}
}
