package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Fixed per-question columns following the subject background block.
var systemColumns = []string{
	"order_index", "question_id", "dimension", "stem", "coding",
	"reverse_coded", "raw_response", "extracted_score", "final_score",
	"reason", "status",
}

// SaveResults writes the result table and, when failures happened, the
// failure table. Interrupted runs get timestamped file names so a later
// complete run never overwrites the partial output. An empty record set
// is a logged no-op. Returns the result table path.
func SaveResults(outputDir, format string, records []ResponseRecord, failures []FailedRecord, interrupted bool) (string, error) {
	if len(records) == 0 && len(failures) == 0 {
		log.Printf("no results to save")
		return "", nil
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}

	base := "Simulation_Results"
	failBase := "Failed_Records"
	if interrupted {
		stamp := time.Now().Format("20060102_150405")
		base = "Interrupted_Results_" + stamp
		failBase = "Interrupted_Failed_" + stamp
	}

	var path string
	if len(records) > 0 {
		sort.SliceStable(records, func(i, j int) bool {
			if c := compareSubjectID(records[i].SubjectID, records[j].SubjectID); c != 0 {
				return c < 0
			}
			return records[i].OrderIndex < records[j].OrderIndex
		})
		var err error
		path, err = writeRows(outputDir, base, format, renderResultRows(records))
		if err != nil {
			return "", err
		}
		log.Printf("results written path=%s rows=%d", path, len(records))
	}

	if len(failures) > 0 {
		rows := [][]string{{"subject_id", "question_id", "reason"}}
		for _, f := range failures {
			rows = append(rows, []string{f.SubjectID, f.QuestionID, f.Reason})
		}
		failPath, err := writeRows(outputDir, failBase, format, rows)
		if err != nil {
			return path, err
		}
		log.Printf("failure table written path=%s rows=%d", failPath, len(failures))
	}
	return path, nil
}

func renderResultRows(records []ResponseRecord) [][]string {
	extras := extraColumnOrder(records)
	dims := dimensionOrder(records)

	header := []string{"subject_id", "gender", "age"}
	header = append(header, extras...)
	header = append(header, systemColumns...)
	for _, d := range dims {
		header = append(header, d+"_total", d+"_mean")
	}

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, header)
	for _, rec := range records {
		row := []string{rec.SubjectID, rec.Gender, strconv.Itoa(rec.Age)}
		for _, name := range extras {
			row = append(row, attrValue(rec.Extra, name))
		}
		row = append(row,
			strconv.Itoa(rec.OrderIndex), rec.QuestionID, rec.Dimension,
			rec.Stem, rec.Coding, strconv.FormatBool(rec.ReverseCoded),
			rec.RawResponse, intCell(rec.Extracted), intCell(rec.FinalScore),
			rec.Reason, rec.Status)
		for _, d := range dims {
			s := rec.Scales[d]
			row = append(row, intCell(s.Total), meanCell(s.Mean))
		}
		rows = append(rows, row)
	}
	return rows
}

// extraColumnOrder unions the background columns across all records in
// first-appearance order.
func extraColumnOrder(records []ResponseRecord) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, rec := range records {
		for _, a := range rec.Extra {
			if !seen[a.Name] {
				seen[a.Name] = true
				cols = append(cols, a.Name)
			}
		}
	}
	return cols
}

func dimensionOrder(records []ResponseRecord) []string {
	seen := make(map[string]bool)
	var dims []string
	for _, rec := range records {
		if !seen[rec.Dimension] {
			seen[rec.Dimension] = true
			dims = append(dims, rec.Dimension)
		}
	}
	return dims
}

func attrValue(attrs []Attribute, name string) string {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func meanCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func writeRows(dir, base, format string, rows [][]string) (string, error) {
	if format == "xlsx" {
		path := filepath.Join(dir, base+".xlsx")
		return path, writeXLSX(path, rows)
	}
	path := filepath.Join(dir, base+".csv")
	return path, writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	// Excel only detects UTF-8 when the BOM is present.
	if _, err := f.WriteString("\uFEFF"); err != nil {
		return err
	}
	return csv.NewWriter(f).WriteAll(rows)
}

func writeXLSX(path string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		if err := f.SetSheetRow(sheet, cellRef, &cells); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

// WriteFatalReport records why a run was cut short by the service.
func WriteFatalReport(outputDir, message string, records []ResponseRecord) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}

	subjects := make(map[string]bool)
	for _, rec := range records {
		subjects[rec.SubjectID] = true
	}

	var b strings.Builder
	b.WriteString("Fatal service error report\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "Reason: %s\n", fatalReason(message))
	fmt.Fprintf(&b, "Message: %s\n", message)
	fmt.Fprintf(&b, "Time: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Subjects processed: %d\n", len(subjects))
	fmt.Fprintf(&b, "Rows processed: %d\n", len(records))

	path := filepath.Join(outputDir, "fatal_error_report.txt")
	return path, os.WriteFile(path, []byte(b.String()), 0644)
}

func fatalReason(message string) string {
	for _, marker := range fatalErrorMarkers {
		if strings.Contains(message, marker) {
			return marker
		}
	}
	return "service error"
}
