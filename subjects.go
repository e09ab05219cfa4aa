package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Mandatory subject background columns.
var subjectColumns = []string{"subject_id", "age", "gender"}

const (
	missingSentinel = "missing"
	notApplicable   = "not applicable"
)

// Values that count as a non-answer when rendering prompts.
var nonAnswers = map[string]bool{
	"":            true,
	notApplicable: true,
	"refused":     true,
	"don't know":  true,
}

// ConfirmFunc asks the operator whether to proceed. Injected so the
// loader stays testable and free of any UI dependency.
type ConfirmFunc func(message string) bool

// LoadSubjects reads the subject background table, cleans it, filters by
// age and returns the surviving subjects. High missing-value columns and
// out-of-range ages are surfaced through confirm; declining either yields
// an empty result. A missing-value report is written to outputDir when
// any nulls were recorded.
func LoadSubjects(path, outputDir string, minAge, maxAge int, confirm ConfirmFunc) ([]Subject, error) {
	log.Printf("loading subjects file=%s age_range=%d-%d", path, minAge, maxAge)

	rows, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("subject file %s has no data rows", path)
	}

	header := rows[0]
	idx := headerIndex(header)
	var missingCols []string
	for _, col := range subjectColumns {
		if _, ok := idx[col]; !ok {
			missingCols = append(missingCols, col)
		}
	}
	if len(missingCols) > 0 {
		return nil, fmt.Errorf("subject file missing required columns: %s", strings.Join(missingCols, ", "))
	}

	dataRows := rows[1:]
	total := len(dataRows)

	// The literal missing sentinel becomes a null, same as a blank cell.
	isNull := func(row []string, col int) bool {
		v := cell(row, col)
		return v == "" || strings.EqualFold(v, missingSentinel)
	}

	// Per-column null positions, reported as 1-based file rows.
	nullRows := make(map[string][]int)
	for i, row := range dataRows {
		for j, name := range header {
			name = strings.TrimSpace(name)
			if isNull(row, j) {
				nullRows[name] = append(nullRows[name], i+2)
			}
		}
	}

	var highMissing []string
	for _, name := range header {
		name = strings.TrimSpace(name)
		if pct := float64(len(nullRows[name])) / float64(total) * 100; pct > 20 {
			highMissing = append(highMissing, fmt.Sprintf("%s (%.1f%%)", name, pct))
		}
	}
	if len(highMissing) > 0 {
		msg := fmt.Sprintf("columns exceed 20%% missing values: %s. Continue?", strings.Join(highMissing, ", "))
		if !confirm(msg) {
			log.Printf("subject load declined after missing-value warning")
			return nil, nil
		}
	}

	// Age coercion pass; rows whose age fails to parse keep a null age
	// and fall out with the range filter.
	type cleanRow struct {
		cells  []string
		age    int
		hasAge bool
	}
	cleaned := make([]cleanRow, 0, total)
	var invalidAges []int
	for _, row := range dataRows {
		cr := cleanRow{cells: row}
		if !isNull(row, idx["age"]) {
			if age, err := strconv.Atoi(cell(row, idx["age"])); err == nil {
				cr.age = age
				cr.hasAge = true
				if age < minAge || age > maxAge {
					invalidAges = append(invalidAges, age)
				}
			}
		}
		cleaned = append(cleaned, cr)
	}

	if len(invalidAges) > 0 {
		msg := fmt.Sprintf("%d subjects fall outside the %d-%d age range (ages: %s). Drop them and continue?",
			len(invalidAges), minAge, maxAge, joinInts(invalidAges))
		if !confirm(msg) {
			log.Printf("subject load declined after age-range warning")
			return nil, nil
		}
	}

	var subjects []Subject
	for i, cr := range cleaned {
		if !cr.hasAge || cr.age < minAge || cr.age > maxAge {
			continue
		}
		gender := cell(cr.cells, idx["gender"])
		if gender == "" || strings.EqualFold(gender, missingSentinel) {
			continue
		}

		id := cell(cr.cells, idx["subject_id"])
		if id == "" || strings.EqualFold(id, missingSentinel) {
			id = strconv.Itoa(i + 1)
		}

		subject := Subject{ID: id, Age: cr.age, Gender: gender}
		for j, name := range header {
			name = strings.TrimSpace(name)
			switch strings.ToLower(name) {
			case "subject_id", "age", "gender":
				continue
			}
			value := cell(cr.cells, j)
			if value == "" || strings.EqualFold(value, missingSentinel) {
				value = notApplicable
			}
			subject.Extra = append(subject.Extra, Attribute{Name: name, Value: value})
		}
		subjects = append(subjects, subject)
	}

	if len(nullRows) > 0 {
		reportPath, err := writeMissingValueReport(outputDir, path, header, nullRows, total, len(subjects), minAge, maxAge, invalidAges)
		if err != nil {
			log.Printf("missing-value report error: %v", err)
		} else {
			log.Printf("missing-value report written path=%s", reportPath)
		}
	}

	log.Printf("loaded subjects valid=%d total=%d", len(subjects), total)
	return subjects, nil
}

func writeMissingValueReport(outputDir, sourceFile string, header []string, nullRows map[string][]int, total, valid, minAge, maxAge int, invalidAges []int) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Subject background missing-value report\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "File: %s\n", sourceFile)
	fmt.Fprintf(&b, "Total rows: %d\n", total)
	fmt.Fprintf(&b, "Valid rows: %d\n", valid)
	fmt.Fprintf(&b, "Age range: %d-%d\n", minAge, maxAge)
	b.WriteString("\nMissing values:\n")
	for _, name := range header {
		name = strings.TrimSpace(name)
		if rows := nullRows[name]; len(rows) > 0 {
			fmt.Fprintf(&b, "- column %q rows %s\n", name, joinInts(rows))
		}
	}
	if len(invalidAges) > 0 {
		b.WriteString("\nAge range check:\n")
		fmt.Fprintf(&b, "- dropped %d subjects with out-of-range ages: %s\n", len(invalidAges), joinInts(invalidAges))
	}

	path := filepath.Join(outputDir, "missing_values_report.txt")
	return path, os.WriteFile(path, []byte(b.String()), 0644)
}

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
