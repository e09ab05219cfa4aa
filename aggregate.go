package main

import "math"

// CalculateScaleScores folds one subject's records into per-dimension
// totals and means. Partial-sum policy: null final scores are skipped,
// and a dimension with no valid score at all reports null total and
// mean. Means are rounded to two decimals.
func CalculateScaleScores(records []ResponseRecord) map[string]ScaleScore {
	byDimension := make(map[string][]int)
	for _, rec := range records {
		if _, ok := byDimension[rec.Dimension]; !ok {
			byDimension[rec.Dimension] = nil
		}
		if rec.FinalScore != nil {
			byDimension[rec.Dimension] = append(byDimension[rec.Dimension], *rec.FinalScore)
		}
	}

	scales := make(map[string]ScaleScore, len(byDimension))
	for dim, scores := range byDimension {
		if len(scores) == 0 {
			scales[dim] = ScaleScore{}
			continue
		}
		total := 0
		for _, s := range scores {
			total += s
		}
		mean := math.Round(float64(total)/float64(len(scores))*100) / 100
		t := total
		scales[dim] = ScaleScore{Total: &t, Mean: &mean}
	}
	return scales
}

// MergeScaleScores attaches the subject's dimension scores to every one
// of its records, so the flat export carries them on each row.
func MergeScaleScores(records []ResponseRecord, scales map[string]ScaleScore) {
	for i := range records {
		records[i].Scales = scales
	}
}
