package main

import "math/rand"

// Rejection sampling gets a bounded number of draws; after that the
// deterministic repair takes over so generation always terminates.
const shuffleRetryCap = 200

// RandomizeQuestions returns the questions in a random order in which no
// more than maxConsecutive items of the same dimension appear in a row.
// The input slice is not modified.
func RandomizeQuestions(questions []Question, maxConsecutive int, rng *rand.Rand) []Question {
	out := make([]Question, len(questions))
	copy(out, questions)
	if len(out) < 2 || maxConsecutive < 1 {
		return out
	}

	for attempt := 0; attempt < shuffleRetryCap; attempt++ {
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		if maxDimensionRun(out) <= maxConsecutive {
			return out
		}
	}
	return repairOrder(out, maxConsecutive)
}

// maxDimensionRun reports the longest streak of same-dimension questions.
func maxDimensionRun(questions []Question) int {
	longest, run := 0, 0
	prev := ""
	for _, q := range questions {
		if q.Dimension == prev {
			run++
		} else {
			run = 1
			prev = q.Dimension
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// repairOrder walks the order once and breaks every oversized run by
// swapping the offending item with the next later item of a different
// dimension. If only one dimension remains in the tail the constraint is
// unsatisfiable and the order is returned as-is.
func repairOrder(questions []Question, maxConsecutive int) []Question {
	run := 1
	for i := 1; i < len(questions); i++ {
		if questions[i].Dimension != questions[i-1].Dimension {
			run = 1
			continue
		}
		run++
		if run <= maxConsecutive {
			continue
		}
		swapped := false
		for j := i + 1; j < len(questions); j++ {
			if questions[j].Dimension != questions[i].Dimension {
				questions[i], questions[j] = questions[j], questions[i]
				run = 1
				swapped = true
				break
			}
		}
		if !swapped {
			break
		}
	}
	return questions
}
