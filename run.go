package main

import (
	"context"
	"database/sql"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// RunSimulation walks the subjects one at a time, fanning each subject's
// questions out to a bounded worker pool. The fatal flag is checked
// before every subject and before every task so a dead credential stops
// new work immediately while in-flight calls drain on their own.
func RunSimulation(ctx context.Context, cfg Config, questions []Question, subjects []Subject, llm LLMClient, state *RunState, journal *sql.DB) ([]ResponseRecord, []FailedRecord) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var all []ResponseRecord
	var failures []FailedRecord
	for i, subject := range subjects {
		if state.Fatal() {
			log.Printf("run stopped before subject=%s: %s", subject.ID, state.Message())
			break
		}
		if ctx.Err() != nil {
			log.Printf("run interrupted before subject=%s", subject.ID)
			break
		}

		order := make([]Question, len(questions))
		copy(order, questions)
		if cfg.RandomOrder {
			order = RandomizeQuestions(questions, cfg.MaxConsecutive, rng)
		}
		for j := range order {
			order[j].OrderIndex = j + 1
		}

		log.Printf("subject start id=%s (%d/%d) questions=%d", subject.ID, i+1, len(subjects), len(order))
		records := runSubject(ctx, cfg, subject, order, llm, state)

		scales := CalculateScaleScores(records)
		MergeScaleScores(records, scales)

		for _, rec := range records {
			if rec.Status == StatusFailed {
				failures = append(failures, FailedRecord{
					SubjectID:  rec.SubjectID,
					QuestionID: rec.QuestionID,
					Reason:     rec.Reason,
				})
			}
		}
		if journal != nil {
			if _, err := InsertResponses(journal, records); err != nil {
				log.Printf("journal insert error subject=%s: %v", subject.ID, err)
			}
		}

		all = append(all, records...)
		log.Printf("subject done id=%s answered=%d", subject.ID, len(records))
	}
	return all, failures
}

// runSubject answers one subject's questions concurrently. Workers skip
// tasks once the fatal flag is up, so those questions simply produce no
// record. Records come back sorted by presentation index regardless of
// completion order.
func runSubject(ctx context.Context, cfg Config, subject Subject, order []Question, llm LLMClient, state *RunState) []ResponseRecord {
	workers := cfg.MaxConcurrent
	if len(order) < workers {
		workers = len(order)
	}

	tasks := make(chan Question)
	results := make(chan ResponseRecord)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for q := range tasks {
				if state.Fatal() || ctx.Err() != nil {
					continue
				}
				results <- answerQuestion(ctx, cfg, subject, q, llm)
			}
		}()
	}

	go func() {
		for _, q := range order {
			if state.Fatal() || ctx.Err() != nil {
				break
			}
			tasks <- q
		}
		close(tasks)
		wg.Wait()
		close(results)
	}()

	var records []ResponseRecord
	for rec := range results {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].OrderIndex < records[j].OrderIndex
	})
	return records
}

func answerQuestion(ctx context.Context, cfg Config, subject Subject, q Question, llm LLMClient) ResponseRecord {
	rec := ResponseRecord{
		SubjectID:    subject.ID,
		Gender:       subject.Gender,
		Age:          subject.Age,
		Extra:        subject.Extra,
		OrderIndex:   q.OrderIndex,
		QuestionID:   q.ID,
		Dimension:    q.Dimension,
		Stem:         q.Stem,
		Coding:       q.Coding,
		ReverseCoded: q.ReverseCoded,
	}

	reply, err := llm.Complete(ctx, BuildPrompt(subject, q), cfg.MaxTokens)
	if err != nil {
		rec.Status = StatusFailed
		rec.Reason = err.Error()
		log.Printf("llm call failed subject=%s question=%s: %v", subject.ID, q.ID, err)
		return rec
	}

	rec.RawResponse = reply
	rec.Extracted, rec.FinalScore, rec.Reason = InterpretResponse(reply, q)
	if rec.FinalScore == nil {
		rec.Status = StatusFailed
		log.Printf("uninterpretable reply subject=%s question=%s", subject.ID, q.ID)
	} else {
		rec.Status = StatusSuccess
	}
	return rec
}
