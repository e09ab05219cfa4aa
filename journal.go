package main

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// InitJournal opens the crash journal. Every completed record is
// appended as it finishes, so a hard crash loses at most the in-flight
// calls even when the final save never runs.
func InitJournal(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS responses (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		subject_id      TEXT NOT NULL,
		question_id     TEXT NOT NULL,
		dimension       TEXT DEFAULT '',
		order_index     INTEGER NOT NULL,
		raw_response    TEXT DEFAULT '',
		extracted_score INTEGER,
		final_score     INTEGER,
		reason          TEXT DEFAULT '',
		status          TEXT DEFAULT '',
		recorded_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_responses_subject ON responses(subject_id);
	CREATE INDEX IF NOT EXISTS idx_responses_status ON responses(status);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return db, nil
}

func InsertResponse(db *sql.DB, rec ResponseRecord) error {
	_, err := db.Exec(
		`INSERT INTO responses (subject_id, question_id, dimension, order_index, raw_response, extracted_score, final_score, reason, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SubjectID, rec.QuestionID, rec.Dimension, rec.OrderIndex,
		rec.RawResponse, rec.Extracted, rec.FinalScore, rec.Reason, rec.Status,
	)
	return err
}

// InsertResponses writes one subject's records in a single transaction.
func InsertResponses(db *sql.DB, records []ResponseRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO responses (subject_id, question_id, dimension, order_index, raw_response, extracted_score, final_score, reason, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		if _, err := stmt.Exec(
			rec.SubjectID, rec.QuestionID, rec.Dimension, rec.OrderIndex,
			rec.RawResponse, rec.Extracted, rec.FinalScore, rec.Reason, rec.Status,
		); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, tx.Commit()
}

// CountJournalResponses reports how many rows one subject already has,
// which is what a post-crash inspection usually asks first.
func CountJournalResponses(db *sql.DB, subjectID string) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM responses WHERE subject_id = ?`, subjectID).Scan(&count)
	return count, err
}
