package model

import "time"

// ImportRun records the outcome of one committed import batch.
type ImportRun struct {
	ID          string    `json:"id" db:"id"`
	StartedAt   time.Time `json:"started_at" db:"started_at"`
	FinishedAt  time.Time `json:"finished_at" db:"finished_at"`
	Created     int       `json:"created" db:"created"`
	Overwritten int       `json:"overwritten" db:"overwritten"`
	Skipped     int       `json:"skipped" db:"skipped"`
	Failed      int       `json:"failed" db:"failed"`
}

// Total returns the number of files the run processed.
func (r ImportRun) Total() int {
	return r.Created + r.Overwritten + r.Skipped + r.Failed
}
