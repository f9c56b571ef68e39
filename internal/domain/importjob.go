package domain

import "time"

// ImportJob tracks one assembly import. Progress is polled by id; the
// worker updates counts as it goes.
type ImportJob struct {
	ID            string
	FileName      string
	State         ImportJobState
	ArticlesTotal int
	ArticlesDone  int
	Error         string
	CreatedAt     time.Time
	StartedAt     *time.Time
	FinishedAt    *time.Time
}
