package models

import (
	"time"

	"github.com/lib/pq"
)

// FeedbackStatus is the moderation state of a feedback entry.
type FeedbackStatus string

const (
	FeedbackPending    FeedbackStatus = "pending"
	FeedbackInProgress FeedbackStatus = "in-progress"
	FeedbackCompleted  FeedbackStatus = "completed"
)

// Valid reports whether s is a known feedback status.
func (s FeedbackStatus) Valid() bool {
	switch s {
	case FeedbackPending, FeedbackInProgress, FeedbackCompleted:
		return true
	}
	return false
}

const (
	FeedbackMessageMin = 10
	FeedbackMessageMax = 500
	FeedbackMaxImages  = 5
)

// Feedback is a student submission with optional image attachments.
// Date and CompletedDate are calendar dates (UTC midnight).
type Feedback struct {
	ID            string         `db:"id"`
	StudentID     string         `db:"student_id"`
	StudentName   string         `db:"student_name"`
	Message       string         `db:"message"`
	Images        pq.StringArray `db:"images"`
	Status        FeedbackStatus `db:"status"`
	Date          time.Time      `db:"date"`
	CompletedDate *time.Time     `db:"completed_date"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

// Today returns the current UTC calendar date.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
