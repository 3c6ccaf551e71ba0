package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hms-api/internal/models"
)

const feedbackColumns = `id, student_id, student_name, message, images, status, date, completed_date, created_at, updated_at`

// FeedbackRepository provides database access for feedback entries.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository creates a new instance of FeedbackRepository.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create inserts a feedback entry.
func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = now
	}
	fb.UpdatedAt = now
	if fb.Images == nil {
		fb.Images = []string{}
	}

	const query = `INSERT INTO feedback (` + feedbackColumns + `) VALUES (:id, :student_id, :student_name, :message, :images, :status, :date, :completed_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fb); err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// FindByID returns a feedback entry by identifier.
func (r *FeedbackRepository) FindByID(ctx context.Context, id string) (*models.Feedback, error) {
	const query = `SELECT ` + feedbackColumns + ` FROM feedback WHERE id = $1 LIMIT 1`
	var fb models.Feedback
	if err := r.db.GetContext(ctx, &fb, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find feedback by id: %w", err)
	}
	return &fb, nil
}

// List returns every entry, most recent submission date first.
func (r *FeedbackRepository) List(ctx context.Context) ([]models.Feedback, error) {
	const query = `SELECT ` + feedbackColumns + ` FROM feedback ORDER BY date DESC, created_at DESC`
	items := make([]models.Feedback, 0)
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return items, nil
}

// UpdateStatus sets the status and completion date and returns the updated row.
func (r *FeedbackRepository) UpdateStatus(ctx context.Context, id string, status models.FeedbackStatus, completedDate *time.Time) (*models.Feedback, error) {
	const query = `UPDATE feedback SET status = $2, completed_date = $3, updated_at = $4 WHERE id = $1 RETURNING ` + feedbackColumns
	var fb models.Feedback
	if err := r.db.GetContext(ctx, &fb, query, id, status, completedDate, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update feedback status: %w", err)
	}
	return &fb, nil
}

// Delete removes the entry and returns it, or sql.ErrNoRows when it was absent.
func (r *FeedbackRepository) Delete(ctx context.Context, id string) (*models.Feedback, error) {
	const query = `DELETE FROM feedback WHERE id = $1 RETURNING ` + feedbackColumns
	var fb models.Feedback
	if err := r.db.GetContext(ctx, &fb, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("delete feedback: %w", err)
	}
	return &fb, nil
}
