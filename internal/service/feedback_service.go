package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/hms-api/internal/dto"
	"github.com/noah-isme/hms-api/internal/models"
	appErrors "github.com/noah-isme/hms-api/pkg/errors"
)

type feedbackRepository interface {
	Create(ctx context.Context, fb *models.Feedback) error
	List(ctx context.Context) ([]models.Feedback, error)
	UpdateStatus(ctx context.Context, id string, status models.FeedbackStatus, completedDate *time.Time) (*models.Feedback, error)
	Delete(ctx context.Context, id string) (*models.Feedback, error)
}

type imageUploader interface {
	SaveImages(files []UploadedFile) ([]string, error)
	Discard(paths []string)
}

// FeedbackService manages student feedback and its attachments.
type FeedbackService struct {
	repo    feedbackRepository
	uploads imageUploader
	logger  *zap.Logger
	now     func() time.Time
}

// NewFeedbackService constructs the service.
func NewFeedbackService(repo feedbackRepository, uploads imageUploader, logger *zap.Logger) *FeedbackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{repo: repo, uploads: uploads, logger: logger, now: time.Now}
}

// Submit validates the form, stores the images and persists the entry. Stored
// images are removed again when the entry cannot be saved.
func (s *FeedbackService) Submit(ctx context.Context, req dto.CreateFeedbackRequest, files []UploadedFile) (*models.Feedback, error) {
	req, err := normalizeFeedback(req)
	if err != nil {
		return nil, err
	}
	if len(files) > models.FeedbackMaxImages {
		return nil, invalid(fmt.Sprintf("max %d images allowed", models.FeedbackMaxImages))
	}

	var images []string
	if len(files) > 0 {
		images, err = s.uploads.SaveImages(files)
		if err != nil {
			return nil, err
		}
	}

	fb, err := s.Add(ctx, req, images)
	if err != nil {
		if len(images) > 0 {
			s.uploads.Discard(images)
		}
		return nil, err
	}
	return fb, nil
}

// Add persists a feedback entry referencing already stored images.
func (s *FeedbackService) Add(ctx context.Context, req dto.CreateFeedbackRequest, images []string) (*models.Feedback, error) {
	req, err := normalizeFeedback(req)
	if err != nil {
		return nil, err
	}
	if len(images) > models.FeedbackMaxImages {
		return nil, invalid(fmt.Sprintf("max %d images allowed", models.FeedbackMaxImages))
	}
	if images == nil {
		images = []string{}
	}

	fb := &models.Feedback{
		ID:          uuid.NewString(),
		StudentID:   req.StudentID,
		StudentName: req.StudentName,
		Message:     req.Message,
		Images:      images,
		Status:      models.FeedbackPending,
		Date:        models.Today(s.now()),
	}
	if err := s.repo.Create(ctx, fb); err != nil {
		return nil, appErrors.Upstream(err, "failed to save feedback")
	}
	return fb, nil
}

// List returns all feedback, most recent date first.
func (s *FeedbackService) List(ctx context.Context) ([]models.Feedback, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Upstream(err, "failed to list feedback")
	}
	return items, nil
}

// UpdateStatus moves an entry to status. Completing stamps today's date; any
// other status clears it.
func (s *FeedbackService) UpdateStatus(ctx context.Context, id string, status models.FeedbackStatus) (*models.Feedback, error) {
	if !status.Valid() {
		return nil, invalid("status must be one of pending, in-progress, completed")
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
	}

	var completed *time.Time
	if status == models.FeedbackCompleted {
		today := models.Today(s.now())
		completed = &today
	}

	fb, err := s.repo.UpdateStatus(ctx, id, status, completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
		}
		return nil, appErrors.Upstream(err, "failed to update feedback")
	}
	return fb, nil
}

// Delete removes an entry and its images. Deleting an unknown id succeeds.
func (s *FeedbackService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	fb, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Upstream(err, "failed to delete feedback")
	}
	if len(fb.Images) > 0 {
		s.uploads.Discard(fb.Images)
	}
	s.logger.Info("feedback deleted", zap.String("feedback_id", id), zap.Int("images", len(fb.Images)))
	return nil
}

// normalizeFeedback trims the student identity fields. The message is
// length-checked and stored exactly as submitted.
func normalizeFeedback(req dto.CreateFeedbackRequest) (dto.CreateFeedbackRequest, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.StudentName = strings.TrimSpace(req.StudentName)

	switch {
	case req.StudentID == "":
		return req, invalid("studentId is required")
	case req.StudentName == "":
		return req, invalid("studentName is required")
	case req.Message == "":
		return req, invalid("message is required")
	}
	if n := utf8.RuneCountInString(req.Message); n < models.FeedbackMessageMin || n > models.FeedbackMessageMax {
		return req, invalid(fmt.Sprintf("message must be between %d and %d characters", models.FeedbackMessageMin, models.FeedbackMessageMax))
	}
	return req, nil
}
