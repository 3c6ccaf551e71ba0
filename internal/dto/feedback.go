package dto

import (
	"time"

	"github.com/noah-isme/hms-api/internal/models"
)

// CreateFeedbackRequest contains the form fields submitted alongside images.
type CreateFeedbackRequest struct {
	StudentID   string `form:"studentId" json:"studentId" validate:"required"`
	StudentName string `form:"studentName" json:"studentName" validate:"required"`
	Message     string `form:"message" json:"message" validate:"required"`
}

// UpdateFeedbackStatusRequest changes the moderation state.
type UpdateFeedbackStatusRequest struct {
	Status models.FeedbackStatus `json:"status" validate:"required"`
}

// ExportFormat selects the feedback export encoding.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// DateLayout is the calendar date encoding used for feedback dates.
const DateLayout = "2006-01-02"

// FeedbackResponse is the public view of a feedback entry.
type FeedbackResponse struct {
	ID            string                `json:"id"`
	StudentID     string                `json:"studentId"`
	StudentName   string                `json:"studentName"`
	Message       string                `json:"message"`
	Images        []string              `json:"images"`
	Status        models.FeedbackStatus `json:"status"`
	Date          string                `json:"date"`
	CompletedDate *string               `json:"completedDate"`
	CreatedAt     string                `json:"createdAt"`
	UpdatedAt     string                `json:"updatedAt"`
}

// NewFeedbackResponse maps a stored entry to its public view.
func NewFeedbackResponse(fb *models.Feedback) FeedbackResponse {
	out := FeedbackResponse{
		ID:          fb.ID,
		StudentID:   fb.StudentID,
		StudentName: fb.StudentName,
		Message:     fb.Message,
		Images:      []string(fb.Images),
		Status:      fb.Status,
		Date:        fb.Date.Format(DateLayout),
		CreatedAt:   fb.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   fb.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if out.Images == nil {
		out.Images = []string{}
	}
	if fb.CompletedDate != nil {
		completed := fb.CompletedDate.Format(DateLayout)
		out.CompletedDate = &completed
	}
	return out
}

// NewFeedbackResponses maps a list of entries.
func NewFeedbackResponses(items []models.Feedback) []FeedbackResponse {
	out := make([]FeedbackResponse, 0, len(items))
	for i := range items {
		out = append(out, NewFeedbackResponse(&items[i]))
	}
	return out
}
