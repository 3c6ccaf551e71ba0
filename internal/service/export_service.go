package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hms-api/internal/dto"
	"github.com/noah-isme/hms-api/internal/models"
	appErrors "github.com/noah-isme/hms-api/pkg/errors"
	"github.com/noah-isme/hms-api/pkg/export"
)

type feedbackLister interface {
	List(ctx context.Context) ([]models.Feedback, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered export ready to be streamed.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

var feedbackExportHeaders = []string{"id", "studentId", "studentName", "status", "date", "completedDate", "images", "message"}

// Column widths in mm, summing to the printable width of landscape A4.
var feedbackExportWidths = []float64{38, 22, 34, 22, 22, 26, 14, 99}

// ExportService renders the feedback list as CSV or PDF.
type ExportService struct {
	feedback feedbackLister
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(feedback feedbackLister, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{feedback: feedback, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// ExportFeedback renders every feedback entry in the requested format.
func (s *ExportService) ExportFeedback(ctx context.Context, format dto.ExportFormat) (*ExportResult, error) {
	if format == "" {
		format = dto.ExportFormatCSV
	}
	format = dto.ExportFormat(strings.ToLower(string(format)))
	if format != dto.ExportFormatCSV && format != dto.ExportFormatPDF {
		return nil, invalid("format must be csv or pdf")
	}

	items, err := s.feedback.List(ctx)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	dataset := buildFeedbackDataset(items)

	var (
		body        []byte
		contentType string
	)
	switch format {
	case dto.ExportFormatPDF:
		body, err = s.pdf.Render(dataset, "Feedback Report")
		contentType = "application/pdf"
	default:
		body, err = s.csv.Render(dataset)
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		s.logger.Error("failed to render feedback export", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("feedback-%s.%s", s.now().UTC().Format("20060102-150405"), format)
	return &ExportResult{Filename: filename, ContentType: contentType, Body: body}, nil
}

func buildFeedbackDataset(items []models.Feedback) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for i := range items {
		fb := &items[i]
		completed := ""
		if fb.CompletedDate != nil {
			completed = fb.CompletedDate.Format(dto.DateLayout)
		}
		rows = append(rows, map[string]string{
			"id":            fb.ID,
			"studentId":     fb.StudentID,
			"studentName":   fb.StudentName,
			"status":        string(fb.Status),
			"date":          fb.Date.Format(dto.DateLayout),
			"completedDate": completed,
			"images":        strconv.Itoa(len(fb.Images)),
			"message":       fb.Message,
		})
	}
	return export.Dataset{Headers: feedbackExportHeaders, Rows: rows, Widths: feedbackExportWidths}
}
