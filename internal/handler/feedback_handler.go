package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hms-api/internal/dto"
	"github.com/noah-isme/hms-api/internal/models"
	"github.com/noah-isme/hms-api/internal/service"
	appErrors "github.com/noah-isme/hms-api/pkg/errors"
	"github.com/noah-isme/hms-api/pkg/response"
)

type feedbackService interface {
	Submit(ctx context.Context, req dto.CreateFeedbackRequest, files []service.UploadedFile) (*models.Feedback, error)
	List(ctx context.Context) ([]models.Feedback, error)
	UpdateStatus(ctx context.Context, id string, status models.FeedbackStatus) (*models.Feedback, error)
	Delete(ctx context.Context, id string) error
}

type feedbackExporter interface {
	ExportFeedback(ctx context.Context, format dto.ExportFormat) (*service.ExportResult, error)
}

// FeedbackHandler serves the feedback endpoints.
type FeedbackHandler struct {
	service  feedbackService
	exporter feedbackExporter
}

// NewFeedbackHandler constructs the handler.
func NewFeedbackHandler(svc feedbackService, exporter feedbackExporter) *FeedbackHandler {
	return &FeedbackHandler{service: svc, exporter: exporter}
}

// Create godoc
// @Summary Submit feedback
// @Tags Feedback
// @Accept multipart/form-data
// @Produce json
// @Param studentId formData string true "Student ID"
// @Param studentName formData string true "Student name"
// @Param message formData string true "Message (10-500 characters)"
// @Param images formData file false "Up to five images"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /feedback/createFeedback [post]
func (h *FeedbackHandler) Create(c *gin.Context) {
	var req dto.CreateFeedbackRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}

	var files []service.UploadedFile
	if form, err := c.MultipartForm(); err == nil && form != nil {
		headers := form.File["images"]
		files = make([]service.UploadedFile, 0, len(headers))
		for _, fh := range headers {
			src, err := fh.Open()
			if err != nil {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
				return
			}
			defer closeQuietly(src)
			files = append(files, uploadedFile(fh, src))
		}
	}

	fb, err := h.service.Submit(c.Request.Context(), req, files)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewFeedbackResponse(fb))
}

// List godoc
// @Summary List feedback
// @Description Most recent date first
// @Tags Feedback
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /feedback/getall [get]
func (h *FeedbackHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewFeedbackResponses(items))
}

// UpdateStatus godoc
// @Summary Change feedback status
// @Tags Feedback
// @Accept json
// @Produce json
// @Param id path string true "Feedback ID"
// @Param payload body dto.UpdateFeedbackStatusRequest true "New status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /feedback/{id}/status [put]
func (h *FeedbackHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateFeedbackStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	fb, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewFeedbackResponse(fb))
}

// Delete godoc
// @Summary Delete feedback
// @Tags Feedback
// @Produce json
// @Param id path string true "Feedback ID"
// @Success 200 {object} response.Envelope
// @Router /feedback/{id} [delete]
func (h *FeedbackHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, nil, "Feedback deleted")
}

// Export godoc
// @Summary Export feedback
// @Tags Feedback
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /feedback/export [get]
func (h *FeedbackHandler) Export(c *gin.Context) {
	result, err := h.exporter.ExportFeedback(c.Request.Context(), dto.ExportFormat(c.DefaultQuery("format", "csv")))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Body)
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
