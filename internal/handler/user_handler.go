package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hms-api/internal/dto"
	"github.com/noah-isme/hms-api/internal/middleware"
	"github.com/noah-isme/hms-api/internal/models"
	"github.com/noah-isme/hms-api/internal/service"
	appErrors "github.com/noah-isme/hms-api/pkg/errors"
	"github.com/noah-isme/hms-api/pkg/response"
)

type userService interface {
	Register(ctx context.Context, req dto.RegisterRequest, meta models.RequestMeta) (*dto.RegisterResult, error)
	BulkImport(ctx context.Context, data []byte, meta models.RequestMeta) (*dto.BulkImportResult, error)
	SetPassword(ctx context.Context, req dto.SetPasswordRequest, meta models.RequestMeta) error
	Login(ctx context.Context, req dto.LoginRequest, meta models.RequestMeta) (*dto.LoginResult, error)
	ForgotPassword(ctx context.Context, req dto.ForgotPasswordRequest, meta models.RequestMeta) (*dto.ForgotPasswordResult, error)
	ResetPassword(ctx context.Context, req dto.SetPasswordRequest, meta models.RequestMeta) error
	VerifyToken(ctx context.Context, token string) (*dto.VerifyTokenResult, error)
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, req dto.UpdateUserRequest, meta models.RequestMeta) (*models.User, error)
	Delete(ctx context.Context, id string, meta models.RequestMeta) error
}

type spreadsheetReader interface {
	ReadSpreadsheet(file service.UploadedFile) ([]byte, error)
}

// UserHandler serves the account lifecycle and user management endpoints.
type UserHandler struct {
	service userService
	uploads spreadsheetReader
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService, uploads spreadsheetReader) *UserHandler {
	return &UserHandler{service: svc, uploads: uploads}
}

// Register godoc
// @Summary Register user
// @Description Create an account without a password and email a setup link
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body dto.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /userRoutes/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	res, err := h.service.Register(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res, "User registered. Password setup link sent to email.")
}

// BulkUpload godoc
// @Summary Bulk import users
// @Description Create up to ten users from a CSV, XLS or XLSX file
// @Tags Users
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Spreadsheet"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /userRoutes/bulk-upload [post]
func (h *UserHandler) BulkUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "No file uploaded"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	data, err := h.uploads.ReadSpreadsheet(uploadedFile(fileHeader, src))
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.service.BulkImport(c.Request.Context(), data, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, res, "Users uploaded & password setup link sent")
}

// SetPassword godoc
// @Summary Set password
// @Description Redeem a setup token
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body dto.SetPasswordRequest true "Token and password"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /userRoutes/set-password [post]
func (h *UserHandler) SetPassword(c *gin.Context) {
	var req dto.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid password payload"))
		return
	}

	if err := h.service.SetPassword(c.Request.Context(), req, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, nil, "Password set successfully.")
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by email and password
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body dto.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /userRoutes/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, res, "Login successful")
}

// ForgotPassword godoc
// @Summary Request password reset
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body dto.ForgotPasswordRequest true "Email"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /userRoutes/forgot-password [post]
func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	res, err := h.service.ForgotPassword(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, res, "Reset link sent")
}

// ResetPassword godoc
// @Summary Reset password
// @Description Redeem a reset token
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body dto.SetPasswordRequest true "Token and password"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /userRoutes/reset-password [post]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req dto.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid password payload"))
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, nil, "Password reset successful.")
}

// VerifyToken godoc
// @Summary Verify token
// @Description Check a setup, reset or session token from the query or Bearer header
// @Tags Users
// @Produce json
// @Param token query string false "Token"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /userRoutes/verify-token [get]
func (h *UserHandler) VerifyToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token, _ = middleware.BearerToken(c)
	}

	res, err := h.service.VerifyToken(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, res)
}

// List godoc
// @Summary List users
// @Description List users, newest first
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /userRoutes/all [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewUserResponses(users))
}

// Get godoc
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /userRoutes/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewUserResponse(user))
}

// Update godoc
// @Summary Update user
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.UpdateUserRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /userRoutes/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid user payload"))
		return
	}

	user, err := h.service.Update(c.Request.Context(), c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewUserResponse(user), "User updated successfully")
}

// Delete godoc
// @Summary Delete user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /userRoutes/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, nil, "User deleted successfully")
}
