package handler

import (
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hms-api/internal/middleware"
	"github.com/noah-isme/hms-api/internal/models"
	"github.com/noah-isme/hms-api/internal/service"
)

// requestMeta collects the client details recorded in the audit trail.
func requestMeta(c *gin.Context) models.RequestMeta {
	meta := models.RequestMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
	if user, ok := middleware.CurrentUser(c); ok {
		meta.ActorID = user.ID
	}
	return meta
}

func uploadedFile(fh *multipart.FileHeader, src io.Reader) service.UploadedFile {
	return service.UploadedFile{
		Filename:    fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     src,
	}
}
