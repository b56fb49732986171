// internal/interfaces/http/handlers/upload.go
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/menu-backend/internal/domain/upload"
)

// ImageUploader stores an image and reports where it can be fetched
type ImageUploader interface {
	UploadImage(ctx context.Context, filename string, r io.Reader) (*upload.ImageResult, error)
}

// UploadHandler handles file upload endpoints
type UploadHandler struct {
	uploader  ImageUploader
	fieldName string
	logger    logrus.FieldLogger
}

// NewUploadHandler creates a new upload handler reading the multipart field fieldName
func NewUploadHandler(uploader ImageUploader, fieldName string, logger logrus.FieldLogger) *UploadHandler {
	if fieldName == "" {
		fieldName = "image"
	}
	return &UploadHandler{
		uploader:  uploader,
		fieldName: fieldName,
		logger:    logger,
	}
}

// UploadImage handles POST /uploads/image
func (h *UploadHandler) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile(h.fieldName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No image file provided",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read uploaded file",
		})
		return
	}
	defer file.Close()

	result, err := h.uploader.UploadImage(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		c.JSON(uploadErrorStatus(err), gin.H{
			"error": err.Error(),
		})
		if !errors.Is(err, upload.ErrEmptyFile) && !errors.Is(err, upload.ErrUnsupportedType) && !errors.Is(err, upload.ErrTooLarge) {
			h.logger.WithError(err).WithField("filename", fileHeader.Filename).Error("Image upload failed")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Image uploaded successfully",
		"data":    result,
	})
}

func uploadErrorStatus(err error) int {
	switch {
	case errors.Is(err, upload.ErrEmptyFile), errors.Is(err, upload.ErrUnsupportedType):
		return http.StatusBadRequest
	case errors.Is(err, upload.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, upload.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, upload.ErrImageHost):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
