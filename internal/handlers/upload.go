package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lndnexus/marketplace/backend/internal/middleware"
	"github.com/lndnexus/marketplace/backend/internal/services"
	"github.com/lndnexus/marketplace/backend/pkg/response"
)

// multipart framing on top of the file itself
const uploadOverhead = 1 << 20

type UploadHandler struct {
	uploadService *services.UploadService
}

func NewUploadHandler(uploadService *services.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// Upload stores one multipart "file" and returns its public URL
// POST /api/uploads
func (h *UploadHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxUploadSize+uploadOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, response.NewValidation(response.FieldError{Field: "file", Message: "is required"}))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	upload, err := h.uploadService.Upload(c.Request.Context(), middleware.GetUserID(c),
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, upload)
}
