package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/freshroots/harvest-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const maxUploadSize = 10 << 20

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, filename string) (string, error)
}

type UploadHandler struct {
	Storage Uploader
}

func NewUploadHandler(storage Uploader) *UploadHandler {
	return &UploadHandler{Storage: storage}
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadImage checks size and sniffed content type before streaming the file
// to storage under a random name.
func (h *UploadHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("No file provided or file too large (Max 10MB)"))
		return
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to read file for validation"))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to read file for validation"))
		return
	}

	contentType := http.DetectContentType(buffer[:n])
	ext, allowed := imageExtensions[contentType]
	if !allowed {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Unsupported file type. Please upload JPG, PNG, WEBP, or GIF"))
		return
	}

	// The extension follows the sniffed type, never the client's filename.
	safeFilename := fmt.Sprintf("%s%s", uuid.New().String(), ext)

	imageURL, err := h.Storage.Upload(c.Request.Context(), file, safeFilename)
	if err != nil {
		logrus.WithError(err).Error("Image upload")
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Image upload failed"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Image uploaded successfully", gin.H{
		"url":  imageURL,
		"size": header.Size,
		"type": contentType,
	}))
}
