package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"planttracker-api/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	speciesField    = "species_csv"
	collectionField = "collection_csv"
)

// UploadHandler handles CSV dataset uploads
type UploadHandler struct {
	service  UploadService
	maxBytes int64
}

// UploadService interface for dependency injection
type UploadService interface {
	Ingest(ctx context.Context, species, collections io.Reader) (models.IngestSummary, error)
}

// NewUploadHandler creates a new upload handler accepting request bodies up to maxBytes
func NewUploadHandler(svc UploadService, maxBytes int64) *UploadHandler {
	return &UploadHandler{service: svc, maxBytes: maxBytes}
}

type uploadResponse struct {
	Message string `json:"message"`
	models.IngestSummary
}

// Upload handles POST /api/upload requests
func (h *UploadHandler) Upload(c *gin.Context) {
	if h.maxBytes > 0 {
		if c.Request.ContentLength > h.maxBytes {
			abortDetail(c, http.StatusRequestEntityTooLarge, tooLarge(h.maxBytes))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}

	species, err := h.openFile(c, speciesField)
	if err != nil {
		return
	}
	defer species.Close()

	collections, err := h.openFile(c, collectionField)
	if err != nil {
		return
	}
	defer collections.Close()

	summary, err := h.service.Ingest(c.Request.Context(), species, collections)
	if err != nil {
		if errors.Is(err, models.ErrInvalidUpload) {
			abortDetail(c, http.StatusBadRequest, err.Error())
			return
		}
		abortInternal(c, err)
		return
	}

	c.JSON(http.StatusOK, uploadResponse{
		Message:       fmt.Sprintf("imported %d collections and %d species", summary.Collections, summary.Species),
		IngestSummary: summary,
	})
}

// openFile opens the named multipart file. On failure it has already written the response.
func (h *UploadHandler) openFile(c *gin.Context, field string) (io.ReadCloser, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large"):
			abortDetail(c, http.StatusRequestEntityTooLarge, tooLarge(h.maxBytes))
		case errors.Is(err, http.ErrMissingFile):
			abortDetail(c, http.StatusBadRequest, fmt.Sprintf("missing file field '%s'", field))
		default:
			abortDetail(c, http.StatusBadRequest, "request must be multipart/form-data with species_csv and collection_csv files")
		}
		return nil, err
	}

	f, err := fh.Open()
	if err != nil {
		abortInternal(c, fmt.Errorf("handler: failed to open %s: %w", field, err))
		return nil, err
	}
	return f, nil
}

func tooLarge(limit int64) string {
	return fmt.Sprintf("upload exceeds the %d byte limit", limit)
}
