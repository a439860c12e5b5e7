package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/ingest"
	"github.com/gin-gonic/gin"
)

// MaxUploadBytes bounds a single uploaded file.
const MaxUploadBytes = 32 << 20

type UploadHandler struct {
	ingest *ingest.Service
}

func NewUploadHandler(ingestService *ingest.Service) *UploadHandler {
	return &UploadHandler{ingest: ingestService}
}

func (h *UploadHandler) UploadSales(c *gin.Context) {
	h.upload(c, domain.UploadSales)
}

func (h *UploadHandler) UploadInventory(c *gin.Context) {
	h.upload(c, domain.UploadInventory)
}

// upload ingests synchronously so the response carries the row counts.
func (h *UploadHandler) upload(c *gin.Context, kind domain.UploadKind) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided", "details": err.Error()})
		return
	}
	if fileHeader.Size > MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d bytes", MaxUploadBytes)})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data", "details": err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload", "details": err.Error()})
		return
	}

	result, err := h.ingest.Ingest(c.Request.Context(), kind, fileHeader.Filename, data)
	if err != nil {
		respondError(c, err, "failed to ingest upload")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListBatches reports recent ingestion batches, newest first.
func (h *UploadHandler) ListBatches(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	batches, err := h.ingest.RecentBatches(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "failed to list ingest batches")
		return
	}
	c.JSON(http.StatusOK, batches)
}
