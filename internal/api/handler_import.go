package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prospectflow/internal/importer"
	"prospectflow/internal/model"
)

// HistoryReader serves the import history endpoints.
type HistoryReader interface {
	List(ctx context.Context, limit int) ([]model.ImportHistory, error)
	ByID(ctx context.Context, id string) (*model.ImportHistory, error)
}

type ImportHandler struct {
	pipeline    *importer.Pipeline
	history     HistoryReader
	maxFileSize int64
	logger      *zap.Logger
}

func NewImportHandler(pipeline *importer.Pipeline, history HistoryReader, maxFileSizeMB int, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{
		pipeline:    pipeline,
		history:     history,
		maxFileSize: int64(maxFileSizeMB) << 20,
		logger:      logger,
	}
}

// Preview parses the upload and returns headers plus sample rows.
// POST /admin/import/preview
func (h *ImportHandler) Preview(c *gin.Context) {
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	sampleSize, _ := strconv.Atoi(c.DefaultPostForm("sample_size", "10"))
	preview, err := h.pipeline.PreviewFile(filename, data, sampleSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse file", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, preview)
}

// CheckDuplicates reports rows colliding with stored profiles.
// POST /admin/import/check-duplicates
func (h *ImportHandler) CheckDuplicates(c *gin.Context) {
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}
	config, ok := h.readMapping(c)
	if !ok {
		return
	}

	hits, err := h.pipeline.CheckDuplicates(c.Request.Context(), filename, data, config)
	if err != nil {
		h.logger.Error("Duplicate check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "duplicate check failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"duplicates": hits, "count": len(hits)})
}

// Execute runs the import. Partial row failures still return 200 with
// the result aggregate.
// POST /admin/import/execute
func (h *ImportHandler) Execute(c *gin.Context) {
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}
	config, ok := h.readMapping(c)
	if !ok {
		return
	}

	opts := importer.Options{SkipDuplicates: true, GeneratePasswords: true, ContinueOnError: true}
	if raw := c.PostForm("options"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid options payload"})
			return
		}
	}

	result, err := h.pipeline.Execute(c.Request.Context(), filename, data, config, opts, AccountID(c))
	if err != nil {
		h.logger.Error("Import failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// History lists recorded import runs.
// GET /admin/import/history
func (h *ImportHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	history, err := h.history.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list import history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list import history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// HistoryDetail returns one recorded run with its per-row results.
// GET /admin/import/history/:id
func (h *ImportHandler) HistoryDetail(c *gin.Context) {
	record, err := h.history.ByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to load import history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load import history"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "import not found"})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *ImportHandler) readUpload(c *gin.Context) (string, []byte, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return "", nil, false
	}
	if fileHeader.Size > h.maxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds size limit"})
		return "", nil, false
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return "", nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxFileSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return "", nil, false
	}
	if int64(len(data)) > h.maxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds size limit"})
		return "", nil, false
	}
	return fileHeader.Filename, data, true
}

func (h *ImportHandler) readMapping(c *gin.Context) (*importer.MappingConfig, bool) {
	raw := c.PostForm("mapping")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing mapping payload"})
		return nil, false
	}
	var config importer.MappingConfig
	if err := json.Unmarshal([]byte(raw), &config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mapping payload"})
		return nil, false
	}
	if config.EntityType == "" || len(config.Rules) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mapping needs an entity type and at least one rule"})
		return nil, false
	}
	return &config, true
}
