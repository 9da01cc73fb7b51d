package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prospectflow/internal/mailcheck"
)

type MailCheckHandler struct {
	runner *mailcheck.Runner
	logger *zap.Logger
}

func NewMailCheckHandler(runner *mailcheck.Runner, logger *zap.Logger) *MailCheckHandler {
	return &MailCheckHandler{runner: runner, logger: logger}
}

type mailCheckRequest struct {
	SinceDate string `json:"since_date"`
}

// Run triggers one inbox check.
// POST /admin/mailcheck/run
func (h *MailCheckHandler) Run(c *gin.Context) {
	var req mailCheckRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	var since time.Time
	if req.SinceDate != "" {
		parsed, err := parseSince(req.SinceDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since_date"})
			return
		}
		since = parsed
	}

	result, err := h.runner.Run(c.Request.Context(), since)
	if errors.Is(err, mailcheck.ErrAlreadyRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": "a mail check is already running"})
		return
	}
	if err != nil {
		h.logger.Error("Mail check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "mail check failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseSince(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
