package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prospectflow/internal/gmail"
)

// OAuthHandler is operator tooling for obtaining the mailbox refresh
// token. Not part of the steady-state pipeline.
type OAuthHandler struct {
	gmail  *gmail.Client
	logger *zap.Logger
}

func NewOAuthHandler(client *gmail.Client, logger *zap.Logger) *OAuthHandler {
	return &OAuthHandler{gmail: client, logger: logger}
}

// AuthURL returns the consent-screen URL.
// GET /admin/oauth/google/url
func (h *OAuthHandler) AuthURL(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"url": h.gmail.AuthURL(c.DefaultQuery("state", "prospectflow")),
	})
}

type exchangeRequest struct {
	Code string `json:"code" binding:"required"`
}

// Exchange trades an authorization code for a refresh token.
// POST /admin/oauth/google/exchange
func (h *OAuthHandler) Exchange(c *gin.Context) {
	var req exchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing authorization code"})
		return
	}

	refreshToken, err := h.gmail.ExchangeCode(c.Request.Context(), req.Code)
	if err != nil {
		h.logger.Error("Failed to exchange authorization code", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "code exchange failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"refresh_token": refreshToken})
}
