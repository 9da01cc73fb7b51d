package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"prospectflow/pkg/metrics"
	"prospectflow/pkg/util"
)

const accountIDKey = "account_id"

// JWTAuth rejects requests without a valid bearer token and stores the
// authenticated account id on the context.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.ExtractToken(c.Request)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		accountID, err := util.ParseJWT(token, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(accountIDKey, accountID)
		c.Next()
	}
}

// AccountID returns the authenticated account id, empty on public
// routes.
func AccountID(c *gin.Context) string {
	id, _ := c.Get(accountIDKey)
	s, _ := id.(string)
	return s
}

// RequestMetrics records per-route request durations.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
