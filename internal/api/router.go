package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"prospectflow/config"
	"prospectflow/pkg/mq"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	cfg *config.Config,
	mailCheck *MailCheckHandler,
	imports *ImportHandler,
	oauth *OAuthHandler,
	db *pgxpool.Pool,
	publisher *mq.Publisher,
) *Router {
	r := gin.Default()
	r.Use(RequestMetrics())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		if publisher != nil && !publisher.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := r.Group("/admin", JWTAuth(cfg.JWT.Secret))
	{
		admin.POST("/mailcheck/run", mailCheck.Run)

		admin.POST("/import/preview", imports.Preview)
		admin.POST("/import/check-duplicates", imports.CheckDuplicates)
		admin.POST("/import/execute", imports.Execute)
		admin.GET("/import/history", imports.History)
		admin.GET("/import/history/:id", imports.HistoryDetail)

		if oauth != nil {
			admin.GET("/oauth/google/url", oauth.AuthURL)
			admin.POST("/oauth/google/exchange", oauth.Exchange)
		}
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
