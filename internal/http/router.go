package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/claimpacket-backend/internal/http/handlers"
	httpMW "github.com/yungbote/claimpacket-backend/internal/http/middleware"
	"github.com/yungbote/claimpacket-backend/internal/observability"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

const serviceName = "claimpacket-backend"

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	AllowedOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	ReportHandler *httpH.ReportHandler
	ShareHandler  *httpH.ShareHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Share links (public)
	if cfg.ShareHandler != nil {
		r.GET("/share/packets/:token", cfg.ShareHandler.OpenPacket)
	}

	protected := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	if h := cfg.ReportHandler; h != nil {
		// Claims
		protected.POST("/claims/:claimId/reports", h.Generate)
		protected.GET("/claims/:claimId/reports", h.ListArtifacts)
		protected.GET("/claims/:claimId/reports/preview", h.Preview)
		protected.GET("/claims/:claimId/timeline", h.ListTimeline)

		protected.GET("/report-tasks/:taskId", h.GetTask)

		// Artifacts
		protected.GET("/artifacts/:artifactId", h.GetArtifact)
		protected.PATCH("/artifacts/:artifactId", h.UpdateArtifact)
		protected.DELETE("/artifacts/:artifactId", h.DeleteArtifact)
		protected.POST("/artifacts/:artifactId/regenerate", h.Regenerate)
		protected.POST("/artifacts/:artifactId/send", h.Send)

		// Org settings
		protected.PUT("/templates", h.SaveTemplate)
		protected.PATCH("/branding", h.UpdateBranding)
	}

	return r
}
