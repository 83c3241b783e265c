package app

import (
	httpx "github.com/yungbote/claimpacket-backend/internal/http"
	httpH "github.com/yungbote/claimpacket-backend/internal/http/handlers"
	httpMW "github.com/yungbote/claimpacket-backend/internal/http/middleware"
	"github.com/yungbote/claimpacket-backend/internal/observability"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health *httpH.HealthHandler
	Report *httpH.ReportHandler
	Share  *httpH.ShareHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(),
		Report: httpH.NewReportHandler(services.Reports),
		Share:  httpH.NewShareHandler(services.Reports),
	}
}

func wireMiddleware(log *logger.Logger, clients Clients) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, clients.Identity),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *httpx.Server {
	return httpx.NewServer(httpx.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		AllowedOrigins: cfg.AllowedOrigins,
		AuthMiddleware: middleware.Auth,
		ReportHandler:  handlers.Report,
		ShareHandler:   handlers.Share,
		HealthHandler:  handlers.Health,
	})
}
