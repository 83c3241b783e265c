package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/claimpacket-backend/internal/data/repos"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/artifacts"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/delivery"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/render"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/reportctx"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/templates"
	"github.com/yungbote/claimpacket-backend/internal/observability"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

type Services struct {
	Reports reports.Usecases
	Tasks   *reports.TaskRunner
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, set repos.Set, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	catalog, err := templates.DefaultCatalog()
	if err != nil {
		return Services{}, fmt.Errorf("load section catalog: %w", err)
	}

	var cache templates.Cache = templates.NewMemoryCache()
	if clients.Redis != nil {
		cache = templates.NewRedisCache(clients.Redis, "claimpacket", cfg.TemplateCacheTTL)
	}
	merger := templates.NewMerger(log, catalog, set.Template, set.Branding, cache, metrics)

	thumbs, err := render.NewThumbnailer(cfg.ThumbnailWidth, cfg.ThumbnailFont)
	if err != nil {
		return Services{}, fmt.Errorf("init thumbnailer: %w", err)
	}
	renderer := render.NewRenderer(log, render.DefaultRegistry(), clients.Backend, thumbs, metrics, cfg.RenderTimeout)

	store := artifacts.NewStore(log, db, set, clients.Bucket, metrics)
	links := delivery.NewLinkBuilder(cfg.AppBaseURL, cfg.ShareLinkCustomTTL)
	deliverySvc := delivery.NewService(log, db, set, links, clients.Bucket, clients.Mail, merger, metrics)

	runner := reports.NewTaskRunner(log, set.GenerationTask, cfg.TaskWorkers, cfg.TaskQueueSize)

	return Services{
		Reports: reports.New(reports.UsecasesDeps{
			DB:        db,
			Log:       log,
			Repos:     set,
			Builder:   reportctx.NewBuilder(log, set),
			Templates: merger,
			Renderer:  renderer,
			Artifacts: store,
			Delivery:  deliverySvc,
			Tasks:     runner,
			Metrics:   metrics,
		}),
		Tasks: runner,
	}, nil
}
