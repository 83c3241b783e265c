package app

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/claimpacket-backend/internal/modules/reports/delivery"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/render"
	"github.com/yungbote/claimpacket-backend/internal/platform/gcp"
	"github.com/yungbote/claimpacket-backend/internal/platform/identity"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
	"github.com/yungbote/claimpacket-backend/internal/platform/redisdb"
	"github.com/yungbote/claimpacket-backend/internal/platform/sendgrid"
)

type Clients struct {
	Bucket   gcp.BucketService
	Redis    *goredis.Client
	Mail     delivery.MailTransport
	Backend  render.Backend
	Identity identity.Resolver
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Object storage
	bucket, err := resolveBucketService(log, cfg)
	if err != nil {
		return Clients{}, err
	}

	// Redis (optional, template cache)
	var rdb *goredis.Client
	if cfg.Redis.Enabled() {
		rdb, err = redisdb.New(log, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
	}

	// Mail
	var mail delivery.MailTransport
	if cfg.SendGrid.APIKey != "" {
		sg, err := sendgrid.New(log, cfg.SendGrid)
		if err != nil {
			return Clients{}, fmt.Errorf("init sendgrid: %w", err)
		}
		mail = delivery.NewSendGridTransport(sg, cfg.SendGrid.DefaultFromName)
	} else {
		log.Warn("SENDGRID_API_KEY not set; deliveries will fail")
		mail = unconfiguredTransport{}
	}

	// Render backend
	var backend render.Backend
	switch cfg.RenderBackend {
	case RenderBackendGotenberg:
		gb, err := render.NewGotenbergBackend(log, render.GotenbergConfigFromEnv())
		if err != nil {
			return Clients{}, fmt.Errorf("init gotenberg: %w", err)
		}
		backend = gb
	case RenderBackendNative, "":
		backend = render.NewNativeBackend()
	default:
		return Clients{}, fmt.Errorf("unsupported RENDER_BACKEND %q", cfg.RenderBackend)
	}

	// Identity
	resolver, err := identity.NewJWTResolver(cfg.JWT)
	if err != nil {
		return Clients{}, fmt.Errorf("init identity resolver: %w", err)
	}

	return Clients{
		Bucket:   bucket,
		Redis:    rdb,
		Mail:     mail,
		Backend:  backend,
		Identity: resolver,
	}, nil
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}

var errMailUnconfigured = errors.New("mail transport is not configured")

type unconfiguredTransport struct{}

func (unconfiguredTransport) Send(context.Context, delivery.Message) (string, error) {
	return "", errMailUnconfigured
}
