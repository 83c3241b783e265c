package app

import (
	"strings"
	"time"

	"github.com/yungbote/claimpacket-backend/internal/data/db"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/delivery"
	"github.com/yungbote/claimpacket-backend/internal/platform/envutil"
	"github.com/yungbote/claimpacket-backend/internal/platform/identity"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
	"github.com/yungbote/claimpacket-backend/internal/platform/redisdb"
	"github.com/yungbote/claimpacket-backend/internal/platform/sendgrid"
)

const (
	RenderBackendNative    = "native"
	RenderBackendGotenberg = "gotenberg"
)

type Config struct {
	Port           string
	Environment    string
	AppBaseURL     string
	AllowedOrigins []string

	Postgres db.PostgresConfig
	JWT      identity.JWTConfig
	Redis    redisdb.Config
	SendGrid sendgrid.Config

	ObjectStorageMode         string
	StorageEmulatorHost       string
	StorageModeCompatFallback bool
	ReportBucket              string
	ThumbnailBucket           string
	ReportCDNDomain           string
	ThumbnailCDNDomain        string

	RenderBackend  string
	RenderTimeout  time.Duration
	ThumbnailWidth int
	ThumbnailFont  string

	TemplateCacheTTL   time.Duration
	ShareLinkCustomTTL time.Duration
	TaskWorkers        int
	TaskQueueSize      int
	ShutdownTimeout    time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:           envutil.String("PORT", "8080"),
		Environment:    envutil.String("APP_ENV", "development"),
		AppBaseURL:     envutil.String("APP_BASE_URL", "http://localhost:8080"),
		AllowedOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),

		Postgres: db.PostgresConfigFromEnv(),
		JWT:      identity.JWTConfigFromEnv(),
		Redis:    redisdb.ConfigFromEnv(),
		SendGrid: sendgrid.ConfigFromEnv(),

		ObjectStorageMode:   strings.ToLower(envutil.String("OBJECT_STORAGE_MODE", "")),
		StorageEmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", ""),
		ReportBucket:        envutil.String("REPORT_GCS_BUCKET_NAME", ""),
		ThumbnailBucket:     envutil.String("THUMBNAIL_GCS_BUCKET_NAME", ""),
		ReportCDNDomain:     envutil.String("REPORT_CDN_DOMAIN", ""),
		ThumbnailCDNDomain:  envutil.String("THUMBNAIL_CDN_DOMAIN", ""),

		RenderBackend:  strings.ToLower(envutil.String("RENDER_BACKEND", RenderBackendNative)),
		RenderTimeout:  envutil.Duration("RENDER_TIMEOUT", 60*time.Second),
		ThumbnailWidth: envutil.Int("THUMBNAIL_WIDTH", 480),
		ThumbnailFont:  envutil.String("THUMBNAIL_FONT_PATH", ""),

		TemplateCacheTTL:   envutil.Duration("TEMPLATE_CACHE_TTL", 24*time.Hour),
		ShareLinkCustomTTL: envutil.Duration("SHARE_LINK_CUSTOM_TTL", delivery.DefaultCustomLinkTTL),
		TaskWorkers:        envutil.Int("REPORT_TASK_WORKERS", 2),
		TaskQueueSize:      envutil.Int("REPORT_TASK_QUEUE_SIZE", 64),
		ShutdownTimeout:    envutil.Duration("SHUTDOWN_TIMEOUT", 20*time.Second),
	}

	// An emulator host without an explicit mode keeps older compose files working.
	if cfg.ObjectStorageMode == "" {
		if cfg.StorageEmulatorHost != "" {
			cfg.ObjectStorageMode = "gcs_emulator"
			cfg.StorageModeCompatFallback = true
		} else {
			cfg.ObjectStorageMode = "gcs"
		}
	}

	log.Info("Configuration loaded",
		"env", cfg.Environment,
		"port", cfg.Port,
		"storage_mode", cfg.ObjectStorageMode,
		"render_backend", cfg.RenderBackend,
		"redis", cfg.Redis.Enabled(),
	)
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
