package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/claimpacket-backend/internal/platform/ctxutil"
	"github.com/yungbote/claimpacket-backend/internal/platform/envutil"
	"github.com/yungbote/claimpacket-backend/internal/platform/httpx"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

type GotenbergConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
	HTTPClient *http.Client
}

func GotenbergConfigFromEnv() GotenbergConfig {
	return GotenbergConfig{
		BaseURL:    envutil.String("GOTENBERG_URL", ""),
		Timeout:    envutil.Duration("GOTENBERG_TIMEOUT", 60*time.Second),
		MaxRetries: envutil.Int("GOTENBERG_MAX_RETRIES", 2),
	}
}

// GotenbergBackend posts documents to a Gotenberg (headless Chromium)
// service, which honours the CSS print hints natively.
type GotenbergBackend struct {
	log        *logger.Logger
	cfg        GotenbergConfig
	httpClient *http.Client
}

func NewGotenbergBackend(log *logger.Logger, cfg GotenbergConfig) (*GotenbergBackend, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("missing GOTENBERG_URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &GotenbergBackend{log: log.With("client", "GotenbergBackend"), cfg: cfg, httpClient: hc}, nil
}

func (g *GotenbergBackend) Name() string { return "gotenberg" }

func (g *GotenbergBackend) HTMLToPDF(ctx context.Context, doc string) ([]byte, error) {
	return g.do(ctx, "/forms/chromium/convert/html", doc, map[string]string{
		"printBackground":   "true",
		"preferCssPageSize": "true",
	})
}

func (g *GotenbergBackend) HTMLToPNG(ctx context.Context, doc string) ([]byte, error) {
	return g.do(ctx, "/forms/chromium/screenshot/html", doc, map[string]string{
		"format": "png",
		"width":  "816",
		"height": "1056",
		"clip":   "true",
	})
}

type GotenbergError struct {
	StatusCode int
	Body       string
}

func (e *GotenbergError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if len(msg) > 2000 {
		msg = msg[:2000] + "..."
	}
	return fmt.Sprintf("gotenberg http %d: %s", e.StatusCode, msg)
}

func (e *GotenbergError) HTTPStatusCode() int { return e.StatusCode }

func (g *GotenbergBackend) do(ctx context.Context, path, doc string, fields map[string]string) ([]byte, error) {
	ctx = ctxutil.Default(ctx)
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, resp, err := g.doOnce(ctx, path, doc, fields)
		if err == nil {
			return out, nil
		}
		if !httpx.IsRetryableError(err) || attempt == g.cfg.MaxRetries {
			return nil, err
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, httpx.Backoff(attempt+1, g.cfg.RetryBase, 5*time.Second), 5*time.Second))
		g.log.Warn("Gotenberg request retrying",
			"path", path,
			"attempt", attempt+1,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.SleepCtx(ctx, sleepFor); err != nil {
			return nil, err
		}
	}
	return nil, errors.New("unreachable retry loop")
}

func (g *GotenbergBackend) doOnce(ctx context.Context, path, doc string, fields map[string]string) ([]byte, *http.Response, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, nil, err
	}
	if _, err := io.WriteString(fw, doc); err != nil {
		return nil, nil, err
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, &body)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, resp, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp, &GotenbergError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, resp, nil
}
