package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/claimpacket-backend/internal/modules/reports/reportctx"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/reporterr"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/templates"
	"github.com/yungbote/claimpacket-backend/internal/observability"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

const DefaultTimeout = 45 * time.Second

type Output struct {
	HTML      string
	PDF       []byte
	Thumbnail []byte
	// Checksum is the hex SHA-256 of PDF.
	Checksum  string
	SizeBytes int64
	Sections  []string
	Skipped   []string
}

type Renderer struct {
	log      *logger.Logger
	registry *Registry
	backend  Backend
	thumbs   *Thumbnailer
	metrics  *observability.Metrics
	timeout  time.Duration
}

// NewRenderer wires a renderer. thumbs may be nil, in which case no
// thumbnails are produced.
func NewRenderer(log *logger.Logger, registry *Registry, backend Backend, thumbs *Thumbnailer, metrics *observability.Metrics, timeout time.Duration) *Renderer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Renderer{
		log:      log.With("service", "ReportRenderer"),
		registry: registry,
		backend:  backend,
		thumbs:   thumbs,
		metrics:  metrics,
		timeout:  timeout,
	}
}

func (r *Renderer) Backend() string { return r.backend.Name() }

// Compose builds the HTML document for merged over rc. Unknown section keys
// are skipped and reported.
func (r *Renderer) Compose(merged *templates.MergedTemplate, rc *reportctx.ReportContext, title string) (doc string, rendered, skipped []string, err error) {
	if rc == nil {
		rc = &reportctx.ReportContext{}
	}
	var sections []renderedSection
	for _, s := range merged.EnabledSections() {
		gen, ok := r.registry.Lookup(s.Key)
		if !ok {
			r.log.Warn("Skipping unknown section", "section_key", s.Key, "template_id", merged.ID)
			skipped = append(skipped, s.Key)
			continue
		}
		body, gerr := gen(SectionInput{Section: s, Branding: merged.Branding, Title: title, Context: rc})
		if gerr != nil {
			return "", nil, nil, &reporterr.RenderError{SectionKey: s.Key, Err: gerr}
		}
		if verr := ValidateFragment(string(body)); verr != nil {
			return "", nil, nil, &reporterr.RenderError{SectionKey: s.Key, Err: fmt.Errorf("invalid markup: %w", verr)}
		}
		sections = append(sections, sectionFor(s, body))
		rendered = append(rendered, s.Key)
	}
	doc, err = assembleDocument(documentData{Title: title, Branding: merged.Branding, Page: merged.Page, Sections: sections})
	if err != nil {
		return "", nil, nil, &reporterr.RenderError{Err: err}
	}
	return doc, rendered, skipped, nil
}

// Render produces the document, its PDF and a thumbnail. The binary step is
// bounded by the renderer timeout and is detached from ctx cancellation, so
// a disconnected requester does not abort it.
func (r *Renderer) Render(ctx context.Context, merged *templates.MergedTemplate, rc *reportctx.ReportContext, title string) (out *Output, err error) {
	ctx, span := observability.StartSpan(ctx, "reports.render",
		attribute.String("template_id", merged.ID),
		attribute.String("backend", r.backend.Name()),
	)
	defer func() { observability.EndSpan(span, err) }()

	doc, rendered, skipped, err := r.Compose(merged, rc, title)
	if err != nil {
		return nil, err
	}
	out, err = r.binary(ctx, doc)
	if err != nil {
		return nil, err
	}
	out.Sections, out.Skipped = rendered, skipped
	return out, nil
}

// RenderText renders a freeform markdown body with the merged branding.
func (r *Renderer) RenderText(ctx context.Context, merged *templates.MergedTemplate, title, body string) (out *Output, err error) {
	ctx, span := observability.StartSpan(ctx, "reports.render", attribute.String("backend", r.backend.Name()))
	defer func() { observability.EndSpan(span, err) }()

	html, err := Markdown(body)
	if err != nil {
		return nil, &reporterr.RenderError{SectionKey: "body", Err: err}
	}
	if err := ValidateFragment(string(html)); err != nil {
		return nil, &reporterr.RenderError{SectionKey: "body", Err: err}
	}
	doc, err := assembleDocument(documentData{
		Title:    title,
		Branding: merged.Branding,
		Page:     merged.Page,
		Sections: []renderedSection{{Key: "body", Body: template.HTML("<h1>" + template.HTMLEscapeString(title) + "</h1>\n" + string(html))}},
	})
	if err != nil {
		return nil, &reporterr.RenderError{Err: err}
	}
	out, err = r.binary(ctx, doc)
	if err != nil {
		return nil, err
	}
	out.Sections = []string{"body"}
	return out, nil
}

type pdfResult struct {
	pdf []byte
	err error
}

func (r *Renderer) binary(ctx context.Context, doc string) (*Output, error) {
	start := time.Now()
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	ch := make(chan pdfResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- pdfResult{err: fmt.Errorf("backend panic: %v", p)}
			}
		}()
		b, err := r.backend.HTMLToPDF(rctx, doc)
		ch <- pdfResult{pdf: b, err: err}
	}()

	var res pdfResult
	select {
	case <-rctx.Done():
		res.err = rctx.Err()
	case res = <-ch:
	}
	if res.err == nil && len(res.pdf) == 0 {
		res.err = errors.New("backend returned an empty document")
	}
	r.metrics.ObserveRender(r.backend.Name(), res.err, time.Since(start))
	if res.err != nil {
		return nil, r.renderError(res.err)
	}

	sum := sha256.Sum256(res.pdf)
	out := &Output{
		HTML:      doc,
		PDF:       res.pdf,
		Checksum:  hex.EncodeToString(sum[:]),
		SizeBytes: int64(len(res.pdf)),
	}
	out.Thumbnail = r.thumbnail(rctx, doc)
	return out, nil
}

func (r *Renderer) renderError(err error) error {
	re := &reporterr.RenderError{Err: err, Timeout: errors.Is(err, context.DeadlineExceeded)}
	var sf *SectionFailure
	if errors.As(err, &sf) {
		re.SectionKey = sf.Key
	}
	r.log.Error("Render failed", "backend", r.backend.Name(), "section_key", re.SectionKey, "timeout", re.Timeout, "error", err)
	return re
}

// thumbnail never fails the render; a nil result means no preview.
func (r *Renderer) thumbnail(ctx context.Context, doc string) []byte {
	if r.thumbs == nil {
		return nil
	}
	if raw, err := r.backend.HTMLToPNG(ctx, doc); err == nil {
		if png, err := r.thumbs.FromPNG(raw); err == nil {
			return png
		} else {
			r.log.Warn("Scaling backend screenshot failed", "error", err)
		}
	} else if !errors.Is(err, ErrRasterUnsupported) {
		r.log.Warn("Backend screenshot failed", "backend", r.backend.Name(), "error", err)
	}
	layout, err := ParseLayout(doc)
	if err != nil {
		r.log.Warn("Thumbnail layout failed", "error", err)
		return nil
	}
	png, err := r.thumbs.FromLayout(layout)
	if err != nil {
		r.log.Warn("Thumbnail raster failed", "error", err)
		return nil
	}
	return png
}

func sectionFor(s templates.Section, body template.HTML) renderedSection {
	return renderedSection{
		Key:         s.Key,
		Card:        s.Card,
		BreakBefore: s.PageBreakBefore,
		BreakAfter:  s.PageBreakAfter,
		Body:        body,
	}
}
