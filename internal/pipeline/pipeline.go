// Package pipeline orchestrates the document authenticity verification
// flow: rasterize, recognize text per page, detect authenticity
// markers, extract identity fields, classify and score.
//
// Each request runs as one pipeline with no cross-request shared
// state. A failure in one page's OCR or in either marker sub-check is
// recovered locally; only missing input, download failure,
// rasterization failure and timeouts abort a request.
package pipeline

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"docverify/internal/fields"
	"docverify/internal/logger"
	"docverify/internal/ocr"
	"docverify/internal/policy"
	"docverify/internal/raster"
	"docverify/pkg/models"
)

// MarkerDetector finds authenticity markers on one page image.
type MarkerDetector interface {
	DetectPage(ctx context.Context, imagePath string) models.MarkerEvidence
}

// Config carries the pipeline's resource and deadline settings.
type Config struct {
	// CallTimeout bounds each external call (OCR, marker sub-checks,
	// rasterization). Zero disables the per-call deadline.
	CallTimeout time.Duration

	// PipelineTimeout bounds the whole request. Zero disables it.
	PipelineTimeout time.Duration

	// PageWorkers is the number of pages processed concurrently.
	// 1 preserves the strictly sequential page order.
	PageWorkers int
}

// Pipeline runs verification requests. Construct once at process
// start with explicit collaborators; there is no hidden global state.
type Pipeline struct {
	rasterizer raster.PageRasterizer
	recognizer ocr.TextRecognizer
	detector   MarkerDetector
	httpClient *http.Client
	cfg        Config
	log        zerolog.Logger
}

// New creates a Pipeline.
func New(rasterizer raster.PageRasterizer, recognizer ocr.TextRecognizer, detector MarkerDetector, cfg Config) *Pipeline {
	if cfg.PageWorkers < 1 {
		cfg.PageWorkers = 1
	}
	return &Pipeline{
		rasterizer: rasterizer,
		recognizer: recognizer,
		detector:   detector,
		httpClient: &http.Client{Timeout: cfg.CallTimeout},
		cfg:        cfg,
		log:        logger.WithComponent("pipeline"),
	}
}

// Verify runs the full pipeline for one request and assembles the
// result. The returned result is immutable; the caller persists it.
func (p *Pipeline) Verify(ctx context.Context, req models.VerificationRequest) (*models.VerificationResult, error) {
	const op = "Verify"

	if p.cfg.PipelineTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.PipelineTimeout)
		defer cancel()
	}

	sourcePath := strings.TrimSpace(req.FilePath)
	if sourcePath == "" && strings.TrimSpace(req.URL) == "" {
		return nil, WrapPipelineError(op, ErrNoInput, "")
	}

	if sourcePath == "" {
		downloaded, err := p.download(ctx, strings.TrimSpace(req.URL))
		if err != nil {
			return nil, p.asTimeout(ctx, err)
		}
		defer p.removeFile(downloaded)
		sourcePath = downloaded
	}

	rendered, err := p.rasterize(ctx, sourcePath)
	if err != nil {
		return nil, p.asTimeout(ctx, err)
	}
	defer rendered.Cleanup()

	texts, evidence := p.processPages(ctx, rendered.Pages)
	if ctx.Err() != nil {
		return nil, WrapPipelineError(op, ErrTimeout, ctx.Err().Error())
	}

	fullText := strings.TrimSpace(strings.Join(texts, "\n"))
	parsed := fields.Extract(fullText)

	return assemble(req.Category, fullText, parsed, evidence), nil
}

func (p *Pipeline) rasterize(ctx context.Context, sourcePath string) (*raster.RenderResult, error) {
	const op = "rasterize"

	callCtx, cancel := p.callContext(ctx)
	defer cancel()

	rendered, err := p.rasterizer.Rasterize(callCtx, sourcePath)
	if err != nil {
		return nil, WrapPipelineError(op, ErrRasterization, err.Error())
	}
	return rendered, nil
}

// processPages runs OCR and marker detection over every page. Page
// texts land at their page's index so concatenation order never
// depends on scheduling. Marker detection stops issuing calls once a
// page has confirmed a marker (claim-once flag); when several pages
// succeed concurrently, the lowest page index wins.
func (p *Pipeline) processPages(ctx context.Context, pages []raster.Page) ([]string, models.MarkerEvidence) {
	texts := make([]string, len(pages))
	found := make([]*models.MarkerEvidence, len(pages))
	var claimed atomic.Bool

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.PageWorkers)

	for i, page := range pages {
		g.Go(func() error {
			texts[i] = p.recognizePage(gctx, page)

			if !claimed.Load() {
				ev := p.detectMarkers(gctx, page)
				if ev.Verified {
					claimed.Store(true)
					found[i] = &ev
				}
			}

			if page.Owned {
				p.removeFile(page.Path)
			}
			return nil
		})
	}
	// Per-page work never returns an error; failures degrade to empty
	// results above.
	_ = g.Wait()

	for _, ev := range found {
		if ev != nil {
			return texts, *ev
		}
	}
	return texts, models.MarkerEvidence{}
}

// recognizePage extracts one page's text. A failed page is logged and
// contributes an empty string; it never aborts the request.
func (p *Pipeline) recognizePage(ctx context.Context, page raster.Page) string {
	callCtx, cancel := p.callContext(ctx)
	defer cancel()

	text, err := p.recognizer.Recognize(callCtx, page.Path)
	if err != nil {
		p.log.Warn().
			Err(err).
			Int("page", page.Number).
			Str("image", page.Path).
			Msg("Page recognition failed, treating text as empty")
		return ""
	}
	return text
}

func (p *Pipeline) detectMarkers(ctx context.Context, page raster.Page) models.MarkerEvidence {
	callCtx, cancel := p.callContext(ctx)
	defer cancel()

	return p.detector.DetectPage(callCtx, page.Path)
}

func (p *Pipeline) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.CallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.cfg.CallTimeout)
}

// asTimeout converts deadline expirations into the distinct timeout
// error kind; everything else passes through.
func (p *Pipeline) asTimeout(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return WrapPipelineError("Verify", ErrTimeout, err.Error())
	}
	return err
}

// assemble composes the final verification result from the stage
// outputs. Both decision rules run here: Classify feeds status and
// missing-field diagnostics, Screen feeds the user-facing message.
func assemble(category, fullText string, parsed models.ParsedFields, evidence models.MarkerEvidence) *models.VerificationResult {
	ev := policy.Evidence{
		Stamp:        evidence.Verified,
		Signature:    evidence.Verified,
		KeywordFound: len(evidence.Keywords) > 0,
		ObjectFound:  len(evidence.Objects) > 0,
	}

	decision := policy.Classify(category, parsed, ev)
	screening := policy.Screen(category, parsed, ev)

	return &models.VerificationResult{
		RawText:           fullText,
		Fields:            parsed,
		StampDetected:     evidence.Verified,
		SignatureDetected: evidence.Verified,
		Keywords:          evidence.Keywords,
		Objects:           evidence.Objects,
		Score:             policy.Score(category, parsed, ev),
		Status:            decision.Status,
		MissingFields:     decision.MissingFields,
		Message:           screening.Message,
	}
}
