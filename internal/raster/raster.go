// Package raster converts a PDF into an ordered sequence of page
// images. Single-image input passes through untouched.
//
// Rendering is delegated to poppler's pdftoppm binary behind a Runner
// interface so tests can fake it; pdfcpu validates the PDF and reports
// the expected page count before any rendering starts.
package raster

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog"

	"docverify/internal/logger"
)

// Runner executes an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Page is one ordered page image.
type Page struct {
	// Path is the image file location.
	Path string

	// Number is the page's position, parsed from the rendered
	// filename. Filenames without digits parse as 0.
	Number int

	// Owned reports whether the pipeline owns the file and must
	// delete it once the page's OCR and marker steps complete.
	// Passthrough input stays with the caller.
	Owned bool
}

// RenderResult holds the ordered pages plus the scoped temp directory
// they live in. Cleanup must run on every exit path.
type RenderResult struct {
	Pages []Page

	tempDir string
	log     zerolog.Logger
}

// Cleanup recursively removes the rasterization temp directory.
// Removal failures are logged and swallowed, never propagated.
// Safe to call more than once and on passthrough results.
func (r *RenderResult) Cleanup() {
	if r == nil || r.tempDir == "" {
		return
	}
	if err := os.RemoveAll(r.tempDir); err != nil {
		r.log.Warn().
			Err(err).
			Str("dir", r.tempDir).
			Msg("Failed to remove rasterization temp directory")
	}
	r.tempDir = ""
}

// PageRasterizer turns a document file into ordered page images.
type PageRasterizer interface {
	Rasterize(ctx context.Context, sourcePath string) (*RenderResult, error)
}

// PopplerRasterizer renders PDF pages to PNG with pdftoppm.
type PopplerRasterizer struct {
	runner Runner
	dpi    int
	log    zerolog.Logger
}

// New creates a rasterizer that shells out to pdftoppm at the given
// render resolution.
func New(dpi int) *PopplerRasterizer {
	return NewWithRunner(execRunner{}, dpi)
}

// NewWithRunner creates a rasterizer with an explicit command runner
// (for testing).
func NewWithRunner(runner Runner, dpi int) *PopplerRasterizer {
	return &PopplerRasterizer{
		runner: runner,
		dpi:    dpi,
		log:    logger.WithComponent("raster"),
	}
}

// Rasterize renders each page of a PDF to an image in a scoped temp
// directory. Non-PDF input returns a single passthrough page owned by
// the caller.
func (p *PopplerRasterizer) Rasterize(ctx context.Context, sourcePath string) (*RenderResult, error) {
	const op = "Rasterize"

	if strings.ToLower(filepath.Ext(sourcePath)) != ".pdf" {
		return &RenderResult{
			Pages: []Page{{Path: sourcePath, Number: 1}},
			log:   p.log,
		}, nil
	}

	pageCount, err := api.PageCountFile(sourcePath)
	if err != nil {
		return nil, WrapRasterError(op, ErrInvalidPDF, fmt.Sprintf("pdfcpu rejected %s: %v", filepath.Base(sourcePath), err))
	}

	tempDir, err := os.MkdirTemp("", "docverify-pages-*")
	if err != nil {
		return nil, WrapRasterError(op, err, "failed to create temp directory")
	}
	result := &RenderResult{tempDir: tempDir, log: p.log}

	p.log.Debug().
		Str("file", sourcePath).
		Int("pages", pageCount).
		Str("dir", tempDir).
		Msg("Rendering PDF pages")

	prefix := filepath.Join(tempDir, "page")
	out, err := p.runner.Run(ctx, "pdftoppm", "-png", "-r", strconv.Itoa(p.dpi), sourcePath, prefix)
	if err != nil {
		result.Cleanup()
		return nil, WrapRasterError(op, ErrRenderFailed, fmt.Sprintf("pdftoppm: %v: %s", err, strings.TrimSpace(string(out))))
	}

	pages, err := collectPages(tempDir)
	if err != nil {
		result.Cleanup()
		return nil, WrapRasterError(op, err, "failed to collect rendered pages")
	}
	if len(pages) == 0 {
		result.Cleanup()
		return nil, WrapRasterError(op, ErrRenderFailed, "pdftoppm produced no page images")
	}

	result.Pages = pages
	return result, nil
}

var pageNumberRe = regexp.MustCompile(`\d+`)

// collectPages lists rendered images in ascending page order. The page
// number is the first run of digits in the filename; filenames without
// digits order as page 0, ties keep directory order.
func collectPages(dir string) ([]Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var pages []Page
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		pages = append(pages, Page{
			Path:   filepath.Join(dir, entry.Name()),
			Number: pageNumber(entry.Name()),
			Owned:  true,
		})
	}

	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].Number < pages[j].Number
	})
	return pages, nil
}

func pageNumber(name string) int {
	m := pageNumberRe.FindString(name)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}
