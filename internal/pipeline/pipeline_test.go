package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docverify/internal/raster"
	"docverify/pkg/models"
)

// fakeRasterizer returns a fixed render result.
type fakeRasterizer struct {
	pages []raster.Page
	err   error
}

func (f *fakeRasterizer) Rasterize(_ context.Context, _ string) (*raster.RenderResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &raster.RenderResult{Pages: f.pages}, nil
}

// fakeRecognizer maps page paths to texts or errors.
type fakeRecognizer struct {
	mu    sync.Mutex
	texts map[string]string
	errs  map[string]error
	delay time.Duration
	calls []string
}

func (f *fakeRecognizer) Recognize(ctx context.Context, imagePath string) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, imagePath)
	f.mu.Unlock()
	if err := f.errs[imagePath]; err != nil {
		return "", err
	}
	return f.texts[imagePath], nil
}

// fakeDetector maps page paths to evidence and records calls.
type fakeDetector struct {
	mu       sync.Mutex
	evidence map[string]models.MarkerEvidence
	calls    []string
}

func (f *fakeDetector) DetectPage(_ context.Context, imagePath string) models.MarkerEvidence {
	f.mu.Lock()
	f.calls = append(f.calls, imagePath)
	f.mu.Unlock()
	return f.evidence[imagePath]
}

func newTestPipeline(r raster.PageRasterizer, rec *fakeRecognizer, det *fakeDetector, cfg Config) *Pipeline {
	if cfg.PageWorkers == 0 {
		cfg.PageWorkers = 1
	}
	return New(r, rec, det, cfg)
}

func pagesFor(paths ...string) []raster.Page {
	pages := make([]raster.Page, 0, len(paths))
	for i, p := range paths {
		pages = append(pages, raster.Page{Path: p, Number: i + 1})
	}
	return pages
}

func TestVerifyNoInput(t *testing.T) {
	p := newTestPipeline(&fakeRasterizer{}, &fakeRecognizer{}, &fakeDetector{}, Config{})

	_, err := p.Verify(context.Background(), models.VerificationRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestVerifyRasterizationFailure(t *testing.T) {
	p := newTestPipeline(
		&fakeRasterizer{err: errors.New("pdftoppm exploded")},
		&fakeRecognizer{}, &fakeDetector{}, Config{},
	)

	_, err := p.Verify(context.Background(), models.VerificationRequest{FilePath: "doc.pdf"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRasterization)
}

func TestVerifyConcatenatesPagesInOrder(t *testing.T) {
	rec := &fakeRecognizer{texts: map[string]string{
		"p1.png": "Name: Jane Doe",
		"p2.png": "Registration Number: REG-1",
		"p3.png": "Date of Issue: 2022-01-05",
	}}
	p := newTestPipeline(
		&fakeRasterizer{pages: pagesFor("p1.png", "p2.png", "p3.png")},
		rec, &fakeDetector{}, Config{},
	)

	result, err := p.Verify(context.Background(), models.VerificationRequest{
		FilePath: "doc.pdf",
		Category: "other",
	})
	require.NoError(t, err)

	assert.Equal(t, "Name: Jane Doe\nRegistration Number: REG-1\nDate of Issue: 2022-01-05", result.RawText)
	require.NotNil(t, result.Fields.Name)
	assert.Equal(t, "Jane Doe", *result.Fields.Name)
	assert.Equal(t, 3, result.Fields.MatchCount())
	assert.Equal(t, models.StatusVerified, result.Status)
}

func TestVerifySinglePageFailureDoesNotAbort(t *testing.T) {
	rec := &fakeRecognizer{
		texts: map[string]string{"p1.png": "Name: Jane Doe", "p3.png": "Roll No: 42"},
		errs:  map[string]error{"p2.png": errors.New("unreadable page")},
	}
	p := newTestPipeline(
		&fakeRasterizer{pages: pagesFor("p1.png", "p2.png", "p3.png")},
		rec, &fakeDetector{}, Config{},
	)

	result, err := p.Verify(context.Background(), models.VerificationRequest{FilePath: "doc.pdf"})
	require.NoError(t, err)

	// The corrupted page contributes an empty string; the rest survive.
	assert.Equal(t, "Name: Jane Doe\n\nRoll No: 42", result.RawText)
	require.NotNil(t, result.Fields.Name)
	require.NotNil(t, result.Fields.RegistrationNumber)
}

func TestVerifyFirstMarkerSuccessWins(t *testing.T) {
	det := &fakeDetector{evidence: map[string]models.MarkerEvidence{
		"p2.png": {Verified: true, Keywords: []string{"certified"}},
		"p3.png": {Verified: true, Keywords: []string{"signature"}},
	}}
	p := newTestPipeline(
		&fakeRasterizer{pages: pagesFor("p1.png", "p2.png", "p3.png")},
		&fakeRecognizer{}, det, Config{},
	)

	result, err := p.Verify(context.Background(), models.VerificationRequest{FilePath: "doc.pdf"})
	require.NoError(t, err)

	// Evidence comes from the first successful page only, and
	// detection stops once a page has claimed the marker.
	assert.True(t, result.StampDetected)
	assert.True(t, result.SignatureDetected)
	assert.Equal(t, []string{"certified"}, result.Keywords)
	assert.Equal(t, []string{"p1.png", "p2.png"}, det.calls)
}

func TestVerifyParallelPagesKeepLowestIndexEvidence(t *testing.T) {
	det := &fakeDetector{evidence: map[string]models.MarkerEvidence{
		"p1.png": {Verified: true, Keywords: []string{"official seal"}},
		"p4.png": {Verified: true, Keywords: []string{"stamp"}},
	}}
	rec := &fakeRecognizer{texts: map[string]string{
		"p1.png": "one", "p2.png": "two", "p3.png": "three", "p4.png": "four",
	}}
	p := newTestPipeline(
		&fakeRasterizer{pages: pagesFor("p1.png", "p2.png", "p3.png", "p4.png")},
		rec, det, Config{PageWorkers: 4},
	)

	result, err := p.Verify(context.Background(), models.VerificationRequest{FilePath: "doc.pdf"})
	require.NoError(t, err)

	// Scheduling decides which verified page claims the marker, but
	// exactly one page's evidence survives and concatenation order
	// never changes.
	assert.Equal(t, "one\ntwo\nthree\nfour", result.RawText)
	assert.True(t, result.StampDetected)
	require.Len(t, result.Keywords, 1)
	assert.Contains(t, []string{"official seal", "stamp"}, result.Keywords[0])
}

func TestVerifyRemovesOwnedPages(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "page-1.png")
	p2 := filepath.Join(dir, "page-2.png")
	require.NoError(t, os.WriteFile(p1, []byte("img"), 0644))
	require.NoError(t, os.WriteFile(p2, []byte("img"), 0644))

	pages := []raster.Page{
		{Path: p1, Number: 1, Owned: true},
		{Path: p2, Number: 2, Owned: true},
	}
	p := newTestPipeline(&fakeRasterizer{pages: pages}, &fakeRecognizer{}, &fakeDetector{}, Config{})

	_, err := p.Verify(context.Background(), models.VerificationRequest{FilePath: "doc.pdf"})
	require.NoError(t, err)

	_, err1 := os.Stat(p1)
	_, err2 := os.Stat(p2)
	assert.True(t, os.IsNotExist(err1))
	assert.True(t, os.IsNotExist(err2))
}

func TestVerifyKeepsCallerOwnedInput(t *testing.T) {
	dir := t.TempDir()
	upload := filepath.Join(dir, "upload.png")
	require.NoError(t, os.WriteFile(upload, []byte("img"), 0644))

	pages := []raster.Page{{Path: upload, Number: 1}}
	p := newTestPipeline(&fakeRasterizer{pages: pages}, &fakeRecognizer{}, &fakeDetector{}, Config{})

	_, err := p.Verify(context.Background(), models.VerificationRequest{FilePath: upload})
	require.NoError(t, err)

	_, statErr := os.Stat(upload)
	assert.NoError(t, statErr)
}

func TestVerifyDownload(t *testing.T) {
	t.Run("fetches and removes the temp file", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("fake image bytes"))
		}))
		defer srv.Close()

		var seen string
		fr := &captureRasterizer{}
		p := newTestPipeline(fr, &fakeRecognizer{}, &fakeDetector{}, Config{})

		_, err := p.Verify(context.Background(), models.VerificationRequest{URL: srv.URL + "/doc.png"})
		require.NoError(t, err)

		seen = fr.sourcePath
		require.NotEmpty(t, seen)
		assert.Equal(t, ".png", filepath.Ext(seen))

		_, statErr := os.Stat(seen)
		assert.True(t, os.IsNotExist(statErr), "downloaded temp file should be removed")
	})

	t.Run("server error surfaces as download failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusInternalServerError)
		}))
		defer srv.Close()

		p := newTestPipeline(&fakeRasterizer{}, &fakeRecognizer{}, &fakeDetector{}, Config{})
		_, err := p.Verify(context.Background(), models.VerificationRequest{URL: srv.URL + "/doc.png"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDownload)
	})
}

// captureRasterizer records the source path it was handed.
type captureRasterizer struct {
	sourcePath string
}

func (c *captureRasterizer) Rasterize(_ context.Context, sourcePath string) (*raster.RenderResult, error) {
	c.sourcePath = sourcePath
	return &raster.RenderResult{Pages: []raster.Page{{Path: sourcePath, Number: 1}}}, nil
}

func TestVerifyPipelineTimeout(t *testing.T) {
	rec := &fakeRecognizer{delay: 200 * time.Millisecond}
	p := newTestPipeline(
		&fakeRasterizer{pages: pagesFor("p1.png")},
		rec, &fakeDetector{}, Config{PipelineTimeout: 20 * time.Millisecond},
	)

	_, err := p.Verify(context.Background(), models.VerificationRequest{FilePath: "doc.png"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestVerifyEmptyTextScoresMarkerPointsOnly(t *testing.T) {
	det := &fakeDetector{evidence: map[string]models.MarkerEvidence{
		"p1.png": {
			Verified: true,
			Keywords: []string{"official seal"},
			Objects:  []models.DetectedObject{{Name: "Seal", Confidence: "80.0%"}},
		},
	}}
	p := newTestPipeline(
		&fakeRasterizer{pages: pagesFor("p1.png")},
		&fakeRecognizer{}, det, Config{},
	)

	result, err := p.Verify(context.Background(), models.VerificationRequest{
		FilePath: "doc.png",
		Category: "degree",
	})
	require.NoError(t, err)

	assert.Nil(t, result.Fields.Name)
	assert.Nil(t, result.Fields.Institution)
	assert.Nil(t, result.Fields.DateOfIssue)
	assert.Nil(t, result.Fields.RegistrationNumber)
	// +10 stamp, +10 signature (strict category), +5 keyword, +5 object.
	assert.Equal(t, 30, result.Score)
	assert.Equal(t, models.StatusVerified, result.Status)
}

func TestVerifyCertificateStampOnlyIsImpossibleWithSharedFlag(t *testing.T) {
	// The detector produces one shared flag, so stamp and signature
	// always agree at the pipeline level; certificate inputs therefore
	// classify as verified or failed, never partial.
	p := newTestPipeline(
		&fakeRasterizer{pages: pagesFor("p1.png")},
		&fakeRecognizer{}, &fakeDetector{}, Config{},
	)

	result, err := p.Verify(context.Background(), models.VerificationRequest{
		FilePath: "doc.png",
		Category: "certificate",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, result.Status)
	assert.False(t, result.StampDetected)
	assert.False(t, result.SignatureDetected)
}
