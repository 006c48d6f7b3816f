package raster

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRasterizePassthrough(t *testing.T) {
	r := New(200)

	for _, path := range []string{"photo.jpg", "scan.PNG", "upload.webp", "no-extension"} {
		t.Run(path, func(t *testing.T) {
			result, err := r.Rasterize(context.Background(), path)
			require.NoError(t, err)
			require.Len(t, result.Pages, 1)
			assert.Equal(t, path, result.Pages[0].Path)
			assert.Equal(t, 1, result.Pages[0].Number)
			assert.False(t, result.Pages[0].Owned)

			// Cleanup on a passthrough result is a no-op.
			result.Cleanup()
		})
	}
}

func TestRasterizeRejectsBrokenPDF(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(broken, []byte("not a pdf at all"), 0644))

	r := New(200)
	_, err := r.Rasterize(context.Background(), broken)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPDF)
}

func TestPageNumber(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		expected int
	}{
		{name: "simple suffix", filename: "page-3.png", expected: 3},
		{name: "zero padded", filename: "page-07.png", expected: 7},
		{name: "first digit run wins", filename: "doc2-page-9.png", expected: 2},
		{name: "no digits", filename: "page.png", expected: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, pageNumber(tc.filename))
		})
	}
}

func TestCollectPagesOrdering(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"page-10.png", "page-2.png", "cover.png", "page-1.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("img"), 0644))
	}

	pages, err := collectPages(dir)
	require.NoError(t, err)
	require.Len(t, pages, 4)

	// Ascending numeric order; the file without digits sorts as page 0.
	names := make([]string, 0, len(pages))
	for _, p := range pages {
		names = append(names, filepath.Base(p.Path))
		assert.True(t, p.Owned)
	}
	assert.Equal(t, []string{"cover.png", "page-1.png", "page-2.png", "page-10.png"}, names)
}

func TestRenderResultCleanup(t *testing.T) {
	dir, err := os.MkdirTemp("", "raster-cleanup-*")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page-1.png"), []byte("img"), 0644))

	result := &RenderResult{tempDir: dir}
	result.Cleanup()

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))

	// Second call is harmless.
	result.Cleanup()
}
