package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
)

// download fetches a URL-referenced document into a temp file,
// preserving the URL path's extension so PDF URLs rasterize. The
// caller owns the returned path and removes it after the run.
func (p *Pipeline) download(ctx context.Context, rawURL string) (string, error) {
	const op = "download"

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", WrapPipelineError(op, ErrDownload, fmt.Sprintf("invalid URL %q: %v", rawURL, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", WrapPipelineError(op, ErrDownload, err.Error())
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", WrapPipelineError(op, ErrDownload, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", WrapPipelineError(op, ErrDownload, fmt.Sprintf("unexpected status %s", resp.Status))
	}

	ext := path.Ext(parsed.Path)
	if ext == "" {
		ext = ".png"
	}

	f, err := os.CreateTemp("", "docverify-download-*"+ext)
	if err != nil {
		return "", WrapPipelineError(op, ErrDownload, "failed to create temp file: "+err.Error())
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		p.removeFile(f.Name())
		return "", WrapPipelineError(op, ErrDownload, "failed to write download: "+err.Error())
	}
	if err := f.Close(); err != nil {
		p.removeFile(f.Name())
		return "", WrapPipelineError(op, ErrDownload, "failed to close download: "+err.Error())
	}

	return f.Name(), nil
}

// removeFile deletes a scoped temp file, logging and swallowing failures.
func (p *Pipeline) removeFile(filePath string) {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		p.log.Warn().
			Err(err).
			Str("file", filePath).
			Msg("Failed to remove temp file")
	}
}
