// Package server exposes the verification pipeline over HTTP.
//
// One synchronous endpoint, POST /extract-text, accepts either a
// multipart file upload (field "image") or a JSON body referencing a
// URL. Internal absence of a field becomes the "Not Found" sentinel
// only here, at the serialization boundary.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"docverify/internal/logger"
	"docverify/internal/pipeline"
	"docverify/pkg/models"
)

// maxUploadBytes caps both the multipart memory and the JSON body.
const maxUploadBytes = 50 << 20

// Verifier runs one verification request.
type Verifier interface {
	Verify(ctx context.Context, req models.VerificationRequest) (*models.VerificationResult, error)
}

// Handler serves the verification endpoints.
type Handler struct {
	verifier Verifier
	log      zerolog.Logger
}

// NewHandler creates a Handler around a verifier.
func NewHandler(verifier Verifier) *Handler {
	return &Handler{
		verifier: verifier,
		log:      logger.WithComponent("server"),
	}
}

// urlRequest is the JSON body alternative to a multipart upload.
type urlRequest struct {
	URL      string `json:"url"`
	Category string `json:"category"`
}

// ExtractTextHandler handles POST /extract-text.
func (h *Handler) ExtractTextHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := uuid.New().String()
	log := logger.WithRequestID(requestID)

	req, cleanup, err := h.parseRequest(r)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		log.Warn().Err(err).Msg("Rejecting request without document input")
		respondError(w, pipeline.ErrNoInput.Error(), http.StatusBadRequest)
		return
	}

	log.Info().
		Str("category", req.Category).
		Bool("from_url", req.URL != "").
		Msg("Starting document verification")

	result, err := h.verifier.Verify(r.Context(), *req)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoInput) {
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Msg("Verification failed")
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("status", string(result.Status)).
		Int("score", result.Score).
		Msg("Document verification completed")

	respondJSON(w, ToResponse(result), http.StatusOK)
}

// HealthHandler handles GET /health.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// parseRequest resolves the document source from either a multipart
// upload or a JSON URL body. Uploaded files are spooled to a temp file
// the returned cleanup removes.
func (h *Handler) parseRequest(r *http.Request) (*models.VerificationRequest, func(), error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, nil, err
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			return nil, nil, err
		}
		defer file.Close()

		tempPath, err := spoolUpload(file, header.Filename)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
				h.log.Warn().Err(err).Str("file", tempPath).Msg("Failed to remove uploaded temp file")
			}
		}
		return &models.VerificationRequest{
			FilePath: tempPath,
			Category: r.FormValue("category"),
		}, cleanup, nil
	}

	var body urlRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&body); err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(body.URL) == "" {
		return nil, nil, pipeline.ErrNoInput
	}
	return &models.VerificationRequest{
		URL:      body.URL,
		Category: body.Category,
	}, nil, nil
}

// spoolUpload writes an uploaded file to a temp path, keeping the
// original extension so PDFs rasterize.
func spoolUpload(file multipart.File, filename string) (string, error) {
	ext := filepath.Ext(filename)
	f, err := os.CreateTemp("", "docverify-upload-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, file); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}
