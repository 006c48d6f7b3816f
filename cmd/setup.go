package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"docverify/internal/config"
	"docverify/internal/marker"
	"docverify/internal/ocr"
	"docverify/internal/pipeline"
	"docverify/internal/raster"
)

// buildPipeline constructs the verification pipeline from config.
// Clients are created once here and injected; nothing reads
// credentials at import time.
func buildPipeline(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pipeline.Pipeline, error) {
	recognizer, err := ocr.NewRecognizer(ctx, ocr.Config{
		Engine:      cfg.OCREngine,
		Languages:   cfg.OCRLanguages,
		ProjectID:   cfg.GoogleCloudProject,
		Location:    cfg.GoogleCloudLocation,
		ProcessorID: cfg.OCRProcessorID,
	})
	if err != nil {
		log.Error().Err(err).Str("engine", cfg.OCREngine).Msg("Failed to create OCR recognizer")
		return nil, fmt.Errorf("failed to create OCR recognizer: %w", err)
	}

	annotator, err := marker.NewVisionAnnotator(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Vision annotator")
		return nil, fmt.Errorf("failed to create Vision annotator: %w", err)
	}

	return pipeline.New(
		raster.New(cfg.RasterDPI),
		recognizer,
		marker.New(annotator),
		pipeline.Config{
			CallTimeout:     cfg.CallTimeout,
			PipelineTimeout: cfg.PipelineTimeout,
			PageWorkers:     cfg.PageWorkers,
		},
	), nil
}
