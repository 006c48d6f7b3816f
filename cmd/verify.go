package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"docverify/internal/config"
	"docverify/internal/logger"
	"docverify/internal/pipeline"
	"docverify/internal/server"
	"docverify/pkg/models"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [document-file]",
	Short: "Verify the authenticity of a document file",
	Long: `Run the verification pipeline against a single document.

PDF input is rasterized page by page; image input is processed
directly. The pipeline extracts text via OCR, scans for stamps, seals
and signatures, parses identity fields and classifies the document
according to its category.

Required environment variables for the cloud-backed stages:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string`,
	Example: `  # Verify a degree certificate
  docverify verify diploma.pdf --category degree

  # Verify an ID card photo and save the JSON result
  docverify verify id-card.jpg --category id_card --json -o result.json

  # Verify with a custom timeout
  docverify verify transcript.pdf --category transcript --timeout 600`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringP("category", "c", "other", "Document category (degree, certificate, transcript, ...)")
	verifyCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	verifyCmd.Flags().Bool("json", false, "Output as JSON")
	verifyCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runVerify(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("verify")

	category, _ := cmd.Flags().GetString("category")
	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	documentPath := args[0]

	log.Info().
		Str("file", documentPath).
		Str("category", category).
		Bool("json", jsonOutput).
		Int("timeout", timeoutSecs).
		Msg("Starting document verification")

	if err := validateInputFile(documentPath, log); err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	pipe, err := buildPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}

	startTime := time.Now()
	result, err := pipe.Verify(ctx, models.VerificationRequest{
		FilePath: documentPath,
		Category: category,
	})
	if err != nil {
		return handleVerifyError(err, log)
	}

	log.Info().
		Str("status", string(result.Status)).
		Int("score", result.Score).
		Dur("duration", time.Since(startTime)).
		Msg("Verification completed successfully")

	return outputVerifyResult(result, outputPath, jsonOutput, log)
}

// validateInputFile checks that the document exists and is readable.
func validateInputFile(documentPath string, log zerolog.Logger) error {
	fileInfo, err := os.Stat(documentPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().
				Str("file", documentPath).
				Msg("Document file not found")
			return fmt.Errorf("document file not found: %s", documentPath)
		}
		if os.IsPermission(err) {
			log.Error().
				Str("file", documentPath).
				Msg("Permission denied accessing document file")
			return fmt.Errorf("permission denied accessing document file: %s", documentPath)
		}
		return fmt.Errorf("error accessing document file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		log.Error().
			Str("file", documentPath).
			Msg("Path is not a regular file")
		return fmt.Errorf("path is not a regular file: %s", documentPath)
	}

	if fileInfo.Size() == 0 {
		log.Error().
			Str("file", documentPath).
			Msg("Document file is empty")
		return fmt.Errorf("document file is empty: %s", documentPath)
	}

	return nil
}

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling verification")
			cancel()
		case <-ctx.Done():
			// Context completed normally
		}
	}()

	return ctx, cancel
}

// handleVerifyError provides user-friendly error messages for pipeline failures
func handleVerifyError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Verification failed")

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, pipeline.ErrTimeout):
		return fmt.Errorf("verification timed out. Try increasing --timeout or processing a smaller file")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("verification was canceled")
	case errors.Is(err, pipeline.ErrNoInput):
		return fmt.Errorf("no document supplied")
	case errors.Is(err, pipeline.ErrRasterization):
		return fmt.Errorf("could not rasterize the PDF. Check that the file is a valid PDF and that pdftoppm (poppler-utils) is installed: %w", err)
	case errors.Is(err, pipeline.ErrDownload):
		return fmt.Errorf("could not download the document: %w", err)
	default:
		return fmt.Errorf("verification failed: %w", err)
	}
}

// outputVerifyResult formats and writes the verification result.
func outputVerifyResult(result *models.VerificationResult, outputPath string, jsonOutput bool, log zerolog.Logger) error {
	var outputData []byte
	var err error

	if jsonOutput {
		// Same shape the HTTP endpoint serves.
		outputData, err = json.MarshalIndent(server.ToResponse(result), "", "  ")
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal JSON output")
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
	} else {
		resp := server.ToResponse(result)
		var output strings.Builder
		output.WriteString("=== Verification Result ===\n")
		output.WriteString(fmt.Sprintf("Status: %s\n", resp.Status))
		output.WriteString(fmt.Sprintf("Score: %s\n", resp.Score))
		output.WriteString(fmt.Sprintf("Result: %s\n", resp.Result))
		output.WriteString(fmt.Sprintf("Stamp: %s\n", resp.Stamp))
		output.WriteString(fmt.Sprintf("Signature: %s\n", resp.Signature))
		output.WriteString("\n=== Extracted Fields ===\n")
		output.WriteString(fmt.Sprintf("Name: %s\n", resp.Extracted.Name))
		output.WriteString(fmt.Sprintf("Institution: %s\n", resp.Extracted.Institution))
		output.WriteString(fmt.Sprintf("Date of Issue: %s\n", resp.Extracted.DateOfIssue))
		output.WriteString(fmt.Sprintf("Registration Number: %s\n", resp.Extracted.RegistrationNumber))
		if len(resp.Keywords) > 0 {
			output.WriteString(fmt.Sprintf("\nKeywords: %s\n", strings.Join(resp.Keywords, ", ")))
		}
		if len(resp.MissingFields) > 0 {
			output.WriteString(fmt.Sprintf("Missing: %s\n", strings.Join(resp.MissingFields, ", ")))
		}
		outputData = []byte(output.String())
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, outputData, 0644); err != nil {
			log.Error().
				Err(err).
				Str("output_file", outputPath).
				Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}

		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(outputData)).
			Msg("Verification result written to file")
		return nil
	}

	if _, err := os.Stdout.Write(outputData); err != nil {
		log.Error().Err(err).Msg("Failed to write to stdout")
		return fmt.Errorf("failed to write output: %w", err)
	}
	if !jsonOutput {
		fmt.Println()
	}
	return nil
}
