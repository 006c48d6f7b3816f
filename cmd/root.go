package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docverify/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "docverify",
	Short: "docverify - document authenticity verification service",
	Long: `docverify runs the document authenticity verification pipeline:
it rasterizes PDFs, extracts text via OCR, detects stamps, seals and
signatures, parses identity fields and classifies the document per its
declared category.

Run it as an HTTP service with "serve" or verify a single file with
"verify".`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("docverify executed")

		fmt.Println("Welcome to docverify!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
