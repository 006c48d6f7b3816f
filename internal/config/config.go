package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"docverify/internal/logger"
)

type Config struct {
	// HTTP Server Configuration
	Port string

	// Google Cloud Configuration
	GoogleCloudProject  string
	GoogleCloudLocation string
	OCRProcessorID      string

	// Pipeline Configuration
	OCREngine       string // tesseract, vision, documentai
	OCRLanguages    string // comma-separated tesseract language codes
	RasterDPI       int
	PageWorkers     int
	CallTimeout     time.Duration
	PipelineTimeout time.Duration

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		Port:                getEnv("PORT", "8080"),
		GoogleCloudProject:  getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation: getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		OCRProcessorID:      getEnv("OCR_PROCESSOR_ID", ""),
		OCREngine:           getEnv("OCR_ENGINE", "tesseract"),
		OCRLanguages:        getEnv("OCR_LANGUAGES", "eng"),
		RasterDPI:           getEnvInt("RASTER_DPI", 200),
		PageWorkers:         getEnvInt("PAGE_WORKERS", 1),
		CallTimeout:         getEnvDuration("CALL_TIMEOUT", 30*time.Second),
		PipelineTimeout:     getEnvDuration("PIPELINE_TIMEOUT", 5*time.Minute),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:       getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:           getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.OCREngine {
	case "tesseract", "vision", "documentai":
	default:
		return fmt.Errorf("OCR_ENGINE must be one of tesseract, vision, documentai (got %q)", c.OCREngine)
	}
	if c.OCREngine == "documentai" && c.OCRProcessorID == "" {
		return fmt.Errorf("OCR_PROCESSOR_ID is required when OCR_ENGINE is documentai")
	}
	if c.RasterDPI < 72 || c.RasterDPI > 600 {
		return fmt.Errorf("RASTER_DPI must be between 72 and 600 (got %d)", c.RasterDPI)
	}
	if c.PageWorkers < 1 {
		return fmt.Errorf("PAGE_WORKERS must be at least 1 (got %d)", c.PageWorkers)
	}
	if c.CallTimeout <= 0 || c.PipelineTimeout <= 0 {
		return fmt.Errorf("CALL_TIMEOUT and PIPELINE_TIMEOUT must be positive")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
