package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	SinkFile   = "file"
	SinkSQLite = "sqlite"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Corpus locations
	InputDir       string
	OutputDir      string
	Sink           string
	SQLitePath     string
	VocabularyPath string

	// Worker pool
	WorkerCount          int
	MaxQueueSize         int
	MaxConcurrentExtract int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Logging
	LogLevel  string
	LogFormat string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8090")
	v.SetDefault("input_dir", "ocr_results")
	v.SetDefault("output_dir", "recipes_structured")
	v.SetDefault("sink", SinkFile)
	v.SetDefault("sqlite_path", "recipes.db")
	v.SetDefault("worker_count", 4)
	v.SetDefault("max_queue_size", 100)
	v.SetDefault("max_concurrent_extract", 8)
	v.SetDefault("max_upload_bytes", 52428800) // 50MB
	v.SetDefault("job_ttl", time.Hour)
	v.SetDefault("pdf_fallback_pdftotext", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

// Load reads an optional .env file, an optional config file named by
// RECIPEGEST_CONFIG, and the environment, in increasing precedence.
func Load() (Config, error) {
	// Missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	for _, key := range []string{"recipegest_api_key", "vocabulary_path"} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, err
		}
	}

	if path := os.Getenv("RECIPEGEST_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := Config{
		Port: v.GetString("port"),

		APIKey: v.GetString("recipegest_api_key"),

		InputDir:       v.GetString("input_dir"),
		OutputDir:      v.GetString("output_dir"),
		Sink:           v.GetString("sink"),
		SQLitePath:     v.GetString("sqlite_path"),
		VocabularyPath: v.GetString("vocabulary_path"),

		WorkerCount:          v.GetInt("worker_count"),
		MaxQueueSize:         v.GetInt("max_queue_size"),
		MaxConcurrentExtract: v.GetInt("max_concurrent_extract"),

		MaxUploadBytes: v.GetInt64("max_upload_bytes"),

		JobTTL: v.GetDuration("job_ttl"),

		PDFFallbackPdftotext: v.GetBool("pdf_fallback_pdftotext"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentExtract <= 0 {
		cfg.MaxConcurrentExtract = 8
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg, nil
}

// Validate checks settings shared by the CLI and the server.
func (c Config) Validate() error {
	switch c.Sink {
	case SinkFile:
		if c.OutputDir == "" {
			return fmt.Errorf("OUTPUT_DIR is required for the file sink")
		}
	case SinkSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite sink")
		}
	default:
		return fmt.Errorf("SINK must be %q or %q, got %q", SinkFile, SinkSQLite, c.Sink)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return nil
}

// ValidateServer additionally requires the API key.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("RECIPEGEST_API_KEY is required")
	}
	return nil
}
