package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/text/language"

	"github.com/smartreader/reader/pkg/log"
)

// Config holds all application configuration
// Supports environment variables with sensible defaults
//
// Environment Variables:
// Translation Configuration:
// - READER_SOURCE_LANG: book language (default: de)
// - READER_TARGET_LANG: translation language (default: ru)
// - TRANSLATE_ENDPOINT: translation API endpoint (optional, built-in default)
// - TRANSLATE_TIMEOUT: translation request timeout in seconds (default: 10)
// - DICTIONARY_ENDPOINT: phonetics dictionary API endpoint (optional)
//
// Speech Configuration:
// - SPEECH_ENDPOINT: remote speech synthesis endpoint (optional)
// - SPEECH_TIMEOUT: per-chunk speech timeout in seconds (default: 5)
// - SPEECH_RATE: narration rate multiplier (default: 1.0)
// - SPEECH_GENDER: preferred voice gender, m or f (default: f)
// - SPEECH_CHUNK_LIMIT: max characters per speech chunk (default: 180)
//
// Storage Configuration:
// - DATA_DIR: directory for the library database (default: ./data)
//
// Reader Configuration:
// - READER_REF_FRACTION: viewport reference point for pane sync (default: 0.3)
// - READER_PROGRESS_DEBOUNCE_MS: progress write debounce (default: 1500)
// - READER_VIEWPORT_MARGIN: visibility pre-trigger margin in pixels (default: 100)

type Config struct {
	// Translation Configuration
	Translate TranslateConfig `json:"translate"`

	// Speech Configuration
	Speech SpeechConfig `json:"speech"`

	// Storage Configuration
	Storage StorageConfig `json:"storage"`

	// Reader Configuration
	Reader ReaderConfig `json:"reader"`
}

type TranslateConfig struct {
	SourceLanguage     language.Tag `json:"source_language"`
	TargetLanguage     language.Tag `json:"target_language"`
	Endpoint           string       `json:"endpoint"`
	Timeout            int          `json:"timeout"`
	DictionaryEndpoint string       `json:"dictionary_endpoint"`
}

// SpeechConfig holds the configuration for the narration pipeline
type SpeechConfig struct {
	Endpoint   string  `json:"endpoint"`
	Timeout    int     `json:"timeout"`
	Rate       float64 `json:"rate"`
	Gender     string  `json:"gender"`
	ChunkLimit int     `json:"chunk_limit"`
}

// StorageConfig holds the configuration for the library database
type StorageConfig struct {
	DataDir string `json:"data_dir"`
}

// DatabasePath is the sqlite file inside the data directory.
func (c StorageConfig) DatabasePath() string {
	return filepath.Join(c.DataDir, "reader.db")
}

// ReaderConfig holds the configuration for pane synchronization and
// progress persistence
type ReaderConfig struct {
	RefFraction        float64 `json:"ref_fraction"`
	ProgressDebounceMS int     `json:"progress_debounce_ms"`
	ViewportMargin     int     `json:"viewport_margin"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		Translate: TranslateConfig{
			SourceLanguage:     getEnvLanguage("READER_SOURCE_LANG", language.German),
			TargetLanguage:     getEnvLanguage("READER_TARGET_LANG", language.Russian),
			Endpoint:           getEnvString("TRANSLATE_ENDPOINT", ""),
			Timeout:            getEnvInt("TRANSLATE_TIMEOUT", 10),
			DictionaryEndpoint: getEnvString("DICTIONARY_ENDPOINT", ""),
		},
		Speech: SpeechConfig{
			Endpoint:   getEnvString("SPEECH_ENDPOINT", ""),
			Timeout:    getEnvInt("SPEECH_TIMEOUT", 5),
			Rate:       getEnvFloat("SPEECH_RATE", 1.0),
			Gender:     getEnvString("SPEECH_GENDER", "f"),
			ChunkLimit: getEnvInt("SPEECH_CHUNK_LIMIT", 180),
		},
		Storage: StorageConfig{
			DataDir: getEnvString("DATA_DIR", "./data"),
		},
		Reader: ReaderConfig{
			RefFraction:        getEnvFloat("READER_REF_FRACTION", 0.3),
			ProgressDebounceMS: getEnvInt("READER_PROGRESS_DEBOUNCE_MS", 1500),
			ViewportMargin:     getEnvInt("READER_VIEWPORT_MARGIN", 100),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Debug("Config: %+v", config)
	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.Translate.SourceLanguage == c.Translate.TargetLanguage {
		return fmt.Errorf("source and target language must differ")
	}
	if c.Speech.Rate <= 0 {
		return fmt.Errorf("SPEECH_RATE must be positive")
	}
	if c.Speech.Gender != "m" && c.Speech.Gender != "f" {
		return fmt.Errorf("SPEECH_GENDER must be m or f")
	}
	if c.Speech.ChunkLimit <= 0 {
		return fmt.Errorf("SPEECH_CHUNK_LIMIT must be positive")
	}
	if c.Reader.RefFraction <= 0 || c.Reader.RefFraction >= 1 {
		return fmt.Errorf("READER_REF_FRACTION must be between 0 and 1")
	}
	if c.Reader.ProgressDebounceMS < 0 {
		return fmt.Errorf("READER_PROGRESS_DEBOUNCE_MS must not be negative")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvLanguage gets a BCP 47 language tag from environment variables with
// default; unparseable values fall back with a warning.
func getEnvLanguage(key string, defaultValue language.Tag) language.Tag {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	tag, err := language.Parse(value)
	if err != nil {
		log.Warn("invalid language %q in %s, using %s: %v", value, key, defaultValue, err)
		return defaultValue
	}
	return tag
}
