package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestNewFromEnv_Defaults(t *testing.T) {
	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, language.German, cfg.Translate.SourceLanguage)
	assert.Equal(t, language.Russian, cfg.Translate.TargetLanguage)
	assert.Equal(t, 10, cfg.Translate.Timeout)
	assert.Equal(t, 1.0, cfg.Speech.Rate)
	assert.Equal(t, "f", cfg.Speech.Gender)
	assert.Equal(t, 180, cfg.Speech.ChunkLimit)
	assert.Equal(t, 0.3, cfg.Reader.RefFraction)
	assert.Equal(t, 1500, cfg.Reader.ProgressDebounceMS)
}

func TestNewFromEnv_Overrides(t *testing.T) {
	t.Setenv("READER_SOURCE_LANG", "en")
	t.Setenv("READER_TARGET_LANG", "de")
	t.Setenv("SPEECH_RATE", "1.5")
	t.Setenv("SPEECH_GENDER", "m")
	t.Setenv("DATA_DIR", "/var/lib/reader")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, language.English, cfg.Translate.SourceLanguage)
	assert.Equal(t, language.German, cfg.Translate.TargetLanguage)
	assert.Equal(t, 1.5, cfg.Speech.Rate)
	assert.Equal(t, "m", cfg.Speech.Gender)
	assert.Equal(t, "/var/lib/reader/reader.db", cfg.Storage.DatabasePath())
}

func TestNewFromEnv_InvalidLanguageFallsBack(t *testing.T) {
	t.Setenv("READER_SOURCE_LANG", "not-a-language-!!")

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, language.German, cfg.Translate.SourceLanguage)
}

func TestNewFromEnv_RejectsSameLanguagePair(t *testing.T) {
	t.Setenv("READER_SOURCE_LANG", "ru")
	t.Setenv("READER_TARGET_LANG", "ru")

	_, err := NewFromEnv()
	assert.Error(t, err)
}

func TestNewFromEnv_Options(t *testing.T) {
	cfg, err := NewFromEnv(func(c *Config) {
		c.Speech.Rate = 0.8
	})
	require.NoError(t, err)
	assert.Equal(t, 0.8, cfg.Speech.Rate)
}

func TestValidate_Bounds(t *testing.T) {
	t.Setenv("READER_REF_FRACTION", "1.5")
	_, err := NewFromEnv()
	assert.Error(t, err)
}
