package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/smartreader/reader/internal/narrate"
)

const DefaultSettingsFile = "settings.yaml"

// Settings are the user-adjustable narration preferences, persisted as a
// YAML file in the data directory. Voice profiles declared here extend or
// override the built-in ones.
type Settings struct {
	Rate   float64               `yaml:"rate"`
	Gender string                `yaml:"gender"`
	Voices narrate.VoiceProfiles `yaml:"voices"`
}

func DefaultSettings() Settings {
	return Settings{
		Rate:   1.0,
		Gender: "f",
		Voices: narrate.VoiceProfiles{},
	}
}

func SettingsFilePath(dataDir string) string {
	return filepath.Join(dataDir, getEnvString("SETTINGS_FILE", DefaultSettingsFile))
}

func (s Settings) Validate() error {
	if s.Rate <= 0 {
		return fmt.Errorf("rate must be positive")
	}
	if s.Gender != "m" && s.Gender != "f" {
		return fmt.Errorf("gender must be m or f")
	}
	return nil
}

// VoiceProfiles merges user-declared voice keywords over the built-in
// profiles.
func (s Settings) VoiceProfiles() narrate.VoiceProfiles {
	profiles := narrate.DefaultVoiceProfiles()
	for code, keywords := range s.Voices {
		profiles[strings.ToLower(code)] = keywords
	}
	return profiles
}

// LoadSettingsFile reads a settings file; a missing file yields the
// defaults rather than an error.
func LoadSettingsFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, err
	}
	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("invalid settings file: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func WriteSettingsFile(path string, settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	content, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// SettingsStore keeps the current settings in memory and writes every
// update through to disk.
type SettingsStore struct {
	path string

	mu      sync.RWMutex
	current Settings
}

func NewSettingsStore(path string, initial Settings) (*SettingsStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("settings file path is required")
	}
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	return &SettingsStore{
		path:    path,
		current: initial,
	}, nil
}

func (s *SettingsStore) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *SettingsStore) Update(next Settings) (Settings, error) {
	if err := next.Validate(); err != nil {
		return Settings{}, err
	}
	if err := WriteSettingsFile(s.path, next); err != nil {
		return Settings{}, err
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	return next, nil
}
