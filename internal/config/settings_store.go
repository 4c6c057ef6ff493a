package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hpn/hpn-text-optimizer/internal/domain"
	"github.com/spf13/viper"
)

// Install defaults for a fresh settings store. No model variant is installed:
// an empty variant resolves to the selected provider's default model.
const (
	DefaultProvider    = domain.ProviderGrok
	DefaultTemperature = 0.7
	DefaultMaxLength   = 1000
)

// knownProviders are the ids whose keys may come from the environment.
var knownProviders = []domain.ProviderID{
	domain.ProviderGrok,
	domain.ProviderClaude,
	domain.ProviderGemini,
	domain.ProviderCustom,
}

// SettingsStore persists user settings in a JSON file through viper.
// API keys may also be supplied as TEXTOPT_<PROVIDER>_API_KEY; those take
// priority over the file and are never written back to it.
type SettingsStore struct {
	mu     sync.RWMutex
	path   string
	file   *viper.Viper
	env    *viper.Viper
	logger *slog.Logger
}

// SettingsOption is a functional option for configuring SettingsStore.
type SettingsOption func(*SettingsStore)

// WithSettingsLogger sets a custom logger.
func WithSettingsLogger(logger *slog.Logger) SettingsOption {
	return func(s *SettingsStore) {
		s.logger = logger
	}
}

// NewSettingsStore opens the settings file at path. A missing file is not an
// error: the store starts from install defaults and creates it on first Set.
func NewSettingsStore(path string, opts ...SettingsOption) (*SettingsStore, error) {
	s := &SettingsStore{
		path:   path,
		file:   viper.New(),
		env:    viper.New(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.file.SetConfigFile(path)
	s.file.SetConfigType("json")
	s.file.SetDefault("currentmodel", string(DefaultProvider))
	s.file.SetDefault("settings.temperature", DefaultTemperature)
	s.file.SetDefault("settings.maxlength", DefaultMaxLength)

	s.env.SetEnvPrefix(envPrefix)
	s.env.AutomaticEnv()

	if err := s.file.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, &ConfigError{Op: "load", Err: fmt.Errorf("failed to read settings %s: %w", path, err)}
		}
		s.logger.Info("settings file not found, using install defaults", slog.String("path", path))
	}

	return s, nil
}

// Path returns the backing file path.
func (s *SettingsStore) Path() string {
	return s.path
}

// Get returns the current settings snapshot.
func (s *SettingsStore) Get(_ context.Context) (domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out, err := s.fileSnapshot()
	if err != nil {
		return domain.Settings{}, err
	}

	for _, id := range knownProviders {
		key := strings.TrimSpace(s.env.GetString(string(id) + "_api_key"))
		if key == "" {
			continue
		}
		if out.APIKeys == nil {
			out.APIKeys = make(map[string]string)
		}
		out.APIKeys[string(id)] = key
	}

	return out, nil
}

// Set applies patch and writes the file with the persisted camelCase schema.
// Writes are last-write-wins.
func (s *SettingsStore) Set(_ context.Context, patch domain.SettingsPatch) error {
	if err := validatePatch(patch); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.fileSnapshot()
	if err != nil {
		return err
	}
	applyPatch(&current, patch)

	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return &ConfigError{Op: "save", Err: fmt.Errorf("failed to encode settings: %w", err)}
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &ConfigError{Op: "save", Err: fmt.Errorf("failed to create settings dir %s: %w", dir, err)}
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return &ConfigError{Op: "save", Err: fmt.Errorf("failed to write settings %s: %w", s.path, err)}
	}
	if err := s.file.ReadConfig(bytes.NewReader(data)); err != nil {
		return &ConfigError{Op: "load", Err: fmt.Errorf("failed to reload settings: %w", err)}
	}

	s.logger.Debug("settings saved", slog.String("path", s.path))
	return nil
}

// fileSnapshot decodes the file layer only; environment keys are not included.
func (s *SettingsStore) fileSnapshot() (domain.Settings, error) {
	var out domain.Settings
	if err := s.file.Unmarshal(&out); err != nil {
		return domain.Settings{}, &ConfigError{Op: "load", Err: fmt.Errorf("failed to decode settings: %w", err)}
	}
	return out, nil
}

func applyPatch(dst *domain.Settings, patch domain.SettingsPatch) {
	if patch.CurrentModel != nil {
		dst.CurrentModel = domain.ProviderID(strings.ToLower(string(*patch.CurrentModel)))
	}
	if patch.ModelVariant != nil {
		dst.ModelVariant = *patch.ModelVariant
	}
	for id, key := range patch.APIKeys {
		if dst.APIKeys == nil {
			dst.APIKeys = make(map[string]string)
		}
		dst.APIKeys[strings.ToLower(id)] = strings.TrimSpace(key)
	}
	if patch.PromptTemplate != nil {
		dst.Settings.PromptTemplate = *patch.PromptTemplate
	}
	if patch.Temperature != nil {
		t := *patch.Temperature
		dst.Settings.Temperature = &t
	}
	if patch.MaxLength != nil {
		dst.Settings.MaxLength = *patch.MaxLength
	}
	if patch.CustomConfig != nil {
		dst.CustomConfig = *patch.CustomConfig
	}
}

// validatePatch rejects out-of-range generation settings before anything is written.
func validatePatch(patch domain.SettingsPatch) error {
	if patch.Temperature != nil && (*patch.Temperature < 0 || *patch.Temperature > 2) {
		return &InvalidSettingError{Key: "settings.temperature", Value: *patch.Temperature, Reason: "must be between 0.0 and 2.0"}
	}
	if patch.MaxLength != nil && *patch.MaxLength <= 0 {
		return &InvalidSettingError{Key: "settings.maxLength", Value: *patch.MaxLength, Reason: "must be positive"}
	}
	return nil
}
