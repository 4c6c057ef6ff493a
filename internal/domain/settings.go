package domain

import (
	"context"
	"strings"
)

// Settings is a snapshot of the persisted user settings the dispatch layer reads.
// Field names follow the persisted schema: apiKeys, settings, currentModel,
// modelVariant, customConfig.
type Settings struct {
	// APIKeys maps provider id to its API key.
	APIKeys map[string]string `json:"apiKeys,omitempty" mapstructure:"apikeys"`

	// Settings holds generation and per-provider endpoint settings.
	Settings UserSettings `json:"settings" mapstructure:"settings"`

	// CurrentModel is the selected provider id.
	CurrentModel ProviderID `json:"currentModel" mapstructure:"currentmodel"`

	// ModelVariant is the selected model name within the provider.
	ModelVariant string `json:"modelVariant,omitempty" mapstructure:"modelvariant"`

	// CustomConfig holds the custom provider request template and response path.
	CustomConfig CustomExtension `json:"customConfig" mapstructure:"customconfig"`
}

// UserSettings holds the nested "settings" object.
type UserSettings struct {
	APIConfig      map[string]APIConfig `json:"apiConfig,omitempty" mapstructure:"apiconfig"`
	PromptTemplate string               `json:"promptTemplate,omitempty" mapstructure:"prompttemplate"`

	// Temperature is nil when unset so that 0 stays a valid choice.
	Temperature *float64 `json:"temperature,omitempty" mapstructure:"temperature"`

	// MaxLength is the max tokens budget for optimize calls.
	MaxLength int `json:"maxLength" mapstructure:"maxlength"`
}

// APIConfig overrides a provider's endpoint and model.
type APIConfig struct {
	URL   string `json:"url" mapstructure:"url"`
	Model string `json:"model" mapstructure:"model"`
}

// Provider returns the selected provider, defaulting to grok.
func (s Settings) Provider() ProviderID {
	if s.CurrentModel == "" {
		return ProviderGrok
	}
	return ProviderID(strings.ToLower(string(s.CurrentModel)))
}

// APIKey returns the trimmed key for a provider.
func (s Settings) APIKey(id ProviderID) string {
	return strings.TrimSpace(s.APIKeys[string(id)])
}

// APIConfigFor returns the endpoint override for a provider, if any.
func (s Settings) APIConfigFor(id ProviderID) APIConfig {
	if s.Settings.APIConfig == nil {
		return APIConfig{}
	}
	return s.Settings.APIConfig[string(id)]
}

// SettingsPatch is a partial update; nil fields are left untouched.
type SettingsPatch struct {
	CurrentModel   *ProviderID
	ModelVariant   *string
	APIKeys        map[string]string
	PromptTemplate *string
	Temperature    *float64
	MaxLength      *int
	CustomConfig   *CustomExtension
}

// SettingsProvider is the persisted key/value settings store.
// Writes are last-write-wins.
type SettingsProvider interface {
	Get(ctx context.Context) (Settings, error)
	Set(ctx context.Context, patch SettingsPatch) error
}
