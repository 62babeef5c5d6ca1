package configuration

import (
	"errors"
	"os"
	"strings"
)

// FacebookConfig is the resolved Graph API credential set for one page.
type FacebookConfig struct {
	AccessToken  string `mapstructure:"access_token"`
	PageID       string `mapstructure:"page_id"`
	GraphVersion string `mapstructure:"graph_version"`
}

// ErrMissingCredentials is returned when neither config nor environment
// yields a usable token/page pair.
var ErrMissingCredentials = errors.New("missing Facebook credentials")

// GetFacebookConfig returns Facebook Graph credentials from the JSON config
// with environment variable fallback. ownerID, when non-empty, overrides the
// configured page id (per-post targeting).
func GetFacebookConfig(ownerID string) (*FacebookConfig, error) {
	cfg := &FacebookConfig{
		AccessToken:  getConfigValue(C.Facebook.AccessToken, "FACEBOOK_ACCESS_TOKEN", ""),
		PageID:       getConfigValue(C.Facebook.PageID, "FACEBOOK_PAGE_ID", ""),
		GraphVersion: getConfigValue(C.Facebook.GraphVersion, "FACEBOOK_GRAPH_VERSION", "v18.0"),
	}
	if ownerID != "" {
		cfg.PageID = ownerID
	}
	if cfg.AccessToken == "" || cfg.PageID == "" {
		return nil, ErrMissingCredentials
	}
	return cfg, nil
}

// getConfigValue prefers the environment, then a non-placeholder config
// value, then the default.
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}
