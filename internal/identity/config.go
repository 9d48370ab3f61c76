package identity

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	DefaultIdentityURL = "https://identitytoolkit.googleapis.com"
	DefaultTokenURL    = "https://securetoken.googleapis.com"
)

// Config is the identity provider configuration supplied by the environment
// (IDENTITY_CONFIG), in the shape web SDKs use.
type Config struct {
	APIKey     string `json:"apiKey"`
	AuthDomain string `json:"authDomain,omitempty"`
	ProjectID  string `json:"projectId,omitempty"`
	AppID      string `json:"appId,omitempty"`

	keys int
}

// ParseConfig decodes a JSON object. An empty string or "{}" yields an empty config.
func ParseConfig(raw string) (Config, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Config{}, nil
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Config{}, fmt.Errorf("invalid identity config: %w", err)
	}
	var c Config
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Config{}, fmt.Errorf("invalid identity config: %w", err)
	}
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.keys = len(fields)
	return c, nil
}

// Empty is true when no configuration keys were provided at all; the client
// then runs with a local simulated session only.
func (c Config) Empty() bool {
	return c.keys == 0 && c.APIKey == ""
}
