package platform

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ghodss/yaml"
	"github.com/nais/publish/pkg/deployment"
)

const DefaultURLTemplate = "https://{{prefix}}-{{timestamp}}.{{domain}}"

// Duration unmarshals from strings such as "3s" or "1m30s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

type Settings struct {
	Latency     Duration `json:"latency"`
	Prefix      string   `json:"prefix"`
	Domain      string   `json:"domain"`
	URLTemplate string   `json:"urlTemplate"`
}

type Config struct {
	Platforms map[deployment.Platform]Settings `json:"platforms"`
}

func DefaultConfig() Config {
	return Config{
		Platforms: map[deployment.Platform]Settings{
			deployment.PlatformVercel: {
				Latency:     Duration(3 * time.Second),
				Prefix:      "vercel",
				Domain:      "vercel.app",
				URLTemplate: DefaultURLTemplate,
			},
			deployment.PlatformNetlify: {
				Latency:     Duration(4 * time.Second),
				Prefix:      "netlify",
				Domain:      "netlify.app",
				URLTemplate: DefaultURLTemplate,
			},
		},
	}
}

// ParseConfig overlays YAML platform settings onto the defaults.
// Fields left out of the document keep their default values.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	overrides := Config{}

	err := yaml.Unmarshal(data, &overrides)
	if err != nil {
		return cfg, fmt.Errorf("parse platform settings: %w", err)
	}

	for p, override := range overrides.Platforms {
		if _, err := deployment.ParsePlatform(string(p)); err != nil {
			return cfg, err
		}
		settings := cfg.Platforms[p]
		if override.Latency > 0 {
			settings.Latency = override.Latency
		}
		if len(override.Prefix) > 0 {
			settings.Prefix = override.Prefix
		}
		if len(override.Domain) > 0 {
			settings.Domain = override.Domain
		}
		if len(override.URLTemplate) > 0 {
			settings.URLTemplate = override.URLTemplate
		}
		cfg.Platforms[p] = settings
	}

	return cfg, nil
}

func LoadConfig(path string) (Config, error) {
	if len(path) == 0 {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read platform settings: %w", err)
	}

	return ParseConfig(data)
}
