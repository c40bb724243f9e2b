package platform_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nais/publish/pkg/deployment"
	"github.com/nais/publish/pkg/publishd/platform"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := platform.DefaultConfig()
	assert.Equal(t, platform.Duration(3*time.Second), cfg.Platforms[deployment.PlatformVercel].Latency)
	assert.Equal(t, platform.Duration(4*time.Second), cfg.Platforms[deployment.PlatformNetlify].Latency)
}

func TestParseConfig(t *testing.T) {
	doc := `
platforms:
  vercel:
    latency: 150ms
    domain: preview.example.com
  netlify:
    urlTemplate: "https://{{project}}.{{domain}}"
`
	cfg, err := platform.ParseConfig([]byte(doc))
	assert.NoError(t, err)

	vercel := cfg.Platforms[deployment.PlatformVercel]
	assert.Equal(t, platform.Duration(150*time.Millisecond), vercel.Latency)
	assert.Equal(t, "preview.example.com", vercel.Domain)
	assert.Equal(t, "vercel", vercel.Prefix)
	assert.Equal(t, platform.DefaultURLTemplate, vercel.URLTemplate)

	netlify := cfg.Platforms[deployment.PlatformNetlify]
	assert.Equal(t, platform.Duration(4*time.Second), netlify.Latency)
	assert.Equal(t, "https://{{project}}.{{domain}}", netlify.URLTemplate)
}

func TestParseConfig_Errors(t *testing.T) {
	_, err := platform.ParseConfig([]byte("platforms:\n  heroku:\n    latency: 1s\n"))
	assert.EqualError(t, err, "platform 'heroku' is not supported")

	_, err = platform.ParseConfig([]byte("platforms:\n  vercel:\n    latency: soon\n"))
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := platform.LoadConfig("")
	assert.NoError(t, err)
	assert.Equal(t, platform.DefaultConfig(), cfg)

	path := filepath.Join(t.TempDir(), "platforms.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("platforms:\n  netlify:\n    prefix: nl\n"), 0o600))

	cfg, err = platform.LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, "nl", cfg.Platforms[deployment.PlatformNetlify].Prefix)

	_, err = platform.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewRegistry(t *testing.T) {
	registry, err := platform.NewRegistry(platform.DefaultConfig())
	assert.NoError(t, err)

	for _, p := range deployment.Platforms() {
		publisher, err := registry.Publisher(p)
		assert.NoError(t, err)
		assert.NotNil(t, publisher)
	}

	_, err = registry.Publisher("heroku")
	assert.EqualError(t, err, "no publisher registered for platform 'heroku'")

	_, err = platform.NewRegistry(platform.Config{})
	assert.EqualError(t, err, "missing settings for platform 'vercel'")
}
