package platform

import (
	"context"
	"testing"
	"time"

	"github.com/nais/publish/pkg/deployment"
	"github.com/stretchr/testify/assert"
)

var example = deployment.NewPending("9f0b6f1c-2c4b-4bb4-9d55-0f6f0e0f3c11", "user-1", "My Site!", deployment.PlatformVercel, deployment.SourceRepository, "https://github.com/a/b", time.Now())

func fixedClock() time.Time {
	return time.UnixMilli(1700000000123)
}

func TestSimulated_Publish(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		url      string
	}{
		{
			name:     "vercel defaults",
			settings: DefaultConfig().Platforms[deployment.PlatformVercel],
			url:      "https://vercel-1700000000123.vercel.app",
		},
		{
			name:     "netlify defaults",
			settings: DefaultConfig().Platforms[deployment.PlatformNetlify],
			url:      "https://netlify-1700000000123.netlify.app",
		},
		{
			name: "custom template",
			settings: Settings{
				Prefix:      "preview",
				Domain:      "example.com",
				URLTemplate: "https://{{project}}-{{prefix}}.{{domain}}/{{id}}",
			},
			url: "https://my-site-preview.example.com/9f0b6f1c-2c4b-4bb4-9d55-0f6f0e0f3c11",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.settings.Latency = 0
			p, err := newSimulated(deployment.PlatformVercel, tt.settings)
			assert.NoError(t, err)
			p.clock = fixedClock

			result, err := p.Publish(context.Background(), example)
			assert.NoError(t, err)
			assert.True(t, result.Success)
			assert.Equal(t, tt.url, result.PreviewURL)
		})
	}
}

func TestSimulated_PublishHonoursCancellation(t *testing.T) {
	settings := DefaultConfig().Platforms[deployment.PlatformNetlify]
	settings.Latency = Duration(time.Hour)
	p, err := newSimulated(deployment.PlatformNetlify, settings)
	assert.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	result, err := p.Publish(ctx, example)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, result)
}

func TestSimulated_PublishTakesLatency(t *testing.T) {
	settings := DefaultConfig().Platforms[deployment.PlatformVercel]
	settings.Latency = Duration(50 * time.Millisecond)
	p, err := newSimulated(deployment.PlatformVercel, settings)
	assert.NoError(t, err)

	start := time.Now()
	_, err = p.Publish(context.Background(), example)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestNewSimulated_InvalidTemplate(t *testing.T) {
	_, err := newSimulated(deployment.PlatformVercel, Settings{URLTemplate: "https://{{#if}}"})
	assert.Error(t, err)
}
