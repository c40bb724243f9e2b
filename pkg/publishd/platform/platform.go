package platform

import (
	"context"
	"fmt"

	"github.com/nais/publish/pkg/deployment"
)

// Result is what a hosting platform reports back after a publish attempt.
// A failed attempt carries a human readable Message instead of a PreviewURL.
type Result struct {
	Success    bool
	PreviewURL string
	Message    string
}

func Succeeded(previewURL string) *Result {
	return &Result{Success: true, PreviewURL: previewURL}
}

func Failed(message string) *Result {
	return &Result{Message: message}
}

type Publisher interface {
	Publish(ctx context.Context, d deployment.Deployment) (*Result, error)
}

// Registry holds exactly one publisher per supported platform.
type Registry map[deployment.Platform]Publisher

func (r Registry) Publisher(p deployment.Platform) (Publisher, error) {
	publisher, ok := r[p]
	if !ok || publisher == nil {
		return nil, fmt.Errorf("no publisher registered for platform '%s'", p)
	}
	return publisher, nil
}

// NewRegistry builds the simulated publishers for every supported platform.
func NewRegistry(cfg Config) (Registry, error) {
	constructors := map[deployment.Platform]func(Settings) (Publisher, error){
		deployment.PlatformVercel:  NewVercel,
		deployment.PlatformNetlify: NewNetlify,
	}

	registry := make(Registry)
	for _, p := range deployment.Platforms() {
		settings, ok := cfg.Platforms[p]
		if !ok {
			return nil, fmt.Errorf("missing settings for platform '%s'", p)
		}
		publisher, err := constructors[p](settings)
		if err != nil {
			return nil, fmt.Errorf("set up %s publisher: %w", p, err)
		}
		registry[p] = publisher
	}

	return registry, nil
}
