package platform

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aymerick/raymond"
	"github.com/nais/publish/pkg/deployment"
	log "github.com/sirupsen/logrus"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// simulated pretends to publish a site by waiting a while and inventing a preview URL.
type simulated struct {
	platform deployment.Platform
	settings Settings
	template *raymond.Template
	clock    func() time.Time
}

var _ Publisher = &simulated{}

func NewVercel(settings Settings) (Publisher, error) {
	return newSimulated(deployment.PlatformVercel, settings)
}

func NewNetlify(settings Settings) (Publisher, error) {
	return newSimulated(deployment.PlatformNetlify, settings)
}

func newSimulated(p deployment.Platform, settings Settings) (*simulated, error) {
	src := settings.URLTemplate
	if len(src) == 0 {
		src = DefaultURLTemplate
	}

	tpl, err := raymond.Parse(src)
	if err != nil {
		return nil, err
	}

	return &simulated{
		platform: p,
		settings: settings,
		template: tpl,
		clock:    time.Now,
	}, nil
}

func slug(s string) string {
	return strings.Trim(nonAlphanumeric.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func (s *simulated) Publish(ctx context.Context, d deployment.Deployment) (*Result, error) {
	logger := log.WithFields(d.LogFields())
	logger.Debugf("Publishing to %s, this takes about %s", s.platform, time.Duration(s.settings.Latency))

	timer := time.NewTimer(time.Duration(s.settings.Latency))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	url, err := s.template.Exec(map[string]string{
		"domain":    s.settings.Domain,
		"id":        d.ID,
		"platform":  s.platform.String(),
		"prefix":    s.settings.Prefix,
		"project":   slug(d.ProjectName),
		"timestamp": strconv.FormatInt(s.clock().UnixMilli(), 10),
	})
	if err != nil {
		return nil, err
	}

	return Succeeded(url), nil
}
