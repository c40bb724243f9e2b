package deployment_test

import (
	"errors"
	"testing"
	"time"

	"github.com/nais/publish/pkg/deployment"
	"github.com/stretchr/testify/assert"
)

func ptr(s string) *string {
	return &s
}

func TestTransition_Validate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name       string
		transition deployment.Transition
		valid      bool
	}{
		{
			name:       "pending to in progress",
			transition: deployment.NewInProgressTransition("id", now),
			valid:      true,
		},
		{
			name:       "in progress to success",
			transition: deployment.NewSuccessTransition("id", "https://vercel-1.vercel.app", now),
			valid:      true,
		},
		{
			name:       "in progress to failed",
			transition: deployment.NewFailureTransition("id", "boom", now),
			valid:      true,
		},
		{
			name:       "success without preview url",
			transition: deployment.NewSuccessTransition("id", "", now),
		},
		{
			name: "pending directly to success",
			transition: deployment.Transition{
				From:       deployment.StatePending,
				To:         deployment.StateSuccess,
				PreviewURL: ptr("https://x"),
			},
		},
		{
			name: "terminal state moves backwards",
			transition: deployment.Transition{
				From: deployment.StateSuccess,
				To:   deployment.StateInProgress,
			},
		},
		{
			name: "failed with preview url",
			transition: deployment.Transition{
				From:         deployment.StateInProgress,
				To:           deployment.StateFailed,
				PreviewURL:   ptr("https://x"),
				ErrorMessage: ptr("boom"),
			},
		},
		{
			name: "success with error message",
			transition: deployment.Transition{
				From:         deployment.StateInProgress,
				To:           deployment.StateSuccess,
				PreviewURL:   ptr("https://x"),
				ErrorMessage: ptr("boom"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.transition.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, deployment.ErrInvalidTransition))
			}
		})
	}
}

func TestNewFailureTransition_DefaultMessage(t *testing.T) {
	tr := deployment.NewFailureTransition("id", "", time.Now())
	assert.Equal(t, deployment.DefaultFailureMessage, *tr.ErrorMessage)
}

func TestTransition_Apply(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d := deployment.NewPending("id", "user", "project", deployment.PlatformVercel, deployment.SourceRepository, "https://github.com/a/b", created)

	updated := created.Add(time.Minute)
	tr := deployment.NewSuccessTransition(d.ID, "https://vercel-1.vercel.app", updated)
	assert.False(t, tr.AppliedTo(d))

	tr.Apply(&d)
	assert.Equal(t, deployment.StateSuccess, d.Status)
	assert.Equal(t, "https://vercel-1.vercel.app", d.GetPreviewURL())
	assert.Nil(t, d.ErrorMessage)
	assert.Equal(t, updated, d.Updated)
	assert.Equal(t, created, d.Created)
	assert.True(t, tr.AppliedTo(d))
}

func TestParsePlatform(t *testing.T) {
	p, err := deployment.ParsePlatform("netlify")
	assert.NoError(t, err)
	assert.Equal(t, deployment.PlatformNetlify, p)

	_, err = deployment.ParsePlatform("heroku")
	assert.EqualError(t, err, "platform 'heroku' is not supported")

	assert.Equal(t, "vercel, netlify", deployment.PlatformNames())
}

func TestState_Finished(t *testing.T) {
	assert.False(t, deployment.StatePending.Finished())
	assert.False(t, deployment.StateInProgress.Finished())
	assert.True(t, deployment.StateSuccess.Finished())
	assert.True(t, deployment.StateFailed.Finished())
}
