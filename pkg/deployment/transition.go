package deployment

import (
	"fmt"
	"time"
)

const (
	DefaultFailureMessage  = "Deployment failed. Please check your project configuration."
	InternalFailureMessage = "Internal deployment error occurred."
)

var ErrInvalidTransition = fmt.Errorf("invalid state transition")

// Transition describes a single forward move in the deployment lifecycle.
// The record is only updated if it is still in state From.
type Transition struct {
	DeploymentID string
	From         State
	To           State
	PreviewURL   *string
	ErrorMessage *string
	Time         time.Time
}

var allowedTransitions = map[State][]State{
	StatePending:    {StateInProgress},
	StateInProgress: {StateSuccess, StateFailed},
}

func NewInProgressTransition(id string, now time.Time) Transition {
	return Transition{
		DeploymentID: id,
		From:         StatePending,
		To:           StateInProgress,
		Time:         now,
	}
}

func NewSuccessTransition(id, previewURL string, now time.Time) Transition {
	return Transition{
		DeploymentID: id,
		From:         StateInProgress,
		To:           StateSuccess,
		PreviewURL:   &previewURL,
		Time:         now,
	}
}

func NewFailureTransition(id, message string, now time.Time) Transition {
	if len(message) == 0 {
		message = DefaultFailureMessage
	}
	return Transition{
		DeploymentID: id,
		From:         StateInProgress,
		To:           StateFailed,
		ErrorMessage: &message,
		Time:         now,
	}
}

func (t Transition) Validate() error {
	allowed := false
	for _, to := range allowedTransitions[t.From] {
		if to == t.To {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.From, t.To)
	}

	hasPreview := t.PreviewURL != nil && len(*t.PreviewURL) > 0
	hasMessage := t.ErrorMessage != nil && len(*t.ErrorMessage) > 0

	switch {
	case t.To == StateSuccess && !hasPreview:
		return fmt.Errorf("%w: successful deployment must have a preview URL", ErrInvalidTransition)
	case t.To != StateSuccess && t.PreviewURL != nil:
		return fmt.Errorf("%w: only successful deployments have a preview URL", ErrInvalidTransition)
	case t.To == StateFailed && !hasMessage:
		return fmt.Errorf("%w: failed deployment must have an error message", ErrInvalidTransition)
	case t.To != StateFailed && t.ErrorMessage != nil:
		return fmt.Errorf("%w: only failed deployments have an error message", ErrInvalidTransition)
	}

	return nil
}

// Apply overwrites the lifecycle fields of the deployment.
func (t Transition) Apply(d *Deployment) {
	d.Status = t.To
	d.PreviewURL = t.PreviewURL
	d.ErrorMessage = t.ErrorMessage
	d.Updated = t.Time
}

// AppliedTo reports whether the deployment already holds exactly the result of this transition.
func (t Transition) AppliedTo(d Deployment) bool {
	return d.Status == t.To &&
		equalPtr(d.PreviewURL, t.PreviewURL) &&
		equalPtr(d.ErrorMessage, t.ErrorMessage)
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
