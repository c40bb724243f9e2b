package deployment

import (
	"fmt"
	"strings"
	"time"
)

type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// Finished returns true if the state is terminal and will never change again.
func (s State) Finished() bool {
	return s == StateSuccess || s == StateFailed
}

func (s State) String() string {
	return string(s)
}

type Platform string

const (
	PlatformVercel  Platform = "vercel"
	PlatformNetlify Platform = "netlify"
)

// Platforms lists every supported hosting platform in a stable order.
func Platforms() []Platform {
	return []Platform{PlatformVercel, PlatformNetlify}
}

func ParsePlatform(s string) (Platform, error) {
	for _, p := range Platforms() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("platform '%s' is not supported", s)
}

func PlatformNames() string {
	names := make([]string, 0, len(Platforms()))
	for _, p := range Platforms() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

func (p Platform) String() string {
	return string(p)
}

type SourceType string

const (
	SourceUpload     SourceType = "upload"
	SourceRepository SourceType = "repository"
)

type Deployment struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id"`
	ProjectName  string     `json:"project_name"`
	Platform     Platform   `json:"platform"`
	SourceType   SourceType `json:"source_type"`
	SourceURL    string     `json:"source_url"`
	Status       State      `json:"status"`
	PreviewURL   *string    `json:"preview_url"`
	ErrorMessage *string    `json:"error_message"`
	Created      time.Time  `json:"created_at"`
	Updated      time.Time  `json:"updated_at"`
}

// NewPending creates a fresh deployment record that has not yet been picked up for publishing.
func NewPending(id, owner, projectName string, platform Platform, sourceType SourceType, sourceURL string, now time.Time) Deployment {
	return Deployment{
		ID:          id,
		OwnerID:     owner,
		ProjectName: projectName,
		Platform:    platform,
		SourceType:  sourceType,
		SourceURL:   sourceURL,
		Status:      StatePending,
		Created:     now,
		Updated:     now,
	}
}

func (d Deployment) GetPreviewURL() string {
	if d.PreviewURL == nil {
		return ""
	}
	return *d.PreviewURL
}

func (d Deployment) GetErrorMessage() string {
	if d.ErrorMessage == nil {
		return ""
	}
	return *d.ErrorMessage
}

// CurrentStatus returns the observable state of the deployment, as sent to status subscribers.
func (d Deployment) CurrentStatus() Status {
	return Status{
		DeploymentID: d.ID,
		Owner:        d.OwnerID,
		Platform:     d.Platform,
		State:        d.Status,
		PreviewURL:   d.GetPreviewURL(),
		Message:      d.GetErrorMessage(),
		Time:         d.Updated,
	}
}

// Status is a point-in-time view of a deployment's lifecycle state.
type Status struct {
	DeploymentID string    `json:"deploymentID"`
	Owner        string    `json:"owner"`
	Platform     Platform  `json:"platform"`
	State        State     `json:"state"`
	PreviewURL   string    `json:"previewURL,omitempty"`
	Message      string    `json:"message,omitempty"`
	Time         time.Time `json:"time"`
}
