package orchestrator

import (
	"io"
	"net/url"
	"strings"

	"github.com/nais/publish/pkg/deployment"
)

const (
	FieldProjectName   = "project_name"
	FieldPlatform      = "platform"
	FieldRepositoryURL = "repository_url"
	FieldSource        = "source"
	FieldFile          = "file"
)

// Artifact is an uploaded source archive.
type Artifact struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

type SubmitRequest struct {
	ProjectName   string
	Platform      string
	RepositoryURL string
	Artifact      *Artifact
}

// normalize trims user input. An empty repository URL counts as absent.
func (r SubmitRequest) normalize() SubmitRequest {
	r.ProjectName = strings.TrimSpace(r.ProjectName)
	r.Platform = strings.ToLower(strings.TrimSpace(r.Platform))
	r.RepositoryURL = strings.TrimSpace(r.RepositoryURL)
	return r
}

// validate checks the request in a fixed order and reports the first violation only.
func (r SubmitRequest) validate(maxArtifactSize int64) (deployment.Platform, error) {
	if len(r.ProjectName) == 0 {
		return "", deployment.NewValidationError(FieldProjectName, "Project name is required")
	}

	platform, err := deployment.ParsePlatform(r.Platform)
	if err != nil {
		return "", deployment.NewValidationError(FieldPlatform, "Platform must be one of: %s", deployment.PlatformNames())
	}

	hasRepository := len(r.RepositoryURL) > 0
	hasArtifact := r.Artifact != nil
	switch {
	case hasArtifact && hasRepository:
		return "", deployment.NewValidationError(FieldSource, "Provide either a file upload or a repository URL, not both")
	case !hasArtifact && !hasRepository:
		return "", deployment.NewValidationError(FieldSource, "Either file upload or GitHub URL is required")
	}

	if hasRepository && !validRepositoryURL(r.RepositoryURL) {
		return "", deployment.NewValidationError(FieldRepositoryURL, "Invalid repository URL")
	}

	if hasArtifact {
		switch {
		case r.Artifact.Size <= 0 || r.Artifact.Content == nil:
			return "", deployment.NewValidationError(FieldFile, "Uploaded file is empty")
		case maxArtifactSize > 0 && r.Artifact.Size > maxArtifactSize:
			return "", deployment.NewValidationError(FieldFile, "Uploaded file exceeds the maximum size of %d bytes", maxArtifactSize)
		}
	}

	return platform, nil
}

func validRepositoryURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && len(u.Host) > 0
}
