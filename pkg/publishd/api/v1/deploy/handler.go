package api_v1_deploy

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/nais/publish/pkg/deployment"
	api_v1 "github.com/nais/publish/pkg/publishd/api/v1"
	"github.com/nais/publish/pkg/publishd/identity"
	"github.com/nais/publish/pkg/publishd/logproxy"
	"github.com/nais/publish/pkg/publishd/middleware"
	"github.com/nais/publish/pkg/publishd/orchestrator"
	log "github.com/sirupsen/logrus"
)

const (
	FormProjectName = "projectName"
	FormPlatform    = "platform"
	FormGithubURL   = "githubUrl"
	FormFile        = "file"

	SuccessMsg = "Deployment started successfully"
)

type Submitter interface {
	Submit(ctx context.Context, owner *identity.User, request orchestrator.SubmitRequest) (*deployment.Deployment, error)
}

type DeploymentHandler struct {
	Submitter Submitter
	BaseURL   string
	// MaxRequestSize caps the request body; zero means no limit.
	MaxRequestSize int64
}

type DeploymentSummary struct {
	ID          string              `json:"id"`
	ProjectName string              `json:"project_name"`
	Platform    deployment.Platform `json:"platform"`
	Status      deployment.State    `json:"status"`
}

type DeploymentResponse struct {
	Message    string             `json:"message"`
	Deployment *DeploymentSummary `json:"deployment,omitempty"`
	LogURL     string             `json:"logURL,omitempty"`
}

func (h *DeploymentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := log.WithFields(middleware.RequestLogFields(r))

	owner := identity.FromContext(r.Context())
	if owner == nil {
		api_v1.WriteError(w, deployment.ErrUnauthorized, "")
		logger.Debugf("Rejected anonymous deployment request")
		return
	}

	if h.MaxRequestSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxRequestSize)
	}

	err := r.ParseMultipartForm(api_v1.MaxMultipartMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		api_v1.WriteJSON(w, http.StatusBadRequest, &api_v1.ErrorResponse{
			Message: fmt.Sprintf("unable to parse form: %s", err),
		})
		logger.Errorf("Unable to parse deployment request: %s", err)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	request := orchestrator.SubmitRequest{
		ProjectName:   r.FormValue(FormProjectName),
		Platform:      r.FormValue(FormPlatform),
		RepositoryURL: r.FormValue(FormGithubURL),
	}

	// url encoded forms carry no files
	var file multipart.File
	var header *multipart.FileHeader
	err = http.ErrMissingFile
	if r.MultipartForm != nil {
		file, header, err = r.FormFile(FormFile)
	}

	switch {
	case err == nil:
		defer file.Close()
		request.Artifact = &orchestrator.Artifact{
			Filename:    header.Filename,
			ContentType: header.Header.Get("content-type"),
			Size:        header.Size,
			Content:     file,
		}
	case !errors.Is(err, http.ErrMissingFile):
		api_v1.WriteJSON(w, http.StatusBadRequest, &api_v1.ErrorResponse{
			Message: fmt.Sprintf("unable to read uploaded file: %s", err),
			Field:   orchestrator.FieldFile,
		})
		logger.Errorf("Unable to read uploaded file: %s", err)
		return
	}

	logger = logger.WithFields(log.Fields{
		deployment.LogFieldProject:  request.ProjectName,
		deployment.LogFieldPlatform: request.Platform,
	})
	logger.Tracef("Incoming deployment request")

	d, err := h.Submitter.Submit(r.Context(), owner, request)
	if err != nil {
		code := api_v1.WriteError(w, err, api_v1.CreateFailedMsg)
		if code >= http.StatusInternalServerError {
			logger.Errorf("Deployment request failed: %s", err)
		} else {
			logger.Infof("Deployment request rejected: %s", err)
		}
		return
	}

	logger.WithFields(d.LogFields()).Info("Deployment request accepted")

	api_v1.WriteJSON(w, http.StatusCreated, &DeploymentResponse{
		Message: SuccessMsg,
		Deployment: &DeploymentSummary{
			ID:          d.ID,
			ProjectName: d.ProjectName,
			Platform:    d.Platform,
			Status:      d.Status,
		},
		LogURL: logproxy.MakeURL(h.BaseURL, d.ID, d.Created),
	})
}
