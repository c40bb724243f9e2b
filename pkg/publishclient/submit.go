package publishclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	api_v1 "github.com/nais/publish/pkg/publishd/api/v1"
	api_v1_deploy "github.com/nais/publish/pkg/publishd/api/v1/deploy"
)

const deployPath = "/api/v1/deploy"

// MakeSubmission encodes the deployment request as a multipart form, attaching the artifact if one is configured.
func MakeSubmission(cfg Config) (body *bytes.Buffer, contentType string, err error) {
	body = &bytes.Buffer{}
	form := multipart.NewWriter(body)

	fields := []struct{ key, value string }{
		{api_v1_deploy.FormProjectName, cfg.ProjectName},
		{api_v1_deploy.FormPlatform, cfg.Platform},
		{api_v1_deploy.FormGithubURL, cfg.RepositoryURL},
	}
	for _, field := range fields {
		if len(field.value) == 0 {
			continue
		}
		if err = form.WriteField(field.key, field.value); err != nil {
			return nil, "", err
		}
	}

	if len(cfg.File) > 0 {
		file, err := os.Open(cfg.File)
		if err != nil {
			return nil, "", fmt.Errorf("open artifact: %w", err)
		}
		defer file.Close()

		part, err := form.CreateFormFile(api_v1_deploy.FormFile, filepath.Base(cfg.File))
		if err != nil {
			return nil, "", err
		}
		if _, err = io.Copy(part, file); err != nil {
			return nil, "", fmt.Errorf("read artifact: %w", err)
		}
	}

	if err = form.Close(); err != nil {
		return nil, "", err
	}

	return body, form.FormDataContentType(), nil
}

func (p *Publisher) submit(ctx context.Context, cfg Config) (*api_v1_deploy.DeploymentResponse, error) {
	body, contentType, err := MakeSubmission(cfg)
	if err != nil {
		return nil, ErrorWrap(ExitInvocationFailure, err)
	}

	url := strings.TrimRight(cfg.Server, "/") + deployPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, ErrorWrap(ExitInvocationFailure, err)
	}
	req.Header.Set("content-type", contentType)
	req.Header.Set("authorization", "Bearer "+cfg.Token)

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, Errorf(ExitTimeout, "deployment timed out: %w", ctx.Err())
		}
		return nil, Errorf(ExitUnavailable, "send deployment request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, ErrorWrap(ExitNoDeployment, responseError(resp))
	}

	response := &api_v1_deploy.DeploymentResponse{}
	err = json.NewDecoder(resp.Body).Decode(response)
	if err != nil {
		return nil, Errorf(ExitInternalError, "decode deployment response: %w", err)
	}
	if response.Deployment == nil {
		return nil, Errorf(ExitInternalError, "deployment response does not describe a deployment")
	}

	return response, nil
}

func responseError(resp *http.Response) error {
	errorResponse := &api_v1.ErrorResponse{}
	err := json.NewDecoder(resp.Body).Decode(errorResponse)
	if err != nil || len(errorResponse.Message) == 0 {
		return fmt.Errorf("deployment request rejected: %s", resp.Status)
	}
	if len(errorResponse.Field) > 0 {
		return fmt.Errorf("deployment request rejected: %s (field '%s')", errorResponse.Message, errorResponse.Field)
	}
	return fmt.Errorf("deployment request rejected: %s", errorResponse.Message)
}
