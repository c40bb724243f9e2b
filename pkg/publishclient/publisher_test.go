package publishclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nais/publish/pkg/deployment"
	"github.com/nais/publish/pkg/grpc/statusserver"
	"github.com/nais/publish/pkg/publishclient"
	api_v1 "github.com/nais/publish/pkg/publishd/api/v1"
	api_v1_deploy "github.com/nais/publish/pkg/publishd/api/v1/deploy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	deploymentID    = "6f0c6a5e-8a63-4a43-9d6e-0e0e4b1e2f11"
	artifactContent = "<html>hello</html>"
)

type submission struct {
	authorization string
	fields        map[string]string
	filename      string
	content       string
}

func acceptedResponse() api_v1_deploy.DeploymentResponse {
	return api_v1_deploy.DeploymentResponse{
		Message: api_v1_deploy.SuccessMsg,
		Deployment: &api_v1_deploy.DeploymentSummary{
			ID:          deploymentID,
			ProjectName: "landing-page",
			Platform:    deployment.PlatformVercel,
			Status:      deployment.StatePending,
		},
		LogURL: "http://localhost:8080/logs?deployment_id=" + deploymentID + "&ts=1700000000",
	}
}

func deployServer(t *testing.T, code int, body interface{}, seen *submission) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/deploy" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		seen.authorization = r.Header.Get("authorization")
		seen.fields = map[string]string{
			api_v1_deploy.FormProjectName: r.FormValue(api_v1_deploy.FormProjectName),
			api_v1_deploy.FormPlatform:    r.FormValue(api_v1_deploy.FormPlatform),
			api_v1_deploy.FormGithubURL:   r.FormValue(api_v1_deploy.FormGithubURL),
		}
		file, header, err := r.FormFile(api_v1_deploy.FormFile)
		if err == nil {
			content, _ := io.ReadAll(file)
			seen.filename = header.Filename
			seen.content = string(content)
		}

		w.Header().Set("content-type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func validConfig(t *testing.T, server string) *publishclient.Config {
	path := filepath.Join(t.TempDir(), "site.zip")
	require.NoError(t, os.WriteFile(path, []byte(artifactContent), 0o600))

	cfg := publishclient.NewConfig()
	cfg.Server = server
	cfg.Token = "token"
	cfg.ProjectName = "landing-page"
	cfg.Platform = "vercel"
	cfg.File = path
	cfg.Retry = true
	cfg.RetryInterval = time.Millisecond
	cfg.Timeout = time.Second * 5
	return cfg
}

func newStatus(state deployment.State) *deployment.Status {
	st := &deployment.Status{
		DeploymentID: deploymentID,
		Platform:     deployment.PlatformVercel,
		State:        state,
		Time:         time.Now(),
	}
	switch state {
	case deployment.StateSuccess:
		st.PreviewURL = "https://landing-page-123.vercel.app"
	case deployment.StateFailed:
		st.Message = "Build failed"
	}
	return st
}

func watchRequest() *statusserver.WatchRequest {
	return &statusserver.WatchRequest{DeploymentID: deploymentID}
}

func TestPublishUpload(t *testing.T) {
	seen := &submission{}
	server := deployServer(t, http.StatusCreated, acceptedResponse(), seen)
	cfg := validConfig(t, server.URL)

	p := publishclient.Publisher{
		HTTPClient: server.Client(),
		Status:     statusserver.NewMockStatusClient(t),
	}
	err := p.Publish(context.Background(), cfg)

	assert.NoError(t, err)
	assert.Equal(t, publishclient.ExitSuccess, publishclient.ErrorExitCode(err))
	assert.Equal(t, "Bearer token", seen.authorization)
	assert.Equal(t, "landing-page", seen.fields[api_v1_deploy.FormProjectName])
	assert.Equal(t, "vercel", seen.fields[api_v1_deploy.FormPlatform])
	assert.Empty(t, seen.fields[api_v1_deploy.FormGithubURL])
	assert.Equal(t, "site.zip", seen.filename)
	assert.Equal(t, artifactContent, seen.content)
}

func TestPublishRepository(t *testing.T) {
	seen := &submission{}
	server := deployServer(t, http.StatusCreated, acceptedResponse(), seen)
	cfg := validConfig(t, server.URL)
	cfg.File = ""
	cfg.RepositoryURL = "https://github.com/acme/landing-page"

	p := publishclient.Publisher{
		HTTPClient: server.Client(),
		Status:     statusserver.NewMockStatusClient(t),
	}
	err := p.Publish(context.Background(), cfg)

	assert.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/landing-page", seen.fields[api_v1_deploy.FormGithubURL])
	assert.Empty(t, seen.filename)
}

func TestPublishRejected(t *testing.T) {
	for _, test := range []struct {
		name     string
		code     int
		body     interface{}
		contains string
	}{
		{
			name:     "validation error",
			code:     http.StatusBadRequest,
			body:     api_v1.ErrorResponse{Message: "Invalid repository URL", Field: "repository_url"},
			contains: "Invalid repository URL (field 'repository_url')",
		},
		{
			name:     "unauthorized",
			code:     http.StatusUnauthorized,
			body:     api_v1.ErrorResponse{Message: api_v1.UnauthorizedMsg},
			contains: api_v1.UnauthorizedMsg,
		},
		{
			name:     "body without message",
			code:     http.StatusBadGateway,
			body:     map[string]string{},
			contains: "502 Bad Gateway",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			server := deployServer(t, test.code, test.body, &submission{})
			cfg := validConfig(t, server.URL)
			cfg.Wait = true

			p := publishclient.Publisher{
				HTTPClient: server.Client(),
				Status:     statusserver.NewMockStatusClient(t),
			}
			err := p.Publish(context.Background(), cfg)

			assert.Error(t, err)
			assert.Contains(t, err.Error(), test.contains)
			assert.Equal(t, publishclient.ExitNoDeployment, publishclient.ErrorExitCode(err))
		})
	}
}

func TestPublishServerUnreachable(t *testing.T) {
	server := deployServer(t, http.StatusCreated, acceptedResponse(), &submission{})
	cfg := validConfig(t, server.URL)
	server.Close()

	p := publishclient.Publisher{
		HTTPClient: &http.Client{},
		Status:     statusserver.NewMockStatusClient(t),
	}
	err := p.Publish(context.Background(), cfg)

	assert.Equal(t, publishclient.ExitUnavailable, publishclient.ErrorExitCode(err))
}

func TestPublishWaitUntilFinished(t *testing.T) {
	for _, test := range []struct {
		name     string
		final    deployment.State
		exitCode publishclient.ExitCode
	}{
		{name: "success", final: deployment.StateSuccess, exitCode: publishclient.ExitSuccess},
		{name: "failure", final: deployment.StateFailed, exitCode: publishclient.ExitDeploymentFailure},
	} {
		t.Run(test.name, func(t *testing.T) {
			server := deployServer(t, http.StatusCreated, acceptedResponse(), &submission{})
			cfg := validConfig(t, server.URL)
			cfg.Wait = true

			stream := statusserver.NewMockStatus_WatchClient(t)
			stream.On("Recv").Return(newStatus(deployment.StatePending), nil).Once()
			stream.On("Recv").Return(newStatus(deployment.StateInProgress), nil).Once()
			stream.On("Recv").Return(newStatus(test.final), nil).Once()

			client := statusserver.NewMockStatusClient(t)
			client.On("Watch", mock.Anything, watchRequest()).Return(stream, nil).Once()

			p := publishclient.Publisher{HTTPClient: server.Client(), Status: client}
			err := p.Publish(context.Background(), cfg)

			assert.Equal(t, test.exitCode, publishclient.ErrorExitCode(err))
			if test.final == deployment.StateFailed {
				assert.Contains(t, err.Error(), "Build failed")
			}
		})
	}
}

func TestPublishWaitReconnects(t *testing.T) {
	server := deployServer(t, http.StatusCreated, acceptedResponse(), &submission{})
	cfg := validConfig(t, server.URL)
	cfg.Wait = true

	lost := statusserver.NewMockStatus_WatchClient(t)
	lost.On("Recv").Return(newStatus(deployment.StateInProgress), nil).Once()
	lost.On("Recv").Return(nil, status.Error(codes.Unavailable, "server shutting down")).Once()

	resumed := statusserver.NewMockStatus_WatchClient(t)
	resumed.On("Recv").Return(newStatus(deployment.StateSuccess), nil).Once()

	client := statusserver.NewMockStatusClient(t)
	client.On("Watch", mock.Anything, watchRequest()).Return(lost, nil).Once()
	client.On("Watch", mock.Anything, watchRequest()).Return(nil, status.Error(codes.Unavailable, "connection refused")).Once()
	client.On("Watch", mock.Anything, watchRequest()).Return(resumed, nil).Once()

	p := publishclient.Publisher{HTTPClient: server.Client(), Status: client}
	err := p.Publish(context.Background(), cfg)

	assert.NoError(t, err)
}

func TestPublishWaitWithoutRetry(t *testing.T) {
	server := deployServer(t, http.StatusCreated, acceptedResponse(), &submission{})
	cfg := validConfig(t, server.URL)
	cfg.Wait = true
	cfg.Retry = false

	client := statusserver.NewMockStatusClient(t)
	client.On("Watch", mock.Anything, watchRequest()).Return(nil, status.Error(codes.Unavailable, "connection refused")).Once()

	p := publishclient.Publisher{HTTPClient: server.Client(), Status: client}
	err := p.Publish(context.Background(), cfg)

	assert.Equal(t, publishclient.ExitUnavailable, publishclient.ErrorExitCode(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPublishWaitNotFound(t *testing.T) {
	server := deployServer(t, http.StatusCreated, acceptedResponse(), &submission{})
	cfg := validConfig(t, server.URL)
	cfg.Wait = true

	stream := statusserver.NewMockStatus_WatchClient(t)
	stream.On("Recv").Return(nil, status.Error(codes.NotFound, "deployment not found")).Once()

	client := statusserver.NewMockStatusClient(t)
	client.On("Watch", mock.Anything, watchRequest()).Return(stream, nil).Once()

	p := publishclient.Publisher{HTTPClient: server.Client(), Status: client}
	err := p.Publish(context.Background(), cfg)

	assert.Equal(t, publishclient.ExitUnavailable, publishclient.ErrorExitCode(err))
}

func TestPublishWaitTimeout(t *testing.T) {
	server := deployServer(t, http.StatusCreated, acceptedResponse(), &submission{})
	cfg := validConfig(t, server.URL)
	cfg.Wait = true

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*200)
	defer cancel()

	stream := statusserver.NewMockStatus_WatchClient(t)
	stream.On("Recv").Return(newStatus(deployment.StateInProgress), nil).Once()
	stream.On("Recv").Return(func() (*deployment.Status, error) {
		<-ctx.Done()
		return nil, status.FromContextError(ctx.Err()).Err()
	}).Once()

	client := statusserver.NewMockStatusClient(t)
	client.On("Watch", mock.Anything, watchRequest()).Return(stream, nil).Once()

	p := publishclient.Publisher{HTTPClient: server.Client(), Status: client}
	err := p.Publish(ctx, cfg)

	assert.Equal(t, publishclient.ExitTimeout, publishclient.ErrorExitCode(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
