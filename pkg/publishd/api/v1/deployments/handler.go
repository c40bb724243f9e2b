package api_v1_deployments

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/nais/publish/pkg/deployment"
	api_v1 "github.com/nais/publish/pkg/publishd/api/v1"
	"github.com/nais/publish/pkg/publishd/identity"
	"github.com/nais/publish/pkg/publishd/middleware"
	log "github.com/sirupsen/logrus"
)

const DeploymentIDParam = "id"

type Reader interface {
	ListForOwner(ctx context.Context, owner *identity.User) ([]*deployment.Deployment, error)
	Deployment(ctx context.Context, owner *identity.User, id string) (*deployment.Deployment, error)
}

type Handler struct {
	Reader Reader
}

type ListResponse struct {
	Deployments []*deployment.Deployment `json:"deployments"`
}

type DeploymentResponse struct {
	Deployment *deployment.Deployment `json:"deployment"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := log.WithFields(middleware.RequestLogFields(r))

	deployments, err := h.Reader.ListForOwner(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		if api_v1.WriteError(w, err, api_v1.FetchFailedMsg) >= http.StatusInternalServerError {
			logger.Errorf("Unable to list deployments: %s", err)
		}
		return
	}

	api_v1.WriteJSON(w, http.StatusOK, &ListResponse{Deployments: deployments})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, DeploymentIDParam)
	logger := log.WithFields(middleware.RequestLogFields(r)).WithField(deployment.LogFieldDeploymentID, id)

	d, err := h.Reader.Deployment(r.Context(), identity.FromContext(r.Context()), id)
	if err != nil {
		if api_v1.WriteError(w, err, api_v1.FetchFailedMsg) >= http.StatusInternalServerError {
			logger.Errorf("Unable to get deployment: %s", err)
		}
		return
	}

	api_v1.WriteJSON(w, http.StatusOK, &DeploymentResponse{Deployment: d})
}
