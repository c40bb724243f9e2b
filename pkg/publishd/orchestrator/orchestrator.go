package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nais/publish/pkg/deployment"
	"github.com/nais/publish/pkg/publishd/database"
	"github.com/nais/publish/pkg/publishd/github"
	"github.com/nais/publish/pkg/publishd/identity"
	"github.com/nais/publish/pkg/publishd/lifecycle"
	"github.com/nais/publish/pkg/publishd/metrics"
	"github.com/nais/publish/pkg/publishd/storage"
	log "github.com/sirupsen/logrus"
)

var ErrStorageDisabled = errors.New("artifact storage is not configured")

type Config struct {
	Store     database.DeploymentStore
	Artifacts storage.ArtifactStore
	Queue     lifecycle.Enqueuer
	Statuses  lifecycle.StatusPublisher
	// Repositories is optional; when set, repository URLs are checked for existence.
	Repositories    github.RepositoryChecker
	MaxArtifactSize int64
	Clock           func() time.Time
}

type Orchestrator struct {
	store           database.DeploymentStore
	artifacts       storage.ArtifactStore
	queue           lifecycle.Enqueuer
	statuses        lifecycle.StatusPublisher
	repositories    github.RepositoryChecker
	maxArtifactSize int64
	clock           func() time.Time
}

func New(cfg Config) *Orchestrator {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Orchestrator{
		store:           cfg.Store,
		artifacts:       cfg.Artifacts,
		queue:           cfg.Queue,
		statuses:        cfg.Statuses,
		repositories:    cfg.Repositories,
		maxArtifactSize: cfg.MaxArtifactSize,
		clock:           clock,
	}
}

// Submit validates the request, uploads the artifact, stores a pending deployment
// and schedules it. The deployment is returned as soon as it has been stored.
func (o *Orchestrator) Submit(ctx context.Context, owner *identity.User, request SubmitRequest) (*deployment.Deployment, error) {
	if owner == nil {
		metrics.SubmissionRejected("unauthorized")
		return nil, deployment.ErrUnauthorized
	}

	request = request.normalize()
	platform, err := request.validate(o.maxArtifactSize)
	if err != nil {
		metrics.SubmissionRejected("validation")
		return nil, err
	}

	logger := log.WithFields(log.Fields{
		deployment.LogFieldOwner:    owner.ID,
		deployment.LogFieldProject:  request.ProjectName,
		deployment.LogFieldPlatform: platform,
	})

	if len(request.RepositoryURL) > 0 && o.repositories != nil {
		err = o.repositories.Exists(ctx, request.RepositoryURL)
		switch {
		case errors.Is(err, github.ErrRepositoryNotFound):
			metrics.SubmissionRejected("validation")
			return nil, deployment.NewValidationError(FieldRepositoryURL, "Repository not found")
		case err != nil:
			logger.Warnf("Unable to look up repository %s: %s", request.RepositoryURL, err)
		}
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generate deployment id: %w", err)
	}
	now := o.clock()

	sourceType := deployment.SourceRepository
	sourceURL := request.RepositoryURL
	if request.Artifact != nil {
		sourceType = deployment.SourceUpload
		sourceURL, err = o.upload(ctx, owner.ID, request.Artifact, now)
		if err != nil {
			metrics.SubmissionRejected("storage")
			return nil, err
		}
		logger.Debugf("Artifact %q stored at %s", request.Artifact.Filename, sourceURL)
	}

	record := deployment.NewPending(id.String(), owner.ID, request.ProjectName, platform, sourceType, sourceURL, now)
	err = o.store.CreateDeployment(ctx, *owner, record)
	if err != nil {
		metrics.SubmissionRejected("persistence")
		return nil, &deployment.PersistenceError{Op: "create deployment", Err: err}
	}

	logger = logger.WithFields(record.LogFields())
	logger.Infof("Deployment created")

	status := record.CurrentStatus()
	metrics.UpdateQueue(status, record.Created)
	if o.statuses != nil {
		o.statuses.Publish(status)
	}

	err = o.queue.Enqueue(record.ID)
	if err != nil {
		logger.Warnf("Deployment not scheduled, leaving it for the sweep: %s", err)
	}

	return &record, nil
}

func (o *Orchestrator) upload(ctx context.Context, owner string, artifact *Artifact, now time.Time) (string, error) {
	if o.artifacts == nil {
		return "", &deployment.StorageError{Err: ErrStorageDisabled}
	}
	location, err := o.artifacts.Store(ctx, artifact.Content, artifact.Size, storage.Hint{
		Owner:       owner,
		Filename:    artifact.Filename,
		ContentType: artifact.ContentType,
		Time:        now,
	})
	if err != nil {
		return "", &deployment.StorageError{Err: err}
	}
	return location, nil
}

// ListForOwner returns the owner's deployments, newest first.
func (o *Orchestrator) ListForOwner(ctx context.Context, owner *identity.User) ([]*deployment.Deployment, error) {
	if owner == nil {
		return nil, deployment.ErrUnauthorized
	}

	deployments, err := o.store.Deployments(ctx, owner.ID)
	if err != nil {
		return nil, &deployment.PersistenceError{Op: "list deployments", Err: err}
	}
	if deployments == nil {
		deployments = make([]*deployment.Deployment, 0)
	}
	return deployments, nil
}

// Deployment returns a single deployment. Deployments belonging to someone else
// are reported as database.ErrNotFound.
func (o *Orchestrator) Deployment(ctx context.Context, owner *identity.User, id string) (*deployment.Deployment, error) {
	if owner == nil {
		return nil, deployment.ErrUnauthorized
	}

	record, err := o.store.Deployment(ctx, id)
	switch {
	case database.IsErrNotFound(err):
		return nil, database.ErrNotFound
	case err != nil:
		return nil, &deployment.PersistenceError{Op: "get deployment", Err: err}
	case record.OwnerID != owner.ID:
		return nil, database.ErrNotFound
	}
	return record, nil
}
