package statusserver

import (
	"context"

	"github.com/nais/publish/pkg/deployment"
	"github.com/nais/publish/pkg/publishd/database"
	"github.com/nais/publish/pkg/publishd/identity"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const subscriptionBuffer = 8

type Reader interface {
	Deployment(ctx context.Context, owner *identity.User, id string) (*deployment.Deployment, error)
}

type Subscriber interface {
	Subscribe(ctx context.Context, deploymentID string, buffer int) <-chan deployment.Status
}

type statusServer struct {
	reader     Reader
	subscriber Subscriber
}

func New(reader Reader, subscriber Subscriber) StatusServer {
	return &statusServer{
		reader:     reader,
		subscriber: subscriber,
	}
}

var stateOrder = map[deployment.State]int{
	deployment.StatePending:    0,
	deployment.StateInProgress: 1,
	deployment.StateSuccess:    2,
	deployment.StateFailed:     2,
}

func (s *statusServer) Watch(request *WatchRequest, stream Status_WatchServer) error {
	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	owner := identity.FromContext(ctx)
	if owner == nil {
		return status.Errorf(codes.Unauthenticated, "request is not authenticated")
	}
	if len(request.DeploymentID) == 0 {
		return status.Errorf(codes.InvalidArgument, "deployment ID is required")
	}

	logger := log.WithFields(log.Fields{
		deployment.LogFieldDeploymentID: request.DeploymentID,
		deployment.LogFieldOwner:        owner.ID,
	})

	// Subscribe before reading the record so that no transition can slip between the two.
	updates := s.subscriber.Subscribe(ctx, request.DeploymentID, subscriptionBuffer)

	d, err := s.reader.Deployment(ctx, owner, request.DeploymentID)
	switch {
	case database.IsErrNotFound(err):
		return status.Errorf(codes.NotFound, "deployment %s not found", request.DeploymentID)
	case err != nil:
		logger.Errorf("Unable to read deployment: %s", err)
		return status.Errorf(codes.Unavailable, "unable to read deployment")
	}

	current := d.CurrentStatus()
	if err := stream.Send(&current); err != nil {
		return err
	}

	logger.Debugf("Watching deployment")

	for !current.State.Finished() {
		select {
		case <-ctx.Done():
			return status.FromContextError(ctx.Err()).Err()
		case update, ok := <-updates:
			if !ok {
				return status.FromContextError(ctx.Err()).Err()
			}
			if stateOrder[update.State] <= stateOrder[current.State] {
				continue
			}
			current = update
			if err := stream.Send(&current); err != nil {
				return err
			}
		}
	}

	return nil
}
