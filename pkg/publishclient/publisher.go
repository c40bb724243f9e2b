package publishclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nais/publish/pkg/deployment"
	"github.com/nais/publish/pkg/grpc/statusserver"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Publisher struct {
	HTTPClient *http.Client
	Status     statusserver.StatusClient
}

// Publish submits a deployment and, if configured to wait, follows its status until it finishes.
func (p *Publisher) Publish(ctx context.Context, cfg *Config) error {
	log.Infof("Sending deployment request to %s...", cfg.Server)

	response, err := p.submit(ctx, *cfg)
	if err != nil {
		return err
	}

	summary := response.Deployment
	log.Infof("Deployment request accepted.")
	log.Infof("Deployment information:")
	log.Infof("---")
	log.Infof("id...........: %s", summary.ID)
	log.Infof("project......: %s", summary.ProjectName)
	log.Infof("platform.....: %s", summary.Platform)
	log.Infof("logs.........: %s", response.LogURL)
	log.Infof("---")

	if !cfg.Wait {
		return nil
	}

	return p.wait(ctx, cfg, summary.ID)
}

func (p *Publisher) wait(ctx context.Context, cfg *Config, id string) error {
	var stream statusserver.Status_WatchClient
	var connectionLost bool
	var err error

	log.Infof("Waiting for deployment to complete...")

	request := &statusserver.WatchRequest{DeploymentID: id}

	for ctx.Err() == nil {
		err = retryUnavailable(ctx, cfg.RetryInterval, cfg.Retry, func() error {
			stream, err = p.Status.Watch(ctx, request)
			if err != nil {
				connectionLost = true
			} else if connectionLost {
				log.Infof("Connection to status service re-established.")
			}
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return Errorf(ExitUnavailable, "%s", formatGrpcError(err))
		}

		for ctx.Err() == nil {
			deployStatus, err := stream.Recv()
			if err != nil {
				connectionLost = true
				if ctx.Err() != nil {
					break
				}
				if cfg.Retry && (errors.Is(err, io.EOF) || grpcErrorRetriable(err)) {
					log.Warnf("Lost connection to status service: %s", formatGrpcError(err))
					break
				}
				return Errorf(ExitUnavailable, "%s", formatGrpcError(err))
			}
			logDeployStatus(deployStatus)
			if deployStatus.State.Finished() {
				return ErrorStatus(deployStatus)
			}
		}
	}

	return Errorf(ExitTimeout, "deployment timed out: %w", ctx.Err())
}

func logDeployStatus(st *deployment.Status) {
	logger := log.WithField(deployment.LogFieldDeploymentStatus, st.State)
	switch st.State {
	case deployment.StateSuccess:
		logger.Infof("Deployment succeeded, preview available at %s", st.PreviewURL)
	case deployment.StateFailed:
		logger.Errorf("Deployment failed: %s", st.Message)
	default:
		logger.Infof("Deployment is %s", st.State)
	}
}

func grpcErrorCode(err error) codes.Code {
	return status.Code(err)
}

func formatGrpcError(err error) string {
	if errors.Is(err, io.EOF) {
		return "stream closed by server"
	}
	gerr, ok := status.FromError(err)
	if !ok {
		return err.Error()
	}
	return fmt.Sprintf("%s: %s", gerr.Code(), gerr.Message())
}

func grpcErrorRetriable(err error) bool {
	switch grpcErrorCode(err) {
	case codes.Unavailable, codes.Internal:
		return true
	default:
		return false
	}
}

func retryUnavailable(ctx context.Context, interval time.Duration, retry bool, fn func() error) error {
	for {
		err := fn()
		if !retry || !grpcErrorRetriable(err) {
			return err
		}
		log.Warnf("%s (retrying in %s...)", formatGrpcError(err), interval)
		select {
		case <-ctx.Done():
			return err
		case <-time.After(interval):
		}
	}
}
