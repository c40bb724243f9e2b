package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nais/publish/pkg/deployment"
	"github.com/nais/publish/pkg/publishd/database"
	"github.com/nais/publish/pkg/publishd/metrics"
	"github.com/nais/publish/pkg/publishd/platform"
	"github.com/nais/publish/pkg/telemetry"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	otrace "go.opentelemetry.io/otel/trace"
)

var ErrPublishTimeout = errors.New("timed out waiting for hosting platform")

const abortTimeout = 10 * time.Second

// StatusPublisher is notified of every state a deployment enters.
type StatusPublisher interface {
	Publish(status deployment.Status)
}

type Config struct {
	// PublishTimeout bounds a single call to a hosting platform. Zero means no limit.
	PublishTimeout time.Duration
	// WriteAttempts is how many times a state change is written before giving up.
	WriteAttempts int
	// WriteBackoff is the wait after the first failed write; it grows linearly.
	WriteBackoff time.Duration
}

// StallAge is how long a deployment can sit in progress before it is certainly not being driven anymore.
// Zero means it cannot be known, because publishing has no time limit.
func (c Config) StallAge() time.Duration {
	if c.PublishTimeout <= 0 {
		return 0
	}
	attempts := time.Duration(c.WriteAttempts)
	if attempts < 1 {
		attempts = 1
	}
	backoff := c.WriteBackoff * attempts * (attempts + 1) / 2
	return c.PublishTimeout + 2*backoff + abortTimeout + time.Minute
}

// Driver advances a single deployment from pending through in_progress to a terminal state.
type Driver struct {
	store      database.DeploymentStore
	publishers platform.Registry
	statuses   StatusPublisher
	reporter   FaultReporter
	config     Config
	clock      func() time.Time
}

func NewDriver(store database.DeploymentStore, publishers platform.Registry, statuses StatusPublisher, reporter FaultReporter, cfg Config) *Driver {
	if cfg.WriteAttempts < 1 {
		cfg.WriteAttempts = 1
	}
	return &Driver{
		store:      store,
		publishers: publishers,
		statuses:   statuses,
		reporter:   reporter,
		config:     cfg,
		clock:      time.Now,
	}
}

// Run drives the deployment to completion. It never returns an error and never panics;
// anything that cannot be recorded on the deployment is handed to the fault reporter.
func (d *Driver) Run(ctx context.Context, id string) {
	ctx, span := telemetry.Tracer().Start(ctx, "Publish deployment", otrace.WithAttributes(
		attribute.String("deployment.id", id),
	))
	defer span.End()

	var record *deployment.Deployment
	claimed := false

	defer func() {
		if r := recover(); r != nil {
			d.reporter.ReportFault(ctx, id, StagePanic, fmt.Errorf("panic: %v", r))
			if claimed {
				d.abort(ctx, record)
			}
		}
	}()

	record, err := d.store.Deployment(ctx, id)
	if err != nil {
		d.reporter.ReportFault(ctx, id, StageLoad, &deployment.PersistenceError{Op: "load deployment", Err: err})
		return
	}

	logger := log.WithFields(record.LogFields())
	span.SetAttributes(attribute.String("deployment.platform", record.Platform.String()))

	if record.Status != deployment.StatePending {
		logger.Infof("Deployment is already %s; ignoring duplicate trigger", record.Status)
		return
	}

	claim := deployment.NewInProgressTransition(id, d.clock())
	err = d.write(ctx, claim)
	if database.IsErrStateConflict(err) {
		logger.Infof("Deployment was claimed by another worker; ignoring duplicate trigger")
		return
	} else if err != nil {
		d.reporter.ReportFault(ctx, id, StageClaim, err)
		return
	}

	claimed = true
	claim.Apply(record)
	logger = log.WithFields(record.LogFields())
	d.notify(*record)
	logger.Infof("Publishing deployment to %s", record.Platform)

	result, err := d.publish(ctx, *record)
	if err != nil {
		logger.Errorf("Publishing failed: %s", err)
		telemetry.RecordError(span, err)
	}

	terminal := d.outcome(id, result, err)
	err = d.write(ctx, terminal)
	if err != nil {
		d.reporter.ReportFault(ctx, id, StageComplete, err)
		if !permanent(err) {
			d.abort(ctx, record)
		}
		return
	}

	terminal.Apply(record)
	d.notify(*record)

	logger = log.WithFields(record.LogFields())
	if record.Status == deployment.StateSuccess {
		logger.Infof("Deployment published to %s", record.GetPreviewURL())
	} else {
		logger.Warnf("Deployment failed: %s", record.GetErrorMessage())
	}
}

// abort makes a single attempt at failing a claimed deployment with the internal error message.
// It runs detached from ctx so that it also happens during shutdown.
func (d *Driver) abort(ctx context.Context, record *deployment.Deployment) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abortTimeout)
	defer cancel()

	t := deployment.NewFailureTransition(record.ID, deployment.InternalFailureMessage, d.clock())
	err := d.store.TransitionDeployment(ctx, t)
	if err != nil {
		d.reporter.ReportFault(ctx, record.ID, StageAbort, &deployment.PersistenceError{Op: "write failed state", Err: err})
		return
	}

	t.Apply(record)
	d.notify(*record)
	log.WithFields(record.LogFields()).Warnf("Deployment failed: %s", record.GetErrorMessage())
}

// publish calls the platform in a separate goroutine so that neither a panic nor
// a publisher ignoring its context can hold the driver hostage.
func (d *Driver) publish(ctx context.Context, record deployment.Deployment) (*platform.Result, error) {
	start := time.Now()

	type response struct {
		result *platform.Result
		err    error
	}

	publisher, err := d.publishers.Publisher(record.Platform)
	if err != nil {
		metrics.Publish(record.Platform, start, err)
		return nil, &deployment.AdapterError{Platform: record.Platform, Err: err}
	}

	if d.config.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.PublishTimeout)
		defer cancel()
	}

	responses := make(chan response, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				responses <- response{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		result, err := publisher.Publish(ctx, record)
		responses <- response{result: result, err: err}
	}()

	var resp response
	select {
	case resp = <-responses:
	case <-ctx.Done():
		resp.err = ErrPublishTimeout
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			resp.err = ctx.Err()
		}
	}

	if resp.err == nil && resp.result == nil {
		resp.err = fmt.Errorf("publisher returned no result")
	}

	metrics.Publish(record.Platform, start, resp.err)

	if resp.err != nil {
		return nil, &deployment.AdapterError{Platform: record.Platform, Err: resp.err}
	}

	return resp.result, nil
}

func (d *Driver) outcome(id string, result *platform.Result, err error) deployment.Transition {
	now := d.clock()
	switch {
	case err != nil:
		return deployment.NewFailureTransition(id, deployment.InternalFailureMessage, now)
	case !result.Success:
		return deployment.NewFailureTransition(id, result.Message, now)
	case len(result.PreviewURL) == 0:
		log.WithField(deployment.LogFieldDeploymentID, id).Errorf("Publisher reported success without a preview URL")
		return deployment.NewFailureTransition(id, deployment.InternalFailureMessage, now)
	default:
		return deployment.NewSuccessTransition(id, result.PreviewURL, now)
	}
}

// write stores the transition, retrying errors that might be transient.
func (d *Driver) write(ctx context.Context, t deployment.Transition) error {
	var err error

	for attempt := 1; attempt <= d.config.WriteAttempts; attempt++ {
		err = d.store.TransitionDeployment(ctx, t)
		if err == nil || permanent(err) {
			return err
		}

		log.WithFields(t.LogFields()).Warnf("Write %s state (attempt %d of %d): %s", t.To, attempt, d.config.WriteAttempts, err)

		if attempt == d.config.WriteAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return &deployment.PersistenceError{Op: fmt.Sprintf("write %s state", t.To), Err: ctx.Err()}
		case <-time.After(d.config.WriteBackoff * time.Duration(attempt)):
		}
	}

	return &deployment.PersistenceError{Op: fmt.Sprintf("write %s state", t.To), Err: err}
}

func permanent(err error) bool {
	return database.IsErrStateConflict(err) ||
		database.IsErrNotFound(err) ||
		errors.Is(err, deployment.ErrInvalidTransition)
}

func (d *Driver) notify(record deployment.Deployment) {
	status := record.CurrentStatus()
	metrics.UpdateQueue(status, record.Created)
	if d.statuses != nil {
		d.statuses.Publish(status)
	}
}
