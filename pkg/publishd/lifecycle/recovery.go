package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/nais/publish/pkg/deployment"
	"github.com/nais/publish/pkg/publishd/database"
	"github.com/nais/publish/pkg/publishd/metrics"
	log "github.com/sirupsen/logrus"
)

// Recoverer finds deployments that have stalled and gets them moving again.
type Recoverer struct {
	store    database.DeploymentStore
	queue    Enqueuer
	tracker  Tracker
	statuses StatusPublisher
	reporter FaultReporter
	clock    func() time.Time
}

// NewRecoverer creates a Recoverer. If queue also implements Tracker, deployments
// it reports as active are never considered stalled.
func NewRecoverer(store database.DeploymentStore, queue Enqueuer, statuses StatusPublisher, reporter FaultReporter) *Recoverer {
	tracker, _ := queue.(Tracker)
	return &Recoverer{
		tracker:  tracker,
		store:    store,
		queue:    queue,
		statuses: statuses,
		reporter: reporter,
		clock:    time.Now,
	}
}

// InterruptStale fails deployments that a previous process left in progress.
// Must be called before any worker of this process has claimed a deployment.
func (r *Recoverer) InterruptStale(ctx context.Context, startup time.Time) (int, error) {
	stale, err := r.store.DeploymentsInState(ctx, deployment.StateInProgress, startup)
	if err != nil {
		return 0, err
	}

	return r.fail(ctx, stale, "Deployment was interrupted by a restart and has been marked as failed")
}

// FailStalled fails in progress deployments that have not changed since before the given time
// and are not being worked on by this process.
func (r *Recoverer) FailStalled(ctx context.Context, before time.Time) (int, error) {
	stalled, err := r.store.DeploymentsUpdatedBefore(ctx, deployment.StateInProgress, before)
	if err != nil {
		return 0, err
	}

	abandoned := make([]*deployment.Deployment, 0, len(stalled))
	for _, d := range stalled {
		if r.tracker != nil && r.tracker.Active(d.ID) {
			continue
		}
		abandoned = append(abandoned, d)
	}

	return r.fail(ctx, abandoned, "Deployment stalled in progress and has been marked as failed")
}

func (r *Recoverer) fail(ctx context.Context, deployments []*deployment.Deployment, message string) (int, error) {
	count := 0
	for _, d := range deployments {
		t := deployment.NewFailureTransition(d.ID, deployment.InternalFailureMessage, r.clock())
		err := r.store.TransitionDeployment(ctx, t)
		if database.IsErrStateConflict(err) {
			continue
		} else if err != nil {
			return count, err
		}

		t.Apply(d)
		metrics.UpdateQueue(d.CurrentStatus(), d.Created)
		if r.statuses != nil {
			r.statuses.Publish(d.CurrentStatus())
		}
		log.WithFields(d.LogFields()).Warn(message)
		count++
	}

	return count, nil
}

// RequeuePending schedules pending deployments created before the given time.
// It stops early when the queue is full; the rest are picked up on the next pass.
func (r *Recoverer) RequeuePending(ctx context.Context, before time.Time) (int, error) {
	pending, err := r.store.DeploymentsInState(ctx, deployment.StatePending, before)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, d := range pending {
		err = r.queue.Enqueue(d.ID)
		switch {
		case err == nil:
			count++
		case errors.Is(err, ErrAlreadyQueued):
		case errors.Is(err, ErrQueueFull), errors.Is(err, ErrStopped):
			return count, nil
		default:
			return count, err
		}
	}

	return count, nil
}

// Run requeues pending deployments older than minAge every interval until ctx is done.
// When stallAge is positive, deployments in progress for longer than that are failed.
func (r *Recoverer) Run(ctx context.Context, interval, minAge, stallAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx, minAge, stallAge)
		}
	}
}

func (r *Recoverer) sweep(ctx context.Context, minAge, stallAge time.Duration) {
	now := r.clock()

	if stallAge > 0 {
		count, err := r.FailStalled(ctx, now.Add(-stallAge))
		if err != nil {
			r.reporter.ReportFault(ctx, "", StageRecover, err)
		} else if count > 0 {
			log.Warnf("Failed %d deployments stalled in progress", count)
		}
	}

	count, err := r.RequeuePending(ctx, now.Add(-minAge))
	if err != nil {
		r.reporter.ReportFault(ctx, "", StageRecover, err)
	} else if count > 0 {
		log.Infof("Requeued %d stalled pending deployments", count)
	}
}
