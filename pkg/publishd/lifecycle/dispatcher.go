package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nais/publish/pkg/deployment"
	"github.com/nais/publish/pkg/publishd/metrics"
	log "github.com/sirupsen/logrus"
)

var (
	ErrQueueFull     = errors.New("work queue is full")
	ErrAlreadyQueued = errors.New("deployment is already queued or running")
	ErrStopped       = errors.New("dispatcher is shutting down")
)

type Runner interface {
	Run(ctx context.Context, id string)
}

// Enqueuer accepts deployment ids for background processing.
type Enqueuer interface {
	Enqueue(id string) error
}

// Tracker knows which deployments are being worked on by this process.
type Tracker interface {
	Active(id string) bool
}

// Dispatcher runs deployments on a fixed number of workers fed by a bounded queue.
// A deployment id is accepted at most once until its run has finished.
type Dispatcher struct {
	runner   Runner
	reporter FaultReporter
	queue    chan string
	workers  int

	lock    sync.Mutex
	active  map[string]struct{}
	stopped bool
	started bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

var (
	_ Enqueuer = &Dispatcher{}
	_ Tracker  = &Dispatcher{}
)

func NewDispatcher(runner Runner, reporter FaultReporter, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Dispatcher{
		runner:   runner,
		reporter: reporter,
		queue:    make(chan string, queueSize),
		workers:  workers,
		active:   make(map[string]struct{}),
		stop:     make(chan struct{}),
	}
}

// Start launches the workers. Runs use ctx, which should outlive individual requests.
func (d *Dispatcher) Start(ctx context.Context) {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.started || d.stopped {
		return
	}
	d.started = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(ctx)
	}

	log.Infof("Started %d deployment workers with queue capacity %d", d.workers, cap(d.queue))
}

// Enqueue schedules a deployment without waiting for it to run.
func (d *Dispatcher) Enqueue(id string) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.stopped {
		return ErrStopped
	}

	if _, ok := d.active[id]; ok {
		return ErrAlreadyQueued
	}

	select {
	case d.queue <- id:
		d.active[id] = struct{}{}
		metrics.SetWorkQueueDepth(len(d.queue))
		return nil
	default:
		return ErrQueueFull
	}
}

// Active reports whether the deployment is waiting in the queue or running.
func (d *Dispatcher) Active(id string) bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	_, ok := d.active[id]
	return ok
}

// Shutdown stops accepting work and waits for running deployments to finish.
// Deployments still waiting in the queue stay pending and are picked up on the next start.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.lock.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.stop)
	}
	d.lock.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for deployment workers: %w", ctx.Err())
	}
}

func (d *Dispatcher) work(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-d.stop:
			return
		case id := <-d.queue:
			metrics.SetWorkQueueDepth(len(d.queue))
			d.run(ctx, id)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, id string) {
	defer func() {
		d.lock.Lock()
		delete(d.active, id)
		d.lock.Unlock()
	}()

	defer func() {
		if r := recover(); r != nil {
			d.reporter.ReportFault(ctx, id, StagePanic, fmt.Errorf("panic: %v", r))
		}
	}()

	log.WithField(deployment.LogFieldDeploymentID, id).Debugf("Worker picked up deployment")
	d.runner.Run(ctx, id)
}
