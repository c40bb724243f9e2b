package lifecycle_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nais/publish/pkg/deployment"
	"github.com/nais/publish/pkg/publishd/database"
	"github.com/nais/publish/pkg/publishd/identity"
	"github.com/nais/publish/pkg/publishd/platform"
)

var owner = identity.User{ID: "user-1", Email: "ada@example.com", Name: "Ada"}

type publisherFunc func(ctx context.Context, d deployment.Deployment) (*platform.Result, error)

func (f publisherFunc) Publish(ctx context.Context, d deployment.Deployment) (*platform.Result, error) {
	return f(ctx, d)
}

func registry(p platform.Publisher) platform.Registry {
	return platform.Registry{
		deployment.PlatformVercel:  p,
		deployment.PlatformNetlify: p,
	}
}

type fault struct {
	id    string
	stage string
	err   error
}

type recordingReporter struct {
	lock   sync.Mutex
	faults []fault
}

func (r *recordingReporter) ReportFault(_ context.Context, id, stage string, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.faults = append(r.faults, fault{id: id, stage: stage, err: err})
}

func (r *recordingReporter) Faults() []fault {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]fault(nil), r.faults...)
}

type statusRecorder struct {
	lock     sync.Mutex
	statuses []deployment.Status
}

func (s *statusRecorder) Publish(status deployment.Status) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.statuses = append(s.statuses, status)
}

func (s *statusRecorder) States() []deployment.State {
	s.lock.Lock()
	defer s.lock.Unlock()
	states := make([]deployment.State, 0, len(s.statuses))
	for _, st := range s.statuses {
		states = append(states, st.State)
	}
	return states
}

type statusFunc func(status deployment.Status)

func (f statusFunc) Publish(status deployment.Status) {
	f(status)
}

// flakyStore rejects the first failTerminal writes of a terminal state.
type flakyStore struct {
	*database.MemoryStore
	lock         sync.Mutex
	failTerminal int
}

func (s *flakyStore) TransitionDeployment(ctx context.Context, t deployment.Transition) error {
	s.lock.Lock()
	fail := t.To.Finished() && s.failTerminal > 0
	if fail {
		s.failTerminal--
	}
	s.lock.Unlock()

	if fail {
		return errors.New("connection reset")
	}
	return s.MemoryStore.TransitionDeployment(ctx, t)
}

func newPending(t *testing.T, store *database.MemoryStore, id string, created time.Time) deployment.Deployment {
	d := deployment.NewPending(id, owner.ID, "my-site", deployment.PlatformVercel, deployment.SourceUpload, "https://cdn.example.com/artifacts/site.zip", created)
	if err := store.CreateDeployment(context.Background(), owner, d); err != nil {
		t.Fatal(err)
	}
	return d
}

func load(t *testing.T, store database.DeploymentStore, id string) *deployment.Deployment {
	d, err := store.Deployment(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return d
}
