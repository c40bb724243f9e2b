package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nais/publish/pkg/deployment"
	"github.com/nais/publish/pkg/publishd/identity"
)

var _ DeploymentStore = &MemoryStore{}

// MemoryStore keeps deployments in process memory. Records are lost on restart.
type MemoryStore struct {
	lock        sync.RWMutex
	users       map[string]identity.User
	deployments map[string]deployment.Deployment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]identity.User),
		deployments: make(map[string]deployment.Deployment),
	}
}

func (m *MemoryStore) CreateDeployment(_ context.Context, owner identity.User, d deployment.Deployment) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if _, exists := m.deployments[d.ID]; exists {
		return fmt.Errorf("deployment %s already exists", d.ID)
	}

	m.users[owner.ID] = owner
	m.deployments[d.ID] = d
	return nil
}

func (m *MemoryStore) Deployment(_ context.Context, id string) (*deployment.Deployment, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	d, ok := m.deployments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (m *MemoryStore) Deployments(_ context.Context, owner string) ([]*deployment.Deployment, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	deployments := make([]*deployment.Deployment, 0)
	for _, d := range m.deployments {
		if d.OwnerID != owner {
			continue
		}
		d := d
		deployments = append(deployments, &d)
	}

	sort.SliceStable(deployments, func(i, j int) bool {
		return deployments[i].Created.After(deployments[j].Created)
	})

	return deployments, nil
}

func (m *MemoryStore) DeploymentsInState(_ context.Context, state deployment.State, before time.Time) ([]*deployment.Deployment, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	deployments := make([]*deployment.Deployment, 0)
	for _, d := range m.deployments {
		if d.Status != state || !d.Created.Before(before) {
			continue
		}
		d := d
		deployments = append(deployments, &d)
	}

	sort.SliceStable(deployments, func(i, j int) bool {
		return deployments[i].Created.Before(deployments[j].Created)
	})

	return deployments, nil
}

func (m *MemoryStore) DeploymentsUpdatedBefore(_ context.Context, state deployment.State, before time.Time) ([]*deployment.Deployment, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	deployments := make([]*deployment.Deployment, 0)
	for _, d := range m.deployments {
		if d.Status != state || !d.Updated.Before(before) {
			continue
		}
		d := d
		deployments = append(deployments, &d)
	}

	sort.SliceStable(deployments, func(i, j int) bool {
		return deployments[i].Updated.Before(deployments[j].Updated)
	})

	return deployments, nil
}

func (m *MemoryStore) TransitionDeployment(_ context.Context, t deployment.Transition) error {
	if err := t.Validate(); err != nil {
		return err
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	d, ok := m.deployments[t.DeploymentID]
	if !ok {
		return ErrNotFound
	}

	if d.Status != t.From {
		return checkConflict(d, t)
	}

	t.Apply(&d)
	m.deployments[d.ID] = d

	return nil
}

// User returns a previously stored deployment owner.
func (m *MemoryStore) User(id string) (identity.User, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	user, ok := m.users[id]
	return user, ok
}
