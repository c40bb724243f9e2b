// Package broker fans out deployment status changes to interested subscribers.
package broker

import (
	"context"
	"sync"

	"github.com/nais/publish/pkg/deployment"
	log "github.com/sirupsen/logrus"
)

type subscription struct {
	deploymentID string
	channel      chan deployment.Status
}

type Broker struct {
	lock          sync.RWMutex
	subscriptions map[*subscription]struct{}
}

func New() *Broker {
	return &Broker{
		subscriptions: make(map[*subscription]struct{}),
	}
}

// Publish delivers the status to all matching subscribers without blocking.
// Subscribers that are not keeping up lose the message.
func (b *Broker) Publish(status deployment.Status) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	for sub := range b.subscriptions {
		if len(sub.deploymentID) > 0 && sub.deploymentID != status.DeploymentID {
			continue
		}
		select {
		case sub.channel <- status:
		default:
			log.WithField(deployment.LogFieldDeploymentID, status.DeploymentID).Warnf("Status subscriber is not keeping up; dropped %s status", status.State)
		}
	}
}

// Subscribe returns a channel of status changes for one deployment, or for all deployments
// if deploymentID is empty. The channel is closed when ctx is done.
func (b *Broker) Subscribe(ctx context.Context, deploymentID string, buffer int) <-chan deployment.Status {
	sub := &subscription{
		deploymentID: deploymentID,
		channel:      make(chan deployment.Status, buffer),
	}

	b.lock.Lock()
	b.subscriptions[sub] = struct{}{}
	b.lock.Unlock()

	go func() {
		<-ctx.Done()

		b.lock.Lock()
		delete(b.subscriptions, sub)
		b.lock.Unlock()

		close(sub.channel)
	}()

	return sub.channel
}

func (b *Broker) Subscribers() int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return len(b.subscriptions)
}
