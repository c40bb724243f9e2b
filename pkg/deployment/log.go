package deployment

import (
	log "github.com/sirupsen/logrus"
)

const (
	LogFieldCorrelationID    = "correlation_id"
	LogFieldDeploymentID     = "deployment_id"
	LogFieldDeploymentStatus = "deployment_status"
	LogFieldOwner            = "owner"
	LogFieldPlatform         = "platform"
	LogFieldProject          = "project"
	LogFieldSourceType       = "source_type"
)

func (d Deployment) LogFields() log.Fields {
	return log.Fields{
		LogFieldCorrelationID:    d.ID,
		LogFieldDeploymentID:     d.ID,
		LogFieldDeploymentStatus: d.Status.String(),
		LogFieldOwner:            d.OwnerID,
		LogFieldPlatform:         d.Platform.String(),
		LogFieldProject:          d.ProjectName,
		LogFieldSourceType:       string(d.SourceType),
	}
}

func (t Transition) LogFields() log.Fields {
	return log.Fields{
		LogFieldCorrelationID:    t.DeploymentID,
		LogFieldDeploymentID:     t.DeploymentID,
		LogFieldDeploymentStatus: t.To.String(),
	}
}
